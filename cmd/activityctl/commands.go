package main

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/spec-kit/activity-service/internal/api/dto"
	"github.com/spec-kit/activity-service/internal/auth"
	"github.com/spec-kit/activity-service/internal/combiner"
	"github.com/spec-kit/activity-service/internal/config"
	"github.com/spec-kit/activity-service/internal/domain"
	"github.com/spec-kit/activity-service/internal/grouping"
	"github.com/spec-kit/activity-service/internal/mapper"
)

type combineReport struct {
	Input      int                `json:"input"`
	Output     int                `json:"output"`
	Rules      map[string]int     `json:"rules"`
	Activities []*domain.Activity `json:"activities,omitempty"`
}

func combineCmd(opts *options) *cobra.Command {
	var assign, summaryOnly bool
	cmd := &cobra.Command{
		Use:   "combine [activities.json|-]",
		Short: "Replay an activity export through the combiner",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := opts.logger()
			defer logger.Sync() //nolint:errcheck

			activities, err := readActivities(cmd, args[0])
			if err != nil {
				return err
			}
			var assigner *mapper.Assigner
			if assign {
				p, err := opts.policy()
				if err != nil {
					return err
				}
				if assigner, err = mapper.NewAssigner(mapper.NewCache(), p); err != nil {
					return err
				}
			}

			report := combineReport{Input: len(activities), Rules: map[string]int{}}
			var list []*domain.Activity
			for _, activity := range activities {
				if activity.ID == "" {
					activity.ID = uuid.NewString()
				}
				assigner.Assign(activity)
				var outcome combiner.Outcome
				list, outcome, err = combiner.Combine(activity, list)
				if err != nil {
					return err
				}
				report.Rules[string(outcome.Rule)]++
				if outcome.Merged() {
					logger.Debug("combined",
						zap.String("rule", string(outcome.Rule)),
						zap.String("activity_id", activity.ID),
						zap.String("absorbed_id", outcome.Absorbed.ID))
				}
			}
			report.Output = len(list)
			if !summaryOnly {
				report.Activities = list
			}
			return opts.write(cmd.OutOrStdout(), report)
		},
	}
	cmd.Flags().BoolVar(&assign, "assign", false, "Tag initiatives and launch items from the policy rules first")
	cmd.Flags().BoolVar(&summaryOnly, "summary", false, "Only print counts")
	return cmd
}

func groupCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "group [activities.json|-]",
		Short: "Aggregate activities into top actors, priorities, initiatives and launch items",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			activities, err := readActivities(cmd, args[0])
			if err != nil {
				return err
			}
			return opts.write(cmd.OutOrStdout(), grouping.GroupActivities(activities))
		},
	}
}

func actorCmd(opts *options) *cobra.Command {
	var actorID, customerID string
	var daily bool
	cmd := &cobra.Command{
		Use:   "actor [activities.json|-]",
		Short: "Roll one actor's activities into tickets, launch items and effort",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := opts.policy()
			if err != nil {
				return err
			}
			activities, err := readActivities(cmd, args[0])
			if err != nil {
				return err
			}
			views := make([]domain.ActorActivity, 0, len(activities))
			for _, a := range activities {
				if actorID == "" || a.ActorID == actorID {
					views = append(views, a.ActorView())
				}
			}
			grouper := grouping.NewActorGrouper(p)
			if daily {
				return opts.write(cmd.OutOrStdout(), grouper.DailyStats(customerID, views))
			}
			return opts.write(cmd.OutOrStdout(), grouper.GroupActorActivities(views))
		},
	}
	cmd.Flags().StringVar(&actorID, "actor", "", "Only include this actor")
	cmd.Flags().BoolVar(&daily, "daily", false, "Print per actor per day ticket rows instead")
	cmd.Flags().StringVar(&customerID, "customer", "", "Customer id stamped on daily rows")
	return cmd
}

func launchStatsCmd(opts *options) *cobra.Command {
	var fromDaily bool
	cmd := &cobra.Command{
		Use:   "launch-stats [file|-]",
		Short: "Roll daily ticket rows into launch item status counts",
		Long: `Reads an activity export and derives the per actor daily ticket rows
before rolling them up. With --from-daily the input already holds the rows,
as printed by "actor --daily".`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var rows []domain.DailyTicketStats
			if fromDaily {
				var err error
				if rows, err = readDailyStats(cmd, args[0]); err != nil {
					return err
				}
			} else {
				p, err := opts.policy()
				if err != nil {
					return err
				}
				activities, err := readActivities(cmd, args[0])
				if err != nil {
					return err
				}
				views := make([]domain.ActorActivity, 0, len(activities))
				for _, a := range activities {
					views = append(views, a.ActorView())
				}
				rows = grouping.NewActorGrouper(p).DailyStats("", views)
			}
			return opts.write(cmd.OutOrStdout(), grouping.GroupLaunchStats(rows))
		},
	}
	cmd.Flags().BoolVar(&fromDaily, "from-daily", false, "Input is daily ticket rows")
	return cmd
}

func tokenCmd(opts *options) *cobra.Command {
	var req dto.TokenRequest
	var secret, issuer string
	var ttl int
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Mint a service token for the HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			if !cmd.Flags().Changed("secret") {
				secret = cfg.Auth.JWTSecret
			}
			if !cmd.Flags().Changed("issuer") {
				issuer = cfg.Auth.Issuer
			}
			if !cmd.Flags().Changed("ttl") {
				ttl = cfg.Auth.TokenTTLMinutes
			}
			if req.Customer == "" {
				return fmt.Errorf("--customer is required")
			}
			for _, scope := range req.Scopes {
				if scope != auth.ScopeIngest && scope != auth.ScopeRead {
					return fmt.Errorf("unknown scope %q", scope)
				}
			}
			token, expiresAt, err := auth.NewTokenManager(secret, issuer, ttl).GenerateToken(req.Subject, req.Customer, req.Scopes)
			if err != nil {
				return err
			}
			return opts.write(cmd.OutOrStdout(), dto.TokenResponse{
				AccessToken: token,
				TokenType:   "Bearer",
				ExpiresAt:   expiresAt,
			})
		},
	}
	cmd.Flags().StringVar(&req.Subject, "subject", "activityctl", "Token subject")
	cmd.Flags().StringVar(&req.Customer, "customer", "", "Customer id, or * for every customer")
	cmd.Flags().StringSliceVar(&req.Scopes, "scope", []string{auth.ScopeRead}, "Granted scopes (ingest, read)")
	cmd.Flags().StringVar(&secret, "secret", "", "Signing secret (default AUTH_JWT_SECRET)")
	cmd.Flags().StringVar(&issuer, "issuer", "", "Issuer (default AUTH_ISSUER)")
	cmd.Flags().IntVar(&ttl, "ttl", 0, "Lifetime in minutes (default AUTH_TOKEN_TTL_MINUTES)")
	return cmd
}
