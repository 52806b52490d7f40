package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sort"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/spec-kit/activity-service/internal/config"
	"github.com/spec-kit/activity-service/internal/domain"
	"github.com/spec-kit/activity-service/internal/observability"
	"github.com/spec-kit/activity-service/internal/policy"
)

type options struct {
	policyPath string
	logLevel   string
	compact    bool
}

func newRootCmd() *cobra.Command {
	opts := &options{}
	rootCmd := &cobra.Command{
		Use:           "activityctl",
		Short:         "Offline tools for combining and grouping activity exports",
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.PersistentFlags().StringVar(&opts.policyPath, "policy", os.Getenv("POLICY_PATH"), "Policy YAML overlaying the built-in tables")
	rootCmd.PersistentFlags().StringVar(&opts.logLevel, "log-level", "warn", "Log level written to stderr")
	rootCmd.PersistentFlags().BoolVar(&opts.compact, "compact", false, "Write single line JSON")

	rootCmd.AddCommand(combineCmd(opts))
	rootCmd.AddCommand(groupCmd(opts))
	rootCmd.AddCommand(actorCmd(opts))
	rootCmd.AddCommand(launchStatsCmd(opts))
	rootCmd.AddCommand(tokenCmd(opts))
	return rootCmd
}

func (o *options) logger() *zap.Logger {
	logger, err := observability.NewLogger(config.LoggerConfig{
		Level:    o.logLevel,
		Encoding: "console",
		Output:   "stderr",
	})
	if err != nil {
		return zap.NewNop()
	}
	return logger
}

func (o *options) policy() (*policy.Policy, error) {
	return policy.Load(o.policyPath)
}

func (o *options) write(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	if !o.compact {
		enc.SetIndent("", "  ")
	}
	return enc.Encode(v)
}

// openInput returns the named file, or stdin for "-".
func openInput(cmd *cobra.Command, path string) (io.ReadCloser, error) {
	if path == "-" {
		return io.NopCloser(cmd.InOrStdin()), nil
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	return f, nil
}

// readActivities decodes a JSON array of activities ordered by timestamp.
func readActivities(cmd *cobra.Command, path string) ([]*domain.Activity, error) {
	in, err := openInput(cmd, path)
	if err != nil {
		return nil, err
	}
	defer in.Close()

	var activities []*domain.Activity
	if err := json.NewDecoder(in).Decode(&activities); err != nil {
		return nil, fmt.Errorf("decode activities from %s: %w", path, err)
	}
	kept := activities[:0]
	for _, a := range activities {
		if a != nil {
			kept = append(kept, a)
		}
	}
	sort.SliceStable(kept, func(i, j int) bool { return kept[i].Timestamp.Before(kept[j].Timestamp) })
	return kept, nil
}

func readDailyStats(cmd *cobra.Command, path string) ([]domain.DailyTicketStats, error) {
	in, err := openInput(cmd, path)
	if err != nil {
		return nil, err
	}
	defer in.Close()

	var rows []domain.DailyTicketStats
	if err := json.NewDecoder(in).Decode(&rows); err != nil {
		return nil, fmt.Errorf("decode daily stats from %s: %w", path, err)
	}
	return rows, nil
}
