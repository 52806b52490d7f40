package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/activity-service/internal/domain"
)

// TicketStatsRepository stores the per-actor per-day ticket time series.
type TicketStatsRepository interface {
	Upsert(ctx context.Context, stats []domain.DailyTicketStats) error
	ListRange(ctx context.Context, customerID string, from, to time.Time) ([]domain.DailyTicketStats, error)
}

type ticketStatsRepository struct {
	pool *pgxpool.Pool
}

// NewTicketStatsRepository builds repository.
func NewTicketStatsRepository(pool *pgxpool.Pool) TicketStatsRepository {
	return &ticketStatsRepository{pool: pool}
}

func (r *ticketStatsRepository) Upsert(ctx context.Context, stats []domain.DailyTicketStats) error {
	if len(stats) == 0 {
		return nil
	}
	const query = `
        INSERT INTO actor_ticket_stats (customer_id, actor_id, day, tickets, effort, launch_effort)
        VALUES ($1,$2,$3,$4,$5,$6)
        ON CONFLICT (customer_id, actor_id, day) DO UPDATE SET
            tickets=EXCLUDED.tickets, effort=EXCLUDED.effort,
            launch_effort=EXCLUDED.launch_effort, updated_at=NOW()`

	batch := &pgx.Batch{}
	for _, row := range stats {
		tickets, err := json.Marshal(row.Tickets)
		if err != nil {
			return fmt.Errorf("encode tickets: %w", err)
		}
		launchEffort := row.LaunchEffort
		if launchEffort == nil {
			launchEffort = map[string]float64{}
		}
		effort, err := json.Marshal(launchEffort)
		if err != nil {
			return fmt.Errorf("encode launch effort: %w", err)
		}
		batch.Queue(query, row.CustomerID, row.ActorID, row.Day, tickets, row.Effort, effort)
	}

	results := r.pool.SendBatch(ctx, batch)
	defer results.Close()
	for range stats {
		if _, err := results.Exec(); err != nil {
			return err
		}
	}
	return nil
}

func (r *ticketStatsRepository) ListRange(ctx context.Context, customerID string, from, to time.Time) ([]domain.DailyTicketStats, error) {
	const query = `
        SELECT customer_id, actor_id, day, tickets, effort, launch_effort
        FROM actor_ticket_stats
        WHERE customer_id=$1 AND day >= $2::date AND day <= $3::date
        ORDER BY day ASC, actor_id ASC`
	rows, err := r.pool.Query(ctx, query, customerID, from, to)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.DailyTicketStats
	for rows.Next() {
		var (
			row          domain.DailyTicketStats
			tickets      []byte
			launchEffort []byte
		)
		if err := rows.Scan(&row.CustomerID, &row.ActorID, &row.Day, &tickets, &row.Effort, &launchEffort); err != nil {
			return nil, err
		}
		if err := json.Unmarshal(tickets, &row.Tickets); err != nil {
			return nil, fmt.Errorf("decode tickets: %w", err)
		}
		if len(launchEffort) > 0 {
			if err := json.Unmarshal(launchEffort, &row.LaunchEffort); err != nil {
				return nil, fmt.Errorf("decode launch effort: %w", err)
			}
		}
		row.Day = row.Day.UTC()
		result = append(result, row)
	}
	return result, rows.Err()
}
