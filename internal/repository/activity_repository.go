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

// ActivityRepository stores combined activity records as JSONB documents.
type ActivityRepository interface {
	// ListWindow returns a customer's activities with a timestamp in
	// [from, to], ordered ascending by timestamp.
	ListWindow(ctx context.Context, customerID string, from, to time.Time) ([]*domain.Activity, error)
	ListByActor(ctx context.Context, customerID, actorID string, from, to time.Time) ([]*domain.Activity, error)
	GetByID(ctx context.Context, customerID, id string) (*domain.Activity, error)
	Upsert(ctx context.Context, activity *domain.Activity) error
	Delete(ctx context.Context, customerID string, ids []string) error
	// ApplyCombination stores the surviving record and removes the absorbed
	// ones in a single transaction.
	ApplyCombination(ctx context.Context, survivor *domain.Activity, absorbedIDs []string) error
}

type activityRepository struct {
	pool *pgxpool.Pool
}

// NewActivityRepository instantiates repository.
func NewActivityRepository(pool *pgxpool.Pool) ActivityRepository {
	return &activityRepository{pool: pool}
}

const upsertActivityQuery = `
        INSERT INTO activities (id, customer_id, actor_id, ts, created_ts, doc)
        VALUES ($1,$2,$3,$4,$5,$6)
        ON CONFLICT (customer_id, id) DO UPDATE SET
            actor_id=EXCLUDED.actor_id, ts=EXCLUDED.ts, created_ts=EXCLUDED.created_ts,
            doc=EXCLUDED.doc, updated_at=NOW()`

const deleteActivitiesQuery = `DELETE FROM activities WHERE customer_id=$1 AND id = ANY($2)`

func (r *activityRepository) ListWindow(ctx context.Context, customerID string, from, to time.Time) ([]*domain.Activity, error) {
	const query = `
        SELECT doc FROM activities
        WHERE customer_id=$1 AND ts >= $2 AND ts <= $3
        ORDER BY ts ASC, created_ts ASC`
	return r.list(ctx, query, customerID, from, to)
}

func (r *activityRepository) ListByActor(ctx context.Context, customerID, actorID string, from, to time.Time) ([]*domain.Activity, error) {
	const query = `
        SELECT doc FROM activities
        WHERE customer_id=$1 AND actor_id=$2 AND ts >= $3 AND ts <= $4
        ORDER BY ts ASC, created_ts ASC`
	return r.list(ctx, query, customerID, actorID, from, to)
}

func (r *activityRepository) GetByID(ctx context.Context, customerID, id string) (*domain.Activity, error) {
	const query = `SELECT doc FROM activities WHERE customer_id=$1 AND id=$2`
	var doc []byte
	if err := r.pool.QueryRow(ctx, query, customerID, id).Scan(&doc); err != nil {
		return nil, err
	}
	return decodeActivity(doc)
}

func (r *activityRepository) Upsert(ctx context.Context, activity *domain.Activity) error {
	args, err := upsertArgs(activity)
	if err != nil {
		return err
	}
	_, err = r.pool.Exec(ctx, upsertActivityQuery, args...)
	return err
}

func (r *activityRepository) Delete(ctx context.Context, customerID string, ids []string) error {
	if len(ids) == 0 {
		return nil
	}
	_, err := r.pool.Exec(ctx, deleteActivitiesQuery, customerID, ids)
	return err
}

func (r *activityRepository) ApplyCombination(ctx context.Context, survivor *domain.Activity, absorbedIDs []string) error {
	args, err := upsertArgs(survivor)
	if err != nil {
		return err
	}
	return pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		if len(absorbedIDs) > 0 {
			if _, err := tx.Exec(ctx, deleteActivitiesQuery, survivor.CustomerID, absorbedIDs); err != nil {
				return fmt.Errorf("delete absorbed: %w", err)
			}
		}
		if _, err := tx.Exec(ctx, upsertActivityQuery, args...); err != nil {
			return fmt.Errorf("upsert survivor: %w", err)
		}
		return nil
	})
}

func (r *activityRepository) list(ctx context.Context, query string, args ...any) ([]*domain.Activity, error) {
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []*domain.Activity
	for rows.Next() {
		var doc []byte
		if err := rows.Scan(&doc); err != nil {
			return nil, err
		}
		activity, err := decodeActivity(doc)
		if err != nil {
			return nil, err
		}
		result = append(result, activity)
	}
	return result, rows.Err()
}

func upsertArgs(activity *domain.Activity) ([]any, error) {
	doc, err := json.Marshal(activity)
	if err != nil {
		return nil, fmt.Errorf("encode activity %s: %w", activity.ID, err)
	}
	return []any{
		activity.ID,
		activity.CustomerID,
		activity.ActorID,
		activity.Timestamp,
		activity.CreatedTimestamp,
		doc,
	}, nil
}

func decodeActivity(doc []byte) (*domain.Activity, error) {
	var activity domain.Activity
	if err := json.Unmarshal(doc, &activity); err != nil {
		return nil, fmt.Errorf("decode activity: %w", err)
	}
	return &activity, nil
}
