package subscription

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/dmitrymomot/saasgate/pkg/entitlement"
)

// DB is the subset of *pgxpool.Pool used by PostgresStore.
type DB interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

// PostgresStore persists subscriptions in the subscriptions table.
type PostgresStore struct {
	db DB
}

// NewPostgresStore panics on a nil DB to fail fast during wiring.
func NewPostgresStore(db DB) *PostgresStore {
	if db == nil {
		panic("subscription: DB is required")
	}
	return &PostgresStore{db: db}
}

const selectSubscription = `
SELECT account_id, plan, status, provider_sub_id,
       current_period_start, current_period_end, trial_ends_at, canceled_at,
       created_at, updated_at
FROM subscriptions
WHERE account_id = $1`

const upsertSubscription = `
INSERT INTO subscriptions (
    account_id, plan, status, provider_sub_id,
    current_period_start, current_period_end, trial_ends_at, canceled_at,
    created_at, updated_at
) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
ON CONFLICT (account_id) DO UPDATE SET
    plan = EXCLUDED.plan,
    status = EXCLUDED.status,
    provider_sub_id = EXCLUDED.provider_sub_id,
    current_period_start = EXCLUDED.current_period_start,
    current_period_end = EXCLUDED.current_period_end,
    trial_ends_at = EXCLUDED.trial_ends_at,
    canceled_at = EXCLUDED.canceled_at,
    updated_at = EXCLUDED.updated_at`

func (s *PostgresStore) Get(ctx context.Context, accountID uuid.UUID) (*Subscription, error) {
	var (
		sub    Subscription
		plan   string
		status string
	)
	err := s.db.QueryRow(ctx, selectSubscription, accountID).Scan(
		&sub.AccountID, &plan, &status, &sub.ProviderSubID,
		&sub.CurrentPeriodStart, &sub.CurrentPeriodEnd, &sub.TrialEndsAt, &sub.CanceledAt,
		&sub.CreatedAt, &sub.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrSubscriptionNotFound
		}
		return nil, errors.Join(ErrFailedToLoadSubscription, err)
	}
	sub.Plan = entitlement.PlanID(plan)
	sub.Status = Status(status)
	return &sub, nil
}

func (s *PostgresStore) Save(ctx context.Context, sub *Subscription) error {
	if err := Validate(sub); err != nil {
		return err
	}
	_, err := s.db.Exec(ctx, upsertSubscription,
		sub.AccountID, string(sub.Plan), string(sub.Status), sub.ProviderSubID,
		sub.CurrentPeriodStart, sub.CurrentPeriodEnd, sub.TrialEndsAt, sub.CanceledAt,
		sub.CreatedAt, sub.UpdatedAt,
	)
	if err != nil {
		return errors.Join(ErrFailedToSaveSubscription, err)
	}
	return nil
}
