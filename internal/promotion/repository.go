package promotion

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

var (
	ErrPromotionNotFound = errors.New("promotion not found")
	ErrUsageLimitReached = errors.New("promotion usage limit reached")
)

// Execer is satisfied by *pgxpool.Pool and pgx.Tx, so usage can be committed
// inside the caller's transaction.
type Execer interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
}

type Repository interface {
	FindActiveByCode(ctx context.Context, businessID int64, code string) (*Promotion, error)
	IncrementUsage(ctx context.Context, db Execer, promotionID int64) error
}

type postgresRepository struct {
	db *pgxpool.Pool
}

func NewRepository(db *pgxpool.Pool) Repository {
	return &postgresRepository{db: db}
}

func (r *postgresRepository) FindActiveByCode(ctx context.Context, businessID int64, code string) (*Promotion, error) {
	query := `
		SELECT id, business_id, name, code, kind, value::text, rules, starts_at, ends_at,
		       active, uses_total_limit, uses_current
		FROM promotions
		WHERE business_id = $1 AND active AND LOWER(code) = LOWER($2)
		ORDER BY id DESC
		LIMIT 1
	`

	var (
		p     Promotion
		value string
		rules []byte
	)
	err := r.db.QueryRow(ctx, query, businessID, code).Scan(
		&p.ID,
		&p.BusinessID,
		&p.Name,
		&p.Code,
		&p.Kind,
		&value,
		&rules,
		&p.StartsAt,
		&p.EndsAt,
		&p.Active,
		&p.UsesTotalLimit,
		&p.UsesCurrent,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrPromotionNotFound
		}
		return nil, fmt.Errorf("repository: failed to select promotion for business %d: %w", businessID, err)
	}

	p.Value, err = decimal.NewFromString(value)
	if err != nil {
		return nil, fmt.Errorf("repository: invalid value on promotion %d: %w", p.ID, err)
	}

	if len(rules) > 0 {
		if err := json.Unmarshal(rules, &p.Rules); err != nil {
			return nil, fmt.Errorf("repository: invalid rules on promotion %d: %w", p.ID, err)
		}
	}

	return &p, nil
}

// IncrementUsage adds one use to the promotion, but only while it is still
// under its limit. The check and the increment are a single statement.
func (r *postgresRepository) IncrementUsage(ctx context.Context, db Execer, promotionID int64) error {
	if db == nil {
		db = r.db
	}

	query := `
		UPDATE promotions
		SET uses_current = uses_current + 1
		WHERE id = $1
		  AND (uses_total_limit IS NULL OR uses_total_limit <= 0 OR uses_current < uses_total_limit)
	`

	cmdTag, err := db.Exec(ctx, query, promotionID)
	if err != nil {
		return fmt.Errorf("repository: failed to increment usage of promotion %d: %w", promotionID, err)
	}

	if cmdTag.RowsAffected() == 0 {
		return ErrUsageLimitReached
	}

	return nil
}
