package promotion_test

import (
	"context"
	"errors"
	"os"
	"sync/atomic"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"

	"github.com/pedilo/storefront/internal/config"
	"github.com/pedilo/storefront/internal/db"
	"github.com/pedilo/storefront/internal/promotion"
)

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

// openTestDB connects to the database named by the DB_*_TEST variables and
// applies migrations. The test is skipped when DB_HOST_TEST is unset.
func openTestDB(t *testing.T) *pgxpool.Pool {
	t.Helper()

	host := os.Getenv("DB_HOST_TEST")
	if host == "" {
		t.Skip("DB_HOST_TEST not set, skipping postgres-backed test")
	}

	cfg := config.PostgresConfig{
		Host:           host,
		Port:           envOr("DB_PORT_TEST", "5432"),
		User:           envOr("DB_USER_TEST", "postgres"),
		Password:       envOr("DB_PASSWORD_TEST", "123456"),
		DBName:         envOr("DB_NAME_TEST", "storefront_test"),
		SSLMode:        envOr("DB_SSLMODE_TEST", "disable"),
		MigrationsPath: "../../migrations",
	}
	require.NoError(t, db.Migrate(cfg))

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	pool, err := pgxpool.New(ctx, db.ConnString(cfg))
	require.NoError(t, err)
	require.NoError(t, pool.Ping(ctx))

	truncate := func() {
		_, err := pool.Exec(context.Background(),
			"TRUNCATE TABLE order_items, orders, promotions, businesses RESTART IDENTITY CASCADE")
		require.NoError(t, err, "failed to truncate tables")
	}
	truncate()
	t.Cleanup(func() {
		truncate()
		pool.Close()
	})

	return pool
}

func seedPromotion(t *testing.T, pool *pgxpool.Pool, code string, limit *int) int64 {
	t.Helper()
	ctx := context.Background()

	var businessID int64
	err := pool.QueryRow(ctx, `
		INSERT INTO businesses (slug, name, payment_methods, delivery_types)
		VALUES ('test-shop', 'Test shop', '{cash}', '{pickup}')
		RETURNING id`).Scan(&businessID)
	require.NoError(t, err)

	var promotionID int64
	err = pool.QueryRow(ctx, `
		INSERT INTO promotions (business_id, name, code, kind, value, rules, starts_at, uses_total_limit)
		VALUES ($1, 'Ten off', $2, 'PERCENTAGE', 10, '{"max_discount": 500, "product_ids": [4, 5]}', NOW() - INTERVAL '1 day', $3)
		RETURNING id`, businessID, code, limit).Scan(&promotionID)
	require.NoError(t, err)

	return promotionID
}

func TestRepository_FindActiveByCode(t *testing.T) {
	pool := openTestDB(t)
	repo := promotion.NewRepository(pool)
	id := seedPromotion(t, pool, "Diez", nil)

	p, err := repo.FindActiveByCode(context.Background(), 1, "dIEZ")
	require.NoError(t, err)
	assert.Equal(t, id, p.ID)
	assert.Equal(t, promotion.KindPercentage, p.Kind)
	assert.True(t, p.Value.Equal(decimal.NewFromInt(10)))
	assert.Equal(t, int64(500), p.Rules.MaxDiscount)
	assert.Equal(t, []int64{4, 5}, p.Rules.ProductIDs)
	assert.Nil(t, p.UsesTotalLimit)

	_, err = repo.FindActiveByCode(context.Background(), 1, "OTHER")
	require.ErrorIs(t, err, promotion.ErrPromotionNotFound)
}

func TestRepository_IncrementUsage_ConcurrentRedemptions(t *testing.T) {
	pool := openTestDB(t)
	repo := promotion.NewRepository(pool)

	limit := 5
	id := seedPromotion(t, pool, "LIMITED", &limit)

	const attempts = 25
	var granted, rejected atomic.Int32

	g, ctx := errgroup.WithContext(context.Background())
	for i := 0; i < attempts; i++ {
		g.Go(func() error {
			err := repo.IncrementUsage(ctx, nil, id)
			switch {
			case err == nil:
				granted.Add(1)
			case errors.Is(err, promotion.ErrUsageLimitReached):
				rejected.Add(1)
			default:
				return err
			}
			return nil
		})
	}
	require.NoError(t, g.Wait())

	assert.Equal(t, int32(limit), granted.Load())
	assert.Equal(t, int32(attempts-limit), rejected.Load())

	var uses int
	require.NoError(t, pool.QueryRow(context.Background(), "SELECT uses_current FROM promotions WHERE id = $1", id).Scan(&uses))
	assert.Equal(t, limit, uses)

	svc := promotion.NewService(repo, nil)
	_, err := svc.Validate(context.Background(), "limited", 1, 1000, nil)
	require.Error(t, err)
}
