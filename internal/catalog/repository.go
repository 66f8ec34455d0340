package catalog

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/pedilo/storefront/internal/apperr"
	"github.com/pedilo/storefront/internal/topping"
)

// Repository is the read side of the catalog used by checkout. Catalog CRUD
// lives elsewhere.
type Repository interface {
	GetBusinessBySlug(ctx context.Context, slug string) (*Business, error)
	GetProductsByIDs(ctx context.Context, ids []int64) ([]Product, error)
	GetToppingGroupsByProductIDs(ctx context.Context, ids []int64) (map[int64][]topping.Group, error)
}

type repository struct {
	db *sqlx.DB
}

func NewRepository(db *sqlx.DB) Repository {
	return &repository{db: db}
}

func (r *repository) GetBusinessBySlug(ctx context.Context, slug string) (*Business, error) {
	query := `
		SELECT id, slug, name, payment_methods, delivery_types, accepts_orders, kind, minimum_order_amount, active
		FROM businesses
		WHERE slug = $1 AND active
	`

	var b Business
	if err := r.db.GetContext(ctx, &b, query, slug); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperr.New(apperr.ErrBusinessNotFound, "business not found")
		}
		return nil, fmt.Errorf("repository: failed to select business by slug %q: %w", slug, err)
	}

	return &b, nil
}

// GetProductsByIDs returns the active products among ids. Missing ids are
// simply absent from the result.
func (r *repository) GetProductsByIDs(ctx context.Context, ids []int64) ([]Product, error) {
	if len(ids) == 0 {
		return []Product{}, nil
	}

	query, args, err := sqlx.In(`
		SELECT id, business_id, category_id, name, price, wholesale_price, wholesale_threshold,
		       minimum_order_quantity, unit, in_stock
		FROM products
		WHERE id IN (?) AND active
	`, ids)
	if err != nil {
		return nil, fmt.Errorf("repository: failed to build products query: %w", err)
	}

	products := make([]Product, 0, len(ids))
	if err := r.db.SelectContext(ctx, &products, r.db.Rebind(query), args...); err != nil {
		return nil, fmt.Errorf("repository: failed to select products: %w", err)
	}

	return products, nil
}

type toppingRow struct {
	ProductID     int64          `db:"product_id"`
	GroupID       int64          `db:"group_id"`
	GroupName     string         `db:"group_name"`
	MinSelections int            `db:"min_selections"`
	MaxSelections int            `db:"max_selections"`
	ToppingID     sql.NullInt64  `db:"topping_id"`
	ToppingName   sql.NullString `db:"topping_name"`
	ExtraPrice    sql.NullInt64  `db:"extra_price"`
	Available     sql.NullBool   `db:"available"`
}

// GetToppingGroupsByProductIDs loads the topping configuration of every
// product in ids with a single query. Products without configured groups have
// no key in the result.
func (r *repository) GetToppingGroupsByProductIDs(ctx context.Context, ids []int64) (map[int64][]topping.Group, error) {
	result := make(map[int64][]topping.Group)
	if len(ids) == 0 {
		return result, nil
	}

	query := `
		SELECT ptg.product_id, g.id AS group_id, g.name AS group_name,
		       ptg.min_selections, ptg.max_selections,
		       t.id AS topping_id, t.name AS topping_name, t.extra_price, t.available
		FROM product_topping_groups ptg
		JOIN topping_groups g ON g.id = ptg.group_id AND g.active
		LEFT JOIN toppings t ON t.group_id = g.id AND t.active
		WHERE ptg.product_id = ANY($1)
		ORDER BY ptg.product_id, ptg.id, t.id
	`

	var rows []toppingRow
	if err := r.db.SelectContext(ctx, &rows, query, pq.Array(ids)); err != nil {
		return nil, fmt.Errorf("repository: failed to select topping groups: %w", err)
	}

	for _, row := range rows {
		groups := result[row.ProductID]
		last := len(groups) - 1
		if last < 0 || groups[last].ID != row.GroupID {
			groups = append(groups, topping.Group{
				ID:            row.GroupID,
				Name:          row.GroupName,
				MinSelections: row.MinSelections,
				MaxSelections: row.MaxSelections,
				Toppings:      []topping.Topping{},
			})
			last++
		}
		if row.ToppingID.Valid {
			groups[last].Toppings = append(groups[last].Toppings, topping.Topping{
				ID:        row.ToppingID.Int64,
				GroupID:   row.GroupID,
				Name:      row.ToppingName.String,
				Price:     row.ExtraPrice.Int64,
				Available: row.Available.Bool,
			})
		}
		result[row.ProductID] = groups
	}

	return result, nil
}
