package order

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/gofrs/uuid"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog/log"

	"github.com/pedilo/storefront/internal/topping"
)

var (
	ErrOrderNotFound      = errors.New("order not found")
	ErrDuplicateOrderCode = errors.New("order code already in use for this business")
)

const orderCodeConstraint = "orders_business_code_key"

// TxFunc runs inside the order-creation transaction, after header and lines
// are written and before commit. Returning an error rolls everything back.
type TxFunc func(ctx context.Context, tx pgx.Tx) error

type Repository interface {
	CreateOrder(ctx context.Context, order *Order, inTx TxFunc) error
	GetOrderByCode(ctx context.Context, businessID int64, code string) (*Order, error)
}

type postgresRepository struct {
	db *pgxpool.Pool
}

func NewRepository(db *pgxpool.Pool) Repository {
	return &postgresRepository{db: db}
}

func (r *postgresRepository) CreateOrder(ctx context.Context, orderInput *Order, inTx TxFunc) (err error) {
	orderID, err := uuid.NewV4()
	if err != nil {
		return fmt.Errorf("repository: failed to generate order ID: %w", err)
	}

	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("repository: failed to begin transaction: %w", err)
	}
	defer func() {
		if p := recover(); p != nil {
			log.Error().Interface("panic_value", p).Str("order_code", orderInput.Code).Msg("Panic recovered during CreateOrder, rolling back")
			if rbErr := tx.Rollback(ctx); rbErr != nil {
				log.Error().Err(rbErr).Msg("Failed to rollback transaction after panic")
			}
			panic(p)
		} else if err != nil {
			if rbErr := tx.Rollback(ctx); rbErr != nil && !errors.Is(rbErr, pgx.ErrTxClosed) {
				log.Error().Err(rbErr).Str("order_code", orderInput.Code).Msg("Failed to rollback transaction")
			}
		} else if commitErr := tx.Commit(ctx); commitErr != nil {
			log.Error().Err(commitErr).Stringer("order_id", orderID).Msg("Failed to commit transaction")
			err = fmt.Errorf("repository: failed to commit transaction: %w", commitErr)
		}
	}()

	createdAt := time.Now().UTC()

	queryOrder := `
		INSERT INTO orders (id, business_id, code, status, subtotal, discount, total, promotion_id, free_shipping,
		                    payment_method, delivery_type, customer_name, customer_phone, delivery_address, notes,
		                    created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17)
	`
	_, err = tx.Exec(ctx, queryOrder,
		orderID,
		orderInput.BusinessID,
		orderInput.Code,
		string(orderInput.Status),
		orderInput.Subtotal,
		orderInput.Discount,
		orderInput.Total,
		orderInput.PromotionID,
		orderInput.FreeShipping,
		orderInput.PaymentMethod,
		orderInput.DeliveryType,
		nullIfEmpty(orderInput.CustomerName),
		nullIfEmpty(orderInput.CustomerPhone),
		nullIfEmpty(orderInput.DeliveryAddress),
		nullIfEmpty(orderInput.Notes),
		createdAt,
		createdAt,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation && pgErr.ConstraintName == orderCodeConstraint {
			err = ErrDuplicateOrderCode
			return err
		}
		return fmt.Errorf("repository: failed to insert order: %w", err)
	}

	queryItem := `
		INSERT INTO order_items (id, order_id, position, product_id, product_name, unit_price, quantity, subtotal, toppings, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`
	lines := make([]OrderLine, len(orderInput.Lines))
	batch := &pgx.Batch{}
	for i, line := range orderInput.Lines {
		line.ID, err = uuid.NewV4()
		if err != nil {
			return fmt.Errorf("repository: failed to generate order item ID: %w", err)
		}
		line.OrderID = orderID
		line.CreatedAt = createdAt
		if line.Toppings == nil {
			line.Toppings = []topping.Selected{}
		}

		toppings, mErr := json.Marshal(line.Toppings)
		if mErr != nil {
			err = fmt.Errorf("repository: failed to encode toppings of item %d: %w", i, mErr)
			return err
		}

		batch.Queue(queryItem,
			line.ID,
			orderID,
			i,
			line.ProductID,
			line.ProductName,
			line.UnitPrice,
			line.Quantity,
			line.Subtotal,
			toppings,
			createdAt,
		)
		lines[i] = line
	}

	if err = tx.SendBatch(ctx, batch).Close(); err != nil {
		return fmt.Errorf("repository: failed to insert order items for order %s: %w", orderID, err)
	}

	if inTx != nil {
		if err = inTx(ctx, tx); err != nil {
			return err
		}
	}

	orderInput.ID = orderID
	orderInput.CreatedAt = createdAt
	orderInput.UpdatedAt = createdAt
	orderInput.Lines = lines

	return nil
}

func (r *postgresRepository) GetOrderByCode(ctx context.Context, businessID int64, code string) (*Order, error) {
	queryOrder := `
		SELECT id, business_id, code, status, subtotal, discount, total, promotion_id, free_shipping,
		       payment_method, delivery_type, COALESCE(customer_name, ''), COALESCE(customer_phone, ''),
		       COALESCE(delivery_address, ''), COALESCE(notes, ''), created_at, updated_at
		FROM orders
		WHERE business_id = $1 AND code = $2
	`

	var o Order
	err := r.db.QueryRow(ctx, queryOrder, businessID, code).Scan(
		&o.ID,
		&o.BusinessID,
		&o.Code,
		&o.Status,
		&o.Subtotal,
		&o.Discount,
		&o.Total,
		&o.PromotionID,
		&o.FreeShipping,
		&o.PaymentMethod,
		&o.DeliveryType,
		&o.CustomerName,
		&o.CustomerPhone,
		&o.DeliveryAddress,
		&o.Notes,
		&o.CreatedAt,
		&o.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrOrderNotFound
		}
		return nil, fmt.Errorf("repository: failed to select order %s of business %d: %w", code, businessID, err)
	}

	queryItems := `
		SELECT id, order_id, product_id, product_name, unit_price, quantity, subtotal, toppings, created_at
		FROM order_items
		WHERE order_id = $1
		ORDER BY position
	`

	rows, err := r.db.Query(ctx, queryItems, o.ID)
	if err != nil {
		return nil, fmt.Errorf("repository: failed to query order items for order %s: %w", o.ID, err)
	}
	defer rows.Close()

	o.Lines = make([]OrderLine, 0)
	for rows.Next() {
		var (
			line     OrderLine
			toppings []byte
		)
		err := rows.Scan(
			&line.ID,
			&line.OrderID,
			&line.ProductID,
			&line.ProductName,
			&line.UnitPrice,
			&line.Quantity,
			&line.Subtotal,
			&toppings,
			&line.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("repository: failed to scan order item for order %s: %w", o.ID, err)
		}
		if err := json.Unmarshal(toppings, &line.Toppings); err != nil {
			return nil, fmt.Errorf("repository: invalid toppings on order item %s: %w", line.ID, err)
		}
		o.Lines = append(o.Lines, line)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("repository: error iterating order items for order %s: %w", o.ID, err)
	}

	return &o, nil
}

func nullIfEmpty(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
