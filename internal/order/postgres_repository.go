package order

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/Surajit-Basak/sundaraah-checkout/internal/domain"
)

const orderCreatedEventType = "order.created"

type PostgresRepository struct {
	db *sql.DB
}

func NewRepository(cred *Credentials) (*PostgresRepository, error) {
	psqlconn := fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=disable",
		cred.Host,
		cred.Port,
		cred.User,
		cred.Password,
		cred.DBName)

	db, err := sql.Open("postgres", psqlconn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if e2 := db.Ping(); e2 != nil {
		return nil, fmt.Errorf("failed to ping database: %w", e2)
	}

	db.SetMaxOpenConns(100)
	db.SetMaxIdleConns(10)
	return &PostgresRepository{db: db}, nil
}

func (r *PostgresRepository) RunMigrations(cred *Credentials) error {
	driver, err := postgres.WithInstance(r.db, &postgres.Config{
		MigrationsTable: "orders_schema_migrations",
	})
	if err != nil {
		return fmt.Errorf("could not create migration driver: %w", err)
	}

	m, err := migrate.NewWithDatabaseInstance(
		fmt.Sprintf("file://%s", cred.MigrationsDirPath),
		"postgres",
		driver,
	)
	if err != nil {
		return fmt.Errorf("could not create migrate instance: %w", err)
	}

	if e2 := m.Up(); e2 != nil && !errors.Is(e2, migrate.ErrNoChange) {
		return fmt.Errorf("could not run migrations: %w", e2)
	}

	return nil
}

// CreateOrder persists the order and its outbox event in a single
// transaction, so a committed order always has an event row and a failed
// write leaves nothing partially visible.
func (r *PostgresRepository) CreateOrder(ctx context.Context, order *domain.Order) error {
	itemsJSON, err := json.Marshal(order.Items)
	if err != nil {
		return fmt.Errorf("failed to marshal order items: %w", err)
	}

	payload, err := json.Marshal(map[string]interface{}{
		"order_id":       order.ID,
		"checkout_id":    order.CheckoutID,
		"user_id":        order.UserID,
		"customer_name":  order.CustomerName,
		"customer_email": order.CustomerEmail,
		"items":          order.Items,
		"total_amount":   order.TotalAmount,
		"shipping_fee":   order.ShippingFee,
		"currency":       order.Currency,
		"created_at":     time.Now(),
	})
	if err != nil {
		return fmt.Errorf("failed to marshal order event payload: %w", err)
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin order transaction: %w", err)
	}
	defer tx.Rollback()

	orderQuery := `INSERT INTO orders
	               (id, checkout_id, user_id, customer_name, customer_email,
	                total_amount, shipping_fee, currency, status, items, created_at, updated_at)
	               VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, NOW(), NOW())`

	_, insertErr := tx.ExecContext(ctx, orderQuery,
		order.ID,
		order.CheckoutID,
		nullable(order.UserID),
		order.CustomerName,
		order.CustomerEmail,
		order.TotalAmount,
		order.ShippingFee,
		order.Currency,
		order.Status,
		itemsJSON)

	if insertErr != nil {
		var pqErr *pq.Error
		if errors.As(insertErr, &pqErr) && pqErr.Code == "23505" {
			return ErrDuplicateCheckout
		}
		return fmt.Errorf("insert order: %w", insertErr)
	}

	eventQuery := `INSERT INTO order_events (aggregate_id, event_type, payload, created_at)
	               VALUES ($1, $2, $3, NOW())`

	if _, eventErr := tx.ExecContext(ctx, eventQuery, order.ID.String(), orderCreatedEventType, payload); eventErr != nil {
		return fmt.Errorf("insert order event: %w", eventErr)
	}

	if commitErr := tx.Commit(); commitErr != nil {
		return fmt.Errorf("commit order transaction: %w", commitErr)
	}
	return nil
}

func (r *PostgresRepository) GetOrderByID(ctx context.Context, id uuid.UUID) (*domain.Order, error) {
	return r.getOrder(ctx, "id", id)
}

func (r *PostgresRepository) GetOrderByCheckoutID(ctx context.Context, checkoutID uuid.UUID) (*domain.Order, error) {
	return r.getOrder(ctx, "checkout_id", checkoutID)
}

func (r *PostgresRepository) getOrder(ctx context.Context, column string, id uuid.UUID) (*domain.Order, error) {
	query := fmt.Sprintf(`SELECT id, checkout_id, COALESCE(user_id, ''), customer_name, customer_email,
	                             total_amount, shipping_fee, currency, status, items, created_at, updated_at
	                      FROM orders WHERE %s = $1`, column)

	var order domain.Order
	var itemsJSON []byte
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&order.ID,
		&order.CheckoutID,
		&order.UserID,
		&order.CustomerName,
		&order.CustomerEmail,
		&order.TotalAmount,
		&order.ShippingFee,
		&order.Currency,
		&order.Status,
		&itemsJSON,
		&order.CreatedAt,
		&order.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrOrderNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("query order by %s: %w", column, err)
	}

	if err := json.Unmarshal(itemsJSON, &order.Items); err != nil {
		return nil, fmt.Errorf("unmarshal order items: %w", err)
	}

	return &order, nil
}

func (r *PostgresRepository) ListOrdersByUserID(ctx context.Context, userID string) ([]*domain.Order, error) {
	query := `SELECT id, checkout_id, COALESCE(user_id, ''), customer_name, customer_email,
	                 total_amount, shipping_fee, currency, status, items, created_at, updated_at
	          FROM orders WHERE user_id = $1 ORDER BY created_at DESC`

	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("query orders by user id: %w", err)
	}
	defer rows.Close()

	var orders []*domain.Order
	for rows.Next() {
		var order domain.Order
		var itemsJSON []byte
		if err := rows.Scan(
			&order.ID,
			&order.CheckoutID,
			&order.UserID,
			&order.CustomerName,
			&order.CustomerEmail,
			&order.TotalAmount,
			&order.ShippingFee,
			&order.Currency,
			&order.Status,
			&itemsJSON,
			&order.CreatedAt,
			&order.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan order row: %w", err)
		}
		if err := json.Unmarshal(itemsJSON, &order.Items); err != nil {
			return nil, fmt.Errorf("unmarshal order items: %w", err)
		}
		orders = append(orders, &order)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	return orders, nil
}

func (r *PostgresRepository) GetUnprocessedEvents(ctx context.Context, limit int) ([]*OutboxEvent, error) {
	query := `SELECT id, aggregate_id, event_type, payload, created_at
	          FROM order_events WHERE processed = FALSE
	          ORDER BY id LIMIT $1`

	rows, err := r.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("query unprocessed events: %w", err)
	}
	defer rows.Close()

	var events []*OutboxEvent
	for rows.Next() {
		var event OutboxEvent
		if err := rows.Scan(&event.ID, &event.AggregateID, &event.EventType, &event.Payload, &event.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan event row: %w", err)
		}
		events = append(events, &event)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	return events, nil
}

func (r *PostgresRepository) MarkEventAsProcessed(ctx context.Context, id int64) error {
	query := `UPDATE order_events SET processed = TRUE, processed_at = NOW() WHERE id = $1`

	if _, err := r.db.ExecContext(ctx, query, id); err != nil {
		return fmt.Errorf("mark event as processed: %w", err)
	}
	return nil
}

func (r *PostgresRepository) Close() error {
	return r.db.Close()
}

// nullable stores a guest order's empty user ID as NULL, so history queries
// never match guest orders.
func nullable(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}
