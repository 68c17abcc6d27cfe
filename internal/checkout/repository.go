package checkout

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	_ "github.com/lib/pq"

	"github.com/Surajit-Basak/sundaraah-checkout/internal/domain"
)

var (
	ErrSessionNotFound = errors.New("checkout session not found")
	// ErrStatusConflict means the compare-and-set transition lost: the
	// session is no longer in the expected status.
	ErrStatusConflict = errors.New("checkout session status conflict")
)

type Credentials struct {
	Host              string
	Port              int
	User              string
	Password          string
	DBName            string
	MigrationsDirPath string
}

type Repository struct {
	db *sql.DB
}

type RepoInterface interface {
	CreateSession(ctx context.Context, session *domain.CheckoutSession) error
	GetSession(ctx context.Context, id string) (*domain.CheckoutSession, error)
	TransitionStatus(ctx context.Context, id string, from, to domain.CheckoutStatus) error
	SetPaymentOutcome(ctx context.Context, id string, from, to domain.CheckoutStatus, providerRef, failureReason string) error
	CompleteSession(ctx context.Context, id, orderID string) error
	RunMigrations(*Credentials) error
	Close() error
}

func NewRepository(cred *Credentials) (*Repository, error) {
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
	return &Repository{db: db}, nil
}

func (r *Repository) RunMigrations(cred *Credentials) error {
	driver, err := postgres.WithInstance(r.db, &postgres.Config{
		MigrationsTable: "checkout_schema_migrations",
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

func (r *Repository) CreateSession(ctx context.Context, session *domain.CheckoutSession) error {
	snapshotJSON, err := json.Marshal(session.Snapshot)
	if err != nil {
		return fmt.Errorf("failed to marshal cart snapshot: %w", err)
	}

	query := `INSERT INTO checkout_sessions
	          (id, cart_id, user_id, customer_name, customer_email,
	           provider_session_id, amount, currency, cart_snapshot, status, created_at, updated_at)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, NOW(), NOW())`

	_, insertErr := r.db.ExecContext(ctx, query,
		session.ID,
		session.CartID,
		nullable(session.UserID),
		session.CustomerName,
		session.CustomerEmail,
		session.ProviderSessionID,
		session.Amount,
		session.Currency,
		snapshotJSON,
		session.Status)

	if insertErr != nil {
		return fmt.Errorf("insert checkout session: %w", insertErr)
	}
	return nil
}

func (r *Repository) GetSession(ctx context.Context, id string) (*domain.CheckoutSession, error) {
	query := `SELECT id, cart_id, COALESCE(user_id, ''), customer_name, customer_email,
	                 provider_session_id, COALESCE(provider_reference, ''),
	                 amount, currency, cart_snapshot, status,
	                 COALESCE(order_id::text, ''), COALESCE(failure_reason, ''),
	                 created_at, updated_at
	          FROM checkout_sessions WHERE id = $1`

	var session domain.CheckoutSession
	var snapshotJSON []byte
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&session.ID,
		&session.CartID,
		&session.UserID,
		&session.CustomerName,
		&session.CustomerEmail,
		&session.ProviderSessionID,
		&session.ProviderReference,
		&session.Amount,
		&session.Currency,
		&snapshotJSON,
		&session.Status,
		&session.OrderID,
		&session.FailureReason,
		&session.CreatedAt,
		&session.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrSessionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("query checkout session: %w", err)
	}

	if err := json.Unmarshal(snapshotJSON, &session.Snapshot); err != nil {
		return nil, fmt.Errorf("unmarshal cart snapshot: %w", err)
	}

	return &session, nil
}

// TransitionStatus moves the session from one status to another with a
// compare-and-set on the current status. A lost race surfaces as
// ErrStatusConflict, which is how a duplicate payment callback is detected.
func (r *Repository) TransitionStatus(ctx context.Context, id string, from, to domain.CheckoutStatus) error {
	query := `UPDATE checkout_sessions SET status = $3, updated_at = NOW()
	          WHERE id = $1 AND status = $2`

	result, err := r.db.ExecContext(ctx, query, id, from, to)
	if err != nil {
		return fmt.Errorf("transition checkout status: %w", err)
	}
	return r.requireOneRow(ctx, id, result)
}

func (r *Repository) SetPaymentOutcome(ctx context.Context, id string, from, to domain.CheckoutStatus, providerRef, failureReason string) error {
	query := `UPDATE checkout_sessions
	          SET status = $3, provider_reference = $4, failure_reason = $5, updated_at = NOW()
	          WHERE id = $1 AND status = $2`

	result, err := r.db.ExecContext(ctx, query, id, from, to, nullable(providerRef), nullable(failureReason))
	if err != nil {
		return fmt.Errorf("set payment outcome: %w", err)
	}
	return r.requireOneRow(ctx, id, result)
}

func (r *Repository) CompleteSession(ctx context.Context, id, orderID string) error {
	query := `UPDATE checkout_sessions
	          SET status = $3, order_id = $2, updated_at = NOW()
	          WHERE id = $1 AND status = $4`

	result, err := r.db.ExecContext(ctx, query, id, orderID,
		domain.CheckoutStatusCompleted, domain.CheckoutStatusPaymentSucceeded)
	if err != nil {
		return fmt.Errorf("complete checkout session: %w", err)
	}
	return r.requireOneRow(ctx, id, result)
}

func (r *Repository) requireOneRow(ctx context.Context, id string, result sql.Result) error {
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if rows == 0 {
		// Distinguish a missing session from a status race.
		if _, getErr := r.GetSession(ctx, id); errors.Is(getErr, ErrSessionNotFound) {
			return ErrSessionNotFound
		}
		return ErrStatusConflict
	}
	return nil
}

func (r *Repository) Close() error {
	return r.db.Close()
}

func nullable(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}
