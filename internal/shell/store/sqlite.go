package store

import (
	"context"
	"database/sql"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/artpar/baasflow/internal/core/choreography"
	"github.com/artpar/baasflow/internal/core/domain"
	"github.com/artpar/baasflow/internal/core/transformation"
	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/sqlite3"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// timeLayout is fixed-width so stored timestamps sort as text.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

// =============================================================================
// Executor Interface - Shared by DB and Transaction
// =============================================================================

// executor abstracts database operations that can be performed on both
// a database connection and a transaction.
type executor interface {
	GetContext(ctx context.Context, dest any, query string, args ...any) error
	SelectContext(ctx context.Context, dest any, query string, args ...any) error
	NamedExecContext(ctx context.Context, query string, arg any) (sql.Result, error)
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

// =============================================================================
// SQLiteStore
// =============================================================================

// SQLiteStore implements Store using SQLite.
type SQLiteStore struct {
	db *sqlx.DB
}

// NewSQLiteStore creates a new SQLite store and runs migrations.
func NewSQLiteStore(dsn string) (*SQLiteStore, error) {
	db, err := sqlx.Open("sqlite3", dsn+"?_foreign_keys=on")
	if err != nil {
		return nil, NewStoreError("NewSQLiteStore", "", "", "failed to open database", ErrConnectionFailed)
	}

	// Each connection to :memory: is its own database.
	if strings.Contains(dsn, ":memory:") {
		db.SetMaxOpenConns(1)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, NewStoreError("NewSQLiteStore", "", "", "failed to ping database", ErrConnectionFailed)
	}

	if err := runMigrations(db.DB); err != nil {
		db.Close()
		return nil, NewStoreError("NewSQLiteStore", "", "", err.Error(), ErrMigrationFailed)
	}

	return &SQLiteStore{db: db}, nil
}

// runMigrations runs database migrations using embedded SQL files.
func runMigrations(db *sql.DB) error {
	driver, err := sqlite3.WithInstance(db, &sqlite3.Config{})
	if err != nil {
		return fmt.Errorf("failed to create migration driver: %w", err)
	}

	source, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return fmt.Errorf("failed to create migration source: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", source, "sqlite3", driver)
	if err != nil {
		return fmt.Errorf("failed to create migrator: %w", err)
	}

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	return nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// =============================================================================
// Run Operations
// =============================================================================

// runRow represents a run row in the database.
type runRow struct {
	ID             string  `db:"id"`
	Name           string  `db:"name"`
	Status         string  `db:"status"`
	Deploy         bool    `db:"deploy"`
	Provider       string  `db:"provider"`
	Region         string  `db:"region"`
	Transformation string  `db:"transformation"`
	Path           string  `db:"path"`
	Expanded       int     `db:"expanded"`
	Choreography   string  `db:"choreography"`
	TypeMappings   *string `db:"type_mappings"`
	Endpoints      *string `db:"endpoints"`
	ErrorMessage   string  `db:"error_message"`
	CreatedAt      string  `db:"created_at"`
	UpdatedAt      string  `db:"updated_at"`
	CompletedAt    *string `db:"completed_at"`
}

func (s *SQLiteStore) CreateRun(ctx context.Context, run *domain.Run) error {
	return createRun(ctx, s.db, run)
}

func (s *SQLiteStore) GetRun(ctx context.Context, id string) (*domain.Run, error) {
	return getRun(ctx, s.db, id)
}

func (s *SQLiteStore) UpdateRun(ctx context.Context, run *domain.Run) error {
	return updateRun(ctx, s.db, run)
}

func (s *SQLiteStore) DeleteRun(ctx context.Context, id string) error {
	return deleteRun(ctx, s.db, id)
}

func (s *SQLiteStore) ListRuns(ctx context.Context, opts ListOptions) ([]domain.Run, error) {
	return listRuns(ctx, s.db, opts)
}

func (s *SQLiteStore) CountRuns(ctx context.Context, status domain.RunStatus) (int, error) {
	return countRuns(ctx, s.db, status)
}

// =============================================================================
// Transaction Support
// =============================================================================

func (s *SQLiteStore) WithTx(ctx context.Context, fn func(Store) error) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return NewStoreError("WithTx", "", "", "failed to begin transaction", ErrTxFailed)
	}

	txS := &txSQLiteStore{tx: tx}

	if err := fn(txS); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			return NewStoreError("WithTx", "", "", fmt.Sprintf("rollback failed after error: %v", err), ErrTxFailed)
		}
		return err
	}

	if err := tx.Commit(); err != nil {
		return NewStoreError("WithTx", "", "", "failed to commit transaction", ErrTxFailed)
	}

	return nil
}

// =============================================================================
// Transaction Store
// =============================================================================

// txSQLiteStore implements Store within a transaction.
type txSQLiteStore struct {
	tx *sqlx.Tx
}

func (s *txSQLiteStore) CreateRun(ctx context.Context, run *domain.Run) error {
	return createRun(ctx, s.tx, run)
}

func (s *txSQLiteStore) GetRun(ctx context.Context, id string) (*domain.Run, error) {
	return getRun(ctx, s.tx, id)
}

func (s *txSQLiteStore) UpdateRun(ctx context.Context, run *domain.Run) error {
	return updateRun(ctx, s.tx, run)
}

func (s *txSQLiteStore) DeleteRun(ctx context.Context, id string) error {
	return deleteRun(ctx, s.tx, id)
}

func (s *txSQLiteStore) ListRuns(ctx context.Context, opts ListOptions) ([]domain.Run, error) {
	return listRuns(ctx, s.tx, opts)
}

func (s *txSQLiteStore) CountRuns(ctx context.Context, status domain.RunStatus) (int, error) {
	return countRuns(ctx, s.tx, status)
}

func (s *txSQLiteStore) WithTx(ctx context.Context, fn func(Store) error) error {
	// Already in a transaction, just run the function
	return fn(s)
}

func (s *txSQLiteStore) Close() error {
	// No-op for tx store
	return nil
}

// =============================================================================
// Shared Implementation Functions
// =============================================================================

// runToRow serializes the JSON columns of a run.
func runToRow(op string, run *domain.Run) (map[string]any, error) {
	transformationJSON, err := json.Marshal(run.Transformation)
	if err != nil {
		return nil, NewStoreError(op, "run", run.ID, "failed to serialize transformation", ErrInvalidData)
	}
	pathJSON, err := json.Marshal(run.Path)
	if err != nil {
		return nil, NewStoreError(op, "run", run.ID, "failed to serialize path", ErrInvalidData)
	}
	mappingsJSON, err := json.Marshal(run.TypeMappings)
	if err != nil {
		return nil, NewStoreError(op, "run", run.ID, "failed to serialize type mappings", ErrInvalidData)
	}
	endpointsJSON, err := json.Marshal(run.Endpoints)
	if err != nil {
		return nil, NewStoreError(op, "run", run.ID, "failed to serialize endpoints", ErrInvalidData)
	}

	var completedAt *string
	if run.CompletedAt != nil {
		s := run.CompletedAt.UTC().Format(timeLayout)
		completedAt = &s
	}

	return map[string]any{
		"id":             run.ID,
		"name":           run.Name,
		"status":         string(run.Status),
		"deploy":         run.Deploy,
		"provider":       run.Provider,
		"region":         run.Region,
		"transformation": string(transformationJSON),
		"path":           string(pathJSON),
		"expanded":       run.Expanded,
		"choreography":   run.Choreography,
		"type_mappings":  string(mappingsJSON),
		"endpoints":      string(endpointsJSON),
		"error_message":  run.ErrorMessage,
		"created_at":     run.CreatedAt.UTC().Format(timeLayout),
		"updated_at":     run.UpdatedAt.UTC().Format(timeLayout),
		"completed_at":   completedAt,
	}, nil
}

func createRun(ctx context.Context, exec executor, run *domain.Run) error {
	row, err := runToRow("CreateRun", run)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO runs (
			id, name, status, deploy, provider, region, transformation, path,
			expanded, choreography, type_mappings, endpoints, error_message,
			created_at, updated_at, completed_at
		) VALUES (
			:id, :name, :status, :deploy, :provider, :region, :transformation, :path,
			:expanded, :choreography, :type_mappings, :endpoints, :error_message,
			:created_at, :updated_at, :completed_at
		)`

	_, err = exec.NamedExecContext(ctx, query, row)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed: runs.id") {
			return NewStoreError("CreateRun", "run", run.ID, "run with this ID already exists", ErrDuplicateID)
		}
		return NewStoreError("CreateRun", "run", run.ID, err.Error(), err)
	}

	return nil
}

func getRun(ctx context.Context, exec executor, id string) (*domain.Run, error) {
	query := `SELECT * FROM runs WHERE id = ?`

	var row runRow
	err := exec.GetContext(ctx, &row, query, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, NewStoreError("GetRun", "run", id, "run not found", ErrNotFound)
		}
		return nil, NewStoreError("GetRun", "run", id, err.Error(), err)
	}

	return rowToRun(&row)
}

func updateRun(ctx context.Context, exec executor, run *domain.Run) error {
	run.UpdatedAt = time.Now().UTC()

	row, err := runToRow("UpdateRun", run)
	if err != nil {
		return err
	}

	query := `
		UPDATE runs SET
			name = :name,
			status = :status,
			deploy = :deploy,
			provider = :provider,
			region = :region,
			transformation = :transformation,
			path = :path,
			expanded = :expanded,
			choreography = :choreography,
			type_mappings = :type_mappings,
			endpoints = :endpoints,
			error_message = :error_message,
			updated_at = :updated_at,
			completed_at = :completed_at
		WHERE id = :id`

	result, err := exec.NamedExecContext(ctx, query, row)
	if err != nil {
		return NewStoreError("UpdateRun", "run", run.ID, err.Error(), err)
	}

	rowsAffected, _ := result.RowsAffected()
	if rowsAffected == 0 {
		return NewStoreError("UpdateRun", "run", run.ID, "run not found", ErrNotFound)
	}

	return nil
}

func deleteRun(ctx context.Context, exec executor, id string) error {
	query := `DELETE FROM runs WHERE id = ?`

	result, err := exec.ExecContext(ctx, query, id)
	if err != nil {
		return NewStoreError("DeleteRun", "run", id, err.Error(), err)
	}

	rowsAffected, _ := result.RowsAffected()
	if rowsAffected == 0 {
		return NewStoreError("DeleteRun", "run", id, "run not found", ErrNotFound)
	}

	return nil
}

func listRuns(ctx context.Context, exec executor, opts ListOptions) ([]domain.Run, error) {
	opts = opts.Normalize()

	var rows []runRow
	var err error
	if opts.Status != "" {
		query := `SELECT * FROM runs WHERE status = ? ORDER BY created_at DESC LIMIT ? OFFSET ?`
		err = exec.SelectContext(ctx, &rows, query, string(opts.Status), opts.Limit, opts.Offset)
	} else {
		query := `SELECT * FROM runs ORDER BY created_at DESC LIMIT ? OFFSET ?`
		err = exec.SelectContext(ctx, &rows, query, opts.Limit, opts.Offset)
	}
	if err != nil {
		return nil, NewStoreError("ListRuns", "run", "", err.Error(), err)
	}

	runs := make([]domain.Run, 0, len(rows))
	for _, row := range rows {
		run, err := rowToRun(&row)
		if err != nil {
			return nil, err
		}
		runs = append(runs, *run)
	}

	return runs, nil
}

func countRuns(ctx context.Context, exec executor, status domain.RunStatus) (int, error) {
	var count int
	var err error
	if status != "" {
		err = exec.GetContext(ctx, &count, `SELECT COUNT(*) FROM runs WHERE status = ?`, string(status))
	} else {
		err = exec.GetContext(ctx, &count, `SELECT COUNT(*) FROM runs`)
	}
	if err != nil {
		return 0, NewStoreError("CountRuns", "run", "", err.Error(), err)
	}
	return count, nil
}

// =============================================================================
// Row Conversion
// =============================================================================

func rowToRun(row *runRow) (*domain.Run, error) {
	createdAt, _ := time.Parse(timeLayout, row.CreatedAt)
	updatedAt, _ := time.Parse(timeLayout, row.UpdatedAt)

	var completedAt *time.Time
	if row.CompletedAt != nil && *row.CompletedAt != "" {
		t, _ := time.Parse(timeLayout, *row.CompletedAt)
		completedAt = &t
	}

	var t transformation.Transformation
	if err := json.Unmarshal([]byte(row.Transformation), &t); err != nil {
		return nil, NewStoreError("rowToRun", "run", row.ID, "failed to parse transformation", ErrInvalidData)
	}

	path := []string{}
	if row.Path != "" && row.Path != "null" {
		if err := json.Unmarshal([]byte(row.Path), &path); err != nil {
			return nil, NewStoreError("rowToRun", "run", row.ID, "failed to parse path", ErrInvalidData)
		}
	}

	var mappings []choreography.TypeMapping
	if row.TypeMappings != nil && *row.TypeMappings != "" && *row.TypeMappings != "null" {
		if err := json.Unmarshal([]byte(*row.TypeMappings), &mappings); err != nil {
			return nil, NewStoreError("rowToRun", "run", row.ID, "failed to parse type mappings", ErrInvalidData)
		}
	}

	var endpoints []choreography.Endpoint
	if row.Endpoints != nil && *row.Endpoints != "" && *row.Endpoints != "null" {
		if err := json.Unmarshal([]byte(*row.Endpoints), &endpoints); err != nil {
			return nil, NewStoreError("rowToRun", "run", row.ID, "failed to parse endpoints", ErrInvalidData)
		}
	}

	return &domain.Run{
		ID:             row.ID,
		Name:           row.Name,
		Status:         domain.RunStatus(row.Status),
		Deploy:         row.Deploy,
		Provider:       row.Provider,
		Region:         row.Region,
		Transformation: t,
		Path:           path,
		Expanded:       row.Expanded,
		Choreography:   row.Choreography,
		TypeMappings:   mappings,
		Endpoints:      endpoints,
		ErrorMessage:   row.ErrorMessage,
		CreatedAt:      createdAt,
		UpdatedAt:      updatedAt,
		CompletedAt:    completedAt,
	}, nil
}
