package store

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/mikey/form-spam-filter/internal/core"
	"go.uber.org/zap"
)

// timeLayout is fixed-width so that created_at sorts lexically in every dialect
const timeLayout = "2006-01-02T15:04:05.000000Z"

// SQLStore is a database/sql implementation of core.Store
type SQLStore struct {
	db      *sql.DB
	dialect Dialect
	logger  *zap.Logger
}

// Open connects to the database, verifies the connection and creates the tables
func Open(ctx context.Context, dialect Dialect, dsn string, logger *zap.Logger) (*SQLStore, error) {
	driver, err := dialect.driverName()
	if err != nil {
		return nil, err
	}

	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s database: %w", dialect, err)
	}

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to %s database: %w", dialect, err)
	}

	s := NewSQLStore(db, dialect, logger)
	if err := s.Migrate(ctx); err != nil {
		db.Close()
		return nil, err
	}

	logger.Info("Opened SQL store", zap.String("dialect", string(dialect)))
	return s, nil
}

// NewSQLStore wraps an open database handle
func NewSQLStore(db *sql.DB, dialect Dialect, logger *zap.Logger) *SQLStore {
	return &SQLStore{
		db:      db,
		dialect: dialect,
		logger:  logger,
	}
}

// Migrate creates the tables and indexes if they do not exist
func (s *SQLStore) Migrate(ctx context.Context) error {
	for _, stmt := range s.dialect.schema() {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to create schema: %w", err)
		}
	}
	return nil
}

// CreateForm stores a form
func (s *SQLStore) CreateForm(ctx context.Context, form *core.Form) error {
	schemaJSON := ""
	if len(form.Schema) > 0 {
		b, err := json.Marshal(form.Schema)
		if err != nil {
			return fmt.Errorf("failed to encode form schema: %w", err)
		}
		schemaJSON = string(b)
	}

	_, err := s.db.ExecContext(ctx, s.dialect.rebind(`
		INSERT INTO forms (id, owner_id, name, honeypot_field, notify_email, redirect_url, schema_json, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`), form.ID, form.OwnerID, form.Name, form.HoneypotField, form.NotifyEmail, form.RedirectURL, schemaJSON,
		formatTime(form.CreatedAt), formatTime(form.UpdatedAt))
	if err != nil {
		return fmt.Errorf("failed to insert form: %w", err)
	}
	return nil
}

const formColumns = `id, owner_id, name, honeypot_field, notify_email, redirect_url, schema_json, created_at, updated_at`

// GetForm retrieves a form by ID
func (s *SQLStore) GetForm(ctx context.Context, id string) (*core.Form, error) {
	row := s.db.QueryRowContext(ctx, s.dialect.rebind(`
		SELECT `+formColumns+`
		FROM forms
		WHERE id = ?
	`), id)

	form, err := scanForm(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: %s", core.ErrFormNotFound, id)
		}
		return nil, fmt.Errorf("failed to query form: %w", err)
	}
	return form, nil
}

// ListForms returns an owner's forms, newest first. An empty owner lists all forms.
func (s *SQLStore) ListForms(ctx context.Context, ownerID string) ([]*core.Form, error) {
	var (
		rows *sql.Rows
		err  error
	)
	if ownerID == "" {
		rows, err = s.db.QueryContext(ctx, `SELECT `+formColumns+` FROM forms ORDER BY created_at DESC`)
	} else {
		rows, err = s.db.QueryContext(ctx, s.dialect.rebind(`
			SELECT `+formColumns+`
			FROM forms
			WHERE owner_id = ?
			ORDER BY created_at DESC
		`), ownerID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query forms: %w", err)
	}
	defer rows.Close()

	forms := make([]*core.Form, 0)
	for rows.Next() {
		form, err := scanForm(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan form: %w", err)
		}
		forms = append(forms, form)
	}
	return forms, rows.Err()
}

// DeleteForm removes a form and its submissions in one transaction
func (s *SQLStore) DeleteForm(ctx context.Context, id string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, s.dialect.rebind(`DELETE FROM submissions WHERE form_id = ?`), id); err != nil {
		return fmt.Errorf("failed to delete submissions: %w", err)
	}

	result, err := tx.ExecContext(ctx, s.dialect.rebind(`DELETE FROM forms WHERE id = ?`), id)
	if err != nil {
		return fmt.Errorf("failed to delete form: %w", err)
	}
	if n, err := result.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("%w: %s", core.ErrFormNotFound, id)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit form deletion: %w", err)
	}
	return nil
}

// SaveSubmission stores an accepted submission
func (s *SQLStore) SaveSubmission(ctx context.Context, sub *core.Submission) error {
	data, err := json.Marshal(sub.Data)
	if err != nil {
		return fmt.Errorf("failed to encode submission data: %w", err)
	}

	_, err = s.db.ExecContext(ctx, s.dialect.rebind(`
		INSERT INTO submissions (id, form_id, data, remote_addr, user_agent, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`), sub.ID, sub.FormID, string(data), sub.RemoteAddr, sub.UserAgent, formatTime(sub.CreatedAt))
	if err != nil {
		return fmt.Errorf("failed to insert submission: %w", err)
	}
	return nil
}

// ListSubmissions returns a page of a form's submissions, newest first
func (s *SQLStore) ListSubmissions(ctx context.Context, formID string, limit, offset int) ([]*core.Submission, error) {
	rows, err := s.db.QueryContext(ctx, s.dialect.rebind(`
		SELECT id, form_id, data, remote_addr, user_agent, created_at
		FROM submissions
		WHERE form_id = ?
		ORDER BY created_at DESC
		LIMIT ? OFFSET ?
	`), formID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to query submissions: %w", err)
	}
	defer rows.Close()

	subs := make([]*core.Submission, 0)
	for rows.Next() {
		var (
			sub       core.Submission
			data      string
			createdAt string
		)
		if err := rows.Scan(&sub.ID, &sub.FormID, &data, &sub.RemoteAddr, &sub.UserAgent, &createdAt); err != nil {
			return nil, fmt.Errorf("failed to scan submission: %w", err)
		}
		if sub.Data, err = decodePayload(data); err != nil {
			return nil, fmt.Errorf("failed to decode submission %s: %w", sub.ID, err)
		}
		if sub.CreatedAt, err = time.Parse(timeLayout, createdAt); err != nil {
			return nil, fmt.Errorf("failed to parse created_at timestamp: %w", err)
		}
		subs = append(subs, &sub)
	}
	return subs, rows.Err()
}

// Close closes the database connection
func (s *SQLStore) Close() error {
	return s.db.Close()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanForm(row rowScanner) (*core.Form, error) {
	var (
		form                 core.Form
		schemaJSON           string
		createdAt, updatedAt string
	)
	if err := row.Scan(&form.ID, &form.OwnerID, &form.Name, &form.HoneypotField, &form.NotifyEmail,
		&form.RedirectURL, &schemaJSON, &createdAt, &updatedAt); err != nil {
		return nil, err
	}

	if schemaJSON != "" {
		if err := json.Unmarshal([]byte(schemaJSON), &form.Schema); err != nil {
			return nil, fmt.Errorf("failed to decode form schema: %w", err)
		}
	}

	var err error
	if form.CreatedAt, err = time.Parse(timeLayout, createdAt); err != nil {
		return nil, fmt.Errorf("failed to parse created_at timestamp: %w", err)
	}
	if form.UpdatedAt, err = time.Parse(timeLayout, updatedAt); err != nil {
		return nil, fmt.Errorf("failed to parse updated_at timestamp: %w", err)
	}
	return &form, nil
}

// decodePayload keeps numbers as json.Number so stored values round-trip exactly
func decodePayload(data string) (core.Payload, error) {
	dec := json.NewDecoder(bytes.NewReader([]byte(data)))
	dec.UseNumber()
	var p core.Payload
	if err := dec.Decode(&p); err != nil {
		return nil, err
	}
	return p, nil
}

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}
