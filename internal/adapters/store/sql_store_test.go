package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/mikey/form-spam-filter/internal/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func setupSQLStoreTest(t *testing.T, dialect Dialect) (*SQLStore, sqlmock.Sqlmock) {
	t.Helper()

	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	return NewSQLStore(db, dialect, zap.NewNop()), mock
}

var formRowColumns = []string{
	"id", "owner_id", "name", "honeypot_field", "notify_email", "redirect_url", "schema_json", "created_at", "updated_at",
}

func TestSQLStore_Migrate(t *testing.T) {
	s, mock := setupSQLStoreTest(t, DialectSQLite)

	for range DialectSQLite.schema() {
		mock.ExpectExec("CREATE").WillReturnResult(sqlmock.NewResult(0, 0))
	}

	require.NoError(t, s.Migrate(context.Background()))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSQLStore_CreateForm(t *testing.T) {
	s, mock := setupSQLStoreTest(t, DialectSQLite)
	created := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

	form := newForm("form-1", "owner-1", created)
	form.Schema = map[string]any{"type": "object"}

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO forms")).
		WithArgs("form-1", "owner-1", "Contact form-1", "_gotcha", "", "", `{"type":"object"}`,
			"2024-03-01T12:00:00.000000Z", "2024-03-01T12:00:00.000000Z").
		WillReturnResult(sqlmock.NewResult(1, 1))

	require.NoError(t, s.CreateForm(context.Background(), form))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSQLStore_GetForm(t *testing.T) {
	s, mock := setupSQLStoreTest(t, DialectSQLite)

	rows := sqlmock.NewRows(formRowColumns).AddRow(
		"form-1", "owner-1", "Contact", "website", "owner@example.com", "https://example.com/thanks",
		`{"type":"object","required":["email"]}`, "2024-03-01T12:00:00.000000Z", "2024-03-02T08:30:00.500000Z")
	mock.ExpectQuery(regexp.QuoteMeta("FROM forms")).WithArgs("form-1").WillReturnRows(rows)

	form, err := s.GetForm(context.Background(), "form-1")

	require.NoError(t, err)
	assert.Equal(t, "website", form.HoneypotField)
	assert.Equal(t, "owner@example.com", form.NotifyEmail)
	assert.Equal(t, "object", form.Schema["type"])
	assert.Equal(t, time.Date(2024, 3, 2, 8, 30, 0, 500000000, time.UTC), form.UpdatedAt)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSQLStore_GetForm_NotFound(t *testing.T) {
	s, mock := setupSQLStoreTest(t, DialectSQLite)

	mock.ExpectQuery(regexp.QuoteMeta("FROM forms")).WithArgs("nope").WillReturnError(sql.ErrNoRows)

	_, err := s.GetForm(context.Background(), "nope")

	assert.ErrorIs(t, err, core.ErrFormNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSQLStore_ListForms(t *testing.T) {
	s, mock := setupSQLStoreTest(t, DialectMySQL)

	rows := sqlmock.NewRows(formRowColumns).
		AddRow("b", "owner-1", "B", "_gotcha", "", "", "", "2024-03-02T00:00:00.000000Z", "2024-03-02T00:00:00.000000Z").
		AddRow("a", "owner-1", "A", "_gotcha", "", "", "", "2024-03-01T00:00:00.000000Z", "2024-03-01T00:00:00.000000Z")
	mock.ExpectQuery(regexp.QuoteMeta("WHERE owner_id = ?")).WithArgs("owner-1").WillReturnRows(rows)

	forms, err := s.ListForms(context.Background(), "owner-1")

	require.NoError(t, err)
	require.Len(t, forms, 2)
	assert.Equal(t, "b", forms[0].ID)
	assert.Nil(t, forms[1].Schema)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSQLStore_DeleteForm(t *testing.T) {
	s, mock := setupSQLStoreTest(t, DialectSQLite)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM submissions WHERE form_id = ?")).
		WithArgs("form-1").WillReturnResult(sqlmock.NewResult(0, 3))
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM forms WHERE id = ?")).
		WithArgs("form-1").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	require.NoError(t, s.DeleteForm(context.Background(), "form-1"))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSQLStore_DeleteForm_NotFound(t *testing.T) {
	s, mock := setupSQLStoreTest(t, DialectSQLite)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM submissions")).
		WithArgs("nope").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM forms")).
		WithArgs("nope").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectRollback()

	err := s.DeleteForm(context.Background(), "nope")

	assert.ErrorIs(t, err, core.ErrFormNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSQLStore_SaveAndListSubmissions(t *testing.T) {
	s, mock := setupSQLStoreTest(t, DialectSQLite)
	created := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO submissions")).
		WithArgs("sub-1", "form-1", `{"age":42,"email":"a@b.com"}`, "10.0.0.1", "curl/8", "2024-03-01T12:00:00.000000Z").
		WillReturnResult(sqlmock.NewResult(1, 1))

	err := s.SaveSubmission(context.Background(), &core.Submission{
		ID:         "sub-1",
		FormID:     "form-1",
		Data:       core.Payload{"email": "a@b.com", "age": 42},
		RemoteAddr: "10.0.0.1",
		UserAgent:  "curl/8",
		CreatedAt:  created,
	})
	require.NoError(t, err)

	rows := sqlmock.NewRows([]string{"id", "form_id", "data", "remote_addr", "user_agent", "created_at"}).
		AddRow("sub-1", "form-1", `{"age":42,"email":"a@b.com"}`, "10.0.0.1", "curl/8", "2024-03-01T12:00:00.000000Z")
	mock.ExpectQuery(regexp.QuoteMeta("LIMIT ? OFFSET ?")).WithArgs("form-1", 20, 0).WillReturnRows(rows)

	subs, err := s.ListSubmissions(context.Background(), "form-1", 20, 0)

	require.NoError(t, err)
	require.Len(t, subs, 1)
	assert.Equal(t, json.Number("42"), subs[0].Data["age"])
	assert.Equal(t, "a@b.com", subs[0].Data["email"])
	assert.Equal(t, created, subs[0].CreatedAt)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSQLStore_PostgresPlaceholders(t *testing.T) {
	s, mock := setupSQLStoreTest(t, DialectPostgres)

	query := `WHERE form_id = \$1\s+ORDER BY created_at DESC\s+LIMIT \$2 OFFSET \$3`
	mock.ExpectQuery(query).
		WithArgs("form-1", 5, 10).
		WillReturnRows(sqlmock.NewRows([]string{"id", "form_id", "data", "remote_addr", "user_agent", "created_at"}))

	subs, err := s.ListSubmissions(context.Background(), "form-1", 5, 10)

	require.NoError(t, err)
	assert.Empty(t, subs)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDialect_Rebind(t *testing.T) {
	q := "SELECT * FROM t WHERE a = ? AND b = ?"
	assert.Equal(t, q, DialectSQLite.rebind(q))
	assert.Equal(t, q, DialectMySQL.rebind(q))
	assert.Equal(t, "SELECT * FROM t WHERE a = $1 AND b = $2", DialectPostgres.rebind(q))
}

func TestDialect_DriverName(t *testing.T) {
	name, err := DialectPostgres.driverName()
	require.NoError(t, err)
	assert.Equal(t, "postgres", name)

	_, err = Dialect("oracle").driverName()
	assert.Error(t, err)
}
