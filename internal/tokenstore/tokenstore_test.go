package tokenstore

import (
	"context"
	"database/sql"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
)

func TestSQLGetSetClear(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	store := NewSQL(db)
	ctx := context.Background()

	mock.ExpectQuery("SELECT value FROM client_state").
		WithArgs("access_token").
		WillReturnError(sql.ErrNoRows)
	token, err := store.Get(ctx)
	if err != nil {
		t.Fatalf("Get on empty store: %v", err)
	}
	if token != "" {
		t.Fatalf("expected empty token, got %q", token)
	}

	mock.ExpectExec("INSERT INTO client_state").
		WithArgs("access_token", "tok-123", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))
	if err := store.Set(ctx, "tok-123"); err != nil {
		t.Fatalf("Set: %v", err)
	}

	mock.ExpectQuery("SELECT value FROM client_state").
		WithArgs("access_token").
		WillReturnRows(sqlmock.NewRows([]string{"value"}).AddRow("tok-123"))
	token, err = store.Get(ctx)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if token != "tok-123" {
		t.Fatalf("unexpected token: %q", token)
	}

	mock.ExpectExec("DELETE FROM client_state").
		WithArgs("access_token").
		WillReturnResult(sqlmock.NewResult(0, 1))
	if err := store.Clear(ctx); err != nil {
		t.Fatalf("Clear: %v", err)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestMemoryRoundTrip(t *testing.T) {
	t.Parallel()

	store := NewMemory()
	ctx := context.Background()

	if err := store.Set(ctx, "tok-abc"); err != nil {
		t.Fatalf("Set: %v", err)
	}
	token, err := store.Get(ctx)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if token != "tok-abc" {
		t.Fatalf("unexpected token: %q", token)
	}
	if err := store.Clear(ctx); err != nil {
		t.Fatalf("Clear: %v", err)
	}
	token, err = store.Get(ctx)
	if err != nil {
		t.Fatalf("Get after Clear: %v", err)
	}
	if token != "" {
		t.Fatalf("token survived Clear: %q", token)
	}
}
