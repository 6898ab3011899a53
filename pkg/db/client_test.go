package db

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/angelmondragon/homestead-backend/pkg/config"
	"github.com/angelmondragon/homestead-backend/pkg/logger"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

type testModel struct {
	ID   int
	Name string
}

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	conn, err := gorm.Open(sqlite.Open("file::memory:?cache=shared"), &gorm.Config{
		SkipDefaultTransaction: true,
	})
	if err != nil {
		t.Fatalf("failed to open sqlite: %v", err)
	}
	if err := conn.AutoMigrate(&testModel{}); err != nil {
		t.Fatalf("failed to migrate sqlite: %v", err)
	}
	return conn
}

func TestWithTx_CommitsAndRollbacks(t *testing.T) {
	db := newTestDB(t)
	client := &Client{conn: db}

	ctx := context.Background()
	if err := client.WithTx(ctx, func(tx *gorm.DB) error {
		return tx.Create(&testModel{Name: "committed"}).Error
	}); err != nil {
		t.Fatalf("WithTx commit failed: %v", err)
	}

	var count int64
	if err := db.Model(&testModel{}).Count(&count).Error; err != nil {
		t.Fatalf("count failed: %v", err)
	}
	if count != 1 {
		t.Fatalf("expected 1 record, got %d", count)
	}

	err := client.WithTx(ctx, func(tx *gorm.DB) error {
		if err := tx.Create(&testModel{Name: "rolled"}).Error; err != nil {
			return err
		}
		return errors.New("boom")
	})
	if err == nil {
		t.Fatal("expected WithTx to return an error")
	}
	if err := db.Model(&testModel{}).Count(&count).Error; err != nil {
		t.Fatalf("count failed after rollback: %v", err)
	}
	if count != 1 {
		t.Fatalf("expected rollback to leave 1 record, got %d", count)
	}
}

func TestPing(t *testing.T) {
	db := newTestDB(t)
	client := &Client{conn: db}
	if err := client.Ping(context.Background()); err != nil {
		t.Fatalf("unexpected ping error: %v", err)
	}
}

func TestIsUniqueViolation(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		constraint string
		want       bool
	}{
		{name: "nil", err: nil, want: false},
		{name: "pg unique", err: &pgconn.PgError{Code: "23505", ConstraintName: "brands_household_name_key"}, want: true},
		{name: "pg unique matching constraint", err: &pgconn.PgError{Code: "23505", ConstraintName: "brands_household_name_key"}, constraint: "brands_household_name_key", want: true},
		{name: "pg unique other constraint", err: &pgconn.PgError{Code: "23505", ConstraintName: "units_household_name_key"}, constraint: "brands_household_name_key", want: false},
		{name: "pg fk violation", err: &pgconn.PgError{Code: "23503"}, want: false},
		{name: "gorm translated", err: gorm.ErrDuplicatedKey, want: true},
		{name: "sqlite message", err: errors.New("UNIQUE constraint failed: brands.household_id, brands.name_key"), want: true},
		{name: "other", err: errors.New("connection reset"), want: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsUniqueViolation(tt.err, tt.constraint); got != tt.want {
				t.Fatalf("IsUniqueViolation() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestWithStatementTimeout(t *testing.T) {
	got := withStatementTimeout("postgres://u:p@localhost:5432/db?sslmode=disable", 30*time.Second)
	if !strings.Contains(got, "statement_timeout=30000") || !strings.Contains(got, "sslmode=disable") {
		t.Fatalf("unexpected url dsn %q", got)
	}
	got = withStatementTimeout("host=localhost dbname=db", 5*time.Second)
	if got != "host=localhost dbname=db statement_timeout=5000" {
		t.Fatalf("unexpected keyword dsn %q", got)
	}
	if got := withStatementTimeout("postgres://localhost/db", 0); got != "postgres://localhost/db" {
		t.Fatalf("zero timeout should leave dsn untouched, got %q", got)
	}
}

func TestWithTx_PanicRollsBack(t *testing.T) {
	db := newTestDB(t)
	client := NewFromConn(db)

	var before int64
	db.Model(&testModel{}).Count(&before)

	func() {
		defer func() {
			if recover() == nil {
				t.Fatal("expected panic to propagate")
			}
		}()
		_ = client.WithTx(context.Background(), func(tx *gorm.DB) error {
			tx.Create(&testModel{Name: "panicked"})
			panic("boom")
		})
	}()

	var after int64
	db.Model(&testModel{}).Count(&after)
	if after != before {
		t.Fatalf("expected panic to roll back, before=%d after=%d", before, after)
	}
}

func TestOpen_AppliesPoolAndLogsFailures(t *testing.T) {
	buf := &bytes.Buffer{}
	logg := logger.New(logger.Options{ServiceName: "test", Format: logger.FormatJSON, Output: buf})

	client, err := open(sqlite.Open("file:open_test?mode=memory&cache=shared"), config.DBConfig{MaxOpenConns: 3, SlowQuery: time.Hour}, logg)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer client.Close()

	sqlDB, _ := client.DB().DB()
	if got := sqlDB.Stats().MaxOpenConnections; got != 3 {
		t.Fatalf("expected max open conns 3, got %d", got)
	}

	_ = client.Exec(context.Background(), "SELECT * FROM missing_table").Error
	if !strings.Contains(buf.String(), "db.query_failed") {
		t.Fatalf("expected failed query to be logged, got %s", buf.String())
	}
}

func TestQueryLogger_SlowQuery(t *testing.T) {
	buf := &bytes.Buffer{}
	logg := logger.New(logger.Options{ServiceName: "test", Format: logger.FormatJSON, Output: buf})
	ql := newQueryLogger(logg, 10*time.Millisecond)

	ql.Trace(context.Background(), time.Now(), func() (string, int64) { return "SELECT 1", 1 }, nil)
	if buf.Len() != 0 {
		t.Fatalf("fast query should not log, got %s", buf.String())
	}
	ql.Trace(context.Background(), time.Now().Add(-time.Second), func() (string, int64) { return "SELECT 2", 1 }, nil)
	if !strings.Contains(buf.String(), "db.slow_query") || !strings.Contains(buf.String(), "SELECT 2") {
		t.Fatalf("expected slow query entry, got %s", buf.String())
	}
	buf.Reset()
	ql.Trace(context.Background(), time.Now(), func() (string, int64) { return "SELECT 3", 0 }, gorm.ErrRecordNotFound)
	if buf.Len() != 0 {
		t.Fatalf("record not found should not log, got %s", buf.String())
	}
}
