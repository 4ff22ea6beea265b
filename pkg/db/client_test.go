package db

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/angelmondragon/inventory-backend/pkg/db/models"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := "file:db_" + uuid.NewString() + "?mode=memory&cache=shared"
	conn, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{SkipDefaultTransaction: true})
	require.NoError(t, err)
	require.NoError(t, conn.AutoMigrate(&models.Item{}))
	return conn
}

func itemNamed(name string) *models.Item {
	return &models.Item{Name: name, Quantity: 5, Price: decimal.RequireFromString("2.50"), ReorderLevel: 2, Category: "Pantry"}
}

func countItems(t *testing.T, conn *gorm.DB) int64 {
	t.Helper()
	var n int64
	require.NoError(t, conn.Model(&models.Item{}).Count(&n).Error)
	return n
}

func TestWithTxCommitsOnSuccess(t *testing.T) {
	conn := newTestDB(t)
	client := NewFromConn(conn)

	err := client.WithTx(context.Background(), func(tx *gorm.DB) error {
		return tx.Create(itemNamed("Flour")).Error
	})
	require.NoError(t, err)
	assert.EqualValues(t, 1, countItems(t, conn))
}

func TestWithTxRollsBackOnError(t *testing.T) {
	conn := newTestDB(t)
	client := NewFromConn(conn)
	boom := errors.New("insufficient stock")

	err := client.WithTx(context.Background(), func(tx *gorm.DB) error {
		if err := tx.Create(itemNamed("Sugar")).Error; err != nil {
			return err
		}
		return boom
	})
	assert.ErrorIs(t, err, boom)
	assert.EqualValues(t, 0, countItems(t, conn))
}

func TestWithTxRollsBackAndRepanics(t *testing.T) {
	conn := newTestDB(t)
	client := NewFromConn(conn)

	assert.Panics(t, func() {
		_ = client.WithTx(context.Background(), func(tx *gorm.DB) error {
			require.NoError(t, tx.Create(itemNamed("Salt")).Error)
			panic("ledger write failed")
		})
	})
	assert.EqualValues(t, 0, countItems(t, conn))
}

func TestPing(t *testing.T) {
	client := NewFromConn(newTestDB(t))
	assert.NoError(t, client.Ping(context.Background()))
}

func TestNewFromConnWrapsConnection(t *testing.T) {
	db := newTestDB(t)
	client := NewFromConn(db)
	if client.DB() != db {
		t.Fatal("expected wrapped connection to be returned")
	}
}

func TestIsUniqueViolation(t *testing.T) {
	cases := []struct {
		name       string
		err        error
		constraint string
		want       bool
	}{
		{name: "nil", err: nil, want: false},
		{name: "postgres message", err: errors.New(`ERROR: duplicate key value violates unique constraint "items_name_key"`), want: true},
		{name: "postgres constraint match", err: errors.New(`duplicate key value violates unique constraint "items_name_key"`), constraint: "items_name_key", want: true},
		{name: "postgres other constraint", err: errors.New(`duplicate key value violates unique constraint "users_email_key"`), constraint: "items_name_key", want: false},
		{name: "sqlite", err: errors.New("UNIQUE constraint failed: items.name"), constraint: "items.name", want: true},
		{name: "unrelated", err: errors.New("connection refused"), want: false},
	}
	for _, tc := range cases {
		if got := IsUniqueViolation(tc.err, tc.constraint); got != tc.want {
			t.Fatalf("%s: expected %v, got %v", tc.name, tc.want, got)
		}
	}
}
