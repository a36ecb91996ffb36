// Package dbtest opens migrated in-memory sqlite databases for tests.
package dbtest

import (
	"fmt"
	"sync/atomic"
	"testing"

	"inventory-system/config"
	"inventory-system/internal/database"
	"inventory-system/internal/database/models"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

var seq int64

func New(t *testing.T) *gorm.DB {
	t.Helper()
	db, _ := NewWithOpener(t)
	return db
}

// NewWithOpener also returns a function that opens further connections to the
// same in-memory database. Closing those leaves the returned db usable.
func NewWithOpener(t *testing.T) (*gorm.DB, func() (*gorm.DB, error)) {
	t.Helper()

	cfg := config.DBConfig{
		Driver: "sqlite",
		DSN:    fmt.Sprintf("file:memdb%d?mode=memory&cache=shared&_foreign_keys=on", atomic.AddInt64(&seq, 1)),
	}
	db, err := database.NewConnection(cfg)
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db))

	t.Cleanup(func() {
		database.Close(db)
	})
	return db, func() (*gorm.DB, error) { return database.NewConnection(cfg) }
}

func CreateUser(t *testing.T, db *gorm.DB, username string, staff bool) *models.User {
	t.Helper()

	hash, err := bcrypt.GenerateFromPassword([]byte("password"), bcrypt.MinCost)
	require.NoError(t, err)

	u := &models.User{
		Username: username,
		Email:    username + "@example.com",
		Password: string(hash),
		IsStaff:  staff,
		IsActive: true,
	}
	require.NoError(t, db.Create(u).Error)
	return u
}

func CreateItem(t *testing.T, db *gorm.DB, ownerID int64, sku string, qty, threshold int32, price string) *models.InventoryItem {
	t.Helper()

	item := &models.InventoryItem{
		UserID:    ownerID,
		Name:      "Item " + sku,
		SKU:       sku,
		Quantity:  qty,
		Threshold: threshold,
		Price:     decimal.RequireFromString(price),
	}
	require.NoError(t, db.Create(item).Error)
	return item
}
