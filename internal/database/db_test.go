package database_test

import (
	"testing"

	"inventory-system/config"
	"inventory-system/internal/database"
	"inventory-system/internal/database/dbtest"
	"inventory-system/internal/database/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func TestNewConnectionRejectsUnknownDriver(t *testing.T) {
	_, err := database.NewConnection(config.DBConfig{Driver: "oracle", DSN: "x"})
	assert.ErrorContains(t, err, "unsupported DB_DRIVER")
}

func TestSKUIndexIsPerOwner(t *testing.T) {
	db := dbtest.New(t)
	alice := dbtest.CreateUser(t, db, "alice", false)
	bob := dbtest.CreateUser(t, db, "bob", false)

	dbtest.CreateItem(t, db, alice.ID, "X1", 1, 0, "1.00")
	dbtest.CreateItem(t, db, bob.ID, "X1", 1, 0, "1.00")

	dup := &models.InventoryItem{UserID: alice.ID, Name: "dup", SKU: "X1"}
	err := db.Create(dup).Error
	assert.ErrorIs(t, err, gorm.ErrDuplicatedKey)
}

func TestDiscountSequenceUniquePerOrder(t *testing.T) {
	db := dbtest.New(t)
	u := dbtest.CreateUser(t, db, "carol", false)

	order := &models.Order{UserID: u.ID, Status: models.OrderStatusPending, DeliveryAddress: "a", BillingAddress: "b"}
	require.NoError(t, db.Create(order).Error)

	require.NoError(t, db.Create(&models.Discount{OrderID: order.ID, Sequence: 0, Type: models.DiscountTypeFixed}).Error)
	err := db.Create(&models.Discount{OrderID: order.ID, Sequence: 0, Type: models.DiscountTypeFixed}).Error
	assert.ErrorIs(t, err, gorm.ErrDuplicatedKey)
}
