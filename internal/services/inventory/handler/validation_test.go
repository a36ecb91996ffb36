package handler

import (
	"context"
	"testing"

	"inventory-system/internal/database/dbtest"
	"inventory-system/internal/database/models"
	"inventory-system/internal/utils"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func strPtr(s string) *string { return &s }

func TestValidateGSTNumber(t *testing.T) {
	tests := []struct {
		name    string
		gst     *string
		wantErr bool
	}{
		{"nil", nil, false},
		{"empty", strPtr(""), false},
		{"whitespace", strPtr("   "), false},
		{"valid", strPtr("22AAAAA0000A1Z5"), false},
		{"valid alnum check digit", strPtr("27ABCDE1234F2ZX"), false},
		{"lowercase", strPtr("22aaaaa0000a1z5"), true},
		{"too short", strPtr("22AAAAA0000A1Z"), true},
		{"too long", strPtr("22AAAAA0000A1Z55"), true},
		{"missing Z", strPtr("22AAAAA0000A1X5"), true},
		{"zero entity code", strPtr("22AAAAA0000A0Z5"), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateGSTNumber(tt.gst)
			if !tt.wantErr {
				assert.NoError(t, err)
				return
			}
			var verr *utils.ValidationError
			require.ErrorAs(t, err, &verr)
			assert.Equal(t, "gst_number", verr.Field)
			assert.Equal(t, gstFormatMessage, verr.Message)
		})
	}
}

func TestCheckSKUAvailable(t *testing.T) {
	db := dbtest.New(t)
	alice := dbtest.CreateUser(t, db, "alice", false)
	bob := dbtest.CreateUser(t, db, "bob", false)
	item := dbtest.CreateItem(t, db, alice.ID, "SKU-1", 5, 1, "9.99")

	assert.NoError(t, checkSKUAvailable(db, bob.ID, "SKU-1", 0), "other owner may reuse sku")
	assert.NoError(t, checkSKUAvailable(db, alice.ID, "SKU-1", item.ID), "item does not conflict with itself")
	assert.NoError(t, checkSKUAvailable(db, alice.ID, "", 0), "empty sku skips the check")

	err := checkSKUAvailable(db, alice.ID, "SKU-1", 0)
	var verr *utils.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "sku", verr.Field)
	assert.Equal(t, "An item with SKU 'SKU-1' already exists in your inventory.", verr.Message)
}

func TestTranslateItemWriteErrorFromConstraint(t *testing.T) {
	db := dbtest.New(t)
	alice := dbtest.CreateUser(t, db, "alice", false)
	dbtest.CreateItem(t, db, alice.ID, "DUP", 1, 0, "1.00")

	err := db.Create(&models.InventoryItem{UserID: alice.ID, Name: "again", SKU: "DUP"}).Error
	require.ErrorIs(t, err, gorm.ErrDuplicatedKey)

	err = translateItemWriteError(err, "DUP")
	var verr *utils.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "An item with SKU 'DUP' already exists in your inventory.", verr.Message)
}

// A concurrent writer can claim the SKU between the pre-check and the insert.
// The callback inserts that row on the same transaction just before gorm's create.
func TestCreateItemTranslatesConstraintViolationAfterPrecheck(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	raced := false
	err := f.db.Callback().Create().Before("gorm:create").Register("test:concurrent_sku", func(tx *gorm.DB) {
		item, ok := tx.Statement.Dest.(*models.InventoryItem)
		if !ok || item.SKU != "RACE" || raced {
			return
		}
		raced = true
		tx.Session(&gorm.Session{NewDB: true}).Exec(
			"INSERT INTO inventory_items (user_id, name, sku, quantity, price, threshold, created_at, updated_at) "+
				"VALUES (?, 'other writer', 'RACE', 1, 1.00, 0, CURRENT_TIMESTAMP, CURRENT_TIMESTAMP)",
			item.UserID)
	})
	require.NoError(t, err)

	_, err = f.h.CreateItem(ctx, f.alice, itemInput("RACE", 1, 0))
	require.True(t, raced, "callback ran after the pre-check")

	var verr *utils.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "sku", verr.Field)
	assert.Equal(t, "An item with SKU 'RACE' already exists in your inventory.", verr.Message)

	var n int64
	require.NoError(t, f.db.Model(&models.InventoryItem{}).Where("sku = ?", "RACE").Count(&n).Error)
	assert.Zero(t, n, "transaction rolled back")
}
