package handler

import (
	"context"
	"testing"

	"inventory-system/internal/database/models"
	"inventory-system/internal/utils"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateSupplierGST(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.h.CreateSupplier(ctx, f.alice, SupplierInput{Name: "A", GSTNumber: strPtr("22AAAAA0000A1Z5")})
	require.NoError(t, err)

	_, err = f.h.CreateSupplier(ctx, f.bob, SupplierInput{Name: "B", GSTNumber: strPtr("22AAAAA0000A1Z5")})
	var verr *utils.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "gst_number", verr.Field)

	_, err = f.h.CreateSupplier(ctx, f.alice, SupplierInput{Name: "C", GSTNumber: strPtr("bad")})
	assert.True(t, utils.IsValidationError(err))

	for _, name := range []string{"D", "E"} {
		sup, err := f.h.CreateSupplier(ctx, f.alice, SupplierInput{Name: name, GSTNumber: strPtr("  ")})
		require.NoError(t, err)
		assert.Nil(t, sup.GSTNumber)
	}

	_, err = f.h.CreateSupplier(ctx, f.alice, SupplierInput{Name: ""})
	assert.True(t, utils.IsValidationError(err))
	_, err = f.h.CreateSupplier(ctx, f.alice, SupplierInput{Name: "F", Email: strPtr("not-an-email")})
	assert.True(t, utils.IsValidationError(err))
}

func TestSupplierScoping(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	sup, err := f.h.CreateSupplier(ctx, f.alice, SupplierInput{Name: "Mine"})
	require.NoError(t, err)
	assert.Equal(t, f.alice.UserID, sup.CreatedBy)

	list, err := f.h.ListSuppliers(ctx, f.bob)
	require.NoError(t, err)
	assert.Empty(t, list)

	list, err = f.h.ListSuppliers(ctx, f.staff)
	require.NoError(t, err)
	assert.Len(t, list, 1)

	_, err = f.h.GetSupplier(ctx, f.bob, sup.ID)
	assert.True(t, utils.IsNotFoundError(err))

	updated, err := f.h.UpdateSupplier(ctx, f.alice, sup.ID, SupplierInput{Name: "Renamed", GSTNumber: strPtr("22AAAAA0000A1Z5")})
	require.NoError(t, err)
	assert.Equal(t, "Renamed", updated.Name)

	_, err = f.h.UpdateSupplier(ctx, f.bob, sup.ID, SupplierInput{Name: "Stolen"})
	assert.True(t, utils.IsNotFoundError(err))
}

func TestDeleteSupplierNullsItemReferences(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	sup, err := f.h.CreateSupplier(ctx, f.alice, SupplierInput{Name: "Gone Soon"})
	require.NoError(t, err)

	in := itemInput("A", 1, 0)
	in.SupplierID = &sup.ID
	item, err := f.h.CreateItem(ctx, f.alice, in)
	require.NoError(t, err)

	require.NoError(t, f.h.DeleteSupplier(ctx, f.alice, sup.ID))

	var reloaded models.InventoryItem
	require.NoError(t, f.db.First(&reloaded, item.ID).Error)
	assert.Nil(t, reloaded.SupplierID)

	_, err = f.h.GetSupplier(ctx, f.alice, sup.ID)
	assert.True(t, utils.IsNotFoundError(err))
}
