package handler

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"inventory-system/internal/database/models"
	"inventory-system/internal/metrics"
	"inventory-system/internal/utils"

	"gorm.io/gorm"
)

var gstPattern = regexp.MustCompile(`^[0-9]{2}[A-Z]{5}[0-9]{4}[A-Z][1-9A-Z]Z[0-9A-Z]$`)

const gstFormatMessage = "Invalid GST format. Expected format: 22AAAAA0000A1Z5"

// ValidateGSTNumber accepts nil or blank values; anything else must be a well-formed GSTIN.
func ValidateGSTNumber(gst *string) error {
	if gst == nil || strings.TrimSpace(*gst) == "" {
		return nil
	}
	if !gstPattern.MatchString(*gst) {
		return utils.NewValidationError("gst_number", gstFormatMessage)
	}
	return nil
}

func skuConflict(sku string) error {
	return utils.NewValidationError("sku", fmt.Sprintf("An item with SKU '%s' already exists in your inventory.", sku))
}

// checkSKUAvailable fails when another item of ownerID already uses sku.
// excludeID is the item being updated, or 0 on create.
func checkSKUAvailable(tx *gorm.DB, ownerID int64, sku string, excludeID int64) error {
	if sku == "" {
		return nil
	}

	q := tx.Model(&models.InventoryItem{}).Where("user_id = ? AND sku = ?", ownerID, sku)
	if excludeID != 0 {
		q = q.Where("id <> ?", excludeID)
	}

	var count int64
	if err := q.Count(&count).Error; err != nil {
		return fmt.Errorf("failed to check sku: %w", err)
	}
	if count > 0 {
		metrics.SKUConflicts.WithLabelValues("precheck").Inc()
		return skuConflict(sku)
	}
	return nil
}

// translateItemWriteError maps constraint violations raised by item writes
// onto the same validation errors the pre-checks produce.
func translateItemWriteError(err error, sku string) error {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		metrics.SKUConflicts.WithLabelValues("constraint").Inc()
		return skuConflict(sku)
	}
	if errors.Is(err, gorm.ErrForeignKeyViolated) {
		return utils.NewValidationError("supplier_id", "Referenced supplier or user does not exist")
	}
	return err
}
