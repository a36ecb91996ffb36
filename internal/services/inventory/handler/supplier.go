package handler

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"

	"inventory-system/internal/database/models"
	"inventory-system/internal/utils"

	"gorm.io/gorm"
)

type SupplierInput struct {
	Name      string  `json:"name"`
	GSTNumber *string `json:"gst_number"`
	Email     *string `json:"email"`
	Phone     *string `json:"phone"`
	Address   *string `json:"address"`
}

// blankToNil keeps optional columns NULL instead of empty strings so the
// nullable unique index on gst_number admits many suppliers without one.
func blankToNil(s *string) *string {
	if s == nil {
		return nil
	}
	v := strings.TrimSpace(*s)
	if v == "" {
		return nil
	}
	return &v
}

func duplicateGST() error {
	return utils.NewValidationError("gst_number", "Supplier with this GST number already exists.")
}

func validateSupplier(sup *models.Supplier) error {
	if strings.TrimSpace(sup.Name) == "" {
		return utils.NewValidationError("name", "This field is required.")
	}
	if err := ValidateGSTNumber(sup.GSTNumber); err != nil {
		return err
	}
	if sup.Email != nil {
		if _, err := mail.ParseAddress(*sup.Email); err != nil {
			return utils.NewValidationError("email", "Enter a valid email address.")
		}
	}
	return nil
}

func checkGSTAvailable(tx *gorm.DB, gst *string, excludeID int64) error {
	if gst == nil {
		return nil
	}
	q := tx.Model(&models.Supplier{}).Where("gst_number = ?", *gst)
	if excludeID != 0 {
		q = q.Where("id <> ?", excludeID)
	}
	var count int64
	if err := q.Count(&count).Error; err != nil {
		return fmt.Errorf("failed to check gst number: %w", err)
	}
	if count > 0 {
		return duplicateGST()
	}
	return nil
}

func (s *InventoryHandler) CreateSupplier(ctx context.Context, caller utils.Caller, in SupplierInput) (*models.Supplier, error) {
	sup := models.Supplier{
		Name:      strings.TrimSpace(in.Name),
		GSTNumber: blankToNil(in.GSTNumber),
		Email:     blankToNil(in.Email),
		Phone:     blankToNil(in.Phone),
		Address:   blankToNil(in.Address),
		CreatedBy: caller.UserID,
	}
	if err := validateSupplier(&sup); err != nil {
		return nil, err
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := checkGSTAvailable(tx, sup.GSTNumber, 0); err != nil {
			return err
		}
		if err := tx.Create(&sup).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return duplicateGST()
			}
			return fmt.Errorf("failed to create supplier: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &sup, nil
}

func (s *InventoryHandler) scopedSuppliers(ctx context.Context, caller utils.Caller) *gorm.DB {
	q := s.db.WithContext(ctx).Model(&models.Supplier{})
	if !caller.IsStaff {
		q = q.Where("created_by = ?", caller.UserID)
	}
	return q
}

func (s *InventoryHandler) ListSuppliers(ctx context.Context, caller utils.Caller) ([]models.Supplier, error) {
	var suppliers []models.Supplier
	if err := s.scopedSuppliers(ctx, caller).Order("name ASC, id ASC").Find(&suppliers).Error; err != nil {
		return nil, fmt.Errorf("failed to list suppliers: %w", err)
	}
	return suppliers, nil
}

func (s *InventoryHandler) GetSupplier(ctx context.Context, caller utils.Caller, id int64) (*models.Supplier, error) {
	var sup models.Supplier
	if err := s.scopedSuppliers(ctx, caller).First(&sup, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, utils.NewNotFoundError("Supplier", id)
		}
		return nil, fmt.Errorf("failed to load supplier: %w", err)
	}
	return &sup, nil
}

// UpdateSupplier replaces every editable field, mirroring a full PUT.
func (s *InventoryHandler) UpdateSupplier(ctx context.Context, caller utils.Caller, id int64, in SupplierInput) (*models.Supplier, error) {
	var (
		sup    models.Supplier
		owners []int64
	)

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		q := tx.Model(&models.Supplier{})
		if !caller.IsStaff {
			q = q.Where("created_by = ?", caller.UserID)
		}
		if err := q.First(&sup, id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return utils.NewNotFoundError("Supplier", id)
			}
			return fmt.Errorf("failed to load supplier: %w", err)
		}

		sup.Name = strings.TrimSpace(in.Name)
		sup.GSTNumber = blankToNil(in.GSTNumber)
		sup.Email = blankToNil(in.Email)
		sup.Phone = blankToNil(in.Phone)
		sup.Address = blankToNil(in.Address)

		if err := validateSupplier(&sup); err != nil {
			return err
		}
		if err := checkGSTAvailable(tx, sup.GSTNumber, sup.ID); err != nil {
			return err
		}
		if err := tx.Save(&sup).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return duplicateGST()
			}
			return fmt.Errorf("failed to update supplier: %w", err)
		}
		return linkedOwners(tx, sup.ID, &owners)
	})
	if err != nil {
		return nil, err
	}

	// Cached low-stock rows embed the supplier.
	if len(owners) > 0 {
		s.InvalidateInventoryCaches(ctx, owners...)
	}
	return &sup, nil
}

// linkedOwners collects the owners of items that reference the supplier.
func linkedOwners(tx *gorm.DB, supplierID int64, owners *[]int64) error {
	if err := tx.Model(&models.InventoryItem{}).Where("supplier_id = ?", supplierID).
		Distinct().Pluck("user_id", owners).Error; err != nil {
		return fmt.Errorf("failed to load dependent items: %w", err)
	}
	return nil
}

// DeleteSupplier detaches dependent items before removing the supplier.
func (s *InventoryHandler) DeleteSupplier(ctx context.Context, caller utils.Caller, id int64) error {
	var owners []int64

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var sup models.Supplier
		q := tx.Model(&models.Supplier{})
		if !caller.IsStaff {
			q = q.Where("created_by = ?", caller.UserID)
		}
		if err := q.First(&sup, id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return utils.NewNotFoundError("Supplier", id)
			}
			return fmt.Errorf("failed to load supplier: %w", err)
		}

		if err := linkedOwners(tx, id, &owners); err != nil {
			return err
		}
		if err := tx.Model(&models.InventoryItem{}).Where("supplier_id = ?", id).
			Update("supplier_id", nil).Error; err != nil {
			return fmt.Errorf("failed to detach items: %w", err)
		}
		if err := tx.Delete(&sup).Error; err != nil {
			return fmt.Errorf("failed to delete supplier: %w", err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	if len(owners) > 0 {
		s.InvalidateInventoryCaches(ctx, owners...)
	}
	return nil
}
