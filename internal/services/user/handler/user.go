package handler

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"time"

	"inventory-system/internal/database/models"
	"inventory-system/internal/utils"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

type UserHandler struct {
	db         *gorm.DB
	jwt        *utils.JWTUtil
	log        *zap.Logger
	bcryptCost int
}

func NewUserHandler(db *gorm.DB, jwt *utils.JWTUtil, log *zap.Logger) *UserHandler {
	return &UserHandler{
		db:         db,
		jwt:        jwt,
		log:        log,
		bcryptCost: bcrypt.DefaultCost,
	}
}

type RegisterInput struct {
	Username string `json:"username"`
	Password string `json:"password"`
	Email    string `json:"email"`
	Mobile   string `json:"mobile"`
	Age      int32  `json:"age"`
	Gender   string `json:"gender"`
	Address  string `json:"address"`
}

type MeResponse struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	IsStaff  bool   `json:"is_staff"`
}

func (in RegisterInput) validate() error {
	required := map[string]string{
		"username": in.Username,
		"password": in.Password,
		"email":    in.Email,
		"mobile":   in.Mobile,
		"gender":   in.Gender,
		"address":  in.Address,
	}
	for _, field := range []string{"username", "password", "email", "mobile", "gender", "address"} {
		if strings.TrimSpace(required[field]) == "" {
			return utils.NewValidationError(field, "All fields are required")
		}
	}
	if in.Age <= 0 {
		return utils.NewValidationError("age", "All fields are required")
	}
	if _, err := mail.ParseAddress(in.Email); err != nil {
		return utils.NewValidationError("email", "Enter a valid email address.")
	}
	return nil
}

// Register creates the user and its profile in one transaction.
func (s *UserHandler) Register(ctx context.Context, in RegisterInput) (*models.User, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}

	pwHash, err := bcrypt.GenerateFromPassword([]byte(in.Password), s.bcryptCost)
	if err != nil {
		return nil, fmt.Errorf("error hashing password: %w", err)
	}

	user := models.User{
		Username: strings.TrimSpace(in.Username),
		Email:    strings.TrimSpace(in.Email),
		Password: string(pwHash),
		IsActive: true,
		Profile: &models.UserProfile{
			Mobile:  strings.TrimSpace(in.Mobile),
			Age:     in.Age,
			Gender:  strings.TrimSpace(in.Gender),
			Address: strings.TrimSpace(in.Address),
		},
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&models.User{}).Where("username = ?", user.Username).Count(&count).Error; err != nil {
			return fmt.Errorf("failed to check username: %w", err)
		}
		if count > 0 {
			return utils.NewValidationError("username", "Username taken")
		}
		if err := tx.Create(&user).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return utils.NewValidationError("username", "Username taken")
			}
			return fmt.Errorf("failed to create user: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.log.Info("user registered", zap.Int64("user_id", user.ID), zap.String("username", user.Username))
	return &user, nil
}

// Authenticate checks credentials and issues an access/refresh token pair.
func (s *UserHandler) Authenticate(ctx context.Context, username, password string) (*utils.TokenPair, error) {
	var user models.User
	if err := s.db.WithContext(ctx).Where("username = ?", username).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, utils.ErrUnauthenticated
		}
		return nil, fmt.Errorf("failed to load user: %w", err)
	}

	if !user.IsActive {
		return nil, utils.ErrUnauthenticated
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)); err != nil {
		return nil, utils.ErrUnauthenticated
	}

	pair, err := s.jwt.GenerateTokenPair(user.ID, user.Username)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	if err := s.db.WithContext(ctx).Model(&user).Update("last_login", now).Error; err != nil {
		s.log.Warn("failed to record last login", zap.Int64("user_id", user.ID), zap.Error(err))
	}

	return pair, nil
}

// Refresh exchanges a valid refresh token for a new access token.
func (s *UserHandler) Refresh(ctx context.Context, refreshToken string) (string, time.Time, error) {
	claims, err := s.jwt.ParseToken(refreshToken, utils.TokenTypeRefresh)
	if err != nil {
		return "", time.Time{}, utils.ErrUnauthenticated
	}

	caller, err := s.Resolve(ctx, claims.UserId)
	if err != nil {
		return "", time.Time{}, err
	}

	return s.jwt.GenerateToken(caller.UserID, caller.Username, utils.TokenTypeAccess)
}

// Resolve loads the current identity for a token subject so staff changes apply immediately.
func (s *UserHandler) Resolve(ctx context.Context, userID int64) (utils.Caller, error) {
	var user models.User
	if err := s.db.WithContext(ctx).Select("id", "username", "is_staff", "is_active").First(&user, userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return utils.Caller{}, utils.ErrUnauthenticated
		}
		return utils.Caller{}, fmt.Errorf("failed to resolve user: %w", err)
	}
	if !user.IsActive {
		return utils.Caller{}, utils.ErrUnauthenticated
	}
	return utils.Caller{UserID: user.ID, Username: user.Username, IsStaff: user.IsStaff}, nil
}

func (s *UserHandler) Me(ctx context.Context, caller utils.Caller) (*MeResponse, error) {
	var user models.User
	if err := s.db.WithContext(ctx).First(&user, caller.UserID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, utils.ErrUnauthenticated
		}
		return nil, fmt.Errorf("failed to load user: %w", err)
	}
	return &MeResponse{Username: user.Username, Email: user.Email, IsStaff: user.IsStaff}, nil
}

func (s *UserHandler) PromoteStaff(ctx context.Context, username string) error {
	res := s.db.WithContext(ctx).Model(&models.User{}).Where("username = ?", username).Update("is_staff", true)
	if res.Error != nil {
		return fmt.Errorf("failed to promote user: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return &utils.NotFoundError{Resource: "User", Key: username}
	}
	return nil
}
