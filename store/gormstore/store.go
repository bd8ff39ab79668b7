package gormstore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/olympos-dev/authcore"
)

// userModel is the persisted shape of an account row.
type userModel struct {
	ID            string `gorm:"primarykey;type:uuid"`
	Email         string `gorm:"uniqueIndex;not null"`
	FirstName     string
	LastName      string
	PasswordHash  string `gorm:"not null"`
	Role          string
	EmailVerified bool `gorm:"default:false"`
	MFAEnabled    bool `gorm:"default:false"`
	MFASecret     string
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

func (userModel) TableName() string { return "users" }

// Store implements [authcore.UserStore] on a GORM connection.
type Store struct {
	db *gorm.DB
}

// Open dials PostgreSQL and returns a Store. Error translation is enabled so
// unique-constraint violations can be mapped to [authcore.ErrEmailExists].
func Open(dsn string) (*Store, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{TranslateError: true})
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	return &Store{db: db}, nil
}

// NewStore wraps an existing GORM connection. The connection must have been
// opened with TranslateError enabled for duplicate detection to work.
func NewStore(db *gorm.DB) *Store {
	return &Store{db: db}
}

// AutoMigrate creates or updates the users table.
func (s *Store) AutoMigrate(ctx context.Context) error {
	return s.db.WithContext(ctx).AutoMigrate(&userModel{})
}

func (s *Store) GetByEmail(ctx context.Context, email string) (authcore.UserRecord, error) {
	var row userModel
	err := s.db.WithContext(ctx).Where("email = ?", email).First(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return authcore.UserRecord{}, authcore.ErrUserNotFound
		}
		return authcore.UserRecord{}, fmt.Errorf("get user by email: %w", err)
	}
	return toRecord(row), nil
}

func (s *Store) GetByID(ctx context.Context, id string) (authcore.UserRecord, error) {
	var row userModel
	err := s.db.WithContext(ctx).Where("id = ?", id).First(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return authcore.UserRecord{}, authcore.ErrUserNotFound
		}
		return authcore.UserRecord{}, fmt.Errorf("get user by id: %w", err)
	}
	return toRecord(row), nil
}

func (s *Store) Create(ctx context.Context, input authcore.CreateUserInput) (authcore.UserRecord, error) {
	row := userModel{
		ID:           uuid.NewString(),
		Email:        input.Email,
		FirstName:    input.FirstName,
		LastName:     input.LastName,
		PasswordHash: input.PasswordHash,
		Role:         input.Role,
	}

	if err := s.db.WithContext(ctx).Create(&row).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return authcore.UserRecord{}, authcore.ErrEmailExists
		}
		return authcore.UserRecord{}, fmt.Errorf("create user: %w", err)
	}
	return toRecord(row), nil
}

func (s *Store) UpdatePasswordHash(ctx context.Context, userID, newHash string) error {
	return s.updateColumns(ctx, userID, map[string]interface{}{
		"password_hash": newHash,
	})
}

func (s *Store) SetEmailVerified(ctx context.Context, userID string) error {
	return s.updateColumns(ctx, userID, map[string]interface{}{
		"email_verified": true,
	})
}

func (s *Store) SetMFA(ctx context.Context, userID string, enabled bool, secret string) error {
	return s.updateColumns(ctx, userID, map[string]interface{}{
		"mfa_enabled": enabled,
		"mfa_secret":  secret,
	})
}

func (s *Store) updateColumns(ctx context.Context, userID string, cols map[string]interface{}) error {
	res := s.db.WithContext(ctx).Model(&userModel{}).Where("id = ?", userID).Updates(cols)
	if res.Error != nil {
		return fmt.Errorf("update user: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return authcore.ErrUserNotFound
	}
	return nil
}

func toRecord(row userModel) authcore.UserRecord {
	return authcore.UserRecord{
		ID:            row.ID,
		Email:         row.Email,
		FirstName:     row.FirstName,
		LastName:      row.LastName,
		PasswordHash:  row.PasswordHash,
		Role:          row.Role,
		EmailVerified: row.EmailVerified,
		MFAEnabled:    row.MFAEnabled,
		MFASecret:     row.MFASecret,
	}
}
