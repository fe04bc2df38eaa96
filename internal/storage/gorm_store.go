package storage

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"cybershield/backend/internal/config"
	"cybershield/backend/internal/models"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// Service stores complaints in PostgreSQL through gorm.
type Service struct {
	DB     *gorm.DB
	prefix string
}

// NewStorageService wraps an open database. Generated tracking codes start
// with prefix, upper-cased.
func NewStorageService(db *gorm.DB, prefix string) *Service {
	return &Service{DB: db, prefix: prefix}
}

// gormConfig maps driver errors such as unique violations onto gorm's
// sentinel errors. Every write is a single statement, so no implicit
// transaction is opened.
func gormConfig() *gorm.Config {
	return &gorm.Config{TranslateError: true, SkipDefaultTransaction: true}
}

// OpenPostgres connects and migrates the complaints table.
func OpenPostgres(dsn string) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(dsn), gormConfig())
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	if err := db.AutoMigrate(&models.Complaint{}); err != nil {
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return db, nil
}

func (s *Service) Create(ctx context.Context, c *models.Complaint) error {
	generated := c.TrackingCode == ""
	for attempt := 0; attempt < config.TrackingCodeMaxAttempts; attempt++ {
		if generated {
			c.TrackingCode = models.NewTrackingCode(s.prefix)
		}
		c.ApplyDefaults(time.Now())

		err := s.DB.WithContext(ctx).Create(c).Error
		if err == nil {
			return nil
		}
		if !errors.Is(err, gorm.ErrDuplicatedKey) {
			log.Printf("ERROR: Failed to save complaint %s: %v", c.TrackingCode, err)
			return err
		}
		if !generated {
			return ErrDuplicateCode
		}
		c.ID = 0
	}
	return ErrDuplicateCode
}

func (s *Service) GetByTrackingCode(ctx context.Context, code string) (*models.Complaint, error) {
	var c models.Complaint
	err := s.DB.WithContext(ctx).Where("tracking_code = ?", code).First(&c).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func (s *Service) UpdateStatus(ctx context.Context, code string, status models.Status) (*models.Complaint, error) {
	// The monotonic check is part of the UPDATE so concurrent operators
	// cannot move a complaint backwards.
	result := s.DB.WithContext(ctx).Model(&models.Complaint{}).
		Where("tracking_code = ? AND status IN ?", code, models.StatusesUpTo(status)).
		Updates(map[string]interface{}{
			"status":       status,
			"last_updated": time.Now(),
		})
	if result.Error != nil {
		return nil, result.Error
	}
	if result.RowsAffected == 0 {
		current, err := s.GetByTrackingCode(ctx, code)
		if err != nil {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %s -> %s", ErrStatusRegression, current.Status, status)
	}
	return s.GetByTrackingCode(ctx, code)
}

func (s *Service) ListAll(ctx context.Context) ([]models.Complaint, error) {
	var list []models.Complaint
	if err := s.DB.WithContext(ctx).Order("created_at asc").Find(&list).Error; err != nil {
		log.Printf("ERROR: Failed to list complaints: %v", err)
		return nil, err
	}
	return list, nil
}

var (
	_ Storage = (*Service)(nil)
	_ Storage = (*MemoryStore)(nil)
)
