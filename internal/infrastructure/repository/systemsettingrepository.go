package repository

import (
	"context"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/orris-inc/usdtpay/internal/domain/setting"
	"github.com/orris-inc/usdtpay/internal/infrastructure/persistence/mappers"
	"github.com/orris-inc/usdtpay/internal/infrastructure/persistence/models"
	"github.com/orris-inc/usdtpay/internal/shared/biztime"
	"github.com/orris-inc/usdtpay/internal/shared/logger"
)

// SystemSettingRepository implements setting.Repository
type SystemSettingRepository struct {
	db     *gorm.DB
	logger logger.Interface
	mapper mappers.SystemSettingMapper
}

// NewSystemSettingRepository creates a new SystemSettingRepository
func NewSystemSettingRepository(db *gorm.DB, logger logger.Interface) setting.Repository {
	return &SystemSettingRepository{
		db:     db,
		logger: logger,
		mapper: mappers.NewSystemSettingMapper(),
	}
}

func (r *SystemSettingRepository) Get(ctx context.Context, key setting.Key) (string, bool, error) {
	var model models.SystemSettingModel

	err := r.db.WithContext(ctx).
		Where("setting_key = ?", string(key)).
		First(&model).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return "", false, nil
		}
		r.logger.Errorw("failed to get setting", "key", key, "error", err)
		return "", false, fmt.Errorf("failed to get setting: %w", err)
	}

	return model.Value, true, nil
}

// GetAll retrieves all persisted overrides ordered by key
func (r *SystemSettingRepository) GetAll(ctx context.Context) ([]*setting.Setting, error) {
	var modelList []*models.SystemSettingModel

	err := r.db.WithContext(ctx).
		Order("setting_key ASC").
		Find(&modelList).Error
	if err != nil {
		r.logger.Errorw("failed to get all settings", "error", err)
		return nil, fmt.Errorf("failed to get all settings: %w", err)
	}

	return r.mapper.ToDomainList(modelList), nil
}

// Upsert creates or updates a setting
func (r *SystemSettingRepository) Upsert(ctx context.Context, s *setting.Setting) error {
	if s.UpdatedAt.IsZero() {
		s.UpdatedAt = biztime.NowUTC()
	}
	model := r.mapper.ToModel(s)

	err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "setting_key"}},
		DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
	}).Create(model).Error
	if err != nil {
		r.logger.Errorw("failed to upsert setting", "key", s.Key, "error", err)
		return fmt.Errorf("failed to upsert setting: %w", err)
	}

	return nil
}

// Delete removes an override. Deleting a missing key is not an error.
func (r *SystemSettingRepository) Delete(ctx context.Context, key setting.Key) error {
	result := r.db.WithContext(ctx).
		Where("setting_key = ?", string(key)).
		Delete(&models.SystemSettingModel{})
	if result.Error != nil {
		r.logger.Errorw("failed to delete setting", "key", key, "error", result.Error)
		return fmt.Errorf("failed to delete setting: %w", result.Error)
	}

	return nil
}
