package repository

import (
	"context"
	"errors"

	"fuelsurcharge/internal/model"

	"gorm.io/gorm"
)

type SettingsRepository interface {
	// Get returns the settings row, or (nil, nil) before it has been seeded.
	Get(ctx context.Context) (*model.Settings, error)
	Save(ctx context.Context, s *model.Settings) error
}

type settingsRepo struct{ db *gorm.DB }

func NewSettingsRepository(db *gorm.DB) SettingsRepository {
	return &settingsRepo{db: db}
}

func (r *settingsRepo) Get(ctx context.Context) (*model.Settings, error) {
	var s model.Settings
	err := r.db.WithContext(ctx).First(&s, model.SettingsRowID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *settingsRepo) Save(ctx context.Context, s *model.Settings) error {
	s.ID = model.SettingsRowID
	return r.db.WithContext(ctx).Save(s).Error
}
