package store

import (
	"fmt"

	"gorm.io/gorm"

	"go_configserver/internal/model"
)

type propertyStore struct {
	db *gorm.DB
}

// NewPropertyStore creates a PropertyStore backed by the given database handle.
func NewPropertyStore(db *gorm.DB) PropertyStore {
	return &propertyStore{db: db}
}

func (s *propertyStore) WithTx(tx *gorm.DB) PropertyStore {
	return &propertyStore{db: tx}
}

func (s *propertyStore) FindAll(app, domain string) ([]model.AppConfig, error) {
	var configs []model.AppConfig
	if err := s.db.
		Where("application_name = ? AND domain = ?", app, domain).
		Order("property_key").
		Find(&configs).Error; err != nil {
		return nil, fmt.Errorf("failed to list properties: %w", err)
	}
	return configs, nil
}

func (s *propertyStore) FindOne(app, domain, key string) (*model.AppConfig, error) {
	var config model.AppConfig
	if err := s.db.
		Where("application_name = ? AND domain = ? AND property_key = ?", app, domain, key).
		First(&config).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get property: %w", err)
	}
	return &config, nil
}

func (s *propertyStore) Insert(cfg *model.AppConfig) error {
	if err := s.db.Create(cfg).Error; err != nil {
		return fmt.Errorf("failed to insert property: %w", err)
	}
	return nil
}

func (s *propertyStore) Update(cfg *model.AppConfig) error {
	res := s.db.Model(&model.AppConfig{}).
		Where("application_name = ? AND domain = ? AND property_key = ?",
			cfg.ApplicationName, cfg.Domain, cfg.PropertyKey).
		Updates(map[string]interface{}{
			"property_value": cfg.PropertyValue,
			"updated_by":     cfg.UpdatedBy,
			"updated_at":     cfg.UpdatedAt,
		})
	if res.Error != nil {
		return fmt.Errorf("failed to update property: %w", res.Error)
	}
	return nil
}

func (s *propertyStore) Delete(app, domain, key string) (int64, error) {
	res := s.db.
		Where("application_name = ? AND domain = ? AND property_key = ?", app, domain, key).
		Delete(&model.AppConfig{})
	if res.Error != nil {
		return 0, fmt.Errorf("failed to delete property: %w", res.Error)
	}
	return res.RowsAffected, nil
}

func (s *propertyStore) DeleteAll(app, domain string) (int64, error) {
	res := s.db.
		Where("application_name = ? AND domain = ?", app, domain).
		Delete(&model.AppConfig{})
	if res.Error != nil {
		return 0, fmt.Errorf("failed to delete properties: %w", res.Error)
	}
	return res.RowsAffected, nil
}

func (s *propertyStore) DistinctDomains() ([]string, error) {
	var domains []string
	if err := s.db.Model(&model.AppConfig{}).
		Distinct("domain").
		Order("domain").
		Pluck("domain", &domains).Error; err != nil {
		return nil, fmt.Errorf("failed to list domains: %w", err)
	}
	return domains, nil
}

func (s *propertyStore) ApplicationsForDomain(domain string) ([]string, error) {
	var apps []string
	if err := s.db.Model(&model.AppConfig{}).
		Where("domain = ?", domain).
		Distinct("application_name").
		Order("application_name").
		Pluck("application_name", &apps).Error; err != nil {
		return nil, fmt.Errorf("failed to list applications: %w", err)
	}
	return apps, nil
}
