package store

import (
	"fmt"

	"gorm.io/gorm"

	"go_configserver/internal/model"
)

type auditStore struct {
	db *gorm.DB
}

// NewAuditStore creates an AuditStore backed by the given database handle.
func NewAuditStore(db *gorm.DB) AuditStore {
	return &auditStore{db: db}
}

func (s *auditStore) WithTx(tx *gorm.DB) AuditStore {
	return &auditStore{db: tx}
}

func (s *auditStore) FindByAppAndDomain(app, domain string, limit int) ([]model.AppConfigAudit, error) {
	var entries []model.AppConfigAudit
	if err := s.db.
		Where("application_name = ? AND domain = ?", app, domain).
		Order("version_number DESC, updated_at DESC").
		Limit(limit).
		Find(&entries).Error; err != nil {
		return nil, fmt.Errorf("failed to list audit entries: %w", err)
	}
	return entries, nil
}

func (s *auditStore) Insert(entry *model.AppConfigAudit) (int64, error) {
	if err := s.db.Create(entry).Error; err != nil {
		return 0, fmt.Errorf("failed to insert audit entry: %w", err)
	}
	return entry.ID, nil
}
