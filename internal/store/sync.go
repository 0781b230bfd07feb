package store

import (
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"go_configserver/internal/model"
)

type syncStore struct {
	db *gorm.DB
}

// NewSyncStore creates a SyncStore backed by the given database handle.
func NewSyncStore(db *gorm.DB) SyncStore {
	return &syncStore{db: db}
}

func (s *syncStore) WithTx(tx *gorm.DB) SyncStore {
	return &syncStore{db: tx}
}

func (s *syncStore) Find(app, domain string) (*model.ConfigSync, error) {
	return s.find(s.db, app, domain)
}

func (s *syncStore) FindForUpdate(app, domain string) (*model.ConfigSync, error) {
	q := s.db
	// SELECT ... FOR UPDATE is a MySQL-ism; SQLite rejects the clause and
	// serializes writing transactions on its own.
	if s.db.Dialector.Name() == "mysql" {
		q = q.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	return s.find(q, app, domain)
}

func (s *syncStore) find(q *gorm.DB, app, domain string) (*model.ConfigSync, error) {
	var sync model.ConfigSync
	if err := q.
		Where("application_name = ? AND domain = ?", app, domain).
		First(&sync).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get sync info: %w", err)
	}
	return &sync, nil
}

func (s *syncStore) Insert(sync *model.ConfigSync) error {
	if err := s.db.Create(sync).Error; err != nil {
		return fmt.Errorf("failed to insert sync record: %w", err)
	}
	return nil
}

func (s *syncStore) IncrementVersion(app, domain, updatedBy string) (int64, error) {
	res := s.db.Model(&model.ConfigSync{}).
		Where("application_name = ? AND domain = ?", app, domain).
		Updates(map[string]interface{}{
			"version_number": gorm.Expr("version_number + ?", 1),
			"updated_by":     updatedBy,
			"updated_at":     Touch(),
		})
	if res.Error != nil {
		return 0, fmt.Errorf("failed to increment version: %w", res.Error)
	}
	return res.RowsAffected, nil
}
