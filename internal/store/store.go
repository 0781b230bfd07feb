package store

import (
	"time"

	"gorm.io/gorm"

	"go_configserver/internal/model"
)

// Touch returns the timestamp written on every mutation. Millisecond-precision
// UTC keeps stored values round-trippable across MySQL datetime columns and
// the SQLite test driver, which matters for the exact updated_at match in the
// optimistic-lock check.
func Touch() time.Time {
	return time.Now().UTC().Truncate(time.Millisecond)
}

// PropertyStore is the pure CRUD surface over the app_config table. No version
// checks happen here; the orchestrating service owns all invariants.
type PropertyStore interface {
	// FindAll returns every property for the pair, ordered by property key.
	FindAll(app, domain string) ([]model.AppConfig, error)
	// FindOne returns the property or nil when absent; absence is not an error.
	FindOne(app, domain, key string) (*model.AppConfig, error)
	Insert(cfg *model.AppConfig) error
	Update(cfg *model.AppConfig) error
	Delete(app, domain, key string) (int64, error)
	DeleteAll(app, domain string) (int64, error)
	DistinctDomains() ([]string, error)
	ApplicationsForDomain(domain string) ([]string, error)
	// WithTx returns a store bound to the given transaction handle.
	WithTx(tx *gorm.DB) PropertyStore
}

// SyncStore owns the per-pair version counter, the sole source of truth for
// optimistic-concurrency checks.
type SyncStore interface {
	Find(app, domain string) (*model.ConfigSync, error)
	// FindForUpdate reads the sync row holding a row lock for the duration of
	// the surrounding transaction (MySQL only; SQLite serializes writers).
	FindForUpdate(app, domain string) (*model.ConfigSync, error)
	Insert(sync *model.ConfigSync) error
	// IncrementVersion bumps version_number by 1 in a single atomic statement
	// and returns the affected-row count.
	IncrementVersion(app, domain, updatedBy string) (int64, error)
	WithTx(tx *gorm.DB) SyncStore
}

// AuditStore is the append-only mutation log. No update or delete is exposed.
type AuditStore interface {
	// FindByAppAndDomain returns entries ordered by (version DESC, updatedAt DESC).
	FindByAppAndDomain(app, domain string, limit int) ([]model.AppConfigAudit, error)
	Insert(entry *model.AppConfigAudit) (int64, error)
	WithTx(tx *gorm.DB) AuditStore
}
