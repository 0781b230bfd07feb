package configsvc

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"go_configserver/internal/cache"
	"go_configserver/internal/fileparse"
	"go_configserver/internal/model"
	"go_configserver/internal/store"
)

// OnboardActor is the provenance recorded on rows seeded from a file import.
const OnboardActor = "system"

// DefaultAuditLimit caps audit history queries when the caller gives no limit.
const DefaultAuditLimit = 100

// PropertiesWithSync bundles the full property list of a pair with its
// current sync state, the shape every read and every mutation returns.
type PropertiesWithSync struct {
	Properties []model.AppConfig `json:"properties"`
	SyncInfo   model.ConfigSync  `json:"syncInfo"`
}

// Metadata lists every known domain and the applications onboarded in each.
type Metadata struct {
	Domains              []string            `json:"domains"`
	ApplicationsByDomain map[string][]string `json:"applicationsByDomain"`
}

// UpdateRequest carries a bulk property update with its optimistic-lock
// expectations. Both the version number and the updated_at timestamp must
// match the stored sync row exactly.
type UpdateRequest struct {
	Properties            map[string]string
	ExpectedVersionNumber int
	ExpectedUpdatedAt     time.Time
	UpdatedBy             string
}

// Service exposes every configuration read and write. Mutations run in one
// database transaction with the sync row locked, so the version recorded on
// audit entries always matches the committed counter.
type Service interface {
	GetProperties(ctx context.Context, app, domain string) (*PropertiesWithSync, error)
	GetPropertyYAML(ctx context.Context, app, domain string) (string, error)
	GetSyncInfo(ctx context.Context, app, domain string) (*model.ConfigSync, error)
	GetMetadata(ctx context.Context) (*Metadata, error)
	AddProperty(ctx context.Context, app, domain, key, value, createdBy string) (*model.AppConfig, error)
	UpdateProperties(ctx context.Context, app, domain string, req UpdateRequest) (*PropertiesWithSync, error)
	DeleteProperty(ctx context.Context, app, domain, key, updatedBy string) (*PropertiesWithSync, error)
	Onboard(ctx context.Context, domain, app string, content []byte, fileName string) (*PropertiesWithSync, error)
	GetAuditHistory(ctx context.Context, app, domain string, limit int) ([]model.AppConfigAudit, error)
}

type service struct {
	db         *gorm.DB
	properties store.PropertyStore
	syncs      store.SyncStore
	audits     store.AuditStore
	syncCache  *cache.SyncCache
	logger     *logrus.Entry
}

// New wires the service with its stores. syncCache may be nil, in which case
// sync lookups always hit the database.
func New(db *gorm.DB, properties store.PropertyStore, syncs store.SyncStore, audits store.AuditStore, syncCache *cache.SyncCache) Service {
	return &service{
		db:         db,
		properties: properties,
		syncs:      syncs,
		audits:     audits,
		syncCache:  syncCache,
		logger:     logrus.WithField("component", "config-service"),
	}
}

func (s *service) GetProperties(ctx context.Context, app, domain string) (*PropertiesWithSync, error) {
	h := s.db.WithContext(ctx)
	sync, err := s.syncs.WithTx(h).Find(app, domain)
	if err != nil {
		return nil, err
	}
	if sync == nil {
		return nil, notFound(app, domain)
	}
	configs, err := s.properties.WithTx(h).FindAll(app, domain)
	if err != nil {
		return nil, err
	}
	return &PropertiesWithSync{Properties: configs, SyncInfo: *sync}, nil
}

func (s *service) GetPropertyYAML(ctx context.Context, app, domain string) (string, error) {
	res, err := s.GetProperties(ctx, app, domain)
	if err != nil {
		return "", err
	}
	return renderYAML(app, domain, &res.SyncInfo, res.Properties)
}

func (s *service) GetSyncInfo(ctx context.Context, app, domain string) (*model.ConfigSync, error) {
	if s.syncCache != nil {
		if sync, ok := s.syncCache.Get(ctx, app, domain); ok {
			return sync, nil
		}
	}
	sync, err := s.syncs.WithTx(s.db.WithContext(ctx)).Find(app, domain)
	if err != nil {
		return nil, err
	}
	if sync == nil {
		return nil, notFound(app, domain)
	}
	if s.syncCache != nil {
		s.syncCache.Set(ctx, sync)
	}
	return sync, nil
}

func (s *service) GetMetadata(ctx context.Context) (*Metadata, error) {
	props := s.properties.WithTx(s.db.WithContext(ctx))
	domains, err := props.DistinctDomains()
	if err != nil {
		return nil, err
	}
	byDomain := make(map[string][]string, len(domains))
	for _, domain := range domains {
		apps, err := props.ApplicationsForDomain(domain)
		if err != nil {
			return nil, err
		}
		byDomain[domain] = apps
	}
	return &Metadata{Domains: domains, ApplicationsByDomain: byDomain}, nil
}

func (s *service) AddProperty(ctx context.Context, app, domain, key, value, createdBy string) (*model.AppConfig, error) {
	var created model.AppConfig
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		props := s.properties.WithTx(tx)
		syncs := s.syncs.WithTx(tx)
		audits := s.audits.WithTx(tx)

		existing, err := props.FindOne(app, domain, key)
		if err != nil {
			return err
		}
		if existing != nil {
			return fmt.Errorf("%w: property %q for %s in %s", ErrAlreadyExists, key, app, domain)
		}

		sync, err := syncs.FindForUpdate(app, domain)
		if err != nil {
			return err
		}
		if sync == nil {
			return notFound(app, domain)
		}

		now := store.Touch()
		created = model.AppConfig{
			ApplicationName: app,
			Domain:          domain,
			PropertyKey:     key,
			PropertyValue:   value,
			CreatedBy:       createdBy,
			CreatedAt:       now,
			UpdatedBy:       createdBy,
			UpdatedAt:       now,
		}
		if err := props.Insert(&created); err != nil {
			return err
		}

		if _, err := audits.Insert(&model.AppConfigAudit{
			ApplicationName:  app,
			Domain:           domain,
			PropertyKey:      key,
			NewPropertyValue: &value,
			Operation:        model.AuditOperationAdded,
			UpdatedBy:        createdBy,
			UpdatedAt:        now,
			VersionNumber:    sync.VersionNumber + 1,
		}); err != nil {
			return err
		}

		return s.bumpVersion(syncs, app, domain, createdBy)
	})
	if err != nil {
		return nil, err
	}

	s.invalidateSync(ctx, app, domain)
	s.logger.WithFields(logrus.Fields{
		"application": app,
		"domain":      domain,
		"key":         key,
	}).Info("property added")
	return &created, nil
}

func (s *service) UpdateProperties(ctx context.Context, app, domain string, req UpdateRequest) (*PropertiesWithSync, error) {
	var result *PropertiesWithSync
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		props := s.properties.WithTx(tx)
		syncs := s.syncs.WithTx(tx)
		audits := s.audits.WithTx(tx)

		sync, err := syncs.FindForUpdate(app, domain)
		if err != nil {
			return err
		}
		if sync == nil {
			return notFound(app, domain)
		}
		if sync.VersionNumber != req.ExpectedVersionNumber ||
			!sync.UpdatedAt.Equal(req.ExpectedUpdatedAt) {
			return fmt.Errorf("%w: %s in %s is at version %d",
				ErrVersionConflict, app, domain, sync.VersionNumber)
		}

		now := store.Touch()
		for _, key := range sortedKeys(req.Properties) {
			existing, err := props.FindOne(app, domain, key)
			if err != nil {
				return err
			}
			if existing == nil {
				// Existing-key-only bulk update, not an upsert.
				continue
			}
			oldValue := existing.PropertyValue
			newValue := req.Properties[key]

			existing.PropertyValue = newValue
			existing.UpdatedBy = req.UpdatedBy
			existing.UpdatedAt = now
			if err := props.Update(existing); err != nil {
				return err
			}

			if _, err := audits.Insert(&model.AppConfigAudit{
				ApplicationName:  app,
				Domain:           domain,
				PropertyKey:      key,
				OldPropertyValue: &oldValue,
				NewPropertyValue: &newValue,
				Operation:        model.AuditOperationModified,
				UpdatedBy:        req.UpdatedBy,
				UpdatedAt:        now,
				VersionNumber:    sync.VersionNumber + 1,
			}); err != nil {
				return err
			}
		}

		// One increment for the whole batch; every change shares the version.
		if err := s.bumpVersion(syncs, app, domain, req.UpdatedBy); err != nil {
			return err
		}

		result, err = s.refresh(tx, app, domain)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.invalidateSync(ctx, app, domain)
	s.logger.WithFields(logrus.Fields{
		"application": app,
		"domain":      domain,
		"keys":        len(req.Properties),
		"version":     result.SyncInfo.VersionNumber,
	}).Info("properties updated")
	return result, nil
}

func (s *service) DeleteProperty(ctx context.Context, app, domain, key, updatedBy string) (*PropertiesWithSync, error) {
	var result *PropertiesWithSync
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		props := s.properties.WithTx(tx)
		syncs := s.syncs.WithTx(tx)
		audits := s.audits.WithTx(tx)

		sync, err := syncs.FindForUpdate(app, domain)
		if err != nil {
			return err
		}
		if sync == nil {
			return notFound(app, domain)
		}

		existing, err := props.FindOne(app, domain, key)
		if err != nil {
			return err
		}
		if existing == nil {
			return fmt.Errorf("%w: property %q for %s in %s", ErrNotFound, key, app, domain)
		}

		if _, err := props.Delete(app, domain, key); err != nil {
			return err
		}

		oldValue := existing.PropertyValue
		if _, err := audits.Insert(&model.AppConfigAudit{
			ApplicationName:  app,
			Domain:           domain,
			PropertyKey:      key,
			OldPropertyValue: &oldValue,
			Operation:        model.AuditOperationDeleted,
			UpdatedBy:        updatedBy,
			UpdatedAt:        store.Touch(),
			VersionNumber:    sync.VersionNumber + 1,
		}); err != nil {
			return err
		}

		if err := s.bumpVersion(syncs, app, domain, updatedBy); err != nil {
			return err
		}

		result, err = s.refresh(tx, app, domain)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.invalidateSync(ctx, app, domain)
	s.logger.WithFields(logrus.Fields{
		"application": app,
		"domain":      domain,
		"key":         key,
	}).Info("property deleted")
	return result, nil
}

func (s *service) Onboard(ctx context.Context, domain, app string, content []byte, fileName string) (*PropertiesWithSync, error) {
	flat, err := fileparse.Parse(content, fileName)
	if err != nil {
		if errors.Is(err, fileparse.ErrUnsupportedFormat) {
			return nil, fmt.Errorf("%w: %v", ErrUnsupportedFormat, err)
		}
		return nil, fmt.Errorf("%w: %v", ErrInvalidFormat, err)
	}
	if len(flat) == 0 {
		return nil, fmt.Errorf("%w: %q", ErrEmptyConfiguration, fileName)
	}

	var result *PropertiesWithSync
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		props := s.properties.WithTx(tx)
		syncs := s.syncs.WithTx(tx)
		audits := s.audits.WithTx(tx)

		existing, err := props.FindAll(app, domain)
		if err != nil {
			return err
		}
		sync, err := syncs.Find(app, domain)
		if err != nil {
			return err
		}
		if len(existing) > 0 || sync != nil {
			return fmt.Errorf("%w: %s in %s is already onboarded", ErrAlreadyExists, app, domain)
		}

		now := store.Touch()
		for _, key := range sortedKeys(flat) {
			value := flat[key]
			if err := props.Insert(&model.AppConfig{
				ApplicationName: app,
				Domain:          domain,
				PropertyKey:     key,
				PropertyValue:   value,
				CreatedBy:       OnboardActor,
				CreatedAt:       now,
				UpdatedBy:       OnboardActor,
				UpdatedAt:       now,
			}); err != nil {
				return err
			}
			if _, err := audits.Insert(&model.AppConfigAudit{
				ApplicationName:  app,
				Domain:           domain,
				PropertyKey:      key,
				NewPropertyValue: &value,
				Operation:        model.AuditOperationAdded,
				UpdatedBy:        OnboardActor,
				UpdatedAt:        now,
				VersionNumber:    model.InitialVersion,
			}); err != nil {
				return err
			}
		}

		if err := syncs.Insert(&model.ConfigSync{
			ApplicationName: app,
			Domain:          domain,
			VersionNumber:   model.InitialVersion,
			UpdatedBy:       OnboardActor,
			UpdatedAt:       now,
		}); err != nil {
			return err
		}

		result, err = s.refresh(tx, app, domain)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.invalidateSync(ctx, app, domain)
	s.logger.WithFields(logrus.Fields{
		"application": app,
		"domain":      domain,
		"file":        fileName,
		"properties":  len(flat),
	}).Info("service onboarded")
	return result, nil
}

func (s *service) GetAuditHistory(ctx context.Context, app, domain string, limit int) ([]model.AppConfigAudit, error) {
	if limit <= 0 {
		limit = DefaultAuditLimit
	}
	return s.audits.WithTx(s.db.WithContext(ctx)).FindByAppAndDomain(app, domain, limit)
}

// bumpVersion applies the single atomic version increment and treats a
// zero-row result as a lost sync row, which aborts the transaction.
func (s *service) bumpVersion(syncs store.SyncStore, app, domain, updatedBy string) error {
	affected, err := syncs.IncrementVersion(app, domain, updatedBy)
	if err != nil {
		return err
	}
	if affected == 0 {
		return fmt.Errorf("sync row vanished for %s in %s", app, domain)
	}
	return nil
}

// refresh re-reads the property list and sync state inside the transaction so
// mutation responses reflect exactly what was committed.
func (s *service) refresh(tx *gorm.DB, app, domain string) (*PropertiesWithSync, error) {
	configs, err := s.properties.WithTx(tx).FindAll(app, domain)
	if err != nil {
		return nil, err
	}
	sync, err := s.syncs.WithTx(tx).Find(app, domain)
	if err != nil {
		return nil, err
	}
	if sync == nil {
		return nil, notFound(app, domain)
	}
	return &PropertiesWithSync{Properties: configs, SyncInfo: *sync}, nil
}

func (s *service) invalidateSync(ctx context.Context, app, domain string) {
	if s.syncCache != nil {
		s.syncCache.Invalidate(ctx, app, domain)
	}
}

func notFound(app, domain string) error {
	return fmt.Errorf("%w for %s in %s", ErrNotFound, app, domain)
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for key := range m {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}
