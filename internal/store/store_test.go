package store

import (
	"testing"
	"time"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"go_configserver/internal/db"
	"go_configserver/internal/model"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	gdb, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("failed to open sqlite: %v", err)
	}
	sqlDB, err := gdb.DB()
	if err != nil {
		t.Fatalf("failed to get sql.DB: %v", err)
	}
	// A second pooled connection would see its own empty :memory: database.
	sqlDB.SetMaxOpenConns(1)
	if err := db.Migrate(gdb); err != nil {
		t.Fatalf("failed to migrate: %v", err)
	}
	return gdb
}

func seedProperty(t *testing.T, s PropertyStore, app, domain, key, value string) {
	t.Helper()
	now := Touch()
	if err := s.Insert(&model.AppConfig{
		ApplicationName: app,
		Domain:          domain,
		PropertyKey:     key,
		PropertyValue:   value,
		CreatedBy:       "tester",
		CreatedAt:       now,
		UpdatedBy:       "tester",
		UpdatedAt:       now,
	}); err != nil {
		t.Fatalf("Insert(%s) failed: %v", key, err)
	}
}

func TestPropertyStore_FindAllOrdered(t *testing.T) {
	s := NewPropertyStore(newTestDB(t))
	seedProperty(t, s, "svc", "prod", "z.last", "3")
	seedProperty(t, s, "svc", "prod", "a.first", "1")
	seedProperty(t, s, "svc", "prod", "m.middle", "2")
	seedProperty(t, s, "other", "prod", "a.first", "x")

	configs, err := s.FindAll("svc", "prod")
	if err != nil {
		t.Fatalf("FindAll() failed: %v", err)
	}
	if len(configs) != 3 {
		t.Fatalf("Expected 3 properties, got %d", len(configs))
	}
	wantOrder := []string{"a.first", "m.middle", "z.last"}
	for i, key := range wantOrder {
		if configs[i].PropertyKey != key {
			t.Errorf("Position %d: expected key %s, got %s", i, key, configs[i].PropertyKey)
		}
	}
}

func TestPropertyStore_FindOneAbsentIsNil(t *testing.T) {
	s := NewPropertyStore(newTestDB(t))
	config, err := s.FindOne("svc", "prod", "missing")
	if err != nil {
		t.Fatalf("FindOne() failed: %v", err)
	}
	if config != nil {
		t.Errorf("Expected nil for missing property, got %+v", config)
	}
}

func TestPropertyStore_DuplicateInsertFails(t *testing.T) {
	s := NewPropertyStore(newTestDB(t))
	seedProperty(t, s, "svc", "prod", "key", "1")

	now := Touch()
	err := s.Insert(&model.AppConfig{
		ApplicationName: "svc",
		Domain:          "prod",
		PropertyKey:     "key",
		PropertyValue:   "2",
		CreatedBy:       "tester",
		CreatedAt:       now,
		UpdatedBy:       "tester",
		UpdatedAt:       now,
	})
	if err == nil {
		t.Error("Expected constraint violation on duplicate insert")
	}
}

func TestPropertyStore_UpdateAndDelete(t *testing.T) {
	s := NewPropertyStore(newTestDB(t))
	seedProperty(t, s, "svc", "prod", "key", "old")

	existing, err := s.FindOne("svc", "prod", "key")
	if err != nil || existing == nil {
		t.Fatalf("FindOne() failed: %v", err)
	}
	existing.PropertyValue = "new"
	existing.UpdatedBy = "editor"
	existing.UpdatedAt = Touch()
	if err := s.Update(existing); err != nil {
		t.Fatalf("Update() failed: %v", err)
	}

	updated, err := s.FindOne("svc", "prod", "key")
	if err != nil || updated == nil {
		t.Fatalf("FindOne() after update failed: %v", err)
	}
	if updated.PropertyValue != "new" || updated.UpdatedBy != "editor" {
		t.Errorf("Update not applied: %+v", updated)
	}
	if updated.CreatedBy != "tester" {
		t.Errorf("Update must not touch provenance: %+v", updated)
	}

	affected, err := s.Delete("svc", "prod", "key")
	if err != nil {
		t.Fatalf("Delete() failed: %v", err)
	}
	if affected != 1 {
		t.Errorf("Expected 1 affected row, got %d", affected)
	}
	gone, _ := s.FindOne("svc", "prod", "key")
	if gone != nil {
		t.Errorf("Property should be gone, got %+v", gone)
	}
}

func TestPropertyStore_DeleteAll(t *testing.T) {
	s := NewPropertyStore(newTestDB(t))
	seedProperty(t, s, "svc", "prod", "a", "1")
	seedProperty(t, s, "svc", "prod", "b", "2")
	seedProperty(t, s, "svc", "staging", "a", "1")

	affected, err := s.DeleteAll("svc", "prod")
	if err != nil {
		t.Fatalf("DeleteAll() failed: %v", err)
	}
	if affected != 2 {
		t.Errorf("Expected 2 affected rows, got %d", affected)
	}
	remaining, _ := s.FindAll("svc", "staging")
	if len(remaining) != 1 {
		t.Errorf("Other domain should be untouched, got %d rows", len(remaining))
	}
}

func TestPropertyStore_Metadata(t *testing.T) {
	s := NewPropertyStore(newTestDB(t))
	seedProperty(t, s, "svc-b", "staging", "k", "v")
	seedProperty(t, s, "svc-a", "staging", "k", "v")
	seedProperty(t, s, "svc-a", "prod", "k", "v")

	domains, err := s.DistinctDomains()
	if err != nil {
		t.Fatalf("DistinctDomains() failed: %v", err)
	}
	if len(domains) != 2 || domains[0] != "prod" || domains[1] != "staging" {
		t.Errorf("Expected sorted [prod staging], got %v", domains)
	}

	apps, err := s.ApplicationsForDomain("staging")
	if err != nil {
		t.Fatalf("ApplicationsForDomain() failed: %v", err)
	}
	if len(apps) != 2 || apps[0] != "svc-a" || apps[1] != "svc-b" {
		t.Errorf("Expected sorted [svc-a svc-b], got %v", apps)
	}
}

func TestSyncStore_IncrementVersion(t *testing.T) {
	s := NewSyncStore(newTestDB(t))
	if err := s.Insert(&model.ConfigSync{
		ApplicationName: "svc",
		Domain:          "prod",
		VersionNumber:   model.InitialVersion,
		UpdatedBy:       "system",
		UpdatedAt:       Touch(),
	}); err != nil {
		t.Fatalf("Insert() failed: %v", err)
	}

	for i := 0; i < 3; i++ {
		affected, err := s.IncrementVersion("svc", "prod", "editor")
		if err != nil {
			t.Fatalf("IncrementVersion() failed: %v", err)
		}
		if affected != 1 {
			t.Fatalf("Expected 1 affected row, got %d", affected)
		}
	}

	sync, err := s.Find("svc", "prod")
	if err != nil || sync == nil {
		t.Fatalf("Find() failed: %v", err)
	}
	if sync.VersionNumber != 4 {
		t.Errorf("Expected version 4 after 3 increments, got %d", sync.VersionNumber)
	}
	if sync.UpdatedBy != "editor" {
		t.Errorf("Expected updatedBy editor, got %s", sync.UpdatedBy)
	}
}

func TestSyncStore_IncrementMissingPair(t *testing.T) {
	s := NewSyncStore(newTestDB(t))
	affected, err := s.IncrementVersion("ghost", "prod", "editor")
	if err != nil {
		t.Fatalf("IncrementVersion() failed: %v", err)
	}
	if affected != 0 {
		t.Errorf("Expected 0 affected rows for missing pair, got %d", affected)
	}
}

func TestSyncStore_DuplicatePairRejected(t *testing.T) {
	s := NewSyncStore(newTestDB(t))
	sync := model.ConfigSync{
		ApplicationName: "svc",
		Domain:          "prod",
		VersionNumber:   model.InitialVersion,
		UpdatedBy:       "system",
		UpdatedAt:       Touch(),
	}
	if err := s.Insert(&sync); err != nil {
		t.Fatalf("Insert() failed: %v", err)
	}
	dup := sync
	dup.ID = 0
	if err := s.Insert(&dup); err == nil {
		t.Error("Expected constraint violation on duplicate sync pair")
	}
}

func TestAuditStore_OrderAndLimit(t *testing.T) {
	s := NewAuditStore(newTestDB(t))
	base := Touch()
	value := "v"
	for i := 1; i <= 5; i++ {
		id, err := s.Insert(&model.AppConfigAudit{
			ApplicationName:  "svc",
			Domain:           "prod",
			PropertyKey:      "key",
			NewPropertyValue: &value,
			Operation:        model.AuditOperationAdded,
			UpdatedBy:        "tester",
			UpdatedAt:        base.Add(time.Duration(i) * time.Second),
			VersionNumber:    i,
		})
		if err != nil {
			t.Fatalf("Insert() failed: %v", err)
		}
		if id == 0 {
			t.Error("Expected generated id")
		}
	}

	entries, err := s.FindByAppAndDomain("svc", "prod", 3)
	if err != nil {
		t.Fatalf("FindByAppAndDomain() failed: %v", err)
	}
	if len(entries) != 3 {
		t.Fatalf("Expected 3 entries with limit, got %d", len(entries))
	}
	for i, want := range []int{5, 4, 3} {
		if entries[i].VersionNumber != want {
			t.Errorf("Position %d: expected version %d, got %d", i, want, entries[i].VersionNumber)
		}
	}
}
