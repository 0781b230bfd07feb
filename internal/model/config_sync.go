package model

import "time"

// ConfigSync anchors optimistic concurrency control for one (application, domain)
// pair. VersionNumber starts at 1 on onboarding and increases by exactly 1 on
// every committed mutation against the pair.
type ConfigSync struct {
	ID              int64     `gorm:"column:id;primaryKey;autoIncrement" json:"id"`
	ApplicationName string    `gorm:"column:application_name;type:varchar(128);not null;uniqueIndex:uk_config_sync_pair,priority:1" json:"applicationName"`
	Domain          string    `gorm:"column:domain;type:varchar(64);not null;uniqueIndex:uk_config_sync_pair,priority:2" json:"domain"`
	VersionNumber   int       `gorm:"column:version_number;not null" json:"versionNumber"`
	UpdatedBy       string    `gorm:"column:updated_by;type:varchar(64);not null" json:"updatedBy"`
	UpdatedAt       time.Time `gorm:"column:updated_at;not null;autoUpdateTime:false" json:"updatedAt"`
}

// TableName specifies the table name for ConfigSync
func (ConfigSync) TableName() string {
	return "config_sync"
}

// InitialVersion is the version a pair carries right after onboarding.
const InitialVersion = 1
