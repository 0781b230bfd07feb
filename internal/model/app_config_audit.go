package model

import "time"

// Audit operation constants
const (
	AuditOperationAdded    = "ADDED"
	AuditOperationModified = "MODIFIED"
	AuditOperationDeleted  = "DELETED"
)

// AppConfigAudit is one immutable record of a property mutation. Old/new values
// are denormalized so history survives independent of current AppConfig state.
// VersionNumber equals the ConfigSync version after the mutation that produced
// the entry. Rows are never updated or deleted.
type AppConfigAudit struct {
	ID               int64     `gorm:"column:id;primaryKey;autoIncrement" json:"id"`
	ApplicationName  string    `gorm:"column:application_name;type:varchar(128);not null;index:idx_audit_pair,priority:1" json:"applicationName"`
	Domain           string    `gorm:"column:domain;type:varchar(64);not null;index:idx_audit_pair,priority:2" json:"domain"`
	PropertyKey      string    `gorm:"column:property_key;type:varchar(255);not null" json:"propertyKey"`
	OldPropertyValue *string   `gorm:"column:old_property_value;type:text" json:"oldPropertyValue"`
	NewPropertyValue *string   `gorm:"column:new_property_value;type:text" json:"newPropertyValue"`
	Operation        string    `gorm:"column:operation;type:varchar(16);not null" json:"operation"`
	UpdatedBy        string    `gorm:"column:updated_by;type:varchar(64);not null" json:"updatedBy"`
	UpdatedAt        time.Time `gorm:"column:updated_at;not null;autoUpdateTime:false" json:"updatedAt"`
	VersionNumber    int       `gorm:"column:version_number;not null" json:"versionNumber"`
}

// TableName specifies the table name for AppConfigAudit
func (AppConfigAudit) TableName() string {
	return "app_config_audit"
}
