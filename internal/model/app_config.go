package model

import "time"

// AppConfig is one configuration property scoped to an (application, domain) pair.
// The composite unique index is the identity of a property; rows are only ever
// touched through the property store.
type AppConfig struct {
	ID              int64     `gorm:"column:id;primaryKey;autoIncrement" json:"id"`
	ApplicationName string    `gorm:"column:application_name;type:varchar(128);not null;uniqueIndex:uk_app_config_key,priority:1" json:"applicationName"`
	Domain          string    `gorm:"column:domain;type:varchar(64);not null;uniqueIndex:uk_app_config_key,priority:2" json:"domain"`
	PropertyKey     string    `gorm:"column:property_key;type:varchar(255);not null;uniqueIndex:uk_app_config_key,priority:3" json:"propertyKey"`
	PropertyValue   string    `gorm:"column:property_value;type:text;not null" json:"propertyValue"`
	CreatedBy       string    `gorm:"column:created_by;type:varchar(64);not null" json:"createdBy"`
	CreatedAt       time.Time `gorm:"column:created_at;not null;autoCreateTime:false" json:"createdAt"`
	UpdatedBy       string    `gorm:"column:updated_by;type:varchar(64);not null" json:"updatedBy"`
	UpdatedAt       time.Time `gorm:"column:updated_at;not null;autoUpdateTime:false" json:"updatedAt"`
}

// TableName specifies the table name for AppConfig
func (AppConfig) TableName() string {
	return "app_config"
}
