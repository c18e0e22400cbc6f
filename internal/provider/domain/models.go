package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	notificationdomain "github.com/smallbiznis/courier/internal/notification/domain"
)

// ProviderDetails is the live configuration of a delivery provider. Lower
// priority is preferred. Every change bumps Version and is mirrored into
// ProviderDetailsHistory.
type ProviderDetails struct {
	ID                    snowflake.ID                        `json:"id" gorm:"primaryKey"`
	DisplayName           string                              `json:"display_name" gorm:"column:display_name;type:text;not null"`
	Identifier            string                              `json:"identifier" gorm:"column:identifier;type:text;not null;uniqueIndex:ux_provider_details_type_identifier"`
	Priority              int                                 `json:"priority" gorm:"column:priority;not null"`
	NotificationType      notificationdomain.NotificationType `json:"notification_type" gorm:"column:notification_type;type:text;not null;uniqueIndex:ux_provider_details_type_identifier"`
	Active                bool                                `json:"active" gorm:"column:active;not null;default:false"`
	Version               int                                 `json:"version" gorm:"column:version;not null;default:1"`
	SupportsInternational bool                                `json:"supports_international" gorm:"column:supports_international;not null;default:false"`
	CreatedByID           *string                             `json:"created_by_id,omitempty" gorm:"column:created_by_id;type:text"`
	UpdatedAt             *time.Time                          `json:"updated_at,omitempty" gorm:"column:updated_at;autoUpdateTime:false"`
}

func (ProviderDetails) TableName() string { return "provider_details" }

// ProviderDetailsHistory is an immutable snapshot of a provider at a version.
type ProviderDetailsHistory struct {
	ID                    snowflake.ID                        `json:"id" gorm:"primaryKey;autoIncrement:false"`
	Version               int                                 `json:"version" gorm:"primaryKey;autoIncrement:false"`
	DisplayName           string                              `json:"display_name" gorm:"column:display_name;type:text;not null"`
	Identifier            string                              `json:"identifier" gorm:"column:identifier;type:text;not null"`
	Priority              int                                 `json:"priority" gorm:"column:priority;not null"`
	NotificationType      notificationdomain.NotificationType `json:"notification_type" gorm:"column:notification_type;type:text;not null"`
	Active                bool                                `json:"active" gorm:"column:active;not null"`
	SupportsInternational bool                                `json:"supports_international" gorm:"column:supports_international;not null"`
	CreatedByID           *string                             `json:"created_by_id,omitempty" gorm:"column:created_by_id;type:text"`
	UpdatedAt             *time.Time                          `json:"updated_at,omitempty" gorm:"column:updated_at;autoUpdateTime:false"`
}

func (ProviderDetailsHistory) TableName() string { return "provider_details_history" }

// Snapshot copies the live row into a history record.
func (p ProviderDetails) Snapshot() ProviderDetailsHistory {
	return ProviderDetailsHistory{
		ID:                    p.ID,
		Version:               p.Version,
		DisplayName:           p.DisplayName,
		Identifier:            p.Identifier,
		Priority:              p.Priority,
		NotificationType:      p.NotificationType,
		Active:                p.Active,
		SupportsInternational: p.SupportsInternational,
		CreatedByID:           p.CreatedByID,
		UpdatedAt:             p.UpdatedAt,
	}
}

// ProviderStat is a provider together with its billable SMS volume for the
// current month.
type ProviderStat struct {
	ID                      snowflake.ID                        `json:"id" gorm:"column:id"`
	DisplayName             string                              `json:"display_name" gorm:"column:display_name"`
	Identifier              string                              `json:"identifier" gorm:"column:identifier"`
	Priority                int                                 `json:"priority" gorm:"column:priority"`
	NotificationType        notificationdomain.NotificationType `json:"notification_type" gorm:"column:notification_type"`
	Active                  bool                                `json:"active" gorm:"column:active"`
	SupportsInternational   bool                                `json:"supports_international" gorm:"column:supports_international"`
	UpdatedAt               *time.Time                          `json:"updated_at,omitempty" gorm:"column:updated_at"`
	CreatedByID             *string                             `json:"created_by_id,omitempty" gorm:"column:created_by_id"`
	CurrentMonthBillableSMS int64                               `json:"current_month_billable_sms" gorm:"column:current_month_billable_sms"`
}
