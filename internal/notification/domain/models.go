package domain

import (
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
)

type NotificationType string

const (
	SMS   NotificationType = "sms"
	Email NotificationType = "email"
)

// ParseNotificationType normalises user input into a billed channel.
func ParseNotificationType(value string) (NotificationType, bool) {
	switch NotificationType(strings.ToLower(strings.TrimSpace(value))) {
	case SMS:
		return SMS, true
	case Email:
		return Email, true
	default:
		return "", false
	}
}

func (t NotificationType) String() string { return string(t) }

type KeyType string

const (
	KeyTypeNormal KeyType = "normal"
	KeyTypeTeam   KeyType = "team"
	KeyTypeTest   KeyType = "test"
)

type Status string

const (
	StatusCreated           Status = "created"
	StatusSending           Status = "sending"
	StatusSent              Status = "sent"
	StatusDelivered         Status = "delivered"
	StatusPending           Status = "pending"
	StatusFailed            Status = "failed"
	StatusTechnicalFailure  Status = "technical-failure"
	StatusTemporaryFailure  Status = "temporary-failure"
	StatusPermanentFailure  Status = "permanent-failure"
	StatusValidationFailed  Status = "validation-failed"
	StatusPendingVirusCheck Status = "pending-virus-check"
)

// BillableStatuses are the statuses a notification is charged in. Anything
// that never left the platform (created, validation-failed) is free.
var BillableStatuses = []Status{
	StatusSending,
	StatusSent,
	StatusDelivered,
	StatusPending,
	StatusFailed,
	StatusTechnicalFailure,
	StatusTemporaryFailure,
	StatusPermanentFailure,
}

// NotificationHistory is the archived copy of a sent notification that
// billing reads from.
type NotificationHistory struct {
	ID               snowflake.ID     `json:"id" gorm:"primaryKey"`
	ServiceID        snowflake.ID     `json:"service_id" gorm:"column:service_id;not null;index"`
	NotificationType NotificationType `json:"notification_type" gorm:"column:notification_type;type:text;not null"`
	KeyType          KeyType          `json:"key_type" gorm:"column:key_type;type:text;not null"`
	Status           Status           `json:"status" gorm:"column:status;type:text;not null"`
	BillableUnits    int64            `json:"billable_units" gorm:"column:billable_units;not null;default:0"`
	RateMultiplier   *int64           `json:"rate_multiplier,omitempty" gorm:"column:rate_multiplier"`
	International    bool             `json:"international" gorm:"column:international;not null;default:false"`
	CreatedAt        time.Time        `json:"created_at" gorm:"column:created_at;not null;index"`
}

func (NotificationHistory) TableName() string { return "notification_history" }

// FactBilling is one row of the daily billing fact table, aggregated per
// service, provider and rate multiplier.
type FactBilling struct {
	BstDate           time.Time        `json:"bst_date" gorm:"column:bst_date;primaryKey"`
	ServiceID         snowflake.ID     `json:"service_id" gorm:"column:service_id;primaryKey"`
	NotificationType  NotificationType `json:"notification_type" gorm:"column:notification_type;type:text;primaryKey"`
	Provider          string           `json:"provider" gorm:"column:provider;type:text;primaryKey"`
	RateMultiplier    int64            `json:"rate_multiplier" gorm:"column:rate_multiplier;primaryKey;default:1"`
	International     bool             `json:"international" gorm:"column:international;primaryKey;default:false"`
	BillableUnits     int64            `json:"billable_units" gorm:"column:billable_units;not null;default:0"`
	NotificationsSent int64            `json:"notifications_sent" gorm:"column:notifications_sent;not null;default:0"`
}

func (FactBilling) TableName() string { return "ft_billing" }
