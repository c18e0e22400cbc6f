package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	notificationdomain "github.com/smallbiznis/courier/internal/notification/domain"
	ratedomain "github.com/smallbiznis/courier/internal/rate/domain"
)

// Filter selects billable notifications. Every field is applied: channel,
// created_at within [Start, End), service, billable status and non-test key.
type Filter struct {
	NotificationType notificationdomain.NotificationType
	ServiceID        snowflake.ID
	Start            time.Time
	End              time.Time
}

// Aggregate is one grouped result from the notification history.
type Aggregate struct {
	Count          int64 `gorm:"column:count"`
	BillableUnits  int64 `gorm:"column:billable_units"`
	RateMultiplier int64 `gorm:"column:rate_multiplier"`
	International  bool  `gorm:"column:international"`
}

// Row is one line of the yearly billing report.
type Row struct {
	// Count is billable units times multiplier for SMS, messages for email.
	Count            int64                               `json:"count"`
	BillableUnits    int64                               `json:"billable_units"`
	RateMultiplier   int64                               `json:"rate_multiplier"`
	NotificationType notificationdomain.NotificationType `json:"notification_type"`
	International    bool                                `json:"international"`
	Rate             decimal.Decimal                     `json:"rate"`
	// NoActivity marks a placeholder row for a band without billable traffic.
	NoActivity bool `json:"no_activity"`
}

// Cost is the charge for the row in currency minor units. Email is billed by
// count only and never carries a cost.
func (r Row) Cost() int64 {
	if r.NotificationType != notificationdomain.SMS {
		return 0
	}
	return ratedomain.Cost(r.Rate, r.Count, 1)
}

// MonthlyRow is one line of the monthly billing report.
type MonthlyRow struct {
	Month            string                              `json:"month"`
	BillableUnits    int64                               `json:"billable_units"`
	RateMultiplier   int64                               `json:"rate_multiplier"`
	International    bool                                `json:"international"`
	NotificationType notificationdomain.NotificationType `json:"notification_type"`
	Rate             decimal.Decimal                     `json:"rate"`
}

// Cost is the SMS charge for the month line in currency minor units.
func (r MonthlyRow) Cost() int64 {
	if r.NotificationType != notificationdomain.SMS {
		return 0
	}
	return ratedomain.Cost(r.Rate, r.BillableUnits, r.RateMultiplier)
}
