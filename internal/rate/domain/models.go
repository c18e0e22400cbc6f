package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	notificationdomain "github.com/smallbiznis/courier/internal/notification/domain"
)

// Rate is the per-unit price of a channel from ValidFrom until the next
// rate of the same type takes over. Rates are appended, never edited.
type Rate struct {
	ID               snowflake.ID                        `json:"id" gorm:"primaryKey"`
	NotificationType notificationdomain.NotificationType `json:"notification_type" gorm:"column:notification_type;type:text;not null;index:idx_rates_type_valid_from"`
	Rate             decimal.Decimal                     `json:"rate" gorm:"column:rate;type:numeric;not null"`
	ValidFrom        time.Time                           `json:"valid_from" gorm:"column:valid_from;not null;index:idx_rates_type_valid_from"`
}

func (Rate) TableName() string { return "rates" }

// Period is a closed-open reporting interval [Start, End).
type Period struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

func (p Period) Valid() bool {
	return p.End.After(p.Start)
}

// Band is the slice of a Period during which a single rate applied.
type Band struct {
	Rate  decimal.Decimal `json:"rate"`
	Start time.Time       `json:"start"`
	End   time.Time       `json:"end"`
}

func (b Band) Period() Period {
	return Period{Start: b.Start, End: b.End}
}

// Cost prices units at rate, in currency minor units. The multiplier
// defaults to 1 when unset.
func Cost(rate decimal.Decimal, units, multiplier int64) int64 {
	if multiplier <= 0 {
		multiplier = 1
	}
	return rate.Mul(decimal.NewFromInt(units)).Mul(decimal.NewFromInt(multiplier)).Round(0).IntPart()
}
