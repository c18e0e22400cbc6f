package domain

import (
	"testing"

	"github.com/shopspring/decimal"
	notificationdomain "github.com/smallbiznis/courier/internal/notification/domain"
	"github.com/stretchr/testify/assert"
)

func TestRowCost(t *testing.T) {
	sms := Row{
		Count:            7,
		BillableUnits:    4,
		RateMultiplier:   2,
		NotificationType: notificationdomain.SMS,
		Rate:             decimal.RequireFromString("1.58"),
	}
	assert.Equal(t, int64(11), sms.Cost())

	email := Row{Count: 100, BillableUnits: 100, RateMultiplier: 1, NotificationType: notificationdomain.Email}
	assert.Equal(t, int64(0), email.Cost())
}

func TestMonthlyRowCost(t *testing.T) {
	row := MonthlyRow{
		Month:            "June",
		BillableUnits:    3,
		RateMultiplier:   2,
		NotificationType: notificationdomain.SMS,
		Rate:             decimal.RequireFromString("1.5"),
	}
	assert.Equal(t, int64(9), row.Cost())
}
