package repository

import (
	"context"

	billingdomain "github.com/smallbiznis/courier/internal/billing/domain"
	notificationdomain "github.com/smallbiznis/courier/internal/notification/domain"
	"gorm.io/gorm"
)

const billableFilter = `notification_type = ?
	AND created_at >= ? AND created_at < ?
	AND service_id = ?
	AND status IN ?
	AND key_type <> ?`

type repo struct{}

func Provide() billingdomain.Repository {
	return &repo{}
}

func (r *repo) AggregateSMS(ctx context.Context, db *gorm.DB, filter billingdomain.Filter) ([]billingdomain.Aggregate, error) {
	var items []billingdomain.Aggregate
	err := db.WithContext(ctx).Raw(
		`SELECT SUM(billable_units * COALESCE(rate_multiplier, 1)) AS count,
		 SUM(billable_units) AS billable_units,
		 COALESCE(rate_multiplier, 1) AS rate_multiplier,
		 international
		 FROM notification_history
		 WHERE `+billableFilter+`
		 GROUP BY international, COALESCE(rate_multiplier, 1)
		 ORDER BY COALESCE(rate_multiplier, 1) ASC, international ASC`,
		filterArgs(filter)...,
	).Scan(&items).Error
	if err != nil {
		return nil, err
	}
	return items, nil
}

func (r *repo) AggregateEmail(ctx context.Context, db *gorm.DB, filter billingdomain.Filter) ([]billingdomain.Aggregate, error) {
	var items []billingdomain.Aggregate
	err := db.WithContext(ctx).Raw(
		`SELECT COUNT(id) AS count,
		 COUNT(id) AS billable_units,
		 1 AS rate_multiplier,
		 international
		 FROM notification_history
		 WHERE `+billableFilter+`
		 GROUP BY international
		 ORDER BY international ASC`,
		filterArgs(filter)...,
	).Scan(&items).Error
	if err != nil {
		return nil, err
	}
	return items, nil
}

func filterArgs(filter billingdomain.Filter) []any {
	return []any{
		filter.NotificationType,
		filter.Start,
		filter.End,
		filter.ServiceID,
		notificationdomain.BillableStatuses,
		notificationdomain.KeyTypeTest,
	}
}
