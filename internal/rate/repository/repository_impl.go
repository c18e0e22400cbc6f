package repository

import (
	"context"

	notificationdomain "github.com/smallbiznis/courier/internal/notification/domain"
	ratedomain "github.com/smallbiznis/courier/internal/rate/domain"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() ratedomain.Repository {
	return &repo{}
}

func (r *repo) Insert(ctx context.Context, db *gorm.DB, rate *ratedomain.Rate) error {
	return db.WithContext(ctx).Exec(
		`INSERT INTO rates (id, notification_type, rate, valid_from) VALUES (?, ?, ?, ?)`,
		rate.ID,
		rate.NotificationType,
		rate.Rate,
		rate.ValidFrom,
	).Error
}

func (r *repo) ListByType(ctx context.Context, db *gorm.DB, notificationType notificationdomain.NotificationType) ([]ratedomain.Rate, error) {
	var items []ratedomain.Rate
	err := db.WithContext(ctx).Raw(
		`SELECT id, notification_type, rate, valid_from
		 FROM rates WHERE notification_type = ? ORDER BY valid_from ASC, id ASC`,
		notificationType,
	).Scan(&items).Error
	if err != nil {
		return nil, err
	}
	for i := range items {
		items[i].ValidFrom = items[i].ValidFrom.UTC()
	}
	return items, nil
}
