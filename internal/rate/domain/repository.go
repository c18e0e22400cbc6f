package domain

import (
	"context"

	notificationdomain "github.com/smallbiznis/courier/internal/notification/domain"
	"gorm.io/gorm"
)

type Repository interface {
	Insert(ctx context.Context, db *gorm.DB, rate *Rate) error
	// ListByType returns every rate for notificationType ordered by valid_from.
	ListByType(ctx context.Context, db *gorm.DB, notificationType notificationdomain.NotificationType) ([]Rate, error)
}
