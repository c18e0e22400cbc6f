package domain

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"
	notificationdomain "github.com/smallbiznis/courier/internal/notification/domain"
)

type Service interface {
	Create(ctx context.Context, req CreateRequest) (*Rate, error)
	ListByType(ctx context.Context, notificationType notificationdomain.NotificationType) ([]Rate, error)
	Bands(ctx context.Context, notificationType notificationdomain.NotificationType, period Period) ([]Band, error)
}

type CreateRequest struct {
	NotificationType notificationdomain.NotificationType `json:"notification_type"`
	Rate             decimal.Decimal                     `json:"rate"`
	ValidFrom        time.Time                           `json:"valid_from"`
}

var (
	ErrEmptyRateTable          = errors.New("empty_rate_table")
	ErrNoRateForPeriod         = errors.New("no_rate_for_period")
	ErrInvalidPeriod           = errors.New("invalid_period")
	ErrInvalidNotificationType = errors.New("invalid_notification_type")
	ErrInvalidRate             = errors.New("invalid_rate")
	ErrInvalidValidFrom        = errors.New("invalid_valid_from")
)
