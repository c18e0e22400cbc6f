package domain

import (
	"context"
	"errors"
)

type Service interface {
	YearlyBillingData(ctx context.Context, req BillingDataRequest) ([]Row, error)
	MonthlyBillingData(ctx context.Context, req BillingDataRequest) ([]MonthlyRow, error)
}

type BillingDataRequest struct {
	ServiceID string `json:"service_id"`
	Year      int    `json:"year"`
}

var (
	ErrInvalidService = errors.New("invalid_service")
	ErrInvalidYear    = errors.New("invalid_year")
)
