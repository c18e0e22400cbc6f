package domain

import (
	"context"

	"gorm.io/gorm"
)

type Repository interface {
	// AggregateSMS sums billable units per (international, rate multiplier),
	// ordered by rate multiplier.
	AggregateSMS(ctx context.Context, db *gorm.DB, filter Filter) ([]Aggregate, error)
	// AggregateEmail counts messages per international flag.
	AggregateEmail(ctx context.Context, db *gorm.DB, filter Filter) ([]Aggregate, error)
}
