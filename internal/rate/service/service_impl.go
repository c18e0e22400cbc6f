package service

import (
	"context"
	"fmt"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/courier/internal/cache"
	notificationdomain "github.com/smallbiznis/courier/internal/notification/domain"
	"github.com/smallbiznis/courier/internal/observability/metrics"
	ratedomain "github.com/smallbiznis/courier/internal/rate/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const rateTableTTL = 5 * time.Minute

type Params struct {
	fx.In

	DB         *gorm.DB
	Log        *zap.Logger
	GenID      *snowflake.Node
	Repo       ratedomain.Repository
	Metrics    *metrics.Metrics    `optional:"true"`
	DAOMetrics *metrics.DAOMetrics `optional:"true"`
}

type Service struct {
	db    *gorm.DB
	log   *zap.Logger
	genID *snowflake.Node
	repo  ratedomain.Repository
	cache cache.Cache[notificationdomain.NotificationType, []ratedomain.Rate]

	metrics    *metrics.Metrics
	daoMetrics *metrics.DAOMetrics
}

func New(p Params) ratedomain.Service {
	return &Service{
		db:         p.DB,
		log:        p.Log.Named("rate.service"),
		genID:      p.GenID,
		repo:       p.Repo,
		cache:      cache.NewTTLCache[notificationdomain.NotificationType, []ratedomain.Rate](),
		metrics:    p.Metrics,
		daoMetrics: p.DAOMetrics,
	}
}

func (s *Service) Create(ctx context.Context, req ratedomain.CreateRequest) (*ratedomain.Rate, error) {
	notificationType, ok := notificationdomain.ParseNotificationType(string(req.NotificationType))
	if !ok {
		return nil, ratedomain.ErrInvalidNotificationType
	}
	if req.Rate.IsNegative() {
		return nil, ratedomain.ErrInvalidRate
	}
	if req.ValidFrom.IsZero() {
		return nil, ratedomain.ErrInvalidValidFrom
	}

	entity := &ratedomain.Rate{
		ID:               s.genID.Generate(),
		NotificationType: notificationType,
		Rate:             req.Rate,
		ValidFrom:        req.ValidFrom.UTC(),
	}
	if err := s.repo.Insert(ctx, s.db, entity); err != nil {
		return nil, fmt.Errorf("insert rate: %w", err)
	}
	s.cache.Delete(notificationType)

	s.log.Info("rate created",
		zap.String("notification_type", notificationType.String()),
		zap.String("rate", entity.Rate.String()),
		zap.Time("valid_from", entity.ValidFrom),
	)
	return entity, nil
}

// ListByType returns the ordered rate table for a channel. Rates are
// append-only, so the table is cached briefly.
func (s *Service) ListByType(ctx context.Context, notificationType notificationdomain.NotificationType) (rates []ratedomain.Rate, err error) {
	defer s.daoMetrics.Observe(ctx, "get_rates_by_type", time.Now(), &err)

	if cached, ok := s.cache.Get(notificationType); ok {
		s.metrics.RecordRateCacheLookup(ctx, notificationType.String(), true)
		return append([]ratedomain.Rate(nil), cached...), nil
	}
	s.metrics.RecordRateCacheLookup(ctx, notificationType.String(), false)

	rates, err = s.repo.ListByType(ctx, s.db, notificationType)
	if err != nil {
		return nil, err
	}
	if len(rates) > 0 {
		s.cache.Set(notificationType, append([]ratedomain.Rate(nil), rates...), rateTableTTL)
	}
	return rates, nil
}

// Bands resolves the rate bands of a channel over period.
func (s *Service) Bands(ctx context.Context, notificationType notificationdomain.NotificationType, period ratedomain.Period) ([]ratedomain.Band, error) {
	rates, err := s.ListByType(ctx, notificationType)
	if err != nil {
		return nil, err
	}

	bands, err := ratedomain.ResolveBands(rates, period)
	if err != nil {
		return nil, fmt.Errorf("resolve %s bands: %w", notificationType, err)
	}
	return bands, nil
}
