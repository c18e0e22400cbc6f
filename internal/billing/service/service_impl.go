package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	billingdomain "github.com/smallbiznis/courier/internal/billing/domain"
	"github.com/smallbiznis/courier/internal/config"
	notificationdomain "github.com/smallbiznis/courier/internal/notification/domain"
	"github.com/smallbiznis/courier/internal/observability/metrics"
	"github.com/smallbiznis/courier/internal/observability/tracing"
	ratedomain "github.com/smallbiznis/courier/internal/rate/domain"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB            *gorm.DB
	Log           *zap.Logger
	Repo          billingdomain.Repository
	RateSvc       ratedomain.Service
	BillingConfig *config.BillingConfigHolder
	Metrics       *metrics.Metrics    `optional:"true"`
	DAOMetrics    *metrics.DAOMetrics `optional:"true"`
}

type Service struct {
	db            *gorm.DB
	log           *zap.Logger
	repo          billingdomain.Repository
	rateSvc       ratedomain.Service
	billingConfig *config.BillingConfigHolder

	metrics    *metrics.Metrics
	daoMetrics *metrics.DAOMetrics
}

func New(p Params) billingdomain.Service {
	return &Service{
		db:            p.DB,
		log:           p.Log.Named("billing.service"),
		repo:          p.Repo,
		rateSvc:       p.RateSvc,
		billingConfig: p.BillingConfig,
		metrics:       p.Metrics,
		daoMetrics:    p.DAOMetrics,
	}
}

// YearlyBillingData reports SMS usage per rate band followed by email usage
// for the financial year. A band or channel without billable traffic still
// yields one row, flagged NoActivity.
func (s *Service) YearlyBillingData(ctx context.Context, req billingdomain.BillingDataRequest) (rows []billingdomain.Row, err error) {
	defer s.daoMetrics.Observe(ctx, "get_yearly_billing_data", time.Now(), &err)
	ctx, span := tracing.Start(ctx, "billing.yearly", attribute.Int("year", req.Year))
	defer func() { tracing.End(span, err) }()

	serviceID, period, err := s.resolveRequest(req)
	if err != nil {
		return nil, err
	}

	bands, err := s.rateSvc.Bands(ctx, notificationdomain.SMS, period)
	if err != nil {
		return nil, err
	}

	for _, band := range bands {
		aggregates, err := s.repo.AggregateSMS(ctx, s.db, billingdomain.Filter{
			NotificationType: notificationdomain.SMS,
			ServiceID:        serviceID,
			Start:            band.Start,
			End:              band.End,
		})
		if err != nil {
			return nil, fmt.Errorf("aggregate sms billing: %w", err)
		}
		rows = append(rows, toRows(notificationdomain.SMS, band.Rate, aggregates)...)
	}

	emailAggregates, err := s.repo.AggregateEmail(ctx, s.db, billingdomain.Filter{
		NotificationType: notificationdomain.Email,
		ServiceID:        serviceID,
		Start:            period.Start,
		End:              period.End,
	})
	if err != nil {
		return nil, fmt.Errorf("aggregate email billing: %w", err)
	}
	rows = append(rows, toRows(notificationdomain.Email, decimal.Zero, emailAggregates)...)

	s.metrics.RecordBillingReport(ctx, "yearly", len(rows))
	s.log.Debug("yearly billing data",
		zap.String("service_id", serviceID.String()),
		zap.Int("year", req.Year),
		zap.Int("bands", len(bands)),
		zap.Int("rows", len(rows)),
	)
	return rows, nil
}

// MonthlyBillingData reports SMS usage per local calendar month and rate
// band. Months without traffic are left out.
func (s *Service) MonthlyBillingData(ctx context.Context, req billingdomain.BillingDataRequest) (rows []billingdomain.MonthlyRow, err error) {
	defer s.daoMetrics.Observe(ctx, "get_monthly_billing_data", time.Now(), &err)
	ctx, span := tracing.Start(ctx, "billing.monthly", attribute.Int("year", req.Year))
	defer func() { tracing.End(span, err) }()

	serviceID, period, err := s.resolveRequest(req)
	if err != nil {
		return nil, err
	}

	bands, err := s.rateSvc.Bands(ctx, notificationdomain.SMS, period)
	if err != nil {
		return nil, err
	}

	loc := s.billingConfig.Get().Location()
	rows = []billingdomain.MonthlyRow{}
	for _, band := range bands {
		for _, month := range billingdomain.Months(band.Period(), loc) {
			aggregates, err := s.repo.AggregateSMS(ctx, s.db, billingdomain.Filter{
				NotificationType: notificationdomain.SMS,
				ServiceID:        serviceID,
				Start:            month.Period.Start,
				End:              month.Period.End,
			})
			if err != nil {
				return nil, fmt.Errorf("aggregate sms billing for %s: %w", month.Name, err)
			}
			for _, agg := range aggregates {
				rows = append(rows, billingdomain.MonthlyRow{
					Month:            month.Name,
					BillableUnits:    agg.BillableUnits,
					RateMultiplier:   agg.RateMultiplier,
					International:    agg.International,
					NotificationType: notificationdomain.SMS,
					Rate:             band.Rate,
				})
			}
		}
	}

	s.metrics.RecordBillingReport(ctx, "monthly", len(rows))
	return rows, nil
}

func (s *Service) resolveRequest(req billingdomain.BillingDataRequest) (snowflake.ID, ratedomain.Period, error) {
	serviceID, err := snowflake.ParseString(strings.TrimSpace(req.ServiceID))
	if err != nil || serviceID == 0 {
		return 0, ratedomain.Period{}, billingdomain.ErrInvalidService
	}
	if req.Year < 1 || req.Year > 9999 {
		return 0, ratedomain.Period{}, billingdomain.ErrInvalidYear
	}

	cfg := s.billingConfig.Get()
	return serviceID, billingdomain.FinancialYear(req.Year, cfg.StartMonth(), cfg.Location()), nil
}

func toRows(notificationType notificationdomain.NotificationType, rate decimal.Decimal, aggregates []billingdomain.Aggregate) []billingdomain.Row {
	if len(aggregates) == 0 {
		return []billingdomain.Row{{
			RateMultiplier:   1,
			NotificationType: notificationType,
			Rate:             rate,
			NoActivity:       true,
		}}
	}

	rows := make([]billingdomain.Row, 0, len(aggregates))
	for _, agg := range aggregates {
		multiplier := agg.RateMultiplier
		if multiplier <= 0 {
			multiplier = 1
		}
		rows = append(rows, billingdomain.Row{
			Count:            agg.Count,
			BillableUnits:    agg.BillableUnits,
			RateMultiplier:   multiplier,
			NotificationType: notificationType,
			International:    agg.International,
			Rate:             rate,
		})
	}
	return rows
}
