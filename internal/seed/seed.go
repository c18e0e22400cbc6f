package seed

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"
	notificationdomain "github.com/smallbiznis/courier/internal/notification/domain"
	providerdomain "github.com/smallbiznis/courier/internal/provider/domain"
	ratedomain "github.com/smallbiznis/courier/internal/rate/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

const systemActor = "system"

type defaultRate struct {
	notificationType notificationdomain.NotificationType
	rate             string
	validFrom        time.Time
}

var defaultRates = []defaultRate{
	{notificationdomain.SMS, "1.58", time.Date(2016, time.March, 31, 23, 0, 0, 0, time.UTC)},
	{notificationdomain.SMS, "1.65", time.Date(2017, time.March, 31, 23, 0, 0, 0, time.UTC)},
	{notificationdomain.Email, "0", time.Date(2016, time.March, 31, 23, 0, 0, 0, time.UTC)},
}

var defaultProviders = []providerdomain.CreateRequest{
	{DisplayName: "MMG", Identifier: "mmg", Priority: 10, NotificationType: notificationdomain.SMS, Active: true, SupportsInternational: true},
	{DisplayName: "Firetext", Identifier: "firetext", Priority: 20, NotificationType: notificationdomain.SMS, Active: true},
	{DisplayName: "AWS SES", Identifier: "ses", Priority: 10, NotificationType: notificationdomain.Email, Active: true},
	{DisplayName: "GovDelivery", Identifier: "govdelivery", Priority: 20, NotificationType: notificationdomain.Email, Active: true},
}

type Params struct {
	fx.In

	Log       *zap.Logger
	Rates     ratedomain.Service
	Providers providerdomain.Service
}

// Seeder inserts the reference rates and providers a fresh database needs.
// Rows that already exist are left alone.
type Seeder struct {
	log       *zap.Logger
	rates     ratedomain.Service
	providers providerdomain.Service
}

func New(p Params) *Seeder {
	return &Seeder{
		log:       p.Log.Named("seed"),
		rates:     p.Rates,
		providers: p.Providers,
	}
}

func (s *Seeder) Run(ctx context.Context) error {
	if err := s.seedRates(ctx); err != nil {
		return err
	}
	return s.seedProviders(ctx)
}

func (s *Seeder) seedRates(ctx context.Context) error {
	seeded := map[notificationdomain.NotificationType]bool{}
	for _, r := range defaultRates {
		if _, ok := seeded[r.notificationType]; !ok {
			existing, err := s.rates.ListByType(ctx, r.notificationType)
			if err != nil {
				return err
			}
			seeded[r.notificationType] = len(existing) > 0
		}
		if seeded[r.notificationType] {
			continue
		}

		if _, err := s.rates.Create(ctx, ratedomain.CreateRequest{
			NotificationType: r.notificationType,
			Rate:             decimal.RequireFromString(r.rate),
			ValidFrom:        r.validFrom,
		}); err != nil {
			return err
		}
	}
	return nil
}

func (s *Seeder) seedProviders(ctx context.Context) error {
	for _, req := range defaultProviders {
		_, err := s.providers.GetByIdentifier(ctx, req.NotificationType, req.Identifier)
		if err == nil {
			continue
		}
		if !errors.Is(err, providerdomain.ErrUnknownProvider) {
			return err
		}

		req.ActorID = systemActor
		created, err := s.providers.Create(ctx, req)
		if err != nil {
			return err
		}
		s.log.Info("provider seeded",
			zap.String("identifier", created.Identifier),
			zap.String("notification_type", created.NotificationType.String()),
			zap.Int("priority", created.Priority),
		)
	}
	return nil
}
