package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/courier/internal/clock"
	"github.com/smallbiznis/courier/internal/config"
	"github.com/smallbiznis/courier/internal/lock"
	notificationdomain "github.com/smallbiznis/courier/internal/notification/domain"
	obslogger "github.com/smallbiznis/courier/internal/observability/logger"
	"github.com/smallbiznis/courier/internal/observability/metrics"
	"github.com/smallbiznis/courier/internal/observability/tracing"
	providerdomain "github.com/smallbiznis/courier/internal/provider/domain"
	"github.com/smallbiznis/courier/pkg/db"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const defaultToggleLockTTL = 10 * time.Second

// toggleLocker serialises switches of one channel across processes.
type toggleLocker interface {
	WithLock(ctx context.Context, key string, ttl time.Duration, fn func() error) error
}

type Params struct {
	fx.In

	DB            *gorm.DB
	Log           *zap.Logger
	GenID         *snowflake.Node
	Repo          providerdomain.Repository
	Clock         clock.Clock
	Config        config.Config
	BillingConfig *config.BillingConfigHolder
	Locker        *lock.Locker        `optional:"true"`
	Metrics       *metrics.Metrics    `optional:"true"`
	DAOMetrics    *metrics.DAOMetrics `optional:"true"`
}

type Service struct {
	db            *gorm.DB
	log           *zap.Logger
	genID         *snowflake.Node
	repo          providerdomain.Repository
	clock         clock.Clock
	flags         config.ProviderConfig
	billingConfig *config.BillingConfigHolder
	locker        toggleLocker
	lockTTL       time.Duration

	metrics    *metrics.Metrics
	daoMetrics *metrics.DAOMetrics
}

func New(p Params) providerdomain.Service {
	lockTTL := time.Duration(p.Config.Redis.ToggleLockSeconds) * time.Second
	if lockTTL <= 0 {
		lockTTL = defaultToggleLockTTL
	}
	return &Service{
		db:            p.DB,
		log:           p.Log.Named("provider.service"),
		genID:         p.GenID,
		repo:          p.Repo,
		clock:         p.Clock,
		flags:         p.Config.Providers,
		billingConfig: p.BillingConfig,
		locker:        p.Locker,
		lockTTL:       lockTTL,
		metrics:       p.Metrics,
		daoMetrics:    p.DAOMetrics,
	}
}

func (s *Service) Create(ctx context.Context, req providerdomain.CreateRequest) (*providerdomain.ProviderDetails, error) {
	notificationType, ok := notificationdomain.ParseNotificationType(string(req.NotificationType))
	if !ok {
		return nil, providerdomain.ErrInvalidNotificationType
	}
	identifier := normalizeIdentifier(req.Identifier)
	if identifier == "" {
		return nil, providerdomain.ErrInvalidIdentifier
	}
	displayName := strings.TrimSpace(req.DisplayName)
	if displayName == "" {
		return nil, providerdomain.ErrInvalidDisplayName
	}
	actorID := strings.TrimSpace(req.ActorID)
	if actorID == "" {
		return nil, providerdomain.ErrInvalidActor
	}

	now := s.clock.Now()
	entity := &providerdomain.ProviderDetails{
		ID:                    s.genID.Generate(),
		DisplayName:           displayName,
		Identifier:            identifier,
		Priority:              req.Priority,
		NotificationType:      notificationType,
		Active:                req.Active,
		Version:               1,
		SupportsInternational: req.SupportsInternational,
		CreatedByID:           &actorID,
		UpdatedAt:             &now,
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.repo.Insert(ctx, tx, entity); err != nil {
			return err
		}
		return s.repo.InsertHistory(ctx, tx, entity.Snapshot())
	})
	if err != nil {
		return nil, fmt.Errorf("insert provider: %w", err)
	}
	return entity, nil
}

// ListByNotificationType returns every provider of a channel ordered by
// priority. international restricts the list to providers that can send
// abroad.
func (s *Service) ListByNotificationType(ctx context.Context, notificationType notificationdomain.NotificationType, international bool) (items []providerdomain.ProviderDetails, err error) {
	defer s.daoMetrics.Observe(ctx, "get_provider_details_by_notification_type", time.Now(), &err)

	notificationType, ok := notificationdomain.ParseNotificationType(string(notificationType))
	if !ok {
		return nil, providerdomain.ErrInvalidNotificationType
	}
	return s.repo.ListByType(ctx, s.db, notificationType, international)
}

func (s *Service) GetByID(ctx context.Context, id string) (*providerdomain.ProviderDetails, error) {
	providerID, err := snowflake.ParseString(strings.TrimSpace(id))
	if err != nil {
		return nil, providerdomain.ErrInvalidID
	}

	item, err := s.repo.FindByID(ctx, s.db, providerID)
	if err != nil {
		return nil, err
	}
	if item == nil {
		return nil, providerdomain.ErrNotFound
	}
	return item, nil
}

func (s *Service) GetByIdentifier(ctx context.Context, notificationType notificationdomain.NotificationType, identifier string) (*providerdomain.ProviderDetails, error) {
	notificationType, identifier, err := parseTarget(notificationType, identifier)
	if err != nil {
		return nil, err
	}

	item, err := s.repo.FindByIdentifier(ctx, s.db, notificationType, identifier)
	if err != nil {
		return nil, err
	}
	if item == nil {
		return nil, providerdomain.ErrUnknownProvider
	}
	return item, nil
}

func (s *Service) Current(ctx context.Context, notificationType notificationdomain.NotificationType) (*providerdomain.ProviderDetails, error) {
	notificationType, ok := notificationdomain.ParseNotificationType(string(notificationType))
	if !ok {
		return nil, providerdomain.ErrInvalidNotificationType
	}

	providers, err := s.selectable(ctx, s.db, notificationType)
	if err != nil {
		return nil, err
	}
	current, err := providerdomain.CurrentProvider(providers, notificationType)
	if err != nil {
		return nil, err
	}
	return &current, nil
}

func (s *Service) Alternative(ctx context.Context, notificationType notificationdomain.NotificationType, identifier string) (*providerdomain.ProviderDetails, error) {
	notificationType, identifier, err := parseTarget(notificationType, identifier)
	if err != nil {
		return nil, err
	}

	providers, err := s.selectable(ctx, s.db, notificationType)
	if err != nil {
		return nil, err
	}
	alternative, err := providerdomain.AlternativeProvider(providers, notificationType, identifier)
	if err != nil {
		return nil, err
	}
	return &alternative, nil
}

// Update applies an explicit change to one provider. The write only lands
// if nobody else bumped the version since it was read.
func (s *Service) Update(ctx context.Context, req providerdomain.UpdateRequest) (*providerdomain.ProviderDetails, error) {
	providerID, err := snowflake.ParseString(strings.TrimSpace(req.ID))
	if err != nil {
		return nil, providerdomain.ErrInvalidID
	}
	actorID := strings.TrimSpace(req.ActorID)
	if actorID == "" {
		return nil, providerdomain.ErrInvalidActor
	}
	ctx = obslogger.ContextWithActor(ctx, actorID)
	if req.DisplayName != nil && strings.TrimSpace(*req.DisplayName) == "" {
		return nil, providerdomain.ErrInvalidDisplayName
	}

	var updated providerdomain.ProviderDetails
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		existing, err := s.repo.FindByID(ctx, tx, providerID)
		if err != nil {
			return err
		}
		if existing == nil {
			return providerdomain.ErrNotFound
		}

		next := *existing
		if req.DisplayName != nil {
			next.DisplayName = strings.TrimSpace(*req.DisplayName)
		}
		if req.Priority != nil {
			next.Priority = *req.Priority
		}
		if req.Active != nil {
			next.Active = *req.Active
		}
		if req.SupportsInternational != nil {
			next.SupportsInternational = *req.SupportsInternational
		}
		next.Version = existing.Version + 1

		updated, err = s.persist(ctx, tx, actorID, next)
		return err
	})
	if err != nil {
		return nil, err
	}

	obslogger.WithContext(ctx, s.log).Info("provider updated",
		zap.String("provider_id", updated.ID.String()),
		zap.String("identifier", updated.Identifier),
		zap.Int("version", updated.Version),
	)
	return &updated, nil
}

// Toggle fails a channel over from its current provider to the next best
// one. Identifier must name the current provider so stale requests do not
// flip the channel back.
func (s *Service) Toggle(ctx context.Context, req providerdomain.ToggleRequest) (_ *providerdomain.SwitchResult, err error) {
	ctx, span := tracing.Start(ctx, "provider.toggle", attribute.String("identifier", req.Identifier))
	defer func() { tracing.End(span, err) }()

	notificationType, identifier, actorID, err := parseCommand(req.NotificationType, req.Identifier, req.ActorID)
	if err != nil {
		return nil, err
	}
	ctx = obslogger.ContextWithActor(ctx, actorID)

	var result providerdomain.SwitchResult
	err = s.withToggleLock(ctx, notificationType, func() error {
		return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			providers, err := s.selectable(ctx, tx, notificationType)
			if err != nil {
				return err
			}
			if !contains(providers, identifier) {
				return providerdomain.ErrUnknownProvider
			}
			current, err := providerdomain.CurrentProvider(providers, notificationType)
			if err != nil {
				return err
			}
			if current.Identifier != identifier {
				return providerdomain.ErrNotCurrentProvider
			}

			previous, next, err := providerdomain.PlanToggle(providers, notificationType)
			if err != nil {
				return err
			}
			result, err = s.applySwitch(ctx, tx, actorID, previous, next)
			return err
		})
	})
	if err != nil {
		return nil, err
	}

	s.recordSwitch(ctx, notificationType, result)
	return &result, nil
}

// SwitchTo makes identifier the current provider of its channel. Inactive
// or already current providers leave the table untouched.
func (s *Service) SwitchTo(ctx context.Context, req providerdomain.SwitchRequest) (_ *providerdomain.SwitchResult, err error) {
	ctx, span := tracing.Start(ctx, "provider.switch", attribute.String("identifier", req.Identifier))
	defer func() { tracing.End(span, err) }()

	notificationType, identifier, actorID, err := parseCommand(req.NotificationType, req.Identifier, req.ActorID)
	if err != nil {
		return nil, err
	}
	ctx = obslogger.ContextWithActor(ctx, actorID)

	var result providerdomain.SwitchResult
	err = s.withToggleLock(ctx, notificationType, func() error {
		return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			providers, err := s.selectable(ctx, tx, notificationType)
			if err != nil {
				return err
			}

			previous, next, ok, err := providerdomain.PlanSwitchTo(providers, notificationType, identifier)
			if err != nil {
				return err
			}
			if !ok {
				obslogger.WithContext(ctx, s.log).Info("provider switch skipped",
					zap.String("notification_type", notificationType.String()),
					zap.String("identifier", identifier),
				)
				return nil
			}
			result, err = s.applySwitch(ctx, tx, actorID, previous, next)
			return err
		})
	})
	if err != nil {
		return nil, err
	}

	if result.Switched {
		s.recordSwitch(ctx, notificationType, result)
	}
	return &result, nil
}

func (s *Service) Versions(ctx context.Context, id string) ([]providerdomain.ProviderDetailsHistory, error) {
	providerID, err := snowflake.ParseString(strings.TrimSpace(id))
	if err != nil {
		return nil, providerdomain.ErrInvalidID
	}
	return s.repo.ListVersions(ctx, s.db, providerID)
}

// EqualPriority returns another active provider of the channel sharing
// priority with identifier, or ErrNotFound.
func (s *Service) EqualPriority(ctx context.Context, notificationType notificationdomain.NotificationType, identifier string, priority int) (*providerdomain.ProviderDetails, error) {
	notificationType, identifier, err := parseTarget(notificationType, identifier)
	if err != nil {
		return nil, err
	}

	item, err := s.repo.FindEqualPriority(ctx, s.db, notificationType, identifier, priority)
	if err != nil {
		return nil, err
	}
	if item == nil {
		return nil, providerdomain.ErrNotFound
	}
	return item, nil
}

// Stats lists every provider with the SMS units it billed since the start
// of the current billing-zone month.
func (s *Service) Stats(ctx context.Context) (items []providerdomain.ProviderStat, err error) {
	defer s.daoMetrics.Observe(ctx, "get_provider_stats", time.Now(), &err)

	local := s.clock.Now().In(s.billingConfig.Get().Location())
	since := time.Date(local.Year(), local.Month(), 1, 0, 0, 0, 0, time.UTC)
	return s.repo.Stats(ctx, s.db, since)
}

// selectable loads a channel's providers with feature-flagged ones marked
// inactive.
func (s *Service) selectable(ctx context.Context, tx *gorm.DB, notificationType notificationdomain.NotificationType) ([]providerdomain.ProviderDetails, error) {
	providers, err := s.repo.ListByType(ctx, tx, notificationType, false)
	if err != nil {
		return nil, err
	}
	for i := range providers {
		if !s.flags.IsProviderEnabled(providers[i].Identifier) {
			providers[i].Active = false
		}
	}
	return providers, nil
}

func (s *Service) applySwitch(ctx context.Context, tx *gorm.DB, actorID string, previous, next providerdomain.ProviderDetails) (providerdomain.SwitchResult, error) {
	previous, err := s.persist(ctx, tx, actorID, previous)
	if err != nil {
		return providerdomain.SwitchResult{}, err
	}
	next, err = s.persist(ctx, tx, actorID, next)
	if err != nil {
		return providerdomain.SwitchResult{}, err
	}
	return providerdomain.SwitchResult{Switched: true, Previous: previous, Current: next}, nil
}

// persist writes next over version next.Version-1 and appends its history
// snapshot.
func (s *Service) persist(ctx context.Context, tx *gorm.DB, actorID string, next providerdomain.ProviderDetails) (providerdomain.ProviderDetails, error) {
	now := s.clock.Now()
	next.CreatedByID = &actorID
	next.UpdatedAt = &now

	rows, err := s.repo.UpdateVersioned(ctx, tx, next, next.Version-1)
	if err != nil {
		return providerdomain.ProviderDetails{}, err
	}
	if rows == 0 {
		s.metrics.RecordVersionConflict(ctx, next.Identifier)
		return providerdomain.ProviderDetails{}, providerdomain.ErrVersionConflict
	}

	if err := s.repo.InsertHistory(ctx, tx, next.Snapshot()); err != nil {
		if db.IsDuplicateKeyErr(err) {
			s.metrics.RecordVersionConflict(ctx, next.Identifier)
			return providerdomain.ProviderDetails{}, providerdomain.ErrVersionConflict
		}
		return providerdomain.ProviderDetails{}, err
	}
	return next, nil
}

func (s *Service) withToggleLock(ctx context.Context, notificationType notificationdomain.NotificationType, fn func() error) error {
	err := s.locker.WithLock(ctx, "courier:provider:toggle:"+notificationType.String(), s.lockTTL, fn)
	if errors.Is(err, lock.ErrNotAcquired) {
		return providerdomain.ErrToggleInProgress
	}
	return err
}

func (s *Service) recordSwitch(ctx context.Context, notificationType notificationdomain.NotificationType, result providerdomain.SwitchResult) {
	s.metrics.RecordProviderSwitch(ctx, notificationType.String(), result.Previous.Identifier, result.Current.Identifier)
	obslogger.WithContext(ctx, s.log).Info("provider switched",
		zap.String("notification_type", notificationType.String()),
		zap.String("from", result.Previous.Identifier),
		zap.Int("from_priority", result.Previous.Priority),
		zap.String("to", result.Current.Identifier),
		zap.Int("to_priority", result.Current.Priority),
	)
}

func parseTarget(notificationType notificationdomain.NotificationType, identifier string) (notificationdomain.NotificationType, string, error) {
	if notificationType == "" {
		notificationType = notificationdomain.SMS
	}
	parsed, ok := notificationdomain.ParseNotificationType(string(notificationType))
	if !ok {
		return "", "", providerdomain.ErrInvalidNotificationType
	}
	identifier = normalizeIdentifier(identifier)
	if identifier == "" {
		return "", "", providerdomain.ErrInvalidIdentifier
	}
	return parsed, identifier, nil
}

func parseCommand(notificationType notificationdomain.NotificationType, identifier, actorID string) (notificationdomain.NotificationType, string, string, error) {
	parsed, identifier, err := parseTarget(notificationType, identifier)
	if err != nil {
		return "", "", "", err
	}
	actorID = strings.TrimSpace(actorID)
	if actorID == "" {
		return "", "", "", providerdomain.ErrInvalidActor
	}
	return parsed, identifier, actorID, nil
}

func normalizeIdentifier(identifier string) string {
	return strings.ToLower(strings.TrimSpace(identifier))
}

func contains(providers []providerdomain.ProviderDetails, identifier string) bool {
	for _, p := range providers {
		if p.Identifier == identifier {
			return true
		}
	}
	return false
}
