package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/go-playground/validator/v10"
	"github.com/smallbiznis/courier/internal/clock"
	invitedomain "github.com/smallbiznis/courier/internal/inviteduser/domain"
	"github.com/smallbiznis/courier/internal/observability/metrics"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB         *gorm.DB
	Log        *zap.Logger
	GenID      *snowflake.Node
	Repo       invitedomain.Repository
	Clock      clock.Clock
	DAOMetrics *metrics.DAOMetrics `optional:"true"`
}

type Service struct {
	db       *gorm.DB
	log      *zap.Logger
	genID    *snowflake.Node
	repo     invitedomain.Repository
	clock    clock.Clock
	validate *validator.Validate

	daoMetrics *metrics.DAOMetrics
}

func New(p Params) invitedomain.Service {
	return &Service{
		db:         p.DB,
		log:        p.Log.Named("inviteduser.service"),
		genID:      p.GenID,
		repo:       p.Repo,
		clock:      p.Clock,
		validate:   validator.New(validator.WithRequiredStructEnabled()),
		daoMetrics: p.DAOMetrics,
	}
}

// Save inserts a new invite or updates an existing one. New invites start
// out pending. invite receives the normalised row only once it is stored.
func (s *Service) Save(ctx context.Context, invite *invitedomain.InvitedUser) (err error) {
	defer s.daoMetrics.Observe(ctx, "save_invited_user", time.Now(), &err)

	if invite == nil {
		return invitedomain.ErrInvalidID
	}

	next := *invite
	next.EmailAddress = strings.ToLower(strings.TrimSpace(next.EmailAddress))
	if next.Status == "" {
		next.Status = invitedomain.StatusPending
	}
	permissions := next.GetPermissions()
	if len(permissions) == 0 {
		return invitedomain.ErrInvalidPermissions
	}
	for _, p := range permissions {
		if strings.ContainsAny(p, " \t\n") {
			return invitedomain.ErrInvalidPermissions
		}
	}
	next.Permissions = strings.Join(permissions, ",")

	if err := s.validateInvite(&next); err != nil {
		return err
	}

	if next.ID == 0 {
		next.ID = s.genID.Generate()
		next.CreatedAt = s.clock.Now()
		if err := s.repo.Insert(ctx, s.db, &next); err != nil {
			return fmt.Errorf("insert invited user: %w", err)
		}
		*invite = next
		s.log.Info("invited user created",
			zap.String("invited_user_id", next.ID.String()),
			zap.String("service_id", next.ServiceID.String()),
		)
		return nil
	}

	rows, err := s.repo.Update(ctx, s.db, &next)
	if err != nil {
		return fmt.Errorf("update invited user: %w", err)
	}
	if rows == 0 {
		return invitedomain.ErrNotFound
	}
	*invite = next
	return nil
}

func (s *Service) Get(ctx context.Context, serviceID, id string) (*invitedomain.InvitedUser, error) {
	svcID, err := snowflake.ParseString(strings.TrimSpace(serviceID))
	if err != nil {
		return nil, invitedomain.ErrInvalidServiceID
	}
	inviteID, err := snowflake.ParseString(strings.TrimSpace(id))
	if err != nil {
		return nil, invitedomain.ErrInvalidID
	}

	invite, err := s.repo.FindForService(ctx, s.db, svcID, inviteID)
	if err != nil {
		return nil, err
	}
	if invite == nil {
		return nil, invitedomain.ErrNotFound
	}
	return invite, nil
}

func (s *Service) GetByID(ctx context.Context, id string) (*invitedomain.InvitedUser, error) {
	inviteID, err := snowflake.ParseString(strings.TrimSpace(id))
	if err != nil {
		return nil, invitedomain.ErrInvalidID
	}

	invite, err := s.repo.FindByID(ctx, s.db, inviteID)
	if err != nil {
		return nil, err
	}
	if invite == nil {
		return nil, invitedomain.ErrNotFound
	}
	return invite, nil
}

func (s *Service) ListForService(ctx context.Context, serviceID string) ([]invitedomain.InvitedUser, error) {
	svcID, err := snowflake.ParseString(strings.TrimSpace(serviceID))
	if err != nil {
		return nil, invitedomain.ErrInvalidServiceID
	}
	return s.repo.ListForService(ctx, s.db, svcID)
}

func (s *Service) Cancel(ctx context.Context, serviceID, id string) (*invitedomain.InvitedUser, error) {
	invite, err := s.Get(ctx, serviceID, id)
	if err != nil {
		return nil, err
	}
	invite.Status = invitedomain.StatusCancelled
	if err := s.Save(ctx, invite); err != nil {
		return nil, err
	}
	return invite, nil
}

func (s *Service) validateInvite(invite *invitedomain.InvitedUser) error {
	err := s.validate.Struct(invite)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) || len(fieldErrs) == 0 {
		return err
	}
	switch fieldErrs[0].Field() {
	case "ServiceID":
		return invitedomain.ErrInvalidServiceID
	case "FromUserID":
		return invitedomain.ErrInvalidFromUser
	case "EmailAddress":
		return invitedomain.ErrInvalidEmail
	case "Status":
		return invitedomain.ErrInvalidStatus
	default:
		return err
	}
}
