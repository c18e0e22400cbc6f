package domain

import (
	"context"
	"errors"
)

type Service interface {
	Save(ctx context.Context, invite *InvitedUser) error
	Get(ctx context.Context, serviceID, id string) (*InvitedUser, error)
	GetByID(ctx context.Context, id string) (*InvitedUser, error)
	ListForService(ctx context.Context, serviceID string) ([]InvitedUser, error)
	Cancel(ctx context.Context, serviceID, id string) (*InvitedUser, error)
}

var (
	ErrNotFound           = errors.New("not_found")
	ErrInvalidID          = errors.New("invalid_id")
	ErrInvalidServiceID   = errors.New("invalid_service_id")
	ErrInvalidFromUser    = errors.New("invalid_from_user")
	ErrInvalidEmail       = errors.New("invalid_email")
	ErrInvalidPermissions = errors.New("invalid_permissions")
	ErrInvalidStatus      = errors.New("invalid_status")
)
