package domain

import (
	"context"
	"errors"

	notificationdomain "github.com/smallbiznis/courier/internal/notification/domain"
)

type Service interface {
	Create(ctx context.Context, req CreateRequest) (*ProviderDetails, error)
	ListByNotificationType(ctx context.Context, notificationType notificationdomain.NotificationType, international bool) ([]ProviderDetails, error)
	GetByID(ctx context.Context, id string) (*ProviderDetails, error)
	GetByIdentifier(ctx context.Context, notificationType notificationdomain.NotificationType, identifier string) (*ProviderDetails, error)
	Current(ctx context.Context, notificationType notificationdomain.NotificationType) (*ProviderDetails, error)
	Alternative(ctx context.Context, notificationType notificationdomain.NotificationType, identifier string) (*ProviderDetails, error)
	Update(ctx context.Context, req UpdateRequest) (*ProviderDetails, error)
	Toggle(ctx context.Context, req ToggleRequest) (*SwitchResult, error)
	SwitchTo(ctx context.Context, req SwitchRequest) (*SwitchResult, error)
	Versions(ctx context.Context, id string) ([]ProviderDetailsHistory, error)
	EqualPriority(ctx context.Context, notificationType notificationdomain.NotificationType, identifier string, priority int) (*ProviderDetails, error)
	Stats(ctx context.Context) ([]ProviderStat, error)
}

type CreateRequest struct {
	DisplayName           string                              `json:"display_name"`
	Identifier            string                              `json:"identifier"`
	Priority              int                                 `json:"priority"`
	NotificationType      notificationdomain.NotificationType `json:"notification_type"`
	Active                bool                                `json:"active"`
	SupportsInternational bool                                `json:"supports_international"`
	ActorID               string                              `json:"actor_id"`
}

// UpdateRequest changes the editable fields of a provider. Nil fields are
// left untouched.
type UpdateRequest struct {
	ID                    string  `json:"id"`
	DisplayName           *string `json:"display_name,omitempty"`
	Priority              *int    `json:"priority,omitempty"`
	Active                *bool   `json:"active,omitempty"`
	SupportsInternational *bool   `json:"supports_international,omitempty"`
	ActorID               string  `json:"actor_id"`
}

// ToggleRequest fails over away from Identifier, which must be the current
// provider of its channel. NotificationType defaults to sms.
type ToggleRequest struct {
	NotificationType notificationdomain.NotificationType `json:"notification_type"`
	Identifier       string                              `json:"identifier"`
	ActorID          string                              `json:"actor_id"`
}

type SwitchRequest struct {
	NotificationType notificationdomain.NotificationType `json:"notification_type"`
	Identifier       string                              `json:"identifier"`
	ActorID          string                              `json:"actor_id"`
}

// SwitchResult holds the demoted and promoted rows after a fail-over.
// Switched is false when the request was a no-op.
type SwitchResult struct {
	Switched bool            `json:"switched"`
	Previous ProviderDetails `json:"previous"`
	Current  ProviderDetails `json:"current"`
}

var (
	ErrNotFound                = errors.New("not_found")
	ErrUnknownProvider         = errors.New("unknown_provider")
	ErrNoActiveProvider        = errors.New("no_active_provider")
	ErrNoAlternativeAvailable  = errors.New("no_alternative_available")
	ErrNotCurrentProvider      = errors.New("not_current_provider")
	ErrVersionConflict         = errors.New("version_conflict")
	ErrToggleInProgress        = errors.New("toggle_in_progress")
	ErrInvalidID               = errors.New("invalid_id")
	ErrInvalidActor            = errors.New("invalid_actor")
	ErrInvalidIdentifier       = errors.New("invalid_identifier")
	ErrInvalidDisplayName      = errors.New("invalid_display_name")
	ErrInvalidNotificationType = errors.New("invalid_notification_type")
)
