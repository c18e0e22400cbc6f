package domain

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	notificationdomain "github.com/smallbiznis/courier/internal/notification/domain"
	"gorm.io/gorm"
)

type Repository interface {
	Insert(ctx context.Context, db *gorm.DB, provider *ProviderDetails) error
	FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*ProviderDetails, error)
	FindByIdentifier(ctx context.Context, db *gorm.DB, notificationType notificationdomain.NotificationType, identifier string) (*ProviderDetails, error)
	ListByType(ctx context.Context, db *gorm.DB, notificationType notificationdomain.NotificationType, internationalOnly bool) ([]ProviderDetails, error)
	FindEqualPriority(ctx context.Context, db *gorm.DB, notificationType notificationdomain.NotificationType, identifier string, priority int) (*ProviderDetails, error)

	// UpdateVersioned writes next only if the stored version still equals
	// expectedVersion, and reports the number of rows written.
	UpdateVersioned(ctx context.Context, db *gorm.DB, next ProviderDetails, expectedVersion int) (int64, error)
	InsertHistory(ctx context.Context, db *gorm.DB, history ProviderDetailsHistory) error
	ListVersions(ctx context.Context, db *gorm.DB, id snowflake.ID) ([]ProviderDetailsHistory, error)

	// Stats lists every provider with its billable SMS volume from since.
	Stats(ctx context.Context, db *gorm.DB, since time.Time) ([]ProviderStat, error)
}
