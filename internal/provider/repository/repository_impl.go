package repository

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	notificationdomain "github.com/smallbiznis/courier/internal/notification/domain"
	providerdomain "github.com/smallbiznis/courier/internal/provider/domain"
	"gorm.io/gorm"
)

const providerColumns = `id, display_name, identifier, priority, notification_type, active,
	version, supports_international, created_by_id, updated_at`

type repo struct{}

func Provide() providerdomain.Repository {
	return &repo{}
}

func (r *repo) Insert(ctx context.Context, db *gorm.DB, p *providerdomain.ProviderDetails) error {
	return db.WithContext(ctx).Exec(
		`INSERT INTO provider_details (`+providerColumns+`)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		p.ID,
		p.DisplayName,
		p.Identifier,
		p.Priority,
		p.NotificationType,
		p.Active,
		p.Version,
		p.SupportsInternational,
		p.CreatedByID,
		p.UpdatedAt,
	).Error
}

func (r *repo) FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*providerdomain.ProviderDetails, error) {
	var item providerdomain.ProviderDetails
	err := db.WithContext(ctx).Raw(
		`SELECT `+providerColumns+` FROM provider_details WHERE id = ?`,
		id,
	).Scan(&item).Error
	if err != nil {
		return nil, err
	}
	if item.ID == 0 {
		return nil, nil
	}
	return normalize(&item), nil
}

func (r *repo) FindByIdentifier(ctx context.Context, db *gorm.DB, notificationType notificationdomain.NotificationType, identifier string) (*providerdomain.ProviderDetails, error) {
	var item providerdomain.ProviderDetails
	err := db.WithContext(ctx).Raw(
		`SELECT `+providerColumns+`
		 FROM provider_details
		 WHERE notification_type = ? AND identifier = ?
		 ORDER BY priority ASC, id ASC
		 LIMIT 1`,
		notificationType,
		identifier,
	).Scan(&item).Error
	if err != nil {
		return nil, err
	}
	if item.ID == 0 {
		return nil, nil
	}
	return normalize(&item), nil
}

func (r *repo) ListByType(ctx context.Context, db *gorm.DB, notificationType notificationdomain.NotificationType, internationalOnly bool) ([]providerdomain.ProviderDetails, error) {
	stmt := db.WithContext(ctx).
		Model(&providerdomain.ProviderDetails{}).
		Where("notification_type = ?", notificationType)
	if internationalOnly {
		stmt = stmt.Where("supports_international = ?", true)
	}

	var items []providerdomain.ProviderDetails
	if err := stmt.Order("priority ASC, identifier ASC, id ASC").Find(&items).Error; err != nil {
		return nil, err
	}
	for i := range items {
		normalize(&items[i])
	}
	return items, nil
}

func (r *repo) FindEqualPriority(ctx context.Context, db *gorm.DB, notificationType notificationdomain.NotificationType, identifier string, priority int) (*providerdomain.ProviderDetails, error) {
	var item providerdomain.ProviderDetails
	err := db.WithContext(ctx).Raw(
		`SELECT `+providerColumns+`
		 FROM provider_details
		 WHERE notification_type = ? AND identifier <> ? AND priority = ? AND active = ?
		 ORDER BY identifier ASC, id ASC
		 LIMIT 1`,
		notificationType,
		identifier,
		priority,
		true,
	).Scan(&item).Error
	if err != nil {
		return nil, err
	}
	if item.ID == 0 {
		return nil, nil
	}
	return normalize(&item), nil
}

func (r *repo) UpdateVersioned(ctx context.Context, db *gorm.DB, next providerdomain.ProviderDetails, expectedVersion int) (int64, error) {
	res := db.WithContext(ctx).Exec(
		`UPDATE provider_details
		 SET display_name = ?, priority = ?, active = ?, supports_international = ?,
		     version = ?, created_by_id = ?, updated_at = ?
		 WHERE id = ? AND version = ?`,
		next.DisplayName,
		next.Priority,
		next.Active,
		next.SupportsInternational,
		next.Version,
		next.CreatedByID,
		next.UpdatedAt,
		next.ID,
		expectedVersion,
	)
	if res.Error != nil {
		return 0, res.Error
	}
	return res.RowsAffected, nil
}

func (r *repo) InsertHistory(ctx context.Context, db *gorm.DB, h providerdomain.ProviderDetailsHistory) error {
	return db.WithContext(ctx).Exec(
		`INSERT INTO provider_details_history (`+providerColumns+`)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		h.ID,
		h.DisplayName,
		h.Identifier,
		h.Priority,
		h.NotificationType,
		h.Active,
		h.Version,
		h.SupportsInternational,
		h.CreatedByID,
		h.UpdatedAt,
	).Error
}

func (r *repo) ListVersions(ctx context.Context, db *gorm.DB, id snowflake.ID) ([]providerdomain.ProviderDetailsHistory, error) {
	var items []providerdomain.ProviderDetailsHistory
	err := db.WithContext(ctx).Raw(
		`SELECT `+providerColumns+`
		 FROM provider_details_history WHERE id = ? ORDER BY version ASC`,
		id,
	).Scan(&items).Error
	if err != nil {
		return nil, err
	}
	for i := range items {
		items[i].UpdatedAt = utc(items[i].UpdatedAt)
	}
	return items, nil
}

func (r *repo) Stats(ctx context.Context, db *gorm.DB, since time.Time) ([]providerdomain.ProviderStat, error) {
	var items []providerdomain.ProviderStat
	err := db.WithContext(ctx).Raw(
		`SELECT p.id, p.display_name, p.identifier, p.priority, p.notification_type,
		 p.active, p.supports_international, p.updated_at, p.created_by_id,
		 COALESCE(SUM(f.billable_units * f.rate_multiplier), 0) AS current_month_billable_sms
		 FROM provider_details p
		 LEFT JOIN ft_billing f
		   ON f.provider = p.identifier
		  AND f.notification_type = ?
		  AND p.notification_type = ?
		  AND f.bst_date >= ?
		 GROUP BY p.id, p.display_name, p.identifier, p.priority, p.notification_type,
		 p.active, p.supports_international, p.updated_at, p.created_by_id
		 ORDER BY p.priority ASC, p.notification_type ASC, p.identifier ASC`,
		notificationdomain.SMS,
		notificationdomain.SMS,
		since,
	).Scan(&items).Error
	if err != nil {
		return nil, err
	}
	for i := range items {
		items[i].UpdatedAt = utc(items[i].UpdatedAt)
	}
	return items, nil
}

func normalize(p *providerdomain.ProviderDetails) *providerdomain.ProviderDetails {
	p.UpdatedAt = utc(p.UpdatedAt)
	return p
}

func utc(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	v := t.UTC()
	return &v
}
