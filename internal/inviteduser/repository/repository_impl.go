package repository

import (
	"context"

	"github.com/bwmarrin/snowflake"
	invitedomain "github.com/smallbiznis/courier/internal/inviteduser/domain"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() invitedomain.Repository {
	return &repo{}
}

func (r *repo) Insert(ctx context.Context, db *gorm.DB, invite *invitedomain.InvitedUser) error {
	return db.WithContext(ctx).Exec(
		`INSERT INTO invited_users (id, service_id, from_user_id, email_address, permissions, status, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		invite.ID,
		invite.ServiceID,
		invite.FromUserID,
		invite.EmailAddress,
		invite.Permissions,
		invite.Status,
		invite.CreatedAt,
	).Error
}

func (r *repo) Update(ctx context.Context, db *gorm.DB, invite *invitedomain.InvitedUser) (int64, error) {
	res := db.WithContext(ctx).Exec(
		`UPDATE invited_users SET email_address = ?, permissions = ?, status = ?
		 WHERE id = ? AND service_id = ?`,
		invite.EmailAddress,
		invite.Permissions,
		invite.Status,
		invite.ID,
		invite.ServiceID,
	)
	if res.Error != nil {
		return 0, res.Error
	}
	return res.RowsAffected, nil
}

func (r *repo) FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*invitedomain.InvitedUser, error) {
	var invite invitedomain.InvitedUser
	err := db.WithContext(ctx).Raw(
		`SELECT id, service_id, from_user_id, email_address, permissions, status, created_at
		 FROM invited_users WHERE id = ?`,
		id,
	).Scan(&invite).Error
	if err != nil {
		return nil, err
	}
	if invite.ID == 0 {
		return nil, nil
	}
	invite.CreatedAt = invite.CreatedAt.UTC()
	return &invite, nil
}

func (r *repo) FindForService(ctx context.Context, db *gorm.DB, serviceID, id snowflake.ID) (*invitedomain.InvitedUser, error) {
	var invite invitedomain.InvitedUser
	err := db.WithContext(ctx).Raw(
		`SELECT id, service_id, from_user_id, email_address, permissions, status, created_at
		 FROM invited_users WHERE service_id = ? AND id = ?`,
		serviceID,
		id,
	).Scan(&invite).Error
	if err != nil {
		return nil, err
	}
	if invite.ID == 0 {
		return nil, nil
	}
	invite.CreatedAt = invite.CreatedAt.UTC()
	return &invite, nil
}

func (r *repo) ListForService(ctx context.Context, db *gorm.DB, serviceID snowflake.ID) ([]invitedomain.InvitedUser, error) {
	var invites []invitedomain.InvitedUser
	err := db.WithContext(ctx).
		Model(&invitedomain.InvitedUser{}).
		Where("service_id = ?", serviceID).
		Order("created_at asc, id asc").
		Find(&invites).Error
	if err != nil {
		return nil, err
	}
	for i := range invites {
		invites[i].CreatedAt = invites[i].CreatedAt.UTC()
	}
	return invites, nil
}
