package domain

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

type Repository interface {
	Insert(ctx context.Context, db *gorm.DB, invite *InvitedUser) error
	Update(ctx context.Context, db *gorm.DB, invite *InvitedUser) (int64, error)
	FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*InvitedUser, error)
	FindForService(ctx context.Context, db *gorm.DB, serviceID, id snowflake.ID) (*InvitedUser, error)
	ListForService(ctx context.Context, db *gorm.DB, serviceID snowflake.ID) ([]InvitedUser, error)
}
