package domain

import (
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
)

type Status string

const (
	StatusPending   Status = "pending"
	StatusAccepted  Status = "accepted"
	StatusCancelled Status = "cancelled"
)

// InvitedUser is an invitation for someone to join a service. Permissions
// are stored as a comma separated list.
type InvitedUser struct {
	ID           snowflake.ID `json:"id" gorm:"primaryKey"`
	ServiceID    snowflake.ID `json:"service_id" gorm:"column:service_id;not null;index" validate:"required"`
	FromUserID   snowflake.ID `json:"from_user_id" gorm:"column:from_user_id;not null" validate:"required"`
	EmailAddress string       `json:"email_address" gorm:"column:email_address;type:text;not null" validate:"required,email,max=255"`
	Permissions  string       `json:"permissions" gorm:"column:permissions;type:text;not null"`
	Status       Status       `json:"status" gorm:"column:status;type:text;not null;default:pending" validate:"oneof=pending accepted cancelled"`
	CreatedAt    time.Time    `json:"created_at" gorm:"column:created_at;not null"`
}

func (InvitedUser) TableName() string { return "invited_users" }

func (u InvitedUser) GetPermissions() []string {
	parts := strings.Split(u.Permissions, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		out = append(out, p)
	}
	return out
}
