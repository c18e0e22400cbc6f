package service

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/glebarez/sqlite"
	"github.com/smallbiznis/courier/internal/clock"
	invitedomain "github.com/smallbiznis/courier/internal/inviteduser/domain"
	"github.com/smallbiznis/courier/internal/inviteduser/repository"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const (
	serviceID  = snowflake.ID(1001)
	fromUserID = snowflake.ID(2002)
)

type inviteFixture struct {
	db    *gorm.DB
	clock *clock.FakeClock
	svc   invitedomain.Service
}

func setupInviteService(t *testing.T) *inviteFixture {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&invitedomain.InvitedUser{}))

	node, err := snowflake.NewNode(1)
	require.NoError(t, err)

	fake := clock.NewFakeClock(time.Date(2016, time.March, 1, 12, 0, 0, 0, time.UTC))
	svc := New(Params{
		DB:    db,
		Log:   zap.NewNop(),
		GenID: node,
		Repo:  repository.Provide(),
		Clock: fake,
	})
	return &inviteFixture{db: db, clock: fake, svc: svc}
}

func (f *inviteFixture) invite(t *testing.T, email string) *invitedomain.InvitedUser {
	t.Helper()
	invite := &invitedomain.InvitedUser{
		ServiceID:    serviceID,
		FromUserID:   fromUserID,
		EmailAddress: email,
		Permissions:  "send_messages,manage_service",
	}
	require.NoError(t, f.svc.Save(context.Background(), invite))
	return invite
}

func countInvites(t *testing.T, db *gorm.DB) int64 {
	t.Helper()
	var count int64
	require.NoError(t, db.Model(&invitedomain.InvitedUser{}).Count(&count).Error)
	return count
}

func TestSaveCreatesPendingInvite(t *testing.T) {
	f := setupInviteService(t)
	assert.Equal(t, int64(0), countInvites(t, f.db))

	invite := f.invite(t, "Invited_User@Service.gov.uk ")

	assert.Equal(t, int64(1), countInvites(t, f.db))
	assert.NotZero(t, invite.ID)
	assert.Equal(t, "invited_user@service.gov.uk", invite.EmailAddress)
	assert.Equal(t, fromUserID, invite.FromUserID)
	assert.Equal(t, invitedomain.StatusPending, invite.Status)
	assert.True(t, invite.CreatedAt.Equal(f.clock.Now()))

	permissions := invite.GetPermissions()
	assert.Len(t, permissions, 2)
	assert.Contains(t, permissions, "send_messages")
	assert.Contains(t, permissions, "manage_service")
}

func TestSaveValidation(t *testing.T) {
	f := setupInviteService(t)
	ctx := context.Background()

	cases := []struct {
		name   string
		invite invitedomain.InvitedUser
		want   error
	}{
		{"bad email", invitedomain.InvitedUser{ServiceID: serviceID, FromUserID: fromUserID, EmailAddress: "nope", Permissions: "send_messages"}, invitedomain.ErrInvalidEmail},
		{"missing service", invitedomain.InvitedUser{FromUserID: fromUserID, EmailAddress: "a@b.gov.uk", Permissions: "send_messages"}, invitedomain.ErrInvalidServiceID},
		{"missing sender", invitedomain.InvitedUser{ServiceID: serviceID, EmailAddress: "a@b.gov.uk", Permissions: "send_messages"}, invitedomain.ErrInvalidFromUser},
		{"no permissions", invitedomain.InvitedUser{ServiceID: serviceID, FromUserID: fromUserID, EmailAddress: "a@b.gov.uk", Permissions: " , "}, invitedomain.ErrInvalidPermissions},
		{"spaced permission", invitedomain.InvitedUser{ServiceID: serviceID, FromUserID: fromUserID, EmailAddress: "a@b.gov.uk", Permissions: "send messages"}, invitedomain.ErrInvalidPermissions},
		{"bad status", invitedomain.InvitedUser{ServiceID: serviceID, FromUserID: fromUserID, EmailAddress: "a@b.gov.uk", Permissions: "send_messages", Status: "expired"}, invitedomain.ErrInvalidStatus},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			invite := tc.invite
			assert.ErrorIs(t, f.svc.Save(ctx, &invite), tc.want)
		})
	}
	assert.Equal(t, int64(0), countInvites(t, f.db))
}

func TestSaveLeavesInviteUntouchedOnValidationError(t *testing.T) {
	f := setupInviteService(t)

	invite := invitedomain.InvitedUser{
		ServiceID:    serviceID,
		EmailAddress: " Test@Example.GOV.uk ",
		Permissions:  " send_messages , manage_service ",
	}
	before := invite

	err := f.svc.Save(context.Background(), &invite)
	assert.ErrorIs(t, err, invitedomain.ErrInvalidFromUser)
	assert.Equal(t, before, invite)

	invite.FromUserID = fromUserID
	require.NoError(t, f.svc.Save(context.Background(), &invite))
	assert.Equal(t, "test@example.gov.uk", invite.EmailAddress)
	assert.Equal(t, "send_messages,manage_service", invite.Permissions)
	assert.Equal(t, invitedomain.StatusPending, invite.Status)
	assert.NotZero(t, invite.ID)
}

func TestGetByServiceAndID(t *testing.T) {
	f := setupInviteService(t)
	ctx := context.Background()
	invite := f.invite(t, "invited_user@service.gov.uk")

	fromDB, err := f.svc.Get(ctx, serviceID.String(), invite.ID.String())
	require.NoError(t, err)
	assert.Equal(t, invite.ID, fromDB.ID)
	assert.Equal(t, invite.EmailAddress, fromDB.EmailAddress)
	assert.Equal(t, invite.Permissions, fromDB.Permissions)

	_, err = f.svc.Get(ctx, "999", invite.ID.String())
	assert.ErrorIs(t, err, invitedomain.ErrNotFound)
}

func TestGetByID(t *testing.T) {
	f := setupInviteService(t)
	ctx := context.Background()
	invite := f.invite(t, "invited_user@service.gov.uk")

	fromDB, err := f.svc.GetByID(ctx, invite.ID.String())
	require.NoError(t, err)
	assert.Equal(t, invite.ServiceID, fromDB.ServiceID)

	_, err = f.svc.GetByID(ctx, "not-an-id")
	assert.ErrorIs(t, err, invitedomain.ErrInvalidID)
}

func TestGetUnknownInvite(t *testing.T) {
	f := setupInviteService(t)

	_, err := f.svc.Get(context.Background(), serviceID.String(), "123456789")
	assert.ErrorIs(t, err, invitedomain.ErrNotFound)
}

func TestListForService(t *testing.T) {
	f := setupInviteService(t)
	ctx := context.Background()

	var ids []snowflake.ID
	for i := 0; i < 5; i++ {
		invite := f.invite(t, fmt.Sprintf("invited_user_%d@service.gov.uk", i))
		ids = append(ids, invite.ID)
		f.clock.Advance(time.Minute)
	}

	all, err := f.svc.ListForService(ctx, serviceID.String())
	require.NoError(t, err)
	require.Len(t, all, 5)
	for i, invite := range all {
		assert.Equal(t, ids[i], invite.ID)
	}

	none, err := f.svc.ListForService(ctx, "424242")
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestSaveUpdatesStatus(t *testing.T) {
	f := setupInviteService(t)
	ctx := context.Background()
	invite := f.invite(t, "invited_user@service.gov.uk")

	saved, err := f.svc.GetByID(ctx, invite.ID.String())
	require.NoError(t, err)
	assert.Equal(t, invitedomain.StatusPending, saved.Status)

	saved.Status = invitedomain.StatusCancelled
	require.NoError(t, f.svc.Save(ctx, saved))

	assert.Equal(t, int64(1), countInvites(t, f.db))
	reloaded, err := f.svc.GetByID(ctx, invite.ID.String())
	require.NoError(t, err)
	assert.Equal(t, invitedomain.StatusCancelled, reloaded.Status)
}

func TestCancel(t *testing.T) {
	f := setupInviteService(t)
	ctx := context.Background()
	invite := f.invite(t, "invited_user@service.gov.uk")

	cancelled, err := f.svc.Cancel(ctx, serviceID.String(), invite.ID.String())
	require.NoError(t, err)
	assert.Equal(t, invitedomain.StatusCancelled, cancelled.Status)

	_, err = f.svc.Cancel(ctx, "999", invite.ID.String())
	assert.ErrorIs(t, err, invitedomain.ErrNotFound)
}
