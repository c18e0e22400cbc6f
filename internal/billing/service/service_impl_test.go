package service

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/glebarez/sqlite"
	"github.com/shopspring/decimal"
	billingdomain "github.com/smallbiznis/courier/internal/billing/domain"
	"github.com/smallbiznis/courier/internal/billing/repository"
	"github.com/smallbiznis/courier/internal/config"
	notificationdomain "github.com/smallbiznis/courier/internal/notification/domain"
	ratedomain "github.com/smallbiznis/courier/internal/rate/domain"
	raterepository "github.com/smallbiznis/courier/internal/rate/repository"
	rateservice "github.com/smallbiznis/courier/internal/rate/service"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type billingFixture struct {
	db      *gorm.DB
	node    *snowflake.Node
	svc     billingdomain.Service
	rateSvc ratedomain.Service
}

func setupBillingService(t *testing.T) *billingFixture {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&ratedomain.Rate{}, &notificationdomain.NotificationHistory{}))

	node, err := snowflake.NewNode(1)
	require.NoError(t, err)

	rateSvc := rateservice.New(rateservice.Params{
		DB:    db,
		Log:   zap.NewNop(),
		GenID: node,
		Repo:  raterepository.Provide(),
	})

	svc := New(Params{
		DB:            db,
		Log:           zap.NewNop(),
		Repo:          repository.Provide(),
		RateSvc:       rateSvc,
		BillingConfig: config.NewStaticBillingConfig(config.DefaultBillingConfig()),
	})

	return &billingFixture{db: db, node: node, svc: svc, rateSvc: rateSvc}
}

func (f *billingFixture) seedRate(t *testing.T, notificationType notificationdomain.NotificationType, rate string, validFrom time.Time) {
	t.Helper()
	_, err := f.rateSvc.Create(context.Background(), ratedomain.CreateRequest{
		NotificationType: notificationType,
		Rate:             decimal.RequireFromString(rate),
		ValidFrom:        validFrom,
	})
	require.NoError(t, err)
}

type notificationOpt func(*notificationdomain.NotificationHistory)

func withMultiplier(v int64) notificationOpt {
	return func(n *notificationdomain.NotificationHistory) { n.RateMultiplier = &v }
}

func withStatus(s notificationdomain.Status) notificationOpt {
	return func(n *notificationdomain.NotificationHistory) { n.Status = s }
}

func withKeyType(k notificationdomain.KeyType) notificationOpt {
	return func(n *notificationdomain.NotificationHistory) { n.KeyType = k }
}

func international() notificationOpt {
	return func(n *notificationdomain.NotificationHistory) { n.International = true }
}

func (f *billingFixture) seedNotification(t *testing.T, serviceID snowflake.ID, notificationType notificationdomain.NotificationType, createdAt time.Time, units int64, opts ...notificationOpt) {
	t.Helper()
	n := &notificationdomain.NotificationHistory{
		ID:               f.node.Generate(),
		ServiceID:        serviceID,
		NotificationType: notificationType,
		KeyType:          notificationdomain.KeyTypeNormal,
		Status:           notificationdomain.StatusDelivered,
		BillableUnits:    units,
		CreatedAt:        createdAt,
	}
	for _, opt := range opts {
		opt(n)
	}
	require.NoError(t, f.db.Create(n).Error)
}

func utc(y int, m time.Month, d, h int) time.Time {
	return time.Date(y, m, d, h, 0, 0, 0, time.UTC)
}

func (f *billingFixture) seedYear(t *testing.T, serviceID, otherService snowflake.ID) {
	f.seedRate(t, notificationdomain.SMS, "1.5", utc(2016, time.January, 1, 0))
	f.seedRate(t, notificationdomain.SMS, "1.75", utc(2016, time.October, 1, 0))

	f.seedNotification(t, serviceID, notificationdomain.SMS, utc(2016, time.June, 10, 12), 2)
	f.seedNotification(t, serviceID, notificationdomain.SMS, utc(2016, time.June, 11, 12), 1, withMultiplier(2), withStatus(notificationdomain.StatusSent))
	f.seedNotification(t, serviceID, notificationdomain.SMS, utc(2016, time.November, 1, 12), 3, withMultiplier(1), international())

	// excluded: test key, non-billable status, other service, outside the year
	f.seedNotification(t, serviceID, notificationdomain.SMS, utc(2016, time.June, 12, 12), 5, withKeyType(notificationdomain.KeyTypeTest))
	f.seedNotification(t, serviceID, notificationdomain.SMS, utc(2016, time.June, 12, 12), 5, withStatus(notificationdomain.StatusCreated))
	f.seedNotification(t, otherService, notificationdomain.SMS, utc(2016, time.June, 12, 12), 5)
	f.seedNotification(t, serviceID, notificationdomain.SMS, utc(2017, time.April, 5, 12), 5)
	f.seedNotification(t, serviceID, notificationdomain.SMS, utc(2016, time.March, 31, 22), 5)

	f.seedNotification(t, serviceID, notificationdomain.Email, utc(2016, time.July, 1, 9), 0)
	f.seedNotification(t, serviceID, notificationdomain.Email, utc(2016, time.July, 2, 9), 0)
	f.seedNotification(t, serviceID, notificationdomain.Email, utc(2016, time.July, 3, 9), 0, withKeyType(notificationdomain.KeyTypeTest))
}

func TestYearlyBillingDataSplitsByRateBand(t *testing.T) {
	f := setupBillingService(t)
	serviceID := f.node.Generate()
	f.seedYear(t, serviceID, f.node.Generate())

	rows, err := f.svc.YearlyBillingData(context.Background(), billingdomain.BillingDataRequest{
		ServiceID: serviceID.String(),
		Year:      2016,
	})
	require.NoError(t, err)
	require.Len(t, rows, 4)

	assertRow(t, rows[0], 2, 2, 1, notificationdomain.SMS, false, "1.5")
	assertRow(t, rows[1], 2, 1, 2, notificationdomain.SMS, false, "1.5")
	assertRow(t, rows[2], 3, 3, 1, notificationdomain.SMS, true, "1.75")
	assertRow(t, rows[3], 2, 2, 1, notificationdomain.Email, false, "0")

	for _, row := range rows {
		assert.False(t, row.NoActivity)
	}
	assert.Equal(t, int64(3), rows[0].Cost())
	assert.Equal(t, int64(0), rows[3].Cost())
}

func TestYearlyBillingDataWithoutActivityReturnsExplicitEmptyRows(t *testing.T) {
	f := setupBillingService(t)
	f.seedRate(t, notificationdomain.SMS, "1.5", utc(2016, time.January, 1, 0))
	f.seedRate(t, notificationdomain.SMS, "1.75", utc(2016, time.October, 1, 0))

	rows, err := f.svc.YearlyBillingData(context.Background(), billingdomain.BillingDataRequest{
		ServiceID: f.node.Generate().String(),
		Year:      2016,
	})
	require.NoError(t, err)
	require.Len(t, rows, 3)

	assertRow(t, rows[0], 0, 0, 1, notificationdomain.SMS, false, "1.5")
	assertRow(t, rows[1], 0, 0, 1, notificationdomain.SMS, false, "1.75")
	assertRow(t, rows[2], 0, 0, 1, notificationdomain.Email, false, "0")
	for _, row := range rows {
		assert.True(t, row.NoActivity)
	}
}

func TestYearlyBillingDataAfterLastRateUsesLastRate(t *testing.T) {
	f := setupBillingService(t)
	serviceID := f.node.Generate()
	f.seedRate(t, notificationdomain.SMS, "1.5", utc(2016, time.January, 1, 0))
	f.seedRate(t, notificationdomain.SMS, "1.75", utc(2016, time.October, 1, 0))
	f.seedNotification(t, serviceID, notificationdomain.SMS, utc(2019, time.May, 1, 12), 4)

	rows, err := f.svc.YearlyBillingData(context.Background(), billingdomain.BillingDataRequest{
		ServiceID: serviceID.String(),
		Year:      2019,
	})
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assertRow(t, rows[0], 4, 4, 1, notificationdomain.SMS, false, "1.75")
	assert.True(t, rows[1].NoActivity)
}

func TestYearlyBillingDataWithoutRatesFails(t *testing.T) {
	f := setupBillingService(t)

	_, err := f.svc.YearlyBillingData(context.Background(), billingdomain.BillingDataRequest{
		ServiceID: f.node.Generate().String(),
		Year:      2016,
	})
	assert.ErrorIs(t, err, ratedomain.ErrEmptyRateTable)
}

func TestBillingDataValidatesRequest(t *testing.T) {
	f := setupBillingService(t)
	ctx := context.Background()

	_, err := f.svc.YearlyBillingData(ctx, billingdomain.BillingDataRequest{ServiceID: "not-an-id", Year: 2016})
	assert.ErrorIs(t, err, billingdomain.ErrInvalidService)

	_, err = f.svc.MonthlyBillingData(ctx, billingdomain.BillingDataRequest{ServiceID: f.node.Generate().String()})
	assert.ErrorIs(t, err, billingdomain.ErrInvalidYear)
}

func TestMonthlyBillingDataGroupsByLocalMonth(t *testing.T) {
	f := setupBillingService(t)
	serviceID := f.node.Generate()
	f.seedYear(t, serviceID, f.node.Generate())

	rows, err := f.svc.MonthlyBillingData(context.Background(), billingdomain.BillingDataRequest{
		ServiceID: serviceID.String(),
		Year:      2016,
	})
	require.NoError(t, err)
	require.Len(t, rows, 3)

	assert.Equal(t, "June", rows[0].Month)
	assert.Equal(t, int64(2), rows[0].BillableUnits)
	assert.Equal(t, int64(1), rows[0].RateMultiplier)
	assert.True(t, rows[0].Rate.Equal(decimal.RequireFromString("1.5")))

	assert.Equal(t, "June", rows[1].Month)
	assert.Equal(t, int64(1), rows[1].BillableUnits)
	assert.Equal(t, int64(2), rows[1].RateMultiplier)

	assert.Equal(t, "November", rows[2].Month)
	assert.Equal(t, int64(3), rows[2].BillableUnits)
	assert.True(t, rows[2].International)
	assert.Equal(t, notificationdomain.SMS, rows[2].NotificationType)
	assert.True(t, rows[2].Rate.Equal(decimal.RequireFromString("1.75")))
}

func TestMonthlyBillingDataWithoutActivityIsEmpty(t *testing.T) {
	f := setupBillingService(t)
	f.seedRate(t, notificationdomain.SMS, "1.5", utc(2016, time.January, 1, 0))

	rows, err := f.svc.MonthlyBillingData(context.Background(), billingdomain.BillingDataRequest{
		ServiceID: f.node.Generate().String(),
		Year:      2016,
	})
	require.NoError(t, err)
	assert.Empty(t, rows)
}

func assertRow(t *testing.T, row billingdomain.Row, count, units, multiplier int64, notificationType notificationdomain.NotificationType, intl bool, rate string) {
	t.Helper()
	assert.Equal(t, count, row.Count, "count")
	assert.Equal(t, units, row.BillableUnits, "billable units")
	assert.Equal(t, multiplier, row.RateMultiplier, "rate multiplier")
	assert.Equal(t, notificationType, row.NotificationType, "notification type")
	assert.Equal(t, intl, row.International, "international")
	assert.True(t, row.Rate.Equal(decimal.RequireFromString(rate)), "rate %s != %s", row.Rate, rate)
}
