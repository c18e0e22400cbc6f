package metrics

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
)

func TestFilterAttributesDropsForbiddenLabels(t *testing.T) {
	attrs := FilterAttributes(
		attribute.String("provider", "mmg"),
		attribute.String("service_id", "456"),
		attribute.String("notification_type", "sms"),
	)
	require.Len(t, attrs, 2)

	keys := []attribute.Key{attrs[0].Key, attrs[1].Key}
	assert.Contains(t, keys, attribute.Key("provider"))
	assert.Contains(t, keys, attribute.Key("notification_type"))
}

func TestDAOObserveCountsByResult(t *testing.T) {
	registry := prometheus.NewRegistry()
	m := NewDAOMetrics(registry, Config{ServiceName: "courier-test"})
	ctx := context.Background()

	var ok error
	m.Observe(ctx, "get_rates", time.Now(), &ok)

	failed := errors.New("boom")
	m.Observe(ctx, "get_rates", time.Now(), &failed)

	canceled := context.Canceled
	m.Observe(ctx, "get_rates", time.Now(), &canceled)

	m.Observe(ctx, "get_rates", time.Now(), nil)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.calls.WithLabelValues("get_rates", DAOResultOK)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.calls.WithLabelValues("get_rates", DAOResultError)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.calls.WithLabelValues("get_rates", DAOResultCanceled)))
	assert.Equal(t, 1, testutil.CollectAndCount(m.duration))
}

func TestNilMetricsAreSafe(t *testing.T) {
	var m *Metrics
	m.RecordBillingReport(context.Background(), "yearly", 3)
	m.RecordProviderSwitch(context.Background(), "sms", "mmg", "firetext")

	var d *DAOMetrics
	d.Observe(context.Background(), "noop", time.Now(), nil)
}

func TestNoopMetricsRecord(t *testing.T) {
	m := NewNoop()
	require.NotNil(t, m)
	m.RecordRateCacheLookup(context.Background(), "sms", true)
	m.RecordVersionConflict(context.Background(), "mmg")
}
