package metrics

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// scrape renders the provider registry in Prometheus text format.
func scrape(t *testing.T, provider *Provider) string {
	t.Helper()
	w := httptest.NewRecorder()
	provider.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, w.Code)
	return w.Body.String()
}

// assertSample matches a sample line, tolerating the otel scope labels the
// exporter adds.
func assertSample(t *testing.T, output, name, labels, value string) {
	t.Helper()
	assert.Regexp(t, name+`\{[^}]*`+labels+`[^}]*\} `+value, output)
}

func TestStatusOf(t *testing.T) {
	assert.Equal(t, StatusSuccess, StatusOf(nil))
	assert.Equal(t, StatusError, StatusOf(errors.New("boom")))
}

type recordingMetrics struct {
	mock.Mock
}

func (m *recordingMetrics) RecordOperation(ctx context.Context, domain, operation, status string) {
	m.Called(ctx, domain, operation, status)
}

func (m *recordingMetrics) RecordDuration(
	ctx context.Context,
	domain, operation string,
	duration time.Duration,
	status string,
) {
	m.Called(ctx, domain, operation, duration, status)
}

func TestObserve(t *testing.T) {
	ctx := context.Background()

	t.Run("Success", func(t *testing.T) {
		m := &recordingMetrics{}
		m.On("RecordOperation", ctx, DomainWallets, "wallet_create", StatusSuccess).Once()
		m.On("RecordDuration", ctx, DomainWallets, "wallet_create", mock.AnythingOfType("time.Duration"), StatusSuccess).
			Once()

		Observe(ctx, m, DomainWallets, "wallet_create", time.Now(), nil)
		m.AssertExpectations(t)
	})

	t.Run("Error", func(t *testing.T) {
		m := &recordingMetrics{}
		m.On("RecordOperation", ctx, DomainSummary, "recompute", StatusError).Once()
		m.On("RecordDuration", ctx, DomainSummary, "recompute", mock.AnythingOfType("time.Duration"), StatusError).
			Once()

		Observe(ctx, m, DomainSummary, "recompute", time.Now(), errors.New("boom"))
		m.AssertExpectations(t)
	})
}

func TestBusinessMetrics_Export(t *testing.T) {
	provider, err := NewProvider("wallets_test")
	require.NoError(t, err)
	defer func() {
		assert.NoError(t, provider.Shutdown(context.Background()))
	}()

	bm, err := NewBusinessMetrics(provider.MeterProvider(), "wallets_test")
	require.NoError(t, err)

	ctx := context.Background()
	bm.RecordOperation(ctx, DomainWallets, "wallet_create", StatusSuccess)
	bm.RecordOperation(ctx, DomainWallets, "wallet_create", StatusSuccess)
	bm.RecordOperation(ctx, DomainIssuance, "issue_membership", StatusError)
	bm.RecordDuration(ctx, DomainWallets, "wallet_create", 40*time.Millisecond, StatusSuccess)
	bm.RecordDuration(ctx, DomainWallets, "wallet_create", 60*time.Millisecond, StatusSuccess)

	output := scrape(t, provider)

	assertSample(t, output, `wallets_test_operations_total`,
		`domain="wallets".*operation="wallet_create".*status="success"`, `2`)
	assertSample(t, output, `wallets_test_operations_total`,
		`domain="issuance".*operation="issue_membership".*status="error"`, `1`)
	assertSample(t, output, `wallets_test_operation_duration_seconds_count`,
		`domain="wallets".*operation="wallet_create".*status="success"`, `2`)
	assertSample(t, output, `wallets_test_operation_duration_seconds_bucket`,
		`domain="wallets"[^}]*le="0.05"`, `1`)
}

func TestNoOpBusinessMetrics(t *testing.T) {
	noop := NewNoOpBusinessMetrics()
	assert.IsType(t, NoOpBusinessMetrics{}, noop)

	assert.NotPanics(t, func() {
		noop.RecordOperation(context.Background(), DomainWallets, "wallet_create", StatusSuccess)
		noop.RecordDuration(context.Background(), DomainIssuance, "issue_dismantler", time.Second, StatusError)
	})
}
