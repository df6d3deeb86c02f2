package summary

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

type mockBusinessMetrics struct {
	mock.Mock
}

func (m *mockBusinessMetrics) RecordOperation(ctx context.Context, domain, operation, status string) {
	m.Called(ctx, domain, operation, status)
}

func (m *mockBusinessMetrics) RecordDuration(
	ctx context.Context,
	domain, operation string,
	duration time.Duration,
	status string,
) {
	m.Called(ctx, domain, operation, duration, status)
}

func TestRecomputerWithMetrics(t *testing.T) {
	ctx := context.Background()

	for _, tc := range []struct {
		name   string
		failOn map[string]bool
		status string
	}{
		{name: "success", status: "success"},
		{name: "error", failOn: map[string]bool{holderWalletID: true}, status: "error"},
	} {
		t.Run(tc.name, func(t *testing.T) {
			mockMetrics := &mockBusinessMetrics{}
			mockMetrics.On("RecordOperation", ctx, "summary", "recompute", tc.status).Return().Once()
			mockMetrics.On("RecordDuration", ctx, "summary", "recompute", mock.AnythingOfType("time.Duration"), tc.status).
				Return().
				Once()

			decorated := NewRecomputerWithMetrics(&recordingRecomputer{failOn: tc.failOn}, mockMetrics)
			_, err := decorated.Recompute(ctx, holderWalletID)
			assert.Equal(t, tc.status == "error", err != nil)
			mockMetrics.AssertExpectations(t)
		})
	}
}
