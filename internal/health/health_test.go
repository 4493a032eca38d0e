package health

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestRefreshPopulatesSnapshot(t *testing.T) {
	s := NewSampler(func() int { return 3 })

	require.Equal(t, Snapshot{}, s.Snapshot())

	require.NoError(t, s.Refresh(context.Background()))

	snap := s.Snapshot()
	require.Equal(t, 3, snap.Connections)
	require.WithinDuration(t, time.Now(), snap.SampledAt, 5*time.Second)
	require.Greater(t, snap.Goroutines, 0)
}

func TestNewSamplerNilConnectionsDefaultsToZero(t *testing.T) {
	s := NewSampler(nil)
	require.NoError(t, s.Refresh(context.Background()))
	require.Equal(t, 0, s.Snapshot().Connections)
}

func TestHandlerServesJSONSnapshot(t *testing.T) {
	s := NewSampler(func() int { return 1 })
	require.NoError(t, s.Refresh(context.Background()))

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var got Snapshot
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	require.Equal(t, 1, got.Connections)
}

func TestCapabilityAttrsFormat(t *testing.T) {
	s := NewSampler(func() int { return 5 })
	require.NoError(t, s.Refresh(context.Background()))

	attrs := s.CapabilityAttrs()
	require.Contains(t, attrs, `cpu_percent="`)
	require.Contains(t, attrs, `mem_used_mb="`)
	require.Contains(t, attrs, `connections="5"`)
}

func TestRunRefreshesUntilCanceled(t *testing.T) {
	s := NewSampler(nil)
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan struct{})
	go func() {
		s.Run(ctx, 10*time.Millisecond)
		close(done)
	}()

	require.Eventually(t, func() bool { return !s.Snapshot().SampledAt.IsZero() }, time.Second, 5*time.Millisecond)
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Run did not return after context cancel")
	}
}
