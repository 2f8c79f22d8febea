package metrics

import (
	"context"
	"io"
	"net/http"
	"testing"
	"time"

	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func counterValue(t *testing.T, stream string) float64 {
	t.Helper()
	m := &dto.Metric{}
	require.NoError(t, RecordsEmitted.WithLabelValues(stream).Write(m))
	return m.GetCounter().GetValue()
}

func TestCounters(t *testing.T) {
	before := counterValue(t, "metrics_test")
	RecordsEmitted.WithLabelValues("metrics_test").Add(3)
	assert.Equal(t, before+3, counterValue(t, "metrics_test"))
}

func TestServer(t *testing.T) {
	FetchRetries.WithLabelValues("metrics_server_test").Inc()

	srv, err := Listen("127.0.0.1:0", zaptest.NewLogger(t))
	require.NoError(t, err)
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		_ = srv.Shutdown(ctx)
	}()

	resp, err := http.Get("http://" + srv.Addr() + "/metrics")
	require.NoError(t, err)
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), `tap_purecloud_fetch_retries_total{stream="metrics_server_test"} 1`)
}

func TestTimer(t *testing.T) {
	timer := NewTimer("users")
	time.Sleep(time.Millisecond)
	assert.Equal(t, "users", timer.Name())
	assert.GreaterOrEqual(t, timer.Stop(), time.Millisecond)
}
