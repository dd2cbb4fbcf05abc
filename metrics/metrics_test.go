package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/jrsteele09/go-identity-server/auth"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
)

func TestCollectorCountsOutcomes(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(reg)

	c.LoginAttempt(auth.OutcomeSuccess)
	c.LoginAttempt(auth.OutcomeSuccess)
	c.LoginAttempt(auth.OutcomeInvalidCredentials)
	c.Registration(auth.OutcomeEmailTaken)
	c.FederatedLogin("MICROSOFT", auth.OutcomeCreated)
	c.TokenVerification(auth.OutcomeExpired)

	require.Equal(t, 2.0, testutil.ToFloat64(c.logins.WithLabelValues(auth.OutcomeSuccess)))
	require.Equal(t, 1.0, testutil.ToFloat64(c.logins.WithLabelValues(auth.OutcomeInvalidCredentials)))
	require.Equal(t, 1.0, testutil.ToFloat64(c.registrations.WithLabelValues(auth.OutcomeEmailTaken)))
	require.Equal(t, 1.0, testutil.ToFloat64(c.federatedLogins.WithLabelValues("MICROSOFT", auth.OutcomeCreated)))
	require.Equal(t, 1.0, testutil.ToFloat64(c.tokenVerifications.WithLabelValues(auth.OutcomeExpired)))
}

func TestObserveRequest(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(reg)

	c.ObserveRequest("POST /api/auth/login", http.StatusOK, 25*time.Millisecond)
	require.Equal(t, 1, testutil.CollectAndCount(c.requestDuration))
}

func TestHandlerServesMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(reg)
	c.LoginAttempt(auth.OutcomeSuccess)

	w := httptest.NewRecorder()
	Handler(reg).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	resp := w.Result()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	require.Contains(t, string(body), `identity_logins_total{outcome="success"} 1`)
}
