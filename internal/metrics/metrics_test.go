package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestMetrics_Counters(t *testing.T) {
	m, err := New(prometheus.NewRegistry())
	if err != nil {
		t.Fatal(err)
	}
	m.Update("photo")
	m.Update("photo")
	m.Payment("upi", "pending")
	m.Transition("idle")

	if got := testutil.ToFloat64(m.Updates.WithLabelValues("photo")); got != 2 {
		t.Fatalf("updates = %f, want 2", got)
	}
	if got := testutil.ToFloat64(m.Payments.WithLabelValues("upi", "pending")); got != 1 {
		t.Fatalf("payments = %f, want 1", got)
	}
	if got := testutil.ToFloat64(m.Transitions.WithLabelValues("idle")); got != 1 {
		t.Fatalf("transitions = %f, want 1", got)
	}
}

func TestMetrics_DoubleRegisterFails(t *testing.T) {
	reg := prometheus.NewRegistry()
	if _, err := New(reg); err != nil {
		t.Fatal(err)
	}
	if _, err := New(reg); err == nil {
		t.Fatal("expected duplicate registration error")
	}
}

func TestMetrics_NilIsNoop(t *testing.T) {
	var m *Metrics
	m.Update("text")
	m.Payment("gift", "pending")
	m.Transition("idle")

	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(m.Handler())
	r.GET("/ok", func(c *gin.Context) { c.Status(http.StatusNoContent) })
	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/ok", nil))
	if rr.Code != http.StatusNoContent {
		t.Fatalf("status = %d", rr.Code)
	}
}

func TestMetrics_HandlerCountsRoute(t *testing.T) {
	m, _ := New(prometheus.NewRegistry())
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(m.Handler())
	r.GET("/admin/payments/:id", func(c *gin.Context) { c.Status(http.StatusOK) })

	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/admin/payments/12", nil))

	if got := testutil.ToFloat64(m.HTTPRequests.WithLabelValues(http.MethodGet, "/admin/payments/:id", "200")); got != 1 {
		t.Fatalf("requests = %f, want 1", got)
	}
}
