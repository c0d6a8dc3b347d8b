package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestMetrics_CountsByRoute(t *testing.T) {
	e := echo.New()
	e.Use(Metrics())
	e.GET("/api/v1/tools", okHandler)
	e.POST("/api/v1/tools/:name", func(c echo.Context) error {
		return echo.NewHTTPError(http.StatusNotFound, "unknown tool")
	})

	counter := httpRequestsTotal.WithLabelValues(http.MethodPost, "/api/v1/tools/:name", "404")
	before := testutil.ToFloat64(counter)

	for _, name := range []string{"A", "B"} {
		rec := httptest.NewRecorder()
		e.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/v1/tools/"+name, nil))
		if rec.Code != http.StatusNotFound {
			t.Fatalf("expected 404, got %d", rec.Code)
		}
	}

	if got := testutil.ToFloat64(counter) - before; got != 2 {
		t.Errorf("expected both requests under one route label, got delta %v", got)
	}

	okCounter := httpRequestsTotal.WithLabelValues(http.MethodGet, "/api/v1/tools", "200")
	before = testutil.ToFloat64(okCounter)
	e.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/api/v1/tools", nil))
	if got := testutil.ToFloat64(okCounter) - before; got != 1 {
		t.Errorf("expected one 200 observation, got delta %v", got)
	}
}
