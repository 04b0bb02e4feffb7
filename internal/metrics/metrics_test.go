package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

// 予約関連カウンターの増分を検証
func TestCollector_BookingCounters(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(reg)

	c.RecordBookingCreated()
	c.RecordBookingCreated()
	c.RecordBookingConflict()

	if got := testutil.ToFloat64(c.bookingCreated); got != 2 {
		t.Errorf("booking_created = %v, want 2", got)
	}
	if got := testutil.ToFloat64(c.bookingConflict); got != 1 {
		t.Errorf("booking_conflict = %v, want 1", got)
	}
}

// バリデーション失敗がエラーコード別に記録されることを検証
func TestCollector_ValidationFailureByCode(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(reg)

	c.RecordValidationFailure("PAST_SLOT")
	c.RecordValidationFailure("PAST_SLOT")
	c.RecordValidationFailure("INVALID_EMAIL")

	if got := testutil.ToFloat64(c.validationFail.WithLabelValues("PAST_SLOT")); got != 2 {
		t.Errorf("validation_fail{code=PAST_SLOT} = %v, want 2", got)
	}
	if got := testutil.ToFloat64(c.validationFail.WithLabelValues("INVALID_EMAIL")); got != 1 {
		t.Errorf("validation_fail{code=INVALID_EMAIL} = %v, want 1", got)
	}
}

// HTTPメトリクスの記録とスクレイプエンドポイントの出力を検証
func TestCollector_HTTPMetricsAndHandler(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(reg)

	c.RecordHTTPStatus(200)
	c.RecordHTTPStatus(409)
	c.RecordRequestLatency(25 * time.Millisecond)

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	rec := httptest.NewRecorder()
	Handler(reg).ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}

	body := rec.Body.String()
	for _, want := range []string{
		`yoyaku_http_status_total{status_code="200"} 1`,
		`yoyaku_http_status_total{status_code="409"} 1`,
		"yoyaku_request_latency_seconds_count 1",
	} {
		if !strings.Contains(body, want) {
			t.Errorf("metrics output missing %q", want)
		}
	}
}
