package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/renleihaokun/cancanneed-network/internal/edge"
)

func TestWrapInjectsMeta(t *testing.T) {
	t.Setenv("ORIGIN_DEFENSE_ENABLE", "")
	t.Setenv("RATE_LIMIT_ENABLED", "")
	var got edge.Meta
	h := Wrap(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = edge.FromContext(r.Context())
	}))
	r := httptest.NewRequest("GET", "/?action=ip", nil)
	r.Header.Set("X-EO-Client-IP", "203.0.113.7")
	r.Header.Set("X-EO-Colo", "HKG")
	r.Header.Set("X-EO-Geo-ASN", "4134")
	h.ServeHTTP(httptest.NewRecorder(), r)
	if got.IP != "203.0.113.7" || got.Colo != "HKG" || got.ASN != 4134 {
		t.Fatalf("injected meta = %+v", got)
	}
}

func TestTokenBucket(t *testing.T) {
	now := time.Now().Unix()
	tb := &TokenBucket{capacity: 2, tokens: 2, lastSec: now}
	if !tb.allow() || !tb.allow() {
		t.Fatalf("first two should pass")
	}
	// 同秒内令牌耗尽后拒绝
	tb.tokens = 0
	tb.lastSec = time.Now().Unix()
	if tb.allow() {
		t.Fatalf("exhausted bucket should reject within the same second")
	}
}
