package geoip

import (
	"context"
	"testing"
)

func TestResolveNilResolver(t *testing.T) {
	var r *Resolver
	if got := r.Resolve(context.Background(), "203.0.113.7"); got != (Result{}) {
		t.Fatalf("nil resolver result = %+v", got)
	}
}

func TestResolveDegradedWithoutDatabases(t *testing.T) {
	t.Setenv("ASN_MMDB_PATH", "testdata/does-not-exist.mmdb")
	t.Setenv("CITY_MMDB_PATH", "testdata/does-not-exist.mmdb")
	r := OpenFromEnv(nil)
	for _, ip := range []string{"203.0.113.7", "not-an-ip", ""} {
		if got := r.Resolve(context.Background(), ip); got != (Result{}) {
			t.Fatalf("Resolve(%q) = %+v, want zero result", ip, got)
		}
	}
	// 热重载在降级态下同样安全
	r.Reload()
	if got := r.Resolve(context.Background(), "203.0.113.7"); got != (Result{}) {
		t.Fatalf("post-reload result = %+v", got)
	}
}
