package store

import (
	"context"
	"testing"
)

// 统计未启用时以 nil store 运行，所有方法必须是安全的空操作
func TestNilStoreNoops(t *testing.T) {
	var s *Store
	ctx := context.Background()
	s.IncrVisit(ctx, "203.0.113.7", "中国电信", "HKG")
	if got := s.GetTotals(ctx); got != (Totals{}) {
		t.Fatalf("nil store totals = %+v", got)
	}
	if err := s.Close(); err != nil {
		t.Fatalf("nil store close: %v", err)
	}
	if s.DB() != nil {
		t.Fatalf("nil store DB should be nil")
	}
}
