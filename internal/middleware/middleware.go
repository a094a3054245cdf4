package middleware

import (
	"net/http"
	"os"
	"strconv"
	"sync"
	"time"

	"github.com/renleihaokun/cancanneed-network/internal/edge"
	"github.com/renleihaokun/cancanneed-network/internal/logger"
	"github.com/renleihaokun/cancanneed-network/pkg/origindefense"
)

// 文档注释：令牌桶限流（每秒）
// 背景：入口在流量峰值时限速，保护缓存与统计库；按环境变量开关与速率配置。
// 约束：简化实现，不排队，超额直接 429；与布隆去重配合降低重复压力。
type TokenBucket struct {
	capacity int
	tokens   int
	lastSec  int64
	mu       sync.Mutex
}

func (tb *TokenBucket) allow() bool {
	tb.mu.Lock()
	defer tb.mu.Unlock()
	nowSec := time.Now().Unix()
	if tb.lastSec != nowSec {
		tb.lastSec = nowSec
		tb.tokens = tb.capacity
	}
	if tb.tokens > 0 {
		tb.tokens--
		return true
	}
	return false
}

// Wrap：入口处理链组装
// 顺序：源站防御（可信回源名单）→ 平台元数据注入 → 限流。
// 背景：元数据解析放在防御之后，被拒绝的请求不浪费解析；
// 解析结果注入上下文，各处理器统一经 edge.FromContext 读取。
func Wrap(next http.Handler) http.Handler {
	od := origindefense.NewFromEnv(logger.L())
	inner := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		m := edge.FromRequest(r)
		logger.L().Debug("edge_meta_inject",
			"ip", m.IP,
			"colo", m.Colo,
			"asn", m.ASN,
			"org", m.ASOrg,
			"rtt_ms", m.RTTMs,
			"country", m.Country,
			"city", m.City,
		)
		next.ServeHTTP(w, r.WithContext(edge.NewContext(r.Context(), m)))
	})
	h := od.Wrap(inner)
	if os.Getenv("RATE_LIMIT_ENABLED") == "true" {
		qps := 200
		if s := os.Getenv("RATE_LIMIT_QPS"); s != "" {
			if n, e := strconv.Atoi(s); e == nil && n > 0 {
				qps = n
			}
		}
		tb := &TokenBucket{capacity: qps, tokens: qps, lastSec: time.Now().Unix()}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !tb.allow() {
				w.WriteHeader(http.StatusTooManyRequests)
				return
			}
			h.ServeHTTP(w, r)
		})
	}
	return h
}
