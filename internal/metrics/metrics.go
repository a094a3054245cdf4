package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	RequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "ccn_requests_total",
		Help: "Total requests by action",
	}, []string{"action"})
	RequestDurationMs = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "ccn_request_duration_ms",
		Help:    "Request duration in milliseconds",
		Buckets: []float64{1, 5, 10, 20, 50, 100, 200, 500, 1000},
	})
	ClassifyFallbackTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "ccn_classify_fallback_total",
		Help: "Total ISP classifications that hit the unknown-network fallback",
	})
	ColoMissTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "ccn_colo_miss_total",
		Help: "Total colo code lookups outside the static table",
	})
	GeoIPLookupsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "ccn_geoip_lookups_total",
		Help: "Total local mmdb fallback lookups",
	})
	RedisHitsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "ccn_redis_hits_total",
		Help: "Total redis cache hits",
	})
	RedisMissesTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "ccn_redis_misses_total",
		Help: "Total redis cache misses",
	})
	AIRequestsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "ccn_ai_requests_total",
		Help: "Total upstream chat-completions requests",
	})
	AIFailTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "ccn_ai_fail_total",
		Help: "Total upstream chat-completions failures",
	})
	AIDurationMs = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "ccn_ai_duration_ms",
		Help:    "Upstream chat-completions stream duration in milliseconds",
		Buckets: []float64{100, 500, 1000, 2000, 5000, 10000, 30000, 60000},
	})
)

func init() {
	prometheus.MustRegister(RequestsTotal)
	prometheus.MustRegister(RequestDurationMs)
	prometheus.MustRegister(ClassifyFallbackTotal)
	prometheus.MustRegister(ColoMissTotal)
	prometheus.MustRegister(GeoIPLookupsTotal)
	prometheus.MustRegister(RedisHitsTotal)
	prometheus.MustRegister(RedisMissesTotal)
	prometheus.MustRegister(AIRequestsTotal)
	prometheus.MustRegister(AIFailTotal)
	prometheus.MustRegister(AIDurationMs)
}

// 文档注释：返回 Prometheus 指标监听器
// 背景：统一暴露注册指标供抓取；在主入口挂载到管理路径。
func Handler() http.Handler { return promhttp.Handler() }
