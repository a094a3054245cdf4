// 包 api：集中注册 HTTP 路由以解耦主入口，按 action 查询参数分发
package api

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/renleihaokun/cancanneed-network/internal/ai"
	"github.com/renleihaokun/cancanneed-network/internal/colo"
	"github.com/renleihaokun/cancanneed-network/internal/edge"
	"github.com/renleihaokun/cancanneed-network/internal/geoip"
	"github.com/renleihaokun/cancanneed-network/internal/isp"
	"github.com/renleihaokun/cancanneed-network/internal/logger"
	"github.com/renleihaokun/cancanneed-network/internal/metrics"
	"github.com/renleihaokun/cancanneed-network/internal/page"
	"github.com/renleihaokun/cancanneed-network/internal/store"
	"github.com/renleihaokun/cancanneed-network/internal/version"
)

// Deps：路由依赖集合；除 Store 外均可为 nil（对应能力退化而非报错）
type Deps struct {
	Store    *store.Store
	Redis    *redis.Client
	Resolver *geoip.Resolver
	AI       *ai.Client
}

// 已知 action 集合，限定指标标签基数
var knownActions = map[string]bool{"": true, "ip": true, "ping": true, "ai": true}

// BuildRoutes：构建并返回路由；独立 ServeMux 便于在主入口挂载
// 背景：本服务对外只有根路径一个入口，按 action 查询参数分发到
// 页面渲染 / IP 信息 / ping / AI 分析四个处理器；未知 action 返回 404。
func BuildRoutes(d Deps) *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/" {
			errorJSON(w, http.StatusNotFound, "not_found")
			return
		}
		t0 := time.Now()
		action := r.URL.Query().Get("action")
		label := action
		if !knownActions[action] {
			label = "other"
		}
		if label == "" {
			label = "page"
		}
		metrics.RequestsTotal.WithLabelValues(label).Inc()
		switch action {
		case "":
			d.handlePage(w, r)
		case "ip":
			d.handleIPInfo(w, r)
		case "ping":
			d.handlePing(w, r)
		case "ai":
			d.handleAI(w, r)
		default:
			errorJSON(w, http.StatusNotFound, "unknown_action")
		}
		metrics.RequestDurationMs.Observe(float64(time.Since(t0).Milliseconds()))
	})
	return mux
}

// requestMeta：取中间件注入的平台元数据；未经过中间件时就地解析
func requestMeta(r *http.Request) edge.Meta {
	m := edge.FromContext(r.Context())
	if m.IP == "" && m.ASOrg == "" {
		m = edge.FromRequest(r)
	}
	return m
}

// identify：补齐缺失的 ASN/归属地后给出节点与运营商判定
// 背景：平台头齐备时不读本地库；自部署或直连时由 mmdb 兜底。
func (d Deps) identify(ctx context.Context, m edge.Meta) (edge.Meta, colo.Entry, isp.Identity) {
	if (m.ASOrg == "" || m.ASN == 0) && d.Resolver != nil {
		res := d.Resolver.Resolve(ctx, m.IP)
		if m.ASOrg == "" {
			m.ASOrg = res.ASOrg
		}
		if m.ASN == 0 {
			m.ASN = res.ASN
		}
		if m.Country == "" {
			m.Country = res.Country
		}
		if m.Region == "" {
			m.Region = res.Region
		}
		if m.City == "" {
			m.City = res.City
		}
	}
	node := colo.Translate(m.Colo)
	if !colo.Known(m.Colo) {
		metrics.ColoMissTotal.Inc()
	}
	ident := isp.Classify(m.ASOrg, m.ASN)
	if ident.Color == isp.FallbackColor {
		metrics.ClassifyFallbackTotal.Inc()
	}
	return m, node, ident
}

// countVisit：尽力而为的访问统计；当日访客经布隆位图去重
func (d Deps) countVisit(ctx context.Context, m edge.Meta, ident isp.Identity) {
	if d.Store == nil || d.Store.DB() == nil {
		return
	}
	visitor := ""
	if m.IP != "" {
		key := "ccn:visitors:" + time.Now().Format("2006-01-02")
		pos := bloomPositions([]byte(m.IP), 1<<20, 4)
		if first, err := bloomCheckAndSet(ctx, d.Redis, key, pos, 48*time.Hour); err == nil && first {
			visitor = m.IP
		} else if err != nil {
			logger.L().Debug("bloom_error", "err", err)
			visitor = m.IP
		}
	}
	d.Store.IncrVisit(ctx, visitor, ident.Name, m.Colo)
}

type nodeDoc struct {
	Code string `json:"code"`
	Name string `json:"name"`
	ISO  string `json:"iso"`
}

type ispDoc struct {
	Name string `json:"name"`
	Raw  string `json:"raw"`
}

type locationDoc struct {
	Country string `json:"country"`
	Region  string `json:"region"`
	City    string `json:"city"`
}

// ipInfoResponse：IP 信息接口的对外结构
// 约束：location 三要素全空时整体省略；rtt 恒定输出，0 表示平台未测得
type ipInfoResponse struct {
	IP       string       `json:"ip"`
	Node     nodeDoc      `json:"node"`
	ASN      uint32       `json:"asn"`
	ISP      ispDoc       `json:"isp"`
	Location *locationDoc `json:"location,omitempty"`
	RTT      int          `json:"rtt"`
}

func (d Deps) handleIPInfo(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	m, node, ident := d.identify(ctx, requestMeta(r))
	res := ipInfoResponse{
		IP:   m.IP,
		Node: nodeDoc{Code: strings.ToUpper(m.Colo), Name: node.Name, ISO: node.ISO},
		ASN:  m.ASN,
		ISP:  ispDoc{Name: ident.Name, Raw: m.ASOrg},
		RTT:  m.RTTMs,
	}
	if m.Country != "" || m.Region != "" || m.City != "" {
		res.Location = &locationDoc{Country: m.Country, Region: m.Region, City: m.City}
	}
	w.Header().Set("content-type", "application/json; charset=utf-8")
	w.Header().Set("cache-control", "no-store")
	_ = json.NewEncoder(w).Encode(res)
	d.countVisit(ctx, m, ident)
}

// handlePing：前端时延图的采样端点
// 约束：返回体刻意精简，ts 供前端核对时钟，rtt 为平台侧握手时延
func (d Deps) handlePing(w http.ResponseWriter, r *http.Request) {
	m := requestMeta(r)
	w.Header().Set("content-type", "application/json; charset=utf-8")
	w.Header().Set("cache-control", "no-store")
	_ = json.NewEncoder(w).Encode(map[string]any{
		"colo": m.Colo,
		"rtt":  m.RTTMs,
		"ts":   time.Now().UnixMilli(),
	})
}

func (d Deps) handleAI(w http.ResponseWriter, r *http.Request) {
	if d.AI == nil {
		errorJSON(w, http.StatusServiceUnavailable, "ai_disabled")
		return
	}
	ctx := r.Context()
	m, node, ident := d.identify(ctx, requestMeta(r))
	profile := buildProfile(m, node, ident)
	w.Header().Set("content-type", "text/event-stream")
	w.Header().Set("cache-control", "no-cache")
	w.Header().Set("connection", "keep-alive")
	if err := d.AI.Stream(ctx, profile, w); err != nil {
		// 首包前失败：以单条错误事件收尾，流内错误已在客户端路上
		logger.L().Error("ai_upstream_error", "err", err)
		b, _ := json.Marshal(map[string]string{"error": "上游分析服务暂不可用"})
		_, _ = w.Write([]byte("data: "))
		_, _ = w.Write(b)
		_, _ = w.Write([]byte("\n\ndata: [DONE]\n\n"))
		if fl, ok := w.(http.Flusher); ok {
			fl.Flush()
		}
	}
}

// buildProfile：拼出交给分析上游的网络画像文本
func buildProfile(m edge.Meta, node colo.Entry, ident isp.Identity) string {
	b, _ := json.Marshal(map[string]any{
		"ip":       m.IP,
		"节点":       node.Name + " (" + m.Colo + ")",
		"asn":      m.ASN,
		"运营商":      ident.Name,
		"组织串":      m.ASOrg,
		"归属地":      strings.TrimSpace(m.Country + " " + m.Region + " " + m.City),
		"握手时延(ms)": m.RTTMs,
	})
	return string(b)
}

func (d Deps) handlePage(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	m, node, ident := d.identify(ctx, requestMeta(r))
	totals := d.Store.GetTotals(ctx)
	pd := page.Data{
		IP:        m.IP,
		NodeCode:  m.Colo,
		NodeName:  node.Name,
		NodeISO:   node.ISO,
		ISPName:   ident.Name,
		ISPColor:  ident.Color,
		ISPBg:     ident.Bg,
		RawOrg:    m.ASOrg,
		ASN:       m.ASN,
		RTT:       m.RTTMs,
		Country:   m.Country,
		Region:    m.Region,
		City:      m.City,
		Total:     totals.Total,
		Today:     totals.Today,
		Commit:    version.Commit,
		AIEnabled: d.AI != nil,
	}
	if err := page.Render(w, pd); err != nil {
		logger.L().Error("page_render_error", "err", err)
	}
	d.countVisit(ctx, m, ident)
}

func errorJSON(w http.ResponseWriter, code int, msg string) {
	w.Header().Set("content-type", "application/json; charset=utf-8")
	w.Header().Set("cache-control", "no-store")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": msg})
}
