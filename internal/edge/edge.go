// 包 edge：解析边缘平台改写的请求头，得到本次请求的网络元数据
package edge

import (
	"context"
	"net/http"
	"strconv"
	"strings"
)

// Meta：单次请求的平台元数据
// 背景：EdgeOne 控制台配置自定义头改写后，源站能拿到客户端 IP、
// 接入节点、ASN、组织串与握手 RTT；字段缺失时保持零值，不视为错误。
// 约束：RTTMs 为 0 表示平台未测得（如 0-RTT 或不暴露握手时延的协议），原样下传。
type Meta struct {
	IP      string
	Colo    string
	ASN     uint32
	ASOrg   string
	RTTMs   int
	Country string
	Region  string
	City    string
}

type ctxKey struct{}

// FromRequest：从请求头解析平台元数据
// 背景：客户端 IP 按可信度从平台专用头到通用代理头逐级回退，最后取远端地址；
// 节点码优先平台头，兼容 CF-Ray 尾部三字码；数值字段解析失败一律忽略。
func FromRequest(r *http.Request) Meta {
	h := r.Header
	var m Meta
	m.IP = clientIP(r)
	m.Colo = coloCode(h)
	if s := h.Get("X-EO-Geo-ASN"); s != "" {
		if v, e := strconv.ParseUint(s, 10, 32); e == nil {
			m.ASN = uint32(v)
		}
	}
	// 优先新版头部 X-EO-ISP，兼容旧名 X-EO-Geo-CISP
	if v := h.Get("X-EO-ISP"); v != "" {
		m.ASOrg = v
	} else {
		m.ASOrg = h.Get("X-EO-Geo-CISP")
	}
	if s := h.Get("X-EO-Client-RTT"); s != "" {
		if v, e := strconv.Atoi(s); e == nil && v >= 0 {
			m.RTTMs = v
		}
	}
	m.Country = h.Get("X-EO-Geo-Country")
	m.Region = h.Get("X-EO-Geo-Region")
	m.City = h.Get("X-EO-Geo-City")
	return m
}

// clientIP：多层代理下的客户端 IP 回退链
// 约束：头部存在伪造风险时需配合源站防御的可信名单使用
func clientIP(r *http.Request) string {
	h := r.Header
	if x := h.Get("X-EO-Client-IP"); x != "" {
		return x
	}
	if x := h.Get("CF-Connecting-IP"); x != "" {
		return x
	}
	if x := h.Get("X-Real-IP"); x != "" {
		return x
	}
	if x := h.Get("X-Forwarded-For"); x != "" {
		return strings.TrimSpace(strings.Split(x, ",")[0])
	}
	if x := h.Get("Forwarded"); x != "" {
		i := strings.Index(strings.ToLower(x), "for=")
		if i >= 0 {
			y := x[i+4:]
			y = strings.Trim(y, "\" ")
			if p := strings.IndexByte(y, ';'); p >= 0 {
				y = y[:p]
			}
			if p := strings.IndexByte(y, ','); p >= 0 {
				y = y[:p]
			}
			return y
		}
	}
	host := r.RemoteAddr
	if host != "" {
		if i := strings.LastIndex(host, ":"); i > 0 {
			return host[:i]
		}
		return host
	}
	return ""
}

// coloCode：接入节点三字码；平台头缺失时从 CF-Ray 尾段取，最终回退 UNK 哨兵
func coloCode(h http.Header) string {
	if x := h.Get("X-EO-Colo"); x != "" {
		return x
	}
	if ray := h.Get("CF-Ray"); ray != "" {
		if i := strings.LastIndex(ray, "-"); i >= 0 && i+1 < len(ray) {
			return ray[i+1:]
		}
	}
	return "UNK"
}

// NewContext：把元数据注入上下文，供各处理器读取
func NewContext(ctx context.Context, m Meta) context.Context {
	return context.WithValue(ctx, ctxKey{}, m)
}

// FromContext：读取中间件注入的元数据；未注入时就地解析为空请求的零值
func FromContext(ctx context.Context) Meta {
	if m, ok := ctx.Value(ctxKey{}).(Meta); ok {
		return m
	}
	return Meta{Colo: "UNK"}
}
