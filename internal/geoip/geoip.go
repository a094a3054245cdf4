// 包 geoip：本地 MaxMind 数据库回退解析（ASN/组织串 + 国家/省/市）
package geoip

import (
	"context"
	"encoding/json"
	"net"
	"os"
	"path/filepath"
	"sync/atomic"
	"time"

	"github.com/oschwald/geoip2-golang"
	"github.com/oschwald/maxminddb-golang"
	"github.com/redis/go-redis/v9"

	"github.com/renleihaokun/cancanneed-network/internal/logger"
	"github.com/renleihaokun/cancanneed-network/internal/metrics"
)

// Result：一次本地解析的产物；字段缺失保持零值
type Result struct {
	ASN     uint32 `json:"asn"`
	ASOrg   string `json:"as_org"`
	Country string `json:"country"`
	Region  string `json:"region"`
	City    string `json:"city"`
}

// asnRecord：ASN 库按需解码的最小结构
// 背景：绕过 geoip2 的完整模型，raw Lookup 只取两个字段，读路径更省
type asnRecord struct {
	Number uint32 `maxminddb:"autonomous_system_number"`
	Org    string `maxminddb:"autonomous_system_organization"`
}

// readers：一组打开的只读库句柄；整组原子替换以支持热重载
type readers struct {
	asn  *maxminddb.Reader
	city *geoip2.Reader
}

// Resolver：本地库解析器
// 背景：自部署或直连访问时平台头缺失，靠本地 mmdb 兜底补齐 ASN 与归属地；
// 库文件缺失时以降级态运行，所有查询返回零值而不是错误。
// 约束：readers 打开后只读，atomic.Value 整组替换，读路径无锁。
type Resolver struct {
	v  atomic.Value
	rc *redis.Client
}

// OpenFromEnv：按环境变量打开本地库并构建解析器
// 环境变量：ASN_MMDB_PATH、CITY_MMDB_PATH；缺省指向 data/mmdb 下的惯例文件名。
// rc 可为 nil（不启用查询缓存）。
func OpenFromEnv(rc *redis.Client) *Resolver {
	r := &Resolver{rc: rc}
	r.v.Store(openReaders())
	return r
}

// Reload：重新打开库文件并原子切换，供管理端点在换库后调用
func (r *Resolver) Reload() {
	old, _ := r.v.Load().(*readers)
	r.v.Store(openReaders())
	if old != nil {
		if old.asn != nil {
			_ = old.asn.Close()
		}
		if old.city != nil {
			_ = old.city.Close()
		}
	}
	logger.L().Info("geoip_reloaded")
}

func openReaders() *readers {
	l := logger.L()
	rs := &readers{}
	asnPath := os.Getenv("ASN_MMDB_PATH")
	if asnPath == "" {
		asnPath = filepath.Join("data", "mmdb", "GeoLite2-ASN.mmdb")
	}
	if rd, err := maxminddb.Open(asnPath); err == nil {
		rs.asn = rd
		l.Info("geoip_asn_open_ok", "path", asnPath)
	} else {
		l.Info("geoip_asn_unavailable", "path", asnPath, "err", err)
	}
	cityPath := os.Getenv("CITY_MMDB_PATH")
	if cityPath == "" {
		cityPath = filepath.Join("data", "mmdb", "GeoLite2-City.mmdb")
	}
	if rd, err := geoip2.Open(cityPath); err == nil {
		rs.city = rd
		l.Info("geoip_city_open_ok", "path", cityPath)
	} else {
		l.Info("geoip_city_unavailable", "path", cityPath, "err", err)
	}
	return rs
}

// Resolve：解析单个 IP 的 ASN 与归属地
// 背景：结果以 JSON 缓存在 Redis（netid: 前缀，24h），同一来源的重复访问不再读库；
// rc 为 nil 或缓存读写失败时直接读库，不阻断主流程。
// 约束：对任意输入全定义；解析不到一律返回零值结果。
func (r *Resolver) Resolve(ctx context.Context, ip string) Result {
	var res Result
	if r == nil || ip == "" {
		return res
	}
	parsed := net.ParseIP(ip)
	if parsed == nil {
		return res
	}
	key := "netid:" + ip
	if r.rc != nil {
		if s, err := r.rc.Get(ctx, key).Result(); err == nil && s != "" {
			if json.Unmarshal([]byte(s), &res) == nil {
				metrics.RedisHitsTotal.Inc()
				return res
			}
		}
		metrics.RedisMissesTotal.Inc()
	}
	rs, _ := r.v.Load().(*readers)
	if rs == nil {
		return res
	}
	metrics.GeoIPLookupsTotal.Inc()
	if rs.asn != nil {
		var rec asnRecord
		if err := rs.asn.Lookup(parsed, &rec); err == nil {
			res.ASN = rec.Number
			res.ASOrg = rec.Org
		}
	}
	if rs.city != nil {
		if c, err := rs.city.City(parsed); err == nil {
			res.Country = localizedName(c.Country.Names)
			if len(c.Subdivisions) > 0 {
				res.Region = localizedName(c.Subdivisions[0].Names)
			}
			res.City = localizedName(c.City.Names)
		}
	}
	if r.rc != nil {
		if b, err := json.Marshal(res); err == nil {
			r.rc.Set(ctx, key, string(b), 24*time.Hour)
		}
	}
	logger.L().Debug("geoip_resolve", "ip", ip, "asn", res.ASN, "org", res.ASOrg, "country", res.Country, "city", res.City)
	return res
}

// localizedName：优先中文名，退回英文
func localizedName(names map[string]string) string {
	if v := names["zh-CN"]; v != "" {
		return v
	}
	return names["en"]
}
