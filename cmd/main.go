// 程序入口：仅负责读取配置、初始化依赖并启动服务；路由注册在 internal/api 以便扩展
package main

import (
	"context"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"

	"github.com/renleihaokun/cancanneed-network/internal/ai"
	"github.com/renleihaokun/cancanneed-network/internal/api"
	"github.com/renleihaokun/cancanneed-network/internal/geoip"
	"github.com/renleihaokun/cancanneed-network/internal/logger"
	"github.com/renleihaokun/cancanneed-network/internal/metrics"
	"github.com/renleihaokun/cancanneed-network/internal/middleware"
	"github.com/renleihaokun/cancanneed-network/internal/migrate"
	"github.com/renleihaokun/cancanneed-network/internal/store"
	"github.com/renleihaokun/cancanneed-network/internal/utils"
	"github.com/renleihaokun/cancanneed-network/internal/version"
)

func main() {
	_ = godotenv.Load(".env")
	_ = godotenv.Load(filepath.Join("data", "env", ".env"))
	l := logger.Setup()
	l.Debug("log_init_ok")
	l.Info("starting", "commit", version.Commit)

	// 统计库可选：未启用时以 nil store 运行，所有统计路径为空操作
	var st *store.Store
	if os.Getenv("STATS_ENABLE") == "true" {
		db, err := utils.OpenPostgresFromEnv()
		if err != nil {
			l.Error("db_open_error", "err", err)
			os.Exit(1)
		}
		defer db.Close()
		l.Info("db_open_ok")
		if err := db.Ping(); err != nil {
			l.Error("db_ping_error", "err", err)
		} else {
			l.Info("db_ping_ok")
		}
		if err := migrate.EnsureSchema(db); err != nil {
			l.Error("schema_error", "err", err)
			os.Exit(1)
		}
		st = store.AttachDB(db)
	} else {
		l.Info("stats_disabled")
	}

	rc := utils.OpenRedisFromEnv()
	if rc == nil {
		l.Info("redis_disabled")
	} else {
		if err := rc.Ping(context.Background()).Err(); err != nil {
			l.Error("redis_ping_error", "err", err)
		} else {
			l.Info("redis_ping_ok")
		}
	}

	// 本地 mmdb 兜底解析：库文件缺失时降级运行，不影响平台头链路
	gr := geoip.OpenFromEnv(rc)

	ac := ai.NewFromEnv()
	if ac == nil {
		l.Info("ai_disabled", "reason", "no_api_key")
	}

	apiBase := os.Getenv("API_BASE")
	if apiBase == "" {
		apiBase = "/api"
	}
	l.Debug("config_api_base", "base", apiBase)

	mux := http.NewServeMux()
	mux.Handle("/", api.BuildRoutes(api.Deps{Store: st, Redis: rc, Resolver: gr, AI: ac}))
	mux.Handle(apiBase+"/metrics", metrics.Handler())
	// 换库后触发热重载；读路径原子切换不中断服务
	mux.HandleFunc(apiBase+"/reload-geoip", func(w http.ResponseWriter, r *http.Request) {
		t := r.Header.Get("x-admin-token")
		if t == "" || t != os.Getenv("ADMIN_TOKEN") {
			w.WriteHeader(http.StatusForbidden)
			return
		}
		gr.Reload()
		w.WriteHeader(http.StatusNoContent)
	})

	addr := os.Getenv("ADDR")
	if addr == "" {
		addr = ":8080"
	}
	handler := logger.AccessMiddleware(l)(mux)
	handler = middleware.Wrap(handler)
	s := &http.Server{Addr: addr, Handler: handler}
	tlsEnable := os.Getenv("TLS_ENABLE")
	if tlsEnable == "" || tlsEnable == "true" {
		certPath := os.Getenv("TLS_CERT_PATH")
		keyPath := os.Getenv("TLS_KEY_PATH")
		if certPath == "" {
			certPath = filepath.Join("data", "certs", "server.crt")
		}
		if keyPath == "" {
			keyPath = filepath.Join("data", "certs", "server.key")
		}
		_ = utils.EnsureSelfSignedCert(certPath, keyPath, "cancanneed.local")
		// 可选：HTTP 重定向到 HTTPS（不改变 HTTPS 运行端口）
		if os.Getenv("TLS_REDIRECT_ENABLE") == "true" {
			redirAddr := os.Getenv("TLS_REDIRECT_ADDR")
			if redirAddr == "" {
				redirAddr = ":80"
			}
			go func() {
				httpRedir := http.NewServeMux()
				httpRedir.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
					host := r.Host
					httpsPort := strings.TrimPrefix(addr, ":")
					baseHost := host
					if i := strings.LastIndex(host, ":"); i != -1 {
						baseHost = host[:i]
					}
					targetHost := baseHost
					if httpsPort != "" {
						targetHost = baseHost + ":" + httpsPort
					}
					target := "https://" + targetHost + r.URL.RequestURI()
					http.Redirect(w, r, target, http.StatusMovedPermanently)
					l.Debug("http_redirect", "from", r.Host, "to", target)
				})
				l.Info("http_redirect_listening", "addr", redirAddr, "to", "https"+addr)
				_ = http.ListenAndServe(redirAddr, logger.AccessMiddleware(l)(httpRedir))
			}()
		}
		l.Info("listening_tls", "addr", addr, "cert", certPath)
		_ = s.ListenAndServeTLS(certPath, keyPath)
		return
	}
	l.Info("listening", "addr", addr)
	_ = s.ListenAndServe()
}
