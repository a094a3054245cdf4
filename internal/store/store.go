// 包 store: 访问统计的 PostgreSQL 数据访问层
package store

import (
	"context"
	"database/sql"

	_ "github.com/lib/pq"

	"github.com/renleihaokun/cancanneed-network/internal/logger"
)

// Store: 持有连接池并提供统计读写接口
// 约束：统计写入全部尽力而为，错误只记日志不向请求路径返回；
// Store 为 nil（未启用统计）时所有方法为空操作。
type Store struct {
	db *sql.DB
}

func AttachDB(db *sql.DB) *Store { return &Store{db: db} }

func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

func (s *Store) DB() *sql.DB {
	if s == nil {
		return nil
	}
	return s.db
}

// IncrVisit: 一次成功响应后递增各维度计数
// 背景：总量与当日查询数逐次累加；visitor 非空表示布隆判定的当日首次访客；
// 同时按运营商名与节点码累加当日分布，供后续离线观察。
func (s *Store) IncrVisit(ctx context.Context, visitor, ispName, coloCode string) {
	if s == nil || s.db == nil {
		return
	}
	_, _ = s.db.ExecContext(ctx, "UPDATE _net_stats_total SET total_queries=total_queries+1 WHERE id=1")
	_, _ = s.db.ExecContext(ctx, "INSERT INTO _net_stats_daily(day, queries) VALUES(current_date, 1) ON CONFLICT (day) DO UPDATE SET queries=_net_stats_daily.queries+1")
	if visitor != "" {
		_, _ = s.db.ExecContext(ctx, "UPDATE _net_stats_total SET total_visitors=total_visitors+1 WHERE id=1")
		_, _ = s.db.ExecContext(ctx, "INSERT INTO _net_stats_daily(day, visitors) VALUES(current_date, 1) ON CONFLICT (day) DO UPDATE SET visitors=_net_stats_daily.visitors+1")
	}
	if ispName != "" {
		_, _ = s.db.ExecContext(ctx, "INSERT INTO _net_isp_daily(day, isp, queries) VALUES(current_date, $1, 1) ON CONFLICT (day, isp) DO UPDATE SET queries=_net_isp_daily.queries+1", ispName)
	}
	if coloCode != "" {
		_, _ = s.db.ExecContext(ctx, "INSERT INTO _net_colo_daily(day, colo, queries) VALUES(current_date, $1, 1) ON CONFLICT (day, colo) DO UPDATE SET queries=_net_colo_daily.queries+1", coloCode)
	}
	logger.L().Debug("stats_incr", "visitor", visitor, "isp", ispName, "colo", coloCode)
}

// Totals: 页面页脚展示用的累计与当日查询次数
type Totals struct {
	Total int64
	Today int64
}

// GetTotals: 读取累计与当日查询次数
func (s *Store) GetTotals(ctx context.Context) Totals {
	var t Totals
	if s == nil || s.db == nil {
		return t
	}
	row := s.db.QueryRowContext(ctx, "SELECT total_queries FROM _net_stats_total WHERE id=1")
	_ = row.Scan(&t.Total)
	row2 := s.db.QueryRowContext(ctx, "SELECT queries FROM _net_stats_daily WHERE day=current_date")
	_ = row2.Scan(&t.Today)
	return t
}
