package migrate

import (
	"database/sql"

	"github.com/renleihaokun/cancanneed-network/internal/logger"
)

// 背景：首次运行自动创建统计表，保障后续写入与读取
// 约束：使用 IF NOT EXISTS 避免与既有结构冲突；仅创建最小必需结构
func EnsureSchema(db *sql.DB) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS _net_stats_total (
            id INT PRIMARY KEY,
            total_queries BIGINT NOT NULL DEFAULT 0,
            total_visitors BIGINT NOT NULL DEFAULT 0
        )`,
		`CREATE TABLE IF NOT EXISTS _net_stats_daily (
            day DATE PRIMARY KEY,
            queries BIGINT NOT NULL DEFAULT 0,
            visitors BIGINT NOT NULL DEFAULT 0
        )`,
		`CREATE TABLE IF NOT EXISTS _net_isp_daily (
            day DATE NOT NULL,
            isp TEXT NOT NULL,
            queries BIGINT NOT NULL DEFAULT 0,
            PRIMARY KEY (day, isp)
        )`,
		`CREATE TABLE IF NOT EXISTS _net_colo_daily (
            day DATE NOT NULL,
            colo TEXT NOT NULL,
            queries BIGINT NOT NULL DEFAULT 0,
            PRIMARY KEY (day, colo)
        )`,
		`INSERT INTO _net_stats_total(id, total_queries, total_visitors)
         VALUES(1, 0, 0)
         ON CONFLICT (id) DO NOTHING`,
	}
	for i, s := range stmts {
		logger.L().Debug("schema_exec", "idx", i)
		if _, err := db.Exec(s); err != nil {
			return err
		}
	}
	logger.L().Debug("schema_done")
	return nil
}
