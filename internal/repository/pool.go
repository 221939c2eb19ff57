package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/stitchhire/candidate-directory/backend/internal/config"
	"github.com/stitchhire/candidate-directory/backend/internal/domain"

	_ "github.com/jackc/pgx/v5/stdlib"
)

// DSNFor 返回 tenant 对应的数据库连接串
func DSNFor(cfg *config.Config, tenant domain.TenantID) string {
	if tenant == domain.TenantUpholstery {
		return cfg.Tenants.Upholstery.DSN
	}
	return cfg.Tenants.Sewing.DSN
}

// OpenPool 创建连接池并确认数据库可达
func OpenPool(cfg *config.Config, dsn string) (*sql.DB, error) {
	dbpool, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, err
	}

	dbpool.SetMaxOpenConns(cfg.Database.MaxOpenConns)
	dbpool.SetMaxIdleConns(cfg.Database.MaxIdleConns)
	dbpool.SetConnMaxIdleTime(time.Duration(cfg.Database.MaxIdleTime) * time.Second)

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.Database.ConnectTimeout)*time.Second)
	defer cancel()

	// sql.Open 只是创建数据库连接池对象，并不会立即连接到数据库，因此需要显式地 ping 一下
	if err := dbpool.PingContext(ctx); err != nil {
		dbpool.Close()
		return nil, err
	}

	return dbpool, nil
}
