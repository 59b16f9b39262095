package app

import (
	"fmt"

	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	cfgpkg "github.com/swipeapp-studio/sleep-server/internal/config"
	"github.com/swipeapp-studio/sleep-server/internal/storage/gormrepo"
)

// OpenArchive 建立归档数据库连接并按需建表。
// 归档未启用时返回 (nil, nil)，管线在无归档模式下照常工作。
func OpenArchive(cfg cfgpkg.DatabaseConfig, log *zap.Logger) (*gormrepo.Repository, error) {
	if !cfg.Enabled {
		log.Info("event archive disabled")
		return nil, nil
	}

	db, err := gorm.Open(postgres.Open(cfg.DSN), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("open archive db: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("archive db handle: %w", err)
	}
	sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	sqlDB.SetConnMaxLifetime(cfg.ConnMaxLifetime)

	repo := gormrepo.New(db)
	if cfg.AutoMigrate {
		if err := repo.AutoMigrate(); err != nil {
			return nil, fmt.Errorf("archive migrate: %w", err)
		}
		log.Info("archive migrations applied")
	}
	return repo, nil
}
