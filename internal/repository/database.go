package repository

import (
	"fmt"
	"time"

	"github.com/glebarez/sqlite"
	log "github.com/sirupsen/logrus"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"linktrack/config"
	"linktrack/internal/model"
)

// InitDB 初始化数据库连接
func InitDB(dbConfig config.Database) (*gorm.DB, error) {
	var dialector gorm.Dialector

	// 根据配置选择数据库驱动
	switch dbConfig.Driver {
	case "sqlite":
		dialector = sqlite.Open(dbConfig.DSN)
	case "postgres":
		dialector = postgres.Open(dbConfig.DSN)
	default:
		return nil, fmt.Errorf("unsupported database driver: %s", dbConfig.Driver)
	}

	// 连接数据库
	db, err := gorm.Open(dialector, &gorm.Config{})
	if err != nil {
		return nil, err
	}

	// 配置连接池
	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}

	sqlDB.SetMaxIdleConns(10)
	sqlDB.SetMaxOpenConns(100)
	sqlDB.SetConnMaxLifetime(time.Hour)

	// 对于SQLite，设置PRAGMA参数以提高并发性能
	if dbConfig.Driver == "sqlite" {
		// 点击路径写入频繁，WAL模式避免写锁阻塞响应
		db.Exec("PRAGMA journal_mode = WAL;")
		db.Exec("PRAGMA busy_timeout = 5000;")
		db.Exec("PRAGMA synchronous = NORMAL;")
		db.Exec("PRAGMA cache_size = -20000;")
	}

	// 使用GORM自动迁移表结构
	if err := db.AutoMigrate(
		&model.Link{},
		&model.TrackingEvent{},
		&model.Notification{},
	); err != nil {
		return nil, err
	}

	log.Infoln("数据库初始化成功")
	return db, nil
}
