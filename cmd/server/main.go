package main

import (
	"log"
	"net/http"

	"linktrack/api"
	"linktrack/config"
	"linktrack/internal/cache"
	"linktrack/internal/repository"
	"linktrack/internal/scheduler"
	"linktrack/internal/service"
)

func main() {
	// 1. 加载配置
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// 2. 初始化数据库
	db, err := repository.InitDB(cfg.Database)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}

	// 3. 初始化Redis缓存，地址为空时自动降级为直连数据库
	redisCache := cache.NewRedisCache(cfg.Redis.Address)

	// 4. 初始化服务
	services := service.NewServices(cfg, db, redisCache)

	// 5. 初始化调度器
	newScheduler := scheduler.NewScheduler(services.Engine.State(), services.Summary)
	if err := newScheduler.Start(cfg.CronJobs); err != nil {
		log.Fatalf("Failed to start scheduler: %v", err)
	}

	// 6. 启动HTTP服务器
	router := api.SetupRouter(cfg, services, newScheduler)

	log.Printf("Starting server on %s", cfg.Server.Address)
	if err := http.ListenAndServe(cfg.Server.Address, router); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}
