package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"WhaleTracker/internal/adapter/opinion"
	"WhaleTracker/internal/api"
	"WhaleTracker/internal/config"
	"WhaleTracker/internal/service"

	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/pprof"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

func main() {
	// 1. 加载配置文件
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("加载配置文件失败: %v", err)
	}

	// 2. 初始化日志
	logger := logrus.New()
	if cfg.Server.Mode == "debug" {
		logger.SetLevel(logrus.DebugLevel)
	} else {
		logger.SetLevel(logrus.InfoLevel)
	}
	logger.Info("配置加载成功")
	if cfg.Opinion.APIKey == "" {
		logger.Warn("未配置OPINION_API_KEY，服务将以空快照运行")
	}

	// 3. 初始化上游客户端与聚合服务
	client := opinion.NewOpinionClient(&cfg.Opinion, logger)
	tracker := service.NewWhaleTracker(client, cfg, logger)

	// 4. 配置Gin运行模式（从配置读取：debug/release）
	gin.SetMode(cfg.Server.Mode)
	r := gin.Default()

	// CORS：前端跨域访问，全放开
	r.Use(cors.New(cors.Config{
		AllowAllOrigins:  true,
		AllowMethods:     []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:     []string{"Content-Type", "Authorization"},
		AllowCredentials: false,
		MaxAge:           12 * time.Hour,
	}))

	// 注册pprof 方便调试和监测性能问题
	pprof.Register(r)
	logger.Infof("Gin运行模式: %s", cfg.Server.Mode)

	// 5. 注册API路由
	handler := api.NewWhaleHandler(tracker, client, cfg, logger)
	handler.RegisterRoutes(r)

	// 6. 启动后台定时刷新（信号触发统一停机）
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	scheduler := service.NewRefreshScheduler(tracker, time.Duration(cfg.Whale.RefreshInterval)*time.Second, logger)
	go scheduler.Run(ctx)

	// 7. 启动服务（从配置读取端口），收到信号后优雅退出
	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Server.Port),
		Handler: r,
	}

	go func() {
		logger.Infof("服务启动成功，端口：%d", cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatalf("启动服务失败: %v", err)
		}
	}()

	<-ctx.Done()
	logger.Info("收到退出信号，正在关闭服务…")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.WithError(err).Error("服务关闭异常")
	}
	logger.Info("服务已退出")
}
