package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"net/url"
	"time"

	"MatchTracker/internal/api"
	"MatchTracker/internal/config"
	"MatchTracker/internal/mapping"
	"MatchTracker/internal/parser"
	"MatchTracker/internal/poller"
	"MatchTracker/internal/repository"
	"MatchTracker/internal/service"

	"github.com/gin-contrib/pprof"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// newFeedClient 两个上游共用的HTTP客户端。gzip解压由net/http透明处理，
// 这里只负责超时与可选代理；代理地址非法时回退直连。
func newFeedClient(feed config.FeedConfig, logger *logrus.Logger) *http.Client {
	transport := http.DefaultTransport.(*http.Transport).Clone()
	if feed.Proxy != "" {
		proxyURL, err := url.Parse(feed.Proxy)
		if err != nil {
			logger.WithError(err).WithField("proxy", feed.Proxy).Warn("代理地址解析失败，将不使用代理")
		} else {
			transport.Proxy = http.ProxyURL(proxyURL)
			logger.WithField("proxy", feed.Proxy).Info("HTTP客户端已配置代理")
		}
	}
	return &http.Client{
		Timeout:   time.Duration(feed.FetchTimeoutMS) * time.Millisecond,
		Transport: transport,
	}
}

func main() {
	// 1. 加载配置文件
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("加载配置文件失败: %v", err)
	}

	// 2. 初始化日志
	logger := logrus.New()
	level, err := logrus.ParseLevel(cfg.Server.LogLevel)
	if err != nil {
		logger.Warnf("无法识别的日志级别 %q，回退为 info", cfg.Server.LogLevel)
		level = logrus.InfoLevel
	}
	logger.SetLevel(level)
	logger.Info("配置文件加载成功")

	// 3. 构建上游HTTP客户端
	client := newFeedClient(cfg.Feed, logger)

	// 4. 组装核心管线：解析器 → 投影 / 历史
	resolver := mapping.NewResolver(cfg.Feed.MappingEndpoint, client, logger)
	matchParser := parser.NewParser(resolver)
	liveState := service.NewLiveStateService(matchParser, logger)
	historyRepo := repository.NewMemoryHistoryRepository()
	history := service.NewHistoryService(historyRepo, matchParser, logger)

	// 5. 启动轮询器并注册监听器（注册顺序即通知顺序）
	feedPoller := poller.NewPoller(
		cfg.Feed.OddsEndpoint,
		time.Duration(cfg.Feed.PollingIntervalMS)*time.Millisecond,
		time.Duration(cfg.Feed.FetchTimeoutMS)*time.Millisecond,
		client,
		logger,
	)
	feedPoller.AddListener(liveState)
	feedPoller.AddListener(history)
	feedPoller.Start(context.Background())
	defer feedPoller.Stop()

	// 6. 配置Gin运行模式（从配置读取：debug/release）
	gin.SetMode(cfg.Server.Mode)
	r := gin.Default()

	// 注册pprof 方便调试和监测性能问题
	pprof.Register(r)
	logger.Infof("Gin运行模式: %s", cfg.Server.Mode)

	// 7. 注册API路由
	stateHandler := api.NewStateHandler(liveState, history, logger)
	r.GET("/state", stateHandler.GetState)
	r.GET("/internalstate", stateHandler.GetInternalState)
	r.GET("/matchhistory/:id", stateHandler.GetMatchHistory)

	// 8. 启动服务（从配置读取端口）
	port := cfg.Server.Port
	logger.Infof("服务启动成功，端口：%d", port)
	if err := r.Run(fmt.Sprintf(":%d", port)); err != nil {
		logger.Fatalf("启动服务失败: %v", err)
	}
}
