package service

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"
)

// RefreshScheduler 后台定时刷新：与请求处理完全解耦，慢刷新不会阻塞读。
// ctx 取消即退出，作为服务的统一停机钩子。
type RefreshScheduler struct {
	tracker  *WhaleTracker
	interval time.Duration
	logger   *logrus.Logger
}

// NewRefreshScheduler 创建定时刷新器
func NewRefreshScheduler(tracker *WhaleTracker, interval time.Duration, logger *logrus.Logger) *RefreshScheduler {
	if interval <= 0 {
		interval = 60 * time.Second
	}
	return &RefreshScheduler{
		tracker:  tracker,
		interval: interval,
		logger:   logger,
	}
}

// Run 启动即刷新一次，之后按固定间隔循环。未配置 API key 时只安装一次
// 空快照，不再空转定时器。
func (s *RefreshScheduler) Run(ctx context.Context) {
	s.tracker.Refresh(ctx)

	if !s.tracker.HasCredentials() {
		s.logger.Warn("未配置API key，定时刷新不启动")
		return
	}

	s.logger.Infof("定时刷新已启动，间隔%s", s.interval)
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("定时刷新已停止")
			return
		case <-ticker.C:
			s.tracker.Refresh(ctx)
		}
	}
}
