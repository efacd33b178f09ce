package service

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"WhaleTracker/internal/config"
	"WhaleTracker/internal/interfaces"
	"WhaleTracker/internal/model"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

// WhaleTracker 聚合服务：编排 拉取→归一化→处理→检测，把结果整体落成快照。
// 快照用原子指针安装，读侧无锁；refresh 之间用互斥锁串行，避免并发刷新
// 重复打上游。安装策略：后完成者覆盖先完成者（last completed write wins）。
type WhaleTracker struct {
	client    interfaces.OpinionClient
	processor *MarketProcessor
	cfg       *config.Config
	logger    *logrus.Logger

	snapshot  atomic.Pointer[model.Snapshot]
	refreshMu sync.Mutex
}

// NewWhaleTracker 创建聚合服务
func NewWhaleTracker(client interfaces.OpinionClient, cfg *config.Config, logger *logrus.Logger) *WhaleTracker {
	return &WhaleTracker{
		client:    client,
		processor: NewMarketProcessor(client, logger),
		cfg:       cfg,
		logger:    logger,
	}
}

// HasCredentials 是否配置了上游 API key
func (t *WhaleTracker) HasCredentials() bool {
	return t.cfg.Opinion.APIKey != ""
}

// Current 当前快照，尚未刷新过时为 nil
func (t *WhaleTracker) Current() *model.Snapshot {
	return t.snapshot.Load()
}

// Snapshot 读取快照，没有时惰性触发一次刷新
func (t *WhaleTracker) Snapshot(ctx context.Context) *model.Snapshot {
	if snap := t.snapshot.Load(); snap != nil {
		return snap
	}
	return t.Refresh(ctx)
}

// Refresh 执行一轮完整刷新并原子安装新快照。上游的各类失败都在内部降级，
// 永远返回一个完整快照；未配置 API key 时不打上游，直接安装空快照。
func (t *WhaleTracker) Refresh(ctx context.Context) *model.Snapshot {
	t.refreshMu.Lock()
	defer t.refreshMu.Unlock()

	jobID := uuid.NewString()
	started := time.Now()
	log := t.logger.WithField("job_id", jobID)

	if !t.HasCredentials() {
		snap := &model.Snapshot{
			Markets:   []model.Market{},
			Whales:    []model.WhaleOrder{},
			UpdatedAt: time.Now(),
			Debug:     &model.Diagnostics{JobID: jobID},
		}
		t.snapshot.Store(snap)
		log.Warn("未配置OPINION_API_KEY，安装空快照")
		return snap
	}

	diag := &model.Diagnostics{JobID: jobID}
	raw := t.fetchAllMarkets(ctx, diag)
	diag.TotalFetched = len(raw)

	// 归一化：解析不出身份的记录静默丢弃
	var normalized []NormalizedMarket
	for _, r := range raw {
		nm, ok := NormalizeMarket(r)
		if !ok {
			diag.Dropped++
			continue
		}
		normalized = append(normalized, nm)
	}

	// 只处理前若干个市场，控制单轮刷新耗时
	if n := t.cfg.Whale.MarketCap; n > 0 && len(normalized) > n {
		normalized = normalized[:n]
	}

	markets := t.processAll(ctx, normalized, diag)
	whales := DetectWhales(markets, t.cfg.Whale.Threshold)

	var totalVolume float64
	for _, m := range markets {
		totalVolume += m.Volume
	}

	snap := &model.Snapshot{
		Markets:     markets,
		Whales:      whales,
		TotalVolume: totalVolume,
		WhaleCount:  len(whales),
		UpdatedAt:   time.Now(),
		Debug:       diag,
	}
	t.snapshot.Store(snap)

	log.WithFields(logrus.Fields{
		"markets": len(markets),
		"whales":  len(whales),
		"elapsed": time.Since(started).String(),
	}).Info("数据刷新完成")
	return snap
}

// fetchAllMarkets 分页拉取市场列表：空页或失败即停止，失败记入诊断
func (t *WhaleTracker) fetchAllMarkets(ctx context.Context, diag *model.Diagnostics) []model.RawMarket {
	var all []model.RawMarket
	for page := 1; page <= t.cfg.Whale.PageCap; page++ {
		list, err := t.client.ListMarkets(ctx, page, t.cfg.Whale.PageLimit)
		if err != nil {
			t.logger.WithError(err).WithField("page", page).Warn("拉取市场列表失败")
			diag.Errors = append(diag.Errors, fmt.Sprintf("第%d页: %v", page, err))
			break
		}
		if len(list) == 0 {
			break
		}
		all = append(all, list...)
	}
	return all
}

// processAll 并发处理市场，结果按原始顺序收敛；单市场失败只丢弃自身
func (t *WhaleTracker) processAll(ctx context.Context, normalized []NormalizedMarket, diag *model.Diagnostics) []model.Market {
	results := make([]*model.Market, len(normalized))
	resultDiags := make([][]string, len(normalized))

	g, gctx := errgroup.WithContext(ctx)
	limit := t.cfg.Whale.Concurrency
	if limit <= 0 {
		limit = 1
	}
	g.SetLimit(limit)

	for i, nm := range normalized {
		g.Go(func() error {
			results[i], resultDiags[i] = t.processor.Process(gctx, nm)
			return nil
		})
	}
	_ = g.Wait() // 处理阶段不产生错误，失败都在内部降级

	markets := make([]model.Market, 0, len(normalized))
	for i, m := range results {
		diag.Errors = append(diag.Errors, resultDiags[i]...)
		if m == nil {
			diag.Dropped++
			continue
		}
		markets = append(markets, *m)
	}
	diag.Processed = len(markets)
	return markets
}
