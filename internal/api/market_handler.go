package api

import (
	"net/http"
	"sort"
	"strconv"

	"WhaleTracker/internal/config"
	"WhaleTracker/internal/interfaces"
	"WhaleTracker/internal/model"
	"WhaleTracker/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// WhaleHandler 提供给前端的巨鲸监控接口。聚合类接口只读缓存快照，
// 永远返回 200 与尽力而为的数据；只有单市场查询和订单簿透传会报错。
type WhaleHandler struct {
	tracker *service.WhaleTracker
	client  interfaces.OpinionClient
	cfg     *config.Config
	logger  *logrus.Logger
}

// NewWhaleHandler 创建 WhaleHandler
func NewWhaleHandler(tracker *service.WhaleTracker, client interfaces.OpinionClient, cfg *config.Config, logger *logrus.Logger) *WhaleHandler {
	return &WhaleHandler{
		tracker: tracker,
		client:  client,
		cfg:     cfg,
		logger:  logger,
	}
}

// Root 服务状态
// GET /
func (h *WhaleHandler) Root(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"message": "Opinion Whale Tracker API",
		"status":  "running",
	})
}

// GetMarkets 全量市场与巨鲸快照（无快照时惰性触发一次刷新）
// GET /api/markets
func (h *WhaleHandler) GetMarkets(c *gin.Context) {
	snap := h.tracker.Snapshot(c.Request.Context())
	c.JSON(http.StatusOK, snap)
}

// GetMarket 单个市场详情
// GET /api/markets/:market_id
func (h *WhaleHandler) GetMarket(c *gin.Context) {
	marketID, err := strconv.ParseInt(c.Param("market_id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid market id"})
		return
	}

	snap := h.tracker.Snapshot(c.Request.Context())
	market, ok := snap.FindMarket(marketID)
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "Market not found"})
		return
	}
	c.JSON(http.StatusOK, market)
}

// GetWhales 巨鲸列表，按阈值过滤缓存结果（不重新检测）
// GET /api/whales?threshold=1000
func (h *WhaleHandler) GetWhales(c *gin.Context) {
	threshold := h.cfg.Whale.Threshold
	if v := c.Query("threshold"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			threshold = f
		}
	}

	snap := h.tracker.Snapshot(c.Request.Context())
	whales := make([]model.WhaleOrder, 0)
	for _, w := range snap.Whales {
		if w.Value >= threshold {
			whales = append(whales, w)
		}
	}

	c.JSON(http.StatusOK, gin.H{
		"whales": whales,
		"count":  len(whales),
	})
}

// GetOrderbook 订单簿实时透传（不走缓存），上游失败返回 500
// GET /api/orderbook/:token_id
func (h *WhaleHandler) GetOrderbook(c *gin.Context) {
	tokenID := c.Param("token_id")

	ob, err := h.client.GetOrderbook(c.Request.Context(), tokenID)
	if err != nil {
		h.logger.WithError(err).WithField("token_id", tokenID).Error("订单簿透传失败")
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	bids := ob.Bids
	if bids == nil {
		bids = []model.OrderLevel{}
	}
	asks := ob.Asks
	if asks == nil {
		asks = []model.OrderLevel{}
	}

	c.JSON(http.StatusOK, gin.H{
		"bids":      bids,
		"asks":      asks,
		"bid_count": len(bids),
		"ask_count": len(asks),
	})
}

// ForceRefresh 强制刷新
// POST /api/refresh
func (h *WhaleHandler) ForceRefresh(c *gin.Context) {
	snap := h.tracker.Refresh(c.Request.Context())
	c.JSON(http.StatusOK, gin.H{
		"message":    "Data refreshed",
		"updated_at": snap.UpdatedAt,
	})
}

// GetStats 汇总统计（按成交量取前5市场）
// GET /api/stats
func (h *WhaleHandler) GetStats(c *gin.Context) {
	snap := h.tracker.Snapshot(c.Request.Context())

	top := make([]model.Market, len(snap.Markets))
	copy(top, snap.Markets)
	sort.SliceStable(top, func(i, j int) bool {
		return top[i].Volume > top[j].Volume
	})
	if len(top) > 5 {
		top = top[:5]
	}

	topMarkets := make([]gin.H, 0, len(top))
	for _, m := range top {
		topMarkets = append(topMarkets, gin.H{
			"id":     m.MarketID,
			"title":  m.Title,
			"volume": m.Volume,
		})
	}

	c.JSON(http.StatusOK, gin.H{
		"total_markets": len(snap.Markets),
		"total_volume":  snap.TotalVolume,
		"whale_count":   snap.WhaleCount,
		"top_markets":   topMarkets,
		"updated_at":    snap.UpdatedAt,
	})
}

// RegisterRoutes 注册全部路由
func (h *WhaleHandler) RegisterRoutes(r *gin.Engine) {
	r.GET("/", h.Root)
	r.GET("/api/markets", h.GetMarkets)
	r.GET("/api/markets/:market_id", h.GetMarket)
	r.GET("/api/whales", h.GetWhales)
	r.GET("/api/orderbook/:token_id", h.GetOrderbook)
	r.POST("/api/refresh", h.ForceRefresh)
	r.GET("/api/stats", h.GetStats)
}
