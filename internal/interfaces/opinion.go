package interfaces

import (
	"context"

	"WhaleTracker/internal/model"
)

// OpinionClient Opinion 上游的能力集合。四个调用各自独立容错：
// 任何一个失败只会让对应的值退化为零值，绝不连坐整批刷新。
type OpinionClient interface {
	// ListMarkets 分页拉取市场列表
	ListMarkets(ctx context.Context, page, limit int) ([]model.RawMarket, error)
	// GetLatestPrice 单个 token 的最新成交价
	GetLatestPrice(ctx context.Context, tokenID string) (float64, error)
	// GetOrderbook 单个 token 的订单簿
	GetOrderbook(ctx context.Context, tokenID string) (*model.Orderbook, error)
	// GetCategoricalMarket 分类市场详情（子盘列表）
	GetCategoricalMarket(ctx context.Context, marketID int64) (*model.CategoricalMarket, error)
}
