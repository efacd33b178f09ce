package service

import (
	"sort"

	"WhaleTracker/internal/model"
)

// DetectWhales 巨鲸检测：扫描所有市场的所有 outcome，单侧名义深度达到阈值
// 即生成一条巨鲸记录。纯函数，阈值由调用方传入。
// 返回结果按 value 降序，同值保持扫描顺序（稳定排序）。
func DetectWhales(markets []model.Market, threshold float64) []model.WhaleOrder {
	whales := make([]model.WhaleOrder, 0)

	for _, market := range markets {
		for _, outcome := range market.Outcomes {
			// 买墙
			if outcome.BidDepth >= threshold {
				size := 0.0
				if outcome.Price > 0 {
					size = outcome.BidDepth / outcome.Price
				}
				whales = append(whales, model.WhaleOrder{
					MarketID:    market.MarketID,
					MarketTitle: market.Title,
					Outcome:     outcome.Title,
					Side:        "BUY",
					Price:       outcome.Price,
					Size:        size,
					Value:       outcome.BidDepth,
				})
			}

			// 卖墙
			if outcome.AskDepth >= threshold {
				size := outcome.AskDepth
				if outcome.Price < 1 {
					size = outcome.AskDepth / (1 - outcome.Price)
				}
				whales = append(whales, model.WhaleOrder{
					MarketID:    market.MarketID,
					MarketTitle: market.Title,
					Outcome:     outcome.Title,
					Side:        "SELL",
					Price:       outcome.Price,
					Size:        size,
					Value:       outcome.AskDepth,
				})
			}
		}
	}

	sort.SliceStable(whales, func(i, j int) bool {
		return whales[i].Value > whales[j].Value
	})
	return whales
}
