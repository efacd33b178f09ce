package service

import (
	"context"
	"fmt"

	"WhaleTracker/internal/interfaces"
	"WhaleTracker/internal/model"

	"github.com/sirupsen/logrus"
)

// MarketProcessor 单个市场的处理器：判定二元/分类拓扑，逐 token 拉价格与
// 订单簿，折算成名义深度。所有上游调用单独容错，失败只影响对应的值。
type MarketProcessor struct {
	client interfaces.OpinionClient
	logger *logrus.Logger
}

// NewMarketProcessor 创建市场处理器
func NewMarketProcessor(client interfaces.OpinionClient, logger *logrus.Logger) *MarketProcessor {
	return &MarketProcessor{client: client, logger: logger}
}

// Process 处理单个归一化市场。返回 nil 表示该市场没有任何可用 outcome，
// 整体丢弃；诊断信息返回给调用方汇总，不作为错误向上抛。
func (p *MarketProcessor) Process(ctx context.Context, nm NormalizedMarket) (*model.Market, []string) {
	var outcomes []model.Outcome
	var diags []string

	if nm.YesTokenID != "" {
		// 二元市场：只有 YES 一侧
		outcomes = append(outcomes, p.processBinary(ctx, nm.YesTokenID))
	} else {
		// 分类市场：拉子盘列表，逐子盘处理
		outcomes, diags = p.processCategorical(ctx, nm.MarketID)
	}

	if len(outcomes) == 0 {
		return nil, diags
	}

	return &model.Market{
		MarketID: nm.MarketID,
		Title:    nm.Title,
		Volume:   nm.Volume,
		Status:   nm.Status,
		Outcomes: outcomes,
	}, diags
}

// processBinary 二元市场路径：深度用单一最新价折算名义价值。
// 卖侧在价格为 0 或 1 时按 0.5 折算，这是沿用已久的近似口径。
func (p *MarketProcessor) processBinary(ctx context.Context, tokenID string) model.Outcome {
	price := p.fetchPrice(ctx, tokenID)
	bidUnits, askUnits := p.fetchDepthUnits(ctx, tokenID)

	var bidValue, askValue float64
	if price > 0 {
		bidValue = bidUnits * price
	}
	if price > 0 && price < 1 {
		askValue = askUnits * (1 - price)
	} else {
		askValue = askUnits * 0.5
	}

	return model.Outcome{
		Title:    "YES",
		TokenID:  truncateToken(tokenID),
		Price:    price,
		BidDepth: bidValue,
		AskDepth: askValue,
	}
}

// processCategorical 分类市场路径：子盘订单簿带档位价格，名义价值直接按
// Σ price×size 计算（与二元路径的单价折算口径不同，是有意为之）。
// 没有 token 的子盘也保留一条零值 outcome，保证结果枚举完整。
func (p *MarketProcessor) processCategorical(ctx context.Context, marketID int64) ([]model.Outcome, []string) {
	cat, err := p.client.GetCategoricalMarket(ctx, marketID)
	if err != nil {
		p.logger.WithError(err).WithField("market_id", marketID).Warn("拉取分类市场失败")
		return nil, []string{fmt.Sprintf("分类市场%d: %v", marketID, err)}
	}

	var outcomes []model.Outcome
	for _, child := range cat.ChildMarkets {
		outcome := model.Outcome{
			Title:   child.MarketTitle,
			TokenID: truncateToken(child.YesTokenID),
		}

		if child.YesTokenID != "" {
			outcome.Price = p.fetchPrice(ctx, child.YesTokenID)
			outcome.BidDepth, outcome.AskDepth = p.fetchWeightedValues(ctx, child.YesTokenID)
		}

		outcomes = append(outcomes, outcome)
	}
	return outcomes, nil
}

// fetchPrice 拉最新价，失败退化为 0
func (p *MarketProcessor) fetchPrice(ctx context.Context, tokenID string) float64 {
	price, err := p.client.GetLatestPrice(ctx, tokenID)
	if err != nil {
		p.logger.WithError(err).WithField("token_id", tokenID).Debug("拉取价格失败")
		return 0
	}
	return price
}

// fetchDepthUnits 二元路径的深度单位：两侧各为 Σ size，失败退化为 0
func (p *MarketProcessor) fetchDepthUnits(ctx context.Context, tokenID string) (float64, float64) {
	ob, err := p.client.GetOrderbook(ctx, tokenID)
	if err != nil {
		p.logger.WithError(err).WithField("token_id", tokenID).Debug("拉取订单簿失败")
		return 0, 0
	}

	var bid, ask float64
	for _, level := range ob.Bids {
		bid += float64(level.Size)
	}
	for _, level := range ob.Asks {
		ask += float64(level.Size)
	}
	return bid, ask
}

// fetchWeightedValues 分类路径的名义价值：两侧各为 Σ price×size
func (p *MarketProcessor) fetchWeightedValues(ctx context.Context, tokenID string) (float64, float64) {
	ob, err := p.client.GetOrderbook(ctx, tokenID)
	if err != nil {
		p.logger.WithError(err).WithField("token_id", tokenID).Debug("拉取订单簿失败")
		return 0, 0
	}

	var bid, ask float64
	for _, level := range ob.Bids {
		bid += float64(level.Price) * float64(level.Size)
	}
	for _, level := range ob.Asks {
		ask += float64(level.Price) * float64(level.Size)
	}
	return bid, ask
}

// truncateToken token id 的截断展示形态（前20字符 + "..."），空值返回空串
func truncateToken(tokenID string) string {
	if tokenID == "" {
		return ""
	}
	if len(tokenID) > 20 {
		tokenID = tokenID[:20]
	}
	return tokenID + "..."
}
