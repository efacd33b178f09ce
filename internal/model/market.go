package model

import "time"

// Outcome 单个结果侧的深度快照（二元市场只有 YES 一侧，分类市场每个子盘一条）
type Outcome struct {
	Title    string  `json:"title"`     // 结果名称（二元市场固定为 "YES"）
	TokenID  string  `json:"token_id"`  // 截断后的展示用 token id
	Price    float64 `json:"price"`     // 最新成交价 [0,1]，未知时为 0
	BidDepth float64 `json:"bid_depth"` // 买侧名义价值（已按价格折算）
	AskDepth float64 `json:"ask_depth"` // 卖侧名义价值（已按价格折算）
}

// Market 归一化后的市场（outcomes 为空的市场不会进入快照）
type Market struct {
	MarketID int64     `json:"market_id"`
	Title    string    `json:"title"`
	Volume   float64   `json:"volume"`
	Status   string    `json:"status"`
	Outcomes []Outcome `json:"outcomes"`
}

// WhaleOrder 巨鲸挂单：某一结果单侧的名义深度达到阈值时生成，每轮刷新重算
type WhaleOrder struct {
	MarketID    int64   `json:"market_id"`
	MarketTitle string  `json:"market_title"`
	Outcome     string  `json:"outcome"`
	Side        string  `json:"side"` // BUY / SELL
	Price       float64 `json:"price"`
	Size        float64 `json:"size"`  // 由价值反推的挂单量，价格未知时为 0
	Value       float64 `json:"value"` // 触发检测的名义价值
}

// Diagnostics 单轮刷新的运维诊断信息（api/markets 的 debug 字段）
type Diagnostics struct {
	JobID        string   `json:"job_id"`        // 本轮刷新任务 id
	TotalFetched int      `json:"total_fetched"` // 上游拉到的原始记录数
	Processed    int      `json:"processed"`     // 成功处理的市场数
	Dropped      int      `json:"dropped"`       // 无法归一化或无 outcome 被丢弃的记录数
	Errors       []string `json:"errors,omitempty"`
}

// Snapshot 一轮刷新的完整结果，整体构建后原子替换，读方永远看不到半成品
type Snapshot struct {
	Markets     []Market     `json:"markets"`
	Whales      []WhaleOrder `json:"whales"` // 按 value 降序
	TotalVolume float64      `json:"total_volume"`
	WhaleCount  int          `json:"whale_count"`
	UpdatedAt   time.Time    `json:"updated_at"`
	Debug       *Diagnostics `json:"debug,omitempty"`
}

// FindMarket 在快照内按 market_id 查找市场
func (s *Snapshot) FindMarket(marketID int64) (*Market, bool) {
	for i := range s.Markets {
		if s.Markets[i].MarketID == marketID {
			return &s.Markets[i], true
		}
	}
	return nil, false
}
