package service

import (
	"strconv"

	"WhaleTracker/internal/model"
)

// NormalizedMarket 归一化后的强类型市场记录。原始 map 形态不允许越过
// 归一化边界继续向下游传播。
type NormalizedMarket struct {
	MarketID   int64   // 市场ID
	Title      string  // 标题
	YesTokenID string  // YES token id，非空即二元市场，空则走分类市场流程
	Volume     float64 // 成交量，缺失/坏值兜底为 0
	Status     string  // 状态，缺失时默认 "Active"
}

// 各字段的别名解析优先级（上游不同版本字段名不一致）
var (
	marketIDAliases = []string{"market_id", "id"}
	titleAliases    = []string{"market_title", "title", "question"}
	tokenAliases    = []string{"yes_token_id", "yesTokenId"}
	statusAliases   = []string{"status_enum", "status"}
)

// NormalizeMarket 把一条形态未知的原始记录归一化为强类型记录。
// 纯函数；解析不出 market_id 的记录视为不可用，返回 ok=false 由调用方静默丢弃。
func NormalizeMarket(raw model.RawMarket) (NormalizedMarket, bool) {
	marketID, ok := rawInt(raw, marketIDAliases...)
	if !ok || marketID == 0 {
		return NormalizedMarket{}, false
	}

	status := rawString(raw, statusAliases...)
	if status == "" {
		status = "Active"
	}

	return NormalizedMarket{
		MarketID:   marketID,
		Title:      rawString(raw, titleAliases...),
		YesTokenID: rawString(raw, tokenAliases...),
		Volume:     rawFloat(raw, "volume"),
		Status:     status,
	}, true
}

// rawString 按别名顺序取第一个非空字符串
func rawString(raw model.RawMarket, aliases ...string) string {
	for _, key := range aliases {
		if v, ok := raw[key]; ok {
			if s, ok := v.(string); ok && s != "" {
				return s
			}
		}
	}
	return ""
}

// rawFloat 按别名顺序取第一个可转成数字的值，转换失败兜底为 0
func rawFloat(raw model.RawMarket, aliases ...string) float64 {
	for _, key := range aliases {
		v, ok := raw[key]
		if !ok || v == nil {
			continue
		}
		switch n := v.(type) {
		case float64:
			return n
		case int:
			return float64(n)
		case int64:
			return float64(n)
		case string:
			if f, err := strconv.ParseFloat(n, 64); err == nil {
				return f
			}
			return 0
		}
	}
	return 0
}

// rawInt 按别名顺序取第一个可转成整数的值（JSON 数字默认解成 float64）
func rawInt(raw model.RawMarket, aliases ...string) (int64, bool) {
	for _, key := range aliases {
		v, ok := raw[key]
		if !ok || v == nil {
			continue
		}
		switch n := v.(type) {
		case float64:
			return int64(n), true
		case int:
			return int64(n), true
		case int64:
			return n, true
		case string:
			if i, err := strconv.ParseInt(n, 10, 64); err == nil {
				return i, true
			}
		}
	}
	return 0, false
}
