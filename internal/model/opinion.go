package model

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// RawMarket Opinion 返回的原始市场记录，字段名不稳定，统一先解到 map 再归一化
type RawMarket map[string]any

// Num 上游数值字段的宽松解码：可能是数字也可能是带引号的字符串，
// 解析失败时保持 0，不让单个坏字段拖垮整条记录
type Num float64

// UnmarshalJSON 兼容 "0.42" / 0.42 / null 三种形态
func (n *Num) UnmarshalJSON(data []byte) error {
	s := strings.TrimSpace(string(data))
	if s == "" || s == "null" {
		*n = 0
		return nil
	}
	s = strings.Trim(s, `"`)
	if s == "" {
		*n = 0
		return nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		*n = 0
		return nil
	}
	*n = Num(f)
	return nil
}

// OrderLevel 订单簿单档（价格、数量）
type OrderLevel struct {
	Price Num `json:"price"`
	Size  Num `json:"size"`
}

// Orderbook 单个 token 的订单簿
type Orderbook struct {
	Bids []OrderLevel `json:"bids"`
	Asks []OrderLevel `json:"asks"`
}

// ChildMarket 分类市场的子盘
type ChildMarket struct {
	MarketID    int64  `json:"market_id"`
	MarketTitle string `json:"market_title"`
	YesTokenID  string `json:"yes_token_id"`
}

// CategoricalMarket 分类市场详情（仅关心子盘列表）
type CategoricalMarket struct {
	ChildMarkets []ChildMarket `json:"child_markets"`
}

// ExtractMarketList 从 /markets 响应里摸出市场数组。
// 上游的包裹层不稳定，依次尝试 result.list / result / data.list / data /
// markets / list，最后尝试顶层就是数组的情况；全部失败视为结构异常。
func ExtractMarketList(body []byte) ([]RawMarket, error) {
	var direct []RawMarket
	if err := json.Unmarshal(body, &direct); err == nil {
		return direct, nil
	}

	var envelope map[string]json.RawMessage
	if err := json.Unmarshal(body, &envelope); err != nil {
		return nil, fmt.Errorf("响应既不是数组也不是对象: %w", err)
	}

	for _, key := range []string{"result", "data", "markets", "list"} {
		raw, ok := envelope[key]
		if !ok || len(raw) == 0 || string(raw) == "null" {
			continue
		}
		var list []RawMarket
		if err := json.Unmarshal(raw, &list); err == nil {
			return list, nil
		}
		var nested map[string]json.RawMessage
		if err := json.Unmarshal(raw, &nested); err == nil {
			if inner, ok := nested["list"]; ok {
				if err := json.Unmarshal(inner, &list); err == nil {
					return list, nil
				}
			}
		}
	}

	preview := string(body)
	if len(preview) > 200 {
		preview = preview[:200]
	}
	return nil, fmt.Errorf("无法识别的响应结构: %s", preview)
}
