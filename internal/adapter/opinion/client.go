package opinion

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"

	"WhaleTracker/internal/config"
	"WhaleTracker/internal/interfaces"
	"WhaleTracker/internal/model"
	"WhaleTracker/internal/utils/httpclient"

	"github.com/sirupsen/logrus"
)

// Client Opinion CLOB 代理的REST客户端，实现 interfaces.OpinionClient
type Client struct {
	cfg        *config.OpinionConfig
	httpClient *http.Client
	logger     *logrus.Logger
}

// NewOpinionClient 创建 Opinion 客户端
func NewOpinionClient(cfg *config.OpinionConfig, logger *logrus.Logger) interfaces.OpinionClient {
	return &Client{
		cfg:        cfg,
		httpClient: httpclient.NewHTTPClient(cfg, logger),
		logger:     logger,
	}
}

// get 发起带认证头的GET请求并返回响应体
func (c *Client) get(ctx context.Context, path string, query url.Values) ([]byte, error) {
	reqURL := fmt.Sprintf("%s%s", c.cfg.BaseURL, path)
	if len(query) > 0 {
		reqURL = fmt.Sprintf("%s?%s", reqURL, query.Encode())
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("构建请求失败: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.cfg.APIKey != "" {
		req.Header.Set("x-api-key", c.cfg.APIKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("请求%s失败: %w", path, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("读取%s响应失败: %w", path, err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%s返回非200状态: %d", path, resp.StatusCode)
	}
	return body, nil
}

// ListMarkets 分页拉取市场列表，包裹层结构交给 model.ExtractMarketList 摸
func (c *Client) ListMarkets(ctx context.Context, page, limit int) ([]model.RawMarket, error) {
	query := url.Values{}
	query.Set("page", strconv.Itoa(page))
	query.Set("limit", strconv.Itoa(limit))

	body, err := c.get(ctx, "/markets", query)
	if err != nil {
		return nil, err
	}

	markets, err := model.ExtractMarketList(body)
	if err != nil {
		return nil, fmt.Errorf("解析市场列表失败: %w", err)
	}
	return markets, nil
}

// GetLatestPrice 拉取 token 最新成交价，价格字段可能是字符串
func (c *Client) GetLatestPrice(ctx context.Context, tokenID string) (float64, error) {
	query := url.Values{}
	query.Set("token_id", tokenID)

	body, err := c.get(ctx, "/price", query)
	if err != nil {
		return 0, err
	}

	var envelope struct {
		Result struct {
			Price model.Num `json:"price"`
		} `json:"result"`
		Price model.Num `json:"price"`
	}
	if err := json.Unmarshal(body, &envelope); err != nil {
		return 0, fmt.Errorf("解析价格响应失败: %w", err)
	}
	if envelope.Result.Price != 0 {
		return float64(envelope.Result.Price), nil
	}
	return float64(envelope.Price), nil
}

// GetOrderbook 拉取 token 订单簿
func (c *Client) GetOrderbook(ctx context.Context, tokenID string) (*model.Orderbook, error) {
	query := url.Values{}
	query.Set("token_id", tokenID)

	body, err := c.get(ctx, "/orderbook", query)
	if err != nil {
		return nil, err
	}

	var envelope struct {
		Result *model.Orderbook   `json:"result"`
		Bids   []model.OrderLevel `json:"bids"`
		Asks   []model.OrderLevel `json:"asks"`
	}
	if err := json.Unmarshal(body, &envelope); err != nil {
		return nil, fmt.Errorf("解析订单簿失败: %w", err)
	}
	if envelope.Result != nil {
		return envelope.Result, nil
	}
	return &model.Orderbook{Bids: envelope.Bids, Asks: envelope.Asks}, nil
}

// GetCategoricalMarket 拉取分类市场详情（子盘列表），包裹层同样不稳定：
// 依次尝试 result.data / result / data 三层
func (c *Client) GetCategoricalMarket(ctx context.Context, marketID int64) (*model.CategoricalMarket, error) {
	query := url.Values{}
	query.Set("market_id", strconv.FormatInt(marketID, 10))

	body, err := c.get(ctx, "/markets/categorical", query)
	if err != nil {
		return nil, err
	}

	var envelope struct {
		Result struct {
			Data         *model.CategoricalMarket `json:"data"`
			ChildMarkets []model.ChildMarket      `json:"child_markets"`
		} `json:"result"`
		Data *model.CategoricalMarket `json:"data"`
	}
	if err := json.Unmarshal(body, &envelope); err != nil {
		return nil, fmt.Errorf("解析分类市场失败: %w", err)
	}
	switch {
	case envelope.Result.Data != nil:
		return envelope.Result.Data, nil
	case len(envelope.Result.ChildMarkets) > 0:
		return &model.CategoricalMarket{ChildMarkets: envelope.Result.ChildMarkets}, nil
	case envelope.Data != nil:
		return envelope.Data, nil
	}
	return &model.CategoricalMarket{}, nil
}
