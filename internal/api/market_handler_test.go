package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"WhaleTracker/internal/config"
	"WhaleTracker/internal/model"
	"WhaleTracker/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// stubClient 测试桩：只配置了 tok-1 的数据，其余调用返回错误
type stubClient struct{}

func (s *stubClient) ListMarkets(_ context.Context, page, _ int) ([]model.RawMarket, error) {
	if page != 1 {
		return nil, nil
	}
	return []model.RawMarket{
		{"market_id": float64(1), "market_title": "Binary", "yes_token_id": "tok-1", "volume": float64(1000)},
		{"market_id": float64(2), "market_title": "Small", "yes_token_id": "tok-2", "volume": float64(30)},
	}, nil
}

func (s *stubClient) GetLatestPrice(_ context.Context, tokenID string) (float64, error) {
	if tokenID == "tok-1" {
		return 0.4, nil
	}
	return 0, errors.New("price unavailable")
}

func (s *stubClient) GetOrderbook(_ context.Context, tokenID string) (*model.Orderbook, error) {
	if tokenID == "tok-1" {
		return &model.Orderbook{
			Bids: []model.OrderLevel{{Price: 0.39, Size: 2000}},
			Asks: []model.OrderLevel{{Price: 0.41, Size: 1000}},
		}, nil
	}
	return nil, errors.New("orderbook unavailable")
}

func (s *stubClient) GetCategoricalMarket(_ context.Context, _ int64) (*model.CategoricalMarket, error) {
	return nil, errors.New("categorical market unavailable")
}

func newTestRouter(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	logger := logrus.New()
	logger.SetOutput(io.Discard)

	cfg := &config.Config{
		Opinion: config.OpinionConfig{APIKey: "test-key"},
		Whale: config.WhaleConfig{
			Threshold:   500,
			PageCap:     3,
			PageLimit:   20,
			MarketCap:   50,
			Concurrency: 2,
		},
	}

	client := &stubClient{}
	tracker := service.NewWhaleTracker(client, cfg, logger)
	handler := NewWhaleHandler(tracker, client, cfg, logger)

	r := gin.New()
	handler.RegisterRoutes(r)
	return r
}

func doRequest(t *testing.T, r *gin.Engine, method, path string) (*httptest.ResponseRecorder, map[string]json.RawMessage) {
	t.Helper()
	w := httptest.NewRecorder()
	req := httptest.NewRequest(method, path, nil)
	r.ServeHTTP(w, req)

	body := map[string]json.RawMessage{}
	if w.Body.Len() > 0 {
		if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
			t.Fatalf("invalid JSON response for %s %s: %v", method, path, err)
		}
	}
	return w, body
}

func TestGetMarketsLazyRefresh(t *testing.T) {
	r := newTestRouter(t)

	w, body := doRequest(t, r, http.MethodGet, "/api/markets")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}

	var markets []model.Market
	if err := json.Unmarshal(body["markets"], &markets); err != nil {
		t.Fatalf("markets field: %v", err)
	}
	if len(markets) != 2 {
		t.Fatalf("expected 2 markets, got %d", len(markets))
	}
	var whaleCount int
	if err := json.Unmarshal(body["whale_count"], &whaleCount); err != nil {
		t.Fatalf("whale_count field: %v", err)
	}
	var whales []model.WhaleOrder
	if err := json.Unmarshal(body["whales"], &whales); err != nil {
		t.Fatalf("whales field: %v", err)
	}
	if whaleCount != len(whales) {
		t.Errorf("whale_count = %d, len(whales) = %d", whaleCount, len(whales))
	}
}

func TestGetMarketByID(t *testing.T) {
	r := newTestRouter(t)

	w, body := doRequest(t, r, http.MethodGet, "/api/markets/1")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	var title string
	if err := json.Unmarshal(body["title"], &title); err != nil || title != "Binary" {
		t.Errorf("title = %q (err %v), want Binary", title, err)
	}

	w, body = doRequest(t, r, http.MethodGet, "/api/markets/999")
	if w.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", w.Code)
	}
	var errMsg string
	if err := json.Unmarshal(body["error"], &errMsg); err != nil || errMsg != "Market not found" {
		t.Errorf("error = %q, want Market not found", errMsg)
	}
}

func TestGetWhalesThresholdFilter(t *testing.T) {
	r := newTestRouter(t)

	// 极高阈值：返回空列表而不是错误
	w, body := doRequest(t, r, http.MethodGet, "/api/whales?threshold=1000000")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	var count int
	if err := json.Unmarshal(body["count"], &count); err != nil || count != 0 {
		t.Errorf("count = %d, want 0", count)
	}
	var whales []model.WhaleOrder
	if err := json.Unmarshal(body["whales"], &whales); err != nil {
		t.Fatalf("whales must be [] not null: %v", err)
	}
	if len(whales) != 0 {
		t.Errorf("expected empty whales, got %d", len(whales))
	}

	// 默认阈值：tok-1 的 bid 800 / ask 600 均过线
	_, body = doRequest(t, r, http.MethodGet, "/api/whales")
	if err := json.Unmarshal(body["count"], &count); err != nil || count != 2 {
		t.Errorf("default threshold count = %d, want 2", count)
	}
}

func TestGetOrderbookPassthrough(t *testing.T) {
	r := newTestRouter(t)

	w, body := doRequest(t, r, http.MethodGet, "/api/orderbook/tok-1")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	var bidCount, askCount int
	if err := json.Unmarshal(body["bid_count"], &bidCount); err != nil || bidCount != 1 {
		t.Errorf("bid_count = %d, want 1", bidCount)
	}
	if err := json.Unmarshal(body["ask_count"], &askCount); err != nil || askCount != 1 {
		t.Errorf("ask_count = %d, want 1", askCount)
	}

	// 上游失败 → 500
	w, _ = doRequest(t, r, http.MethodGet, "/api/orderbook/unknown")
	if w.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d, want 500", w.Code)
	}
}

func TestForceRefresh(t *testing.T) {
	r := newTestRouter(t)

	w, body := doRequest(t, r, http.MethodPost, "/api/refresh")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	if _, ok := body["updated_at"]; !ok {
		t.Error("refresh response must carry updated_at")
	}
}

func TestGetStats(t *testing.T) {
	r := newTestRouter(t)

	w, body := doRequest(t, r, http.MethodGet, "/api/stats")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}

	var totalMarkets int
	if err := json.Unmarshal(body["total_markets"], &totalMarkets); err != nil || totalMarkets != 2 {
		t.Errorf("total_markets = %d, want 2", totalMarkets)
	}
	var totalVolume float64
	if err := json.Unmarshal(body["total_volume"], &totalVolume); err != nil || totalVolume != 1030 {
		t.Errorf("total_volume = %v, want 1030", totalVolume)
	}

	var top []struct {
		ID     int64   `json:"id"`
		Volume float64 `json:"volume"`
	}
	if err := json.Unmarshal(body["top_markets"], &top); err != nil {
		t.Fatalf("top_markets field: %v", err)
	}
	if len(top) != 2 || top[0].Volume < top[1].Volume {
		t.Errorf("top_markets must be sorted by volume desc, got %+v", top)
	}
}
