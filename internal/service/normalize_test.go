package service

import (
	"testing"

	"WhaleTracker/internal/model"
)

func TestNormalizeMarket(t *testing.T) {
	tests := []struct {
		name   string
		raw    model.RawMarket
		want   NormalizedMarket
		wantOK bool
	}{
		{
			name: "canonical field names",
			raw: model.RawMarket{
				"market_id":    float64(42),
				"market_title": "Will it rain",
				"yes_token_id": "tok-1",
				"volume":       float64(100.5),
				"status_enum":  "Active",
			},
			want:   NormalizedMarket{MarketID: 42, Title: "Will it rain", YesTokenID: "tok-1", Volume: 100.5, Status: "Active"},
			wantOK: true,
		},
		{
			name: "alias fallbacks",
			raw: model.RawMarket{
				"id":         "17",
				"question":   "Who wins",
				"yesTokenId": "tok-2",
				"volume":     "250.25",
				"status":     "Resolved",
			},
			want:   NormalizedMarket{MarketID: 17, Title: "Who wins", YesTokenID: "tok-2", Volume: 250.25, Status: "Resolved"},
			wantOK: true,
		},
		{
			name: "title alias priority prefers market_title",
			raw: model.RawMarket{
				"market_id":    float64(3),
				"market_title": "primary",
				"title":        "secondary",
			},
			want:   NormalizedMarket{MarketID: 3, Title: "primary", Status: "Active"},
			wantOK: true,
		},
		{
			name:   "missing id drops record",
			raw:    model.RawMarket{"title": "orphan", "volume": float64(5)},
			wantOK: false,
		},
		{
			name:   "unparseable id drops record",
			raw:    model.RawMarket{"id": "not-a-number"},
			wantOK: false,
		},
		{
			name:   "bad volume coerces to zero",
			raw:    model.RawMarket{"market_id": float64(8), "volume": "garbage"},
			want:   NormalizedMarket{MarketID: 8, Volume: 0, Status: "Active"},
			wantOK: true,
		},
		{
			name:   "missing status defaults to Active",
			raw:    model.RawMarket{"market_id": float64(9)},
			want:   NormalizedMarket{MarketID: 9, Status: "Active"},
			wantOK: true,
		},
		{
			name:   "null values skipped by alias resolution",
			raw:    model.RawMarket{"market_id": nil, "id": float64(11)},
			want:   NormalizedMarket{MarketID: 11, Status: "Active"},
			wantOK: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := NormalizeMarket(tt.raw)
			if ok != tt.wantOK {
				t.Fatalf("ok = %v, want %v", ok, tt.wantOK)
			}
			if !ok {
				return
			}
			if got != tt.want {
				t.Errorf("got %+v, want %+v", got, tt.want)
			}
		})
	}
}
