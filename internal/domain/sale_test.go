package domain

import (
	"encoding/json"
	"testing"

	"github.com/shopspring/decimal"
)

func TestListingKeyString(t *testing.T) {
	key := NewListingKey("nft-svc", "token-1")
	if got := key.String(); got != "nft-svc:token-1" {
		t.Fatalf("key string = %q, want nft-svc:token-1", got)
	}
}

func TestSaleProceeds(t *testing.T) {
	sale := &Sale{
		Price:   decimal.RequireFromString("5"),
		Deposit: decimal.RequireFromString("1"),
	}
	if got := sale.Proceeds(); !got.Equal(decimal.RequireFromString("6")) {
		t.Fatalf("proceeds = %s, want 6", got)
	}
}

func TestSaleJSONRoundTrip(t *testing.T) {
	sale := &Sale{
		Owner:       "alice",
		Beneficiary: "broker",
		Price:       decimal.RequireFromString("5"),
		Deposit:     decimal.RequireFromString("0.1"),
		Status:      SaleStatusPurchasePending,
	}
	raw, err := json.Marshal(sale)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var back Sale
	if err := json.Unmarshal(raw, &back); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if back.Status != SaleStatusPurchasePending || !back.Deposit.Equal(sale.Deposit) {
		t.Fatalf("round trip = %+v", back)
	}
}
