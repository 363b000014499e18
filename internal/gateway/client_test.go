package gateway

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/marketbay/marketd/internal/ports"
)

func testRequest() ports.TransferRequest {
	return ports.TransferRequest{
		ServiceID:     "nft-svc",
		AssetID:       "token-1",
		Recipient:     "bob",
		ExpectedOwner: "alice",
		Memo:          "Sold by Market",
	}
}

func TestAttemptTransfer(t *testing.T) {
	t.Run("successful transfer", func(t *testing.T) {
		var got transferRequest
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Path != "/services/nft-svc/transfers" {
				t.Errorf("path = %s", r.URL.Path)
			}
			if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
				t.Errorf("decode request: %v", err)
			}
			w.Header().Set("Content-Type", "application/json")
			_ = json.NewEncoder(w).Encode(transferResponse{Transferred: true})
		}))
		defer srv.Close()

		c := NewClient(srv.URL, 5*time.Second)
		outcome, err := c.AttemptTransfer(context.Background(), testRequest())
		if err != nil {
			t.Fatalf("attempt transfer: %v", err)
		}
		if !outcome.Transferred {
			t.Fatalf("outcome = %+v, want transferred", outcome)
		}
		if got.ExpectedOwner != "alice" || got.Recipient != "bob" || got.AssetID != "token-1" {
			t.Fatalf("request payload = %+v", got)
		}
	})

	t.Run("rejected transfer carries the reason", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			_ = json.NewEncoder(w).Encode(transferResponse{Transferred: false, Reason: "owner mismatch"})
		}))
		defer srv.Close()

		c := NewClient(srv.URL, 5*time.Second)
		outcome, err := c.AttemptTransfer(context.Background(), testRequest())
		if err != nil {
			t.Fatalf("attempt transfer: %v", err)
		}
		if outcome.Transferred || outcome.Reason != "owner mismatch" {
			t.Fatalf("outcome = %+v", outcome)
		}
	})

	t.Run("http error becomes a failed outcome", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusServiceUnavailable)
		}))
		defer srv.Close()

		c := NewClient(srv.URL, 5*time.Second)
		outcome, err := c.AttemptTransfer(context.Background(), testRequest())
		if err != nil {
			t.Fatalf("attempt transfer: %v", err)
		}
		if outcome.Transferred {
			t.Fatal("5xx must not count as transferred")
		}
	})

	t.Run("unreachable gateway", func(t *testing.T) {
		c := NewClient("http://127.0.0.1:1", 1*time.Second)
		outcome, err := c.AttemptTransfer(context.Background(), testRequest())
		if err == nil {
			t.Fatal("want transport error")
		}
		if outcome.Transferred {
			t.Fatal("transport error must not count as transferred")
		}
	})
}
