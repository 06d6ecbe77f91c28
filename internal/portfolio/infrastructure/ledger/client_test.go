package ledger

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/wyfcoding/portfolioservice/internal/portfolio/domain"
	"github.com/wyfcoding/portfolioservice/pkg/httpclient"
)

func testTransaction() *domain.Transaction {
	return &domain.Transaction{
		AccountID:   "acc-1",
		Amount:      decimal.RequireFromString("1009.99"),
		Currency:    "USD",
		Date:        time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC),
		Description: "BUY 10 AAPL @ 100.00 USD (fee 9.99) account acc-1",
		Type:        domain.TransactionTypeDebit,
	}
}

func newClient(url string, timeout time.Duration) *Client {
	return NewClient(httpclient.New(httpclient.ClientConfig{Name: "accounts", BaseURL: url, Timeout: timeout}))
}

func TestSubmitTransactionSuccess(t *testing.T) {
	var (
		gotAuth, gotKey, gotPath, gotMethod string
		gotBody                             map[string]any
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotKey = r.Header.Get(IdempotencyHeader)
		gotPath = r.URL.Path
		gotMethod = r.Method
		_ = json.NewDecoder(r.Body).Decode(&gotBody)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"balance":8990.01}`))
	}))
	defer srv.Close()

	receipt, err := newClient(srv.URL, time.Second).SubmitTransaction(context.Background(), testTransaction(), "tok-123", "client-1")
	if err != nil {
		t.Fatalf("SubmitTransaction: %v", err)
	}
	if gotMethod != http.MethodPost || gotPath != TransactionPath {
		t.Errorf("request = %s %s, want POST %s", gotMethod, gotPath, TransactionPath)
	}
	if gotAuth != "Bearer tok-123" {
		t.Errorf("authorization = %q", gotAuth)
	}
	if gotKey != "client-1" {
		t.Errorf("idempotency key = %q", gotKey)
	}
	if gotBody["accountId"] != "acc-1" || gotBody["type"] != "DEBIT" || gotBody["currency"] != "USD" {
		t.Errorf("body = %v", gotBody)
	}
	if amount, _ := gotBody["amount"].(float64); amount != 1009.99 {
		t.Errorf("amount = %v, want number 1009.99", gotBody["amount"])
	}
	if gotBody["date"] != "2024-03-01T10:00:00Z" {
		t.Errorf("date = %v", gotBody["date"])
	}
	if receipt.StatusCode != http.StatusOK || receipt.Body != `{"balance":8990.01}` {
		t.Errorf("receipt = %+v", receipt)
	}
}

func TestSubmitTransactionRejected(t *testing.T) {
	for _, code := range []int{http.StatusBadRequest, http.StatusUnauthorized, http.StatusUnprocessableEntity, http.StatusInternalServerError} {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(code)
			_, _ = w.Write([]byte("insufficient funds"))
		}))

		_, err := newClient(srv.URL, time.Second).SubmitTransaction(context.Background(), testTransaction(), "t", "k")
		srv.Close()

		if !errors.Is(err, domain.ErrSettlementRejected) {
			t.Fatalf("status %d: err = %v, want ErrSettlementRejected", code, err)
		}
		var se *domain.SettlementError
		if !errors.As(err, &se) || se.StatusCode != code || se.Body != "insufficient funds" {
			t.Errorf("status %d: settlement error = %+v", code, se)
		}
	}
}

func TestSubmitTransactionTimeoutIsUnreachable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		time.Sleep(300 * time.Millisecond)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	_, err := newClient(srv.URL, 50*time.Millisecond).SubmitTransaction(context.Background(), testTransaction(), "t", "k")
	if !errors.Is(err, domain.ErrSettlementUnreachable) {
		t.Fatalf("err = %v, want ErrSettlementUnreachable", err)
	}
}

func TestSubmitTransactionConnectionRefused(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	_, err := newClient(url, time.Second).SubmitTransaction(context.Background(), testTransaction(), "t", "k")
	if !errors.Is(err, domain.ErrSettlementUnreachable) {
		t.Fatalf("err = %v, want ErrSettlementUnreachable", err)
	}
}
