package httpclient

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/wyfcoding/portfolioservice/pkg/logger"
)

func TestRequestIDPropagated(t *testing.T) {
	var got string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = r.Header.Get(RequestIDHeader)
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	c := New(ClientConfig{Name: "test", BaseURL: srv.URL, Timeout: time.Second})
	ctx := logger.ContextWithRequestID(context.Background(), "req-7")
	if _, err := c.R().SetContext(ctx).Get("/ping"); err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got != "req-7" {
		t.Errorf("%s = %q, want req-7", RequestIDHeader, got)
	}
}

func TestTimeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		time.Sleep(200 * time.Millisecond)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	c := New(ClientConfig{Name: "test", BaseURL: srv.URL, Timeout: 20 * time.Millisecond})
	if _, err := c.R().Get("/slow"); err == nil {
		t.Fatal("expected timeout error")
	}
}
