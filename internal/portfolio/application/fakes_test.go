package application

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/shopspring/decimal"
	"github.com/wyfcoding/portfolioservice/internal/portfolio/domain"
)

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func order(typ domain.OrderType, symbol string, qty int64, price string) *domain.Order {
	return &domain.Order{
		UserID:    "alice",
		AccountID: "acc-1",
		Symbol:    symbol,
		Currency:  "USD",
		OrderType: typ,
		Quantity:  qty,
		Price:     dec(price),
		OrderFee:  decimal.NullDecimal{Decimal: dec("1"), Valid: true},
	}
}

func ok(symbol, price string) domain.Quote {
	return domain.Quote{Symbol: symbol, LastPrice: dec(price), Status: domain.QuoteStatusSuccess}
}

type fakeQuotes struct {
	mu         sync.Mutex
	quotes     map[string]domain.Quote
	err        error
	batchCalls [][]string
	singleCall int
}

func (f *fakeQuotes) GetQuote(_ context.Context, symbol string) domain.Quote {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.singleCall++
	if q, found := f.quotes[symbol]; found {
		return q
	}
	return domain.FailedQuote(symbol)
}

func (f *fakeQuotes) GetMultipleQuotes(_ context.Context, symbols []string) ([]domain.Quote, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.batchCalls = append(f.batchCalls, append([]string(nil), symbols...))
	if f.err != nil {
		return nil, f.err
	}
	out := make([]domain.Quote, 0, len(symbols))
	for _, s := range symbols {
		if q, found := f.quotes[s]; found {
			out = append(out, q)
		}
	}
	return out, nil
}

type fakeRepo struct {
	mu      sync.Mutex
	orders  []*domain.Order
	saved   []*domain.Order
	saveErr error
	getErr  error
	nextID  uint
}

func (r *fakeRepo) GetOrders(_ context.Context, userID string) ([]*domain.Order, error) {
	if r.getErr != nil {
		return nil, r.getErr
	}
	var out []*domain.Order
	for _, o := range r.orders {
		if o.UserID == userID {
			out = append(out, o)
		}
	}
	return out, nil
}

func (r *fakeRepo) Save(_ context.Context, o *domain.Order) (*domain.Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.saveErr != nil {
		return nil, r.saveErr
	}
	r.nextID++
	cp := *o
	cp.ID = r.nextID
	r.saved = append(r.saved, &cp)
	return &cp, nil
}

type ledgerCall struct {
	tx    *domain.Transaction
	token string
	key   string
}

type fakeLedger struct {
	calls []ledgerCall
	err   error
}

func (l *fakeLedger) SubmitTransaction(_ context.Context, tx *domain.Transaction, token, key string) (*domain.LedgerReceipt, error) {
	l.calls = append(l.calls, ledgerCall{tx: tx, token: token, key: key})
	if l.err != nil {
		return nil, l.err
	}
	return &domain.LedgerReceipt{StatusCode: 200, Body: `{"balance":"1000.00"}`}, nil
}

type fakeIdempotency struct {
	keys       map[string]bool
	reserveErr error
	released   []string
}

func newFakeIdempotency() *fakeIdempotency {
	return &fakeIdempotency{keys: make(map[string]bool)}
}

func (f *fakeIdempotency) Reserve(_ context.Context, key string, _ time.Duration) (bool, error) {
	if f.reserveErr != nil {
		return false, f.reserveErr
	}
	if f.keys[key] {
		return false, nil
	}
	f.keys[key] = true
	return true, nil
}

func (f *fakeIdempotency) Release(_ context.Context, key string) error {
	delete(f.keys, key)
	f.released = append(f.released, key)
	return nil
}

type fakePublisher struct {
	events []domain.OrderSettledEvent
	err    error
}

func (p *fakePublisher) PublishOrderSettled(_ context.Context, e domain.OrderSettledEvent) error {
	p.events = append(p.events, e)
	return p.err
}

var errBoom = errors.New("boom")
