package breaker

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/wyfcoding/portfolioservice/pkg/config"
	"github.com/wyfcoding/portfolioservice/pkg/metrics"
)

var errRemote = errors.New("remote error")

func testConfig() config.BreakerConfig {
	return config.BreakerConfig{
		MaxRequests:         1,
		Timeout:             50 * time.Millisecond,
		ConsecutiveFailures: 2,
	}
}

func fail() (any, error)    { return nil, errRemote }
func succeed() (any, error) { return "ok", nil }

func TestStateTransitions(t *testing.T) {
	m := metrics.New("test", prometheus.NewRegistry())
	b := New("quotes", testConfig(), m)

	if b.State() != StateClosed {
		t.Fatalf("initial state = %v, want closed", b.State())
	}

	for i := 0; i < 2; i++ {
		if _, err := b.Execute(fail); !errors.Is(err, errRemote) {
			t.Fatalf("call %d: err = %v, want remote error", i, err)
		}
	}
	if b.State() != StateOpen {
		t.Fatalf("state after threshold = %v, want open", b.State())
	}
	if got := testutil.ToFloat64(m.BreakerState.WithLabelValues("quotes")); got != float64(StateOpen) {
		t.Errorf("breaker gauge = %v, want %v", got, float64(StateOpen))
	}

	var calls int32
	_, err := b.Execute(func() (any, error) {
		atomic.AddInt32(&calls, 1)
		return succeed()
	})
	if !errors.Is(err, ErrOpen) {
		t.Fatalf("err = %v, want ErrOpen", err)
	}
	if calls != 0 {
		t.Fatalf("open breaker invoked the action %d times", calls)
	}

	time.Sleep(100 * time.Millisecond)

	res, err := b.Execute(succeed)
	if err != nil {
		t.Fatalf("half-open probe failed: %v", err)
	}
	if res != "ok" {
		t.Errorf("result = %v, want ok", res)
	}
	if b.State() != StateClosed {
		t.Fatalf("state after successful probe = %v, want closed", b.State())
	}

	// 计数已重置，单次失败不应再打开
	_, _ = b.Execute(fail)
	if b.State() != StateClosed {
		t.Errorf("single failure after reset opened the breaker")
	}
}

func TestHalfOpenProbeFailureReopens(t *testing.T) {
	b := New("quotes", testConfig(), nil)
	_, _ = b.Execute(fail)
	_, _ = b.Execute(fail)

	time.Sleep(100 * time.Millisecond)
	if b.State() != StateHalfOpen {
		t.Fatalf("state after cooldown = %v, want half-open", b.State())
	}

	_, _ = b.Execute(fail)
	if b.State() != StateOpen {
		t.Fatalf("state after failed probe = %v, want open", b.State())
	}
}

func TestCanceledCallsDoNotTrip(t *testing.T) {
	b := New("quotes", testConfig(), nil)
	for i := 0; i < 5; i++ {
		_, _ = b.Execute(func() (any, error) { return nil, context.Canceled })
	}
	if b.State() != StateClosed {
		t.Fatalf("state = %v, want closed", b.State())
	}
}

func TestFailureRatioTrips(t *testing.T) {
	cfg := config.BreakerConfig{
		MaxRequests:  1,
		Interval:     time.Minute,
		Timeout:      time.Minute,
		FailureRatio: 0.5,
		MinRequests:  4,
	}
	b := New("ratio", cfg, nil)

	_, _ = b.Execute(succeed)
	_, _ = b.Execute(fail)
	_, _ = b.Execute(succeed)
	if b.State() != StateClosed {
		t.Fatalf("tripped before min requests")
	}
	_, _ = b.Execute(fail)
	if b.State() != StateOpen {
		t.Fatalf("state = %v, want open at 50%% failures", b.State())
	}
}

func TestListenersNotified(t *testing.T) {
	b := New("quotes", testConfig(), nil)

	var transitions []State
	b.OnStateChange(func(_ string, _, to State) {
		transitions = append(transitions, to)
	})

	_, _ = b.Execute(fail)
	_, _ = b.Execute(fail)

	if len(transitions) != 1 || transitions[0] != StateOpen {
		t.Fatalf("transitions = %v, want [open]", transitions)
	}
}
