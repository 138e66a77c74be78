package llm

import (
	"context"
	"errors"
	"testing"
	"time"
)

func testPolicy(delays *[]time.Duration) Policy {
	return Policy{
		MaxAttempts: 9,
		DelayCap:    64 * time.Second,
		Jitter:      func() time.Duration { return 0 },
		Sleep: func(_ context.Context, d time.Duration) error {
			if delays != nil {
				*delays = append(*delays, d)
			}
			return nil
		},
	}
}

func transientErr(msg string) error {
	return &Error{Transient: true, Err: errors.New(msg)}
}

func TestRetrySucceedsOnNthAttempt(t *testing.T) {
	calls := 0
	fn := func(context.Context, Request) (Reply, error) {
		calls++
		if calls < 4 {
			return Reply{}, transientErr("rate limited")
		}
		return Reply{Sender: "B1", MsgID: "B1-1", Text: "ok"}, nil
	}

	reply, err := withRetry(testPolicy(nil), "test", fn)(context.Background(), Request{})
	if err != nil {
		t.Fatalf("expected success after retries: %v", err)
	}
	if calls != 4 {
		t.Fatalf("expected 4 attempts, got %d", calls)
	}
	if reply.Text != "ok" {
		t.Fatalf("unexpected reply: %+v", reply)
	}
}

func TestRetryExhaustionIsFatalWithNoExtraAttempt(t *testing.T) {
	calls := 0
	fn := func(context.Context, Request) (Reply, error) {
		calls++
		return Reply{}, transientErr("rate limited")
	}

	_, err := withRetry(testPolicy(nil), "test", fn)(context.Background(), Request{})
	if calls != 9 {
		t.Fatalf("expected exactly 9 attempts, got %d", calls)
	}
	var ce *Error
	if !errors.As(err, &ce) || ce.Transient {
		t.Fatalf("exhaustion must surface a fatal error, got %v", err)
	}
	if ce.Attempts != 9 {
		t.Fatalf("unexpected attempt count in error: %d", ce.Attempts)
	}
}

func TestRetryStopsImmediatelyOnFatalError(t *testing.T) {
	calls := 0
	fn := func(context.Context, Request) (Reply, error) {
		calls++
		return Reply{}, &Error{Err: errors.New("schema mismatch")}
	}

	_, err := withRetry(testPolicy(nil), "test", fn)(context.Background(), Request{})
	if calls != 1 {
		t.Fatalf("fatal errors must not be retried, got %d attempts", calls)
	}
	if err == nil {
		t.Fatalf("expected an error")
	}
}

func TestRetryBackoffGrowsAndHonorsHint(t *testing.T) {
	var delays []time.Duration
	calls := 0
	fn := func(context.Context, Request) (Reply, error) {
		calls++
		if calls == 1 {
			// Server hint larger than the computed 2s backoff.
			return Reply{}, transientErr("429: Please try again in 20s")
		}
		if calls == 2 {
			return Reply{}, transientErr("rate limited")
		}
		return Reply{Sender: "B1", MsgID: "B1-1", Text: "ok"}, nil
	}

	if _, err := withRetry(testPolicy(&delays), "test", fn)(context.Background(), Request{}); err != nil {
		t.Fatalf("unexpected failure: %v", err)
	}
	if len(delays) != 2 {
		t.Fatalf("expected 2 sleeps, got %d", len(delays))
	}
	if delays[0] != 20*time.Second {
		t.Fatalf("hint should win over computed backoff: %s", delays[0])
	}
	if delays[1] != 4*time.Second {
		t.Fatalf("second retry should back off 2^2 seconds: %s", delays[1])
	}
}

func TestPolicyDelayCaps(t *testing.T) {
	p := testPolicy(nil)
	if d := p.Delay(0, 0); d != 2*time.Second {
		t.Fatalf("attempt 0 delay = %s, want 2s", d)
	}
	if d := p.Delay(8, 0); d != 64*time.Second {
		t.Fatalf("late attempts must cap at 64s, got %s", d)
	}
}

func TestHintedDelay(t *testing.T) {
	d, ok := HintedDelay("Rate limit reached. Please try again in 2.5s. Visit docs.")
	if !ok || d != 2500*time.Millisecond {
		t.Fatalf("unexpected hint: %s %v", d, ok)
	}
	if _, ok := HintedDelay("no hint here"); ok {
		t.Fatalf("found a hint where none exists")
	}
}

func TestRetryRespectsContextCancellation(t *testing.T) {
	p := testPolicy(nil)
	p.Sleep = func(ctx context.Context, _ time.Duration) error { return context.Canceled }
	calls := 0
	fn := func(context.Context, Request) (Reply, error) {
		calls++
		return Reply{}, transientErr("rate limited")
	}

	_, err := withRetry(p, "test", fn)(context.Background(), Request{})
	if calls != 1 {
		t.Fatalf("cancelled sleep must stop the loop, got %d attempts", calls)
	}
	if err == nil {
		t.Fatalf("expected an error after cancellation")
	}
}
