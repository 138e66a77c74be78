package llm

import (
	"context"
	"log"
	"math/rand"
	"regexp"
	"strconv"
	"time"

	"agentchat/internal/metrics"
)

// hintPattern matches the server-supplied retry hint embedded in rate-limit
// error messages ("Please try again in 2.5s").
var hintPattern = regexp.MustCompile(`Please try again in\s+([0-9]+(?:\.[0-9]+)?)s`)

// Policy is a typed retry policy for completion calls: bounded attempts,
// exponential backoff capped at DelayCap, uniform jitter, and a structured
// hint extracted from the error text when the server names a delay.
type Policy struct {
	MaxAttempts int
	DelayCap    time.Duration

	// Jitter and Sleep exist so tests can run the policy without waiting.
	Jitter func() time.Duration
	Sleep  func(ctx context.Context, d time.Duration) error
}

func DefaultPolicy() Policy {
	return Policy{
		MaxAttempts: 9,
		DelayCap:    64 * time.Second,
		Jitter:      func() time.Duration { return time.Duration(rand.Int63n(int64(time.Second))) },
		Sleep:       sleepCtx,
	}
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// Delay computes the backoff before the given zero-based attempt's retry:
// min(cap, 2^(attempt+1)) seconds, raised to a server hint when the hint is
// larger, plus jitter.
func (p Policy) Delay(attempt int, hint time.Duration) time.Duration {
	d := time.Duration(1<<uint(attempt+1)) * time.Second
	if d > p.DelayCap || d <= 0 {
		d = p.DelayCap
	}
	if hint > d {
		d = hint
	}
	if p.Jitter != nil {
		d += p.Jitter()
	}
	return d
}

// HintedDelay extracts the server's "try again in Ns" hint from an error
// message, if present.
func HintedDelay(errText string) (time.Duration, bool) {
	m := hintPattern.FindStringSubmatch(errText)
	if m == nil {
		return 0, false
	}
	secs, err := strconv.ParseFloat(m[1], 64)
	if err != nil {
		return 0, false
	}
	return time.Duration(secs * float64(time.Second)), true
}

type completionFunc func(ctx context.Context, req Request) (Reply, error)

// withRetry wraps a completion call with the policy. Transient failures are
// retried up to MaxAttempts total calls; the exhausted or fatal error is
// surfaced as a fatal *Error, never a fabricated reply.
func withRetry(p Policy, label string, fn completionFunc) completionFunc {
	return func(ctx context.Context, req Request) (Reply, error) {
		var lastErr error
		for attempt := 0; attempt < p.MaxAttempts; attempt++ {
			reply, err := fn(ctx, req)
			if err == nil {
				return reply, nil
			}
			lastErr = err
			if !IsTransient(err) {
				metrics.CompletionFailures.Inc()
				return Reply{}, &Error{Attempts: attempt + 1, Err: err}
			}
			if attempt == p.MaxAttempts-1 {
				break
			}
			metrics.CompletionRetries.Inc()
			hint, _ := HintedDelay(err.Error())
			delay := p.Delay(attempt, hint)
			log.Printf("completion retry for %s: %v (in %.1fs, attempt %d/%d)",
				label, err, delay.Seconds(), attempt+1, p.MaxAttempts)
			if serr := p.Sleep(ctx, delay); serr != nil {
				return Reply{}, &Error{Attempts: attempt + 1, Err: serr}
			}
		}
		metrics.CompletionFailures.Inc()
		log.Printf("completion for %s: giving up after %d attempts: %v", label, p.MaxAttempts, lastErr)
		return Reply{}, &Error{Attempts: p.MaxAttempts, Err: lastErr}
	}
}
