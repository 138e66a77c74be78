// Package hub gives every conversation a single-writer event loop. The
// surrounding framework guarantees per-connection serialization; the hub
// reproduces that guarantee in-process: events for one conversation apply
// strictly in arrival order, while distinct conversations run in parallel.
package hub

import (
	"context"
	"errors"
	"log"
	"sync"
	"time"

	"agentchat/internal/chat"
	"agentchat/internal/metrics"
)

var (
	ErrClosed  = errors.New("conversation closed")
	ErrUnknown = errors.New("unknown conversation")
)

// Factory builds the controller for a new conversation id.
type Factory func(conversationID string) *chat.Controller

// A task is either one inbound event to apply or, when snapshot is set, a
// request for a consistent read of the conversation state. Both run inside
// the conversation's loop.
type task struct {
	ev       chat.Inbound
	snapshot bool
	reply    chan result
}

type result struct {
	deliveries []chat.Delivery
	snapshot   chat.Snapshot
	err        error
}

type conversation struct {
	id         string
	ctrl       *chat.Controller
	tasks      chan task
	ctx        context.Context
	cancel     context.CancelFunc
	lastActive time.Time
}

type Hub struct {
	mu      sync.Mutex
	convs   map[string]*conversation
	factory Factory
	closed  bool
}

func New(factory Factory) *Hub {
	return &Hub{convs: make(map[string]*conversation), factory: factory}
}

// Dispatch routes one inbound event into the conversation's loop and waits
// for the outcome. A completion call in another event for the same
// conversation delays this one (single writer); other conversations are
// unaffected.
func (h *Hub) Dispatch(ctx context.Context, conversationID string, ev chat.Inbound) ([]chat.Delivery, error) {
	c, err := h.get(conversationID)
	if err != nil {
		return nil, err
	}
	res, err := c.submit(ctx, task{ev: ev, reply: make(chan result, 1)})
	if err != nil {
		return nil, err
	}
	return res.deliveries, res.err
}

// Snapshot reads the conversation state from inside its loop, so the read
// never races an event being applied. Unlike Dispatch it does not open a
// conversation that does not exist.
func (h *Hub) Snapshot(ctx context.Context, conversationID string) (chat.Snapshot, error) {
	h.mu.Lock()
	c, ok := h.convs[conversationID]
	h.mu.Unlock()
	if !ok {
		return chat.Snapshot{}, ErrUnknown
	}
	res, err := c.submit(ctx, task{snapshot: true, reply: make(chan result, 1)})
	if err != nil {
		return chat.Snapshot{}, err
	}
	if res.err != nil {
		return chat.Snapshot{}, res.err
	}
	return res.snapshot, nil
}

// submit queues one task and waits for its answer. Both waits bail out when
// the conversation is torn down, so a caller queued behind a slow completion
// is released the moment the conversation closes rather than hanging until
// its own deadline.
func (c *conversation) submit(ctx context.Context, t task) (result, error) {
	select {
	case c.tasks <- t:
	case <-c.ctx.Done():
		return result{}, ErrClosed
	case <-ctx.Done():
		return result{}, ctx.Err()
	}
	select {
	case res := <-t.reply:
		return res, nil
	case <-c.ctx.Done():
		return result{}, ErrClosed
	case <-ctx.Done():
		return result{}, ctx.Err()
	}
}

func (h *Hub) get(conversationID string) (*conversation, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return nil, ErrClosed
	}
	c, ok := h.convs[conversationID]
	if !ok {
		ctx, cancel := context.WithCancel(context.Background())
		c = &conversation{
			id:     conversationID,
			ctrl:   h.factory(conversationID),
			tasks:  make(chan task, 16),
			ctx:    ctx,
			cancel: cancel,
		}
		h.convs[conversationID] = c
		go c.run()
		log.Printf("conversation %s opened", conversationID)
	}
	c.lastActive = time.Now()
	return c, nil
}

func (c *conversation) run() {
	for {
		select {
		case <-c.ctx.Done():
			c.drain()
			return
		case t := <-c.tasks:
			if t.snapshot {
				t.reply <- result{snapshot: c.ctrl.Snapshot()}
				continue
			}
			ds, err := c.ctrl.Handle(c.ctx, t.ev)
			if c.ctx.Err() != nil {
				// Torn down mid-event: discard the outcome.
				t.reply <- result{err: ErrClosed}
				c.drain()
				return
			}
			t.reply <- result{deliveries: ds, err: err}
		}
	}
}

// drain answers every task still queued behind the final event, so their
// callers learn about the teardown immediately.
func (c *conversation) drain() {
	for {
		select {
		case t := <-c.tasks:
			t.reply <- result{err: ErrClosed}
		default:
			return
		}
	}
}

// ExpireIdle tears down conversations with no event activity for maxIdle.
// In-flight completion calls see their context cancelled and are discarded.
func (h *Hub) ExpireIdle(maxIdle time.Duration) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	n := 0
	now := time.Now()
	for id, c := range h.convs {
		if now.Sub(c.lastActive) > maxIdle {
			c.cancel()
			delete(h.convs, id)
			metrics.ConversationsExpired.Inc()
			log.Printf("conversation %s expired after %s idle", id, maxIdle)
			n++
		}
	}
	return n
}

// Close tears down every conversation.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.closed = true
	for id, c := range h.convs {
		c.cancel()
		delete(h.convs, id)
	}
}

// Len reports the number of live conversations.
func (h *Hub) Len() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.convs)
}
