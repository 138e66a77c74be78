// Package metrics exposes the process-wide Prometheus instruments. They are
// registered on the default registry and served by the /metrics handler.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	MessagesAccepted = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "agentchat_messages_accepted_total",
		Help: "Accepted conversation messages by sender kind.",
	}, []string{"sender_kind"})

	TurnsDenied = promauto.NewCounter(prometheus.CounterOpts{
		Name: "agentchat_bot_turns_denied_total",
		Help: "Bot turn requests denied by the turn arbiter.",
	})

	ReactionsAccepted = promauto.NewCounter(prometheus.CounterOpts{
		Name: "agentchat_reactions_accepted_total",
		Help: "Accepted emoji reactions.",
	})

	ReactionsDuplicate = promauto.NewCounter(prometheus.CounterOpts{
		Name: "agentchat_reactions_duplicate_total",
		Help: "Reactions dropped as duplicates of an existing (message, reactor, emoji).",
	})

	CompletionRetries = promauto.NewCounter(prometheus.CounterOpts{
		Name: "agentchat_completion_retries_total",
		Help: "Transient completion failures that were retried.",
	})

	CompletionFailures = promauto.NewCounter(prometheus.CounterOpts{
		Name: "agentchat_completion_failures_total",
		Help: "Completions that ended in a fatal error.",
	})

	ConversationsExpired = promauto.NewCounter(prometheus.CounterOpts{
		Name: "agentchat_conversations_expired_total",
		Help: "Conversations closed by the idle retention sweep.",
	})
)
