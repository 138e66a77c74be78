package chat

import (
	"testing"
	"time"
)

func TestMessageLogAppendFindAll(t *testing.T) {
	l := NewMessageLog()
	now := time.Now().UTC()

	id := l.Append(Message{ID: "P1-1", Sender: Human(1), SenderLabel: "P1", Text: "hello", CreatedAt: now})
	l.Append(Message{ID: "B1-2", Sender: ParticipantBot(1), SenderLabel: "B1", Text: "hi", CreatedAt: now})

	if id != "P1-1" {
		t.Fatalf("unexpected id: %s", id)
	}
	if l.Len() != 2 {
		t.Fatalf("unexpected length: %d", l.Len())
	}

	m, ok := l.FindByID("B1-2")
	if !ok || m.Text != "hi" {
		t.Fatalf("FindByID failed: %v %v", m, ok)
	}
	if _, ok := l.FindByID("missing"); ok {
		t.Fatalf("found a message that was never appended")
	}

	last, ok := l.Last()
	if !ok || last.ID != "B1-2" {
		t.Fatalf("unexpected last message: %v", last)
	}

	// Mutating the returned slice must not affect internal state.
	all := l.All()
	all[0].Text = "mutated"
	if got, _ := l.FindByID("P1-1"); got.Text != "hello" {
		t.Fatalf("internal state mutated via returned slice")
	}
}

func TestMessageLogSetReactions(t *testing.T) {
	l := NewMessageLog()
	l.Append(Message{ID: "P1-1", Sender: Human(1), SenderLabel: "P1", Text: "hello", Reactions: map[string]int{"👍": 0}})

	if !l.SetReactions("P1-1", map[string]int{"👍": 2}) {
		t.Fatalf("SetReactions failed for known message")
	}
	if l.SetReactions("missing", map[string]int{"👍": 1}) {
		t.Fatalf("SetReactions succeeded for unknown message")
	}
	m, _ := l.FindByID("P1-1")
	if m.Reactions["👍"] != 2 {
		t.Fatalf("tally not overwritten: %v", m.Reactions)
	}
}
