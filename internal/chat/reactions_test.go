package chat

import (
	"testing"
	"time"
)

func TestReactionIdempotence(t *testing.T) {
	tally := NewReactionTally([]string{"👍", "👎"})
	now := time.Now().UTC()

	ok, counts := tally.AddReaction("r1", "m1", Human(1), "👍", now)
	if !ok {
		t.Fatalf("first reaction should be accepted")
	}
	if counts["👍"] != 1 || counts["👎"] != 0 {
		t.Fatalf("unexpected counts after first reaction: %v", counts)
	}

	// Same reactor, same emoji, different id: silently dropped.
	ok, counts = tally.AddReaction("r2", "m1", Human(1), "👍", now.Add(time.Second))
	if ok {
		t.Fatalf("duplicate reaction must not be accepted")
	}
	if counts["👍"] != 1 {
		t.Fatalf("duplicate must not change counts: %v", counts)
	}

	ok, counts = tally.AddReaction("r3", "m1", Human(2), "👍", now.Add(2*time.Second))
	if !ok {
		t.Fatalf("second reactor should be accepted")
	}
	if counts["👍"] != 2 {
		t.Fatalf("expected two distinct reactors, got %v", counts)
	}
}

func TestReactionCountsAreDerivedNotAccumulated(t *testing.T) {
	tally := NewReactionTally([]string{"👍"})
	now := time.Now().UTC()

	tally.AddReaction("r1", "m1", Human(1), "👍", now)
	tally.AddReaction("r2", "m1", Human(2), "👍", now)
	tally.AddReaction("r3", "m2", Human(1), "👍", now)

	// Recomputing repeatedly yields the same map; per-message histories
	// stay independent.
	for i := 0; i < 3; i++ {
		if got := tally.Counts("m1")["👍"]; got != 2 {
			t.Fatalf("m1 count = %d, want 2", got)
		}
		if got := tally.Counts("m2")["👍"]; got != 1 {
			t.Fatalf("m2 count = %d, want 1", got)
		}
	}
}

func TestReactionSameReactorDifferentEmoji(t *testing.T) {
	tally := NewReactionTally([]string{"👍", "👎"})
	now := time.Now().UTC()

	tally.AddReaction("r1", "m1", Human(1), "👍", now)
	ok, counts := tally.AddReaction("r2", "m1", Human(1), "👎", now)
	if !ok {
		t.Fatalf("different emoji from the same reactor should be accepted")
	}
	if counts["👍"] != 1 || counts["👎"] != 1 {
		t.Fatalf("unexpected counts: %v", counts)
	}
}

func TestReactionUnknownEmojiNotCounted(t *testing.T) {
	tally := NewReactionTally([]string{"👍"})
	now := time.Now().UTC()

	// Stored reactions outside the configured set never appear in counts.
	_, counts := tally.AddReaction("r1", "m1", Human(1), "🤖", now)
	if _, present := counts["🤖"]; present {
		t.Fatalf("unknown emoji leaked into the tally: %v", counts)
	}
	if counts["👍"] != 0 {
		t.Fatalf("configured emoji should still be zeroed: %v", counts)
	}
}
