package storage

import (
	"path/filepath"
	"testing"
)

func TestSQLiteRecorderRoundTrip(t *testing.T) {
	rec, err := NewSQLiteRecorder(filepath.Join(t.TempDir(), "chatlog.db"))
	if err != nil {
		t.Fatalf("init recorder: %v", err)
	}
	defer rec.Close()

	if err := rec.AppendMessage(sampleMessage("conv-a", "P1-1")); err != nil {
		t.Fatalf("append message: %v", err)
	}
	if err := rec.AppendMessage(sampleMessage("conv-a", "B1-2")); err != nil {
		t.Fatalf("append message: %v", err)
	}
	if err := rec.AppendReaction(sampleReaction("conv-a", "P1-1")); err != nil {
		t.Fatalf("append reaction: %v", err)
	}

	msgs, err := rec.LoadMessages("conv-a")
	if err != nil {
		t.Fatalf("load messages: %v", err)
	}
	if len(msgs) != 2 || msgs[0].MsgID != "P1-1" || msgs[1].MsgID != "B1-2" {
		t.Fatalf("messages out of order or missing: %+v", msgs)
	}
	if msgs[0].ReactionsJSON != `{"👍":0}` {
		t.Fatalf("reactions json mangled: %q", msgs[0].ReactionsJSON)
	}

	reacts, err := rec.LoadReactions("conv-a")
	if err != nil {
		t.Fatalf("load reactions: %v", err)
	}
	if len(reacts) != 1 || reacts[0].Sender != "P2" {
		t.Fatalf("unexpected reactions: %+v", reacts)
	}

	if other, _ := rec.LoadMessages("conv-x"); len(other) != 0 {
		t.Fatalf("conversation filter leaked rows: %+v", other)
	}
}
