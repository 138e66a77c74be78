package live

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"agentchat/internal/chat"
	"agentchat/internal/hub"
	"agentchat/internal/llm"
)

type echoCompleter struct{}

func (echoCompleter) Complete(_ context.Context, _ llm.Request) (llm.Reply, error) {
	return llm.Reply{Sender: "echo", MsgID: "echo", Tone: "neutral", Text: "bot reply", Reactions: "{}"}, nil
}

func newTestServer(t *testing.T) (*httptest.Server, *hub.Hub) {
	t.Helper()
	h := hub.New(func(string) *chat.Controller {
		return chat.NewController(chat.Config{
			Emojis: []string{"👍"},
			Tone:   "neutral",
			Bots: []chat.BotProfile{
				{Sender: chat.ParticipantBot(1), SystemPrompt: "reply"},
			},
		}, echoCompleter{}, nil, nil)
	})
	srv := httptest.NewServer(NewServer(h).Handler())
	t.Cleanup(func() {
		srv.Close()
		h.Close()
	})
	return srv, h
}

func postEvent(t *testing.T, url string, body string) (int, map[string]any) {
	t.Helper()
	resp, err := http.Post(url, "application/json", bytes.NewBufferString(body))
	if err != nil {
		t.Fatalf("post: %v", err)
	}
	defer resp.Body.Close()
	var decoded map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	return resp.StatusCode, decoded
}

func TestServerTextAndBotFlow(t *testing.T) {
	srv, _ := newTestServer(t)
	url := srv.URL + "/conversations/conv-1/events"

	status, body := postEvent(t, url, `{"event":"text","seat":1,"text":"hello"}`)
	if status != http.StatusOK {
		t.Fatalf("text event status %d: %v", status, body)
	}
	deliveries := body["deliveries"].([]any)
	if len(deliveries) != 1 {
		t.Fatalf("expected one delivery: %v", body)
	}
	first := deliveries[0].(map[string]any)
	if first["audience"] != "all" {
		t.Fatalf("text broadcast audience wrong: %v", first)
	}
	ev := first["event"].(map[string]any)
	if ev["event"] != "text" || ev["selfText"] != "hello" || ev["sender"] != "P1" {
		t.Fatalf("unexpected text event: %v", ev)
	}

	status, body = postEvent(t, url, `{"event":"botMsg","botId":"B1"}`)
	if status != http.StatusOK {
		t.Fatalf("bot event status %d: %v", status, body)
	}
	deliveries = body["deliveries"].([]any)
	if len(deliveries) != 1 {
		t.Fatalf("expected one bot delivery: %v", body)
	}
	ev = deliveries[0].(map[string]any)["event"].(map[string]any)
	if ev["event"] != "botText" || ev["sender"] != "B1" || ev["text"] != "bot reply" {
		t.Fatalf("unexpected bot event: %v", ev)
	}

	// Denied turn: empty delivery list, still 200.
	status, body = postEvent(t, url, `{"event":"botMsg","botId":"B1"}`)
	if status != http.StatusOK || len(body["deliveries"].([]any)) != 0 {
		t.Fatalf("denied turn should be an empty ack: %d %v", status, body)
	}
}

func TestServerRejectsMalformedEvents(t *testing.T) {
	srv, _ := newTestServer(t)
	url := srv.URL + "/conversations/conv-1/events"

	for _, body := range []string{
		`{"event":"warp"}`,
		`{"event":"text","text":"no seat"}`,
		`{"event":"text","seat":1,"text":"  "}`,
		`not json`,
	} {
		status, _ := postEvent(t, url, body)
		if status != http.StatusBadRequest {
			t.Fatalf("body %q: expected 400, got %d", body, status)
		}
	}
}

func TestServerHistoryEndpoint(t *testing.T) {
	srv, _ := newTestServer(t)

	status, _ := postEvent(t, srv.URL+"/conversations/conv-1/events", `{"event":"text","seat":1,"text":"hello"}`)
	if status != http.StatusOK {
		t.Fatalf("seed message failed: %d", status)
	}

	resp, err := http.Get(srv.URL + "/conversations/conv-1/messages")
	if err != nil {
		t.Fatalf("get history: %v", err)
	}
	defer resp.Body.Close()
	var body map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode history: %v", err)
	}
	msgs := body["messages"].([]any)
	if len(msgs) != 1 {
		t.Fatalf("expected cached history of 1, got %v", body)
	}
	if m := msgs[0].(map[string]any); m["text"] != "hello" || m["sender"] != "P1" {
		t.Fatalf("unexpected cached message: %v", m)
	}

	resp2, err := http.Get(srv.URL + "/conversations/unknown/messages")
	if err != nil {
		t.Fatalf("get unknown: %v", err)
	}
	resp2.Body.Close()
	if resp2.StatusCode != http.StatusNotFound {
		t.Fatalf("unknown conversation should 404, got %d", resp2.StatusCode)
	}
}
