package slack

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/iconidentify/skyfurl/internal/domain"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestParseLinkEvent(t *testing.T) {
	tests := []struct {
		name      string
		payload   string
		wantNil   bool
		wantErr   bool
		wantLinks int
	}{
		{
			name: "link_shared event",
			payload: `{"event": {
				"type": "link_shared",
				"channel": "C123",
				"message_ts": "1700000000.000100",
				"links": [
					{"url": "https://bsky.app/profile/alice.test/post/abc123", "domain": "bsky.app"},
					{"url": "https://bsky.app/profile/bob.test/post/xyz789", "domain": "bsky.app"}
				]
			}}`,
			wantLinks: 2,
		},
		{
			name:    "other event type ignored",
			payload: `{"event": {"type": "message", "channel": "C123"}}`,
			wantNil: true,
		},
		{
			name: "blank link URLs dropped",
			payload: `{"event": {
				"type": "link_shared",
				"channel": "C123",
				"message_ts": "1700000000.000100",
				"links": [{"url": ""}, {"url": "https://bsky.app/profile/a/post/b"}]
			}}`,
			wantLinks: 1,
		},
		{
			name:    "malformed payload",
			payload: `{not json`,
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			event, err := parseLinkEvent(json.RawMessage(tt.payload))
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected an error")
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if tt.wantNil {
				if event != nil {
					t.Fatalf("event = %+v, want nil", event)
				}
				return
			}
			if event == nil {
				t.Fatal("event should not be nil")
			}
			if event.Channel != "C123" {
				t.Errorf("Channel = %q", event.Channel)
			}
			if len(event.Links) != tt.wantLinks {
				t.Errorf("links = %d, want %d", len(event.Links), tt.wantLinks)
			}
		})
	}
}

// captureHandler records dispatched link events.
type captureHandler struct {
	mu     sync.Mutex
	events []domain.LinkEvent
	got    chan struct{}
}

func (h *captureHandler) HandleLinkEvent(_ context.Context, event domain.LinkEvent) {
	h.mu.Lock()
	h.events = append(h.events, event)
	h.mu.Unlock()
	select {
	case h.got <- struct{}{}:
	default:
	}
}

func (h *captureHandler) all() []domain.LinkEvent {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]domain.LinkEvent(nil), h.events...)
}

func TestSocketModeListener_DispatchesLinkEvents(t *testing.T) {
	var upgrader websocket.Upgrader
	acks := make(chan string, 4)

	// WebSocket endpoint standing in for Slack's Socket Mode gateway. It
	// pushes hello plus one events_api envelope and collects acks.
	wsSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			t.Errorf("upgrade: %v", err)
			return
		}
		defer conn.Close()

		hello := `{"type": "hello"}`
		if err := conn.WriteMessage(websocket.TextMessage, []byte(hello)); err != nil {
			return
		}

		envelope := `{
			"type": "events_api",
			"envelope_id": "env-1",
			"payload": {"event": {
				"type": "link_shared",
				"channel": "C123",
				"message_ts": "1700000000.000100",
				"links": [{"url": "https://bsky.app/profile/alice.test/post/abc123"}]
			}}
		}`
		if err := conn.WriteMessage(websocket.TextMessage, []byte(envelope)); err != nil {
			return
		}

		for {
			var ack ackEnvelope
			if err := conn.ReadJSON(&ack); err != nil {
				return
			}
			acks <- ack.EnvelopeID
		}
	}))
	defer wsSrv.Close()

	wsURL := "ws" + strings.TrimPrefix(wsSrv.URL, "http")
	apiSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprintf(w, `{"ok": true, "url": %q}`, wsURL)
	}))
	defer apiSrv.Close()

	handler := &captureHandler{got: make(chan struct{}, 1)}
	listener := NewSocketModeListener(NewClient(apiSrv.URL, "xoxb-bot", "xapp-app"), handler, testLogger())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	done := make(chan struct{})
	go func() {
		listener.Start(ctx)
		close(done)
	}()

	select {
	case <-handler.got:
	case <-time.After(5 * time.Second):
		t.Fatal("handler never received the event")
	}

	select {
	case id := <-acks:
		if id != "env-1" {
			t.Errorf("acked envelope = %q, want env-1", id)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("envelope was never acknowledged")
	}

	events := handler.all()
	if len(events) != 1 {
		t.Fatalf("events = %d, want 1", len(events))
	}
	if events[0].Channel != "C123" || len(events[0].Links) != 1 {
		t.Errorf("unexpected event: %+v", events[0])
	}

	cancel()
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("listener did not stop on context cancellation")
	}
}

func TestSocketModeListener_StopsWhenCancelled(t *testing.T) {
	apiSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"ok": false, "error": "invalid_auth"}`)
	}))
	defer apiSrv.Close()

	listener := NewSocketModeListener(NewClient(apiSrv.URL, "xoxb-bot", "xapp-app"), &captureHandler{got: make(chan struct{}, 1)}, testLogger())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- listener.Start(ctx)
	}()

	cancel()
	select {
	case err := <-done:
		if err != context.Canceled {
			t.Errorf("Start() = %v, want context.Canceled", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Start() did not return after cancellation")
	}
}
