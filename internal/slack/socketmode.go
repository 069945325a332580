package slack

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/gorilla/websocket"

	"github.com/iconidentify/skyfurl/internal/domain"
)

const reconnectDelay = 5 * time.Second

// LinkEventHandler consumes link_shared events from the chat platform.
type LinkEventHandler interface {
	HandleLinkEvent(ctx context.Context, event domain.LinkEvent)
}

// SocketModeListener receives events over a Slack Socket Mode connection and
// dispatches link_shared events to the handler.
type SocketModeListener struct {
	client  *Client
	handler LinkEventHandler
	logger  *slog.Logger
}

// NewSocketModeListener creates a listener.
func NewSocketModeListener(client *Client, handler LinkEventHandler, logger *slog.Logger) *SocketModeListener {
	return &SocketModeListener{
		client:  client,
		handler: handler,
		logger:  logger,
	}
}

// Start connects and processes events until the context is cancelled. It
// automatically reconnects on transient errors and on Slack-initiated
// disconnect requests.
func (l *SocketModeListener) Start(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
			if err := l.listen(ctx); err != nil {
				if ctx.Err() != nil {
					return ctx.Err()
				}
				l.logger.Error("socket mode connection error, reconnecting", "error", err)
				select {
				case <-ctx.Done():
					return ctx.Err()
				case <-time.After(reconnectDelay):
				}
			}
		}
	}
}

func (l *SocketModeListener) listen(ctx context.Context) error {
	wsURL, err := l.client.OpenConnection(ctx)
	if err != nil {
		return fmt.Errorf("open connection: %w", err)
	}

	conn, _, err := websocket.DefaultDialer.DialContext(ctx, wsURL, nil)
	if err != nil {
		return fmt.Errorf("dial socket mode: %w", err)
	}
	defer conn.Close()

	// Unblock ReadMessage when the context is cancelled.
	go func() {
		<-ctx.Done()
		conn.Close()
	}()

	l.logger.Info("socket mode connected")

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		_, message, err := conn.ReadMessage()
		if err != nil {
			return fmt.Errorf("read message: %w", err)
		}

		var envelope socketEnvelope
		if err := json.Unmarshal(message, &envelope); err != nil {
			l.logger.Error("failed to parse envelope", "error", err)
			continue
		}

		// Acknowledge before handling; Slack redelivers unacked envelopes.
		if envelope.EnvelopeID != "" {
			if err := conn.WriteJSON(ackEnvelope{EnvelopeID: envelope.EnvelopeID}); err != nil {
				return fmt.Errorf("ack envelope: %w", err)
			}
		}

		switch envelope.Type {
		case "hello":
			l.logger.Info("socket mode ready")
		case "disconnect":
			l.logger.Info("socket mode disconnect requested", "reason", envelope.Reason)
			return nil
		case "events_api":
			l.dispatch(ctx, envelope.Payload)
		}
	}
}

// dispatch hands a link_shared event to the handler. Each event runs on its
// own goroutine so a slow immediate phase never blocks the socket read loop.
func (l *SocketModeListener) dispatch(ctx context.Context, payload json.RawMessage) {
	event, err := parseLinkEvent(payload)
	if err != nil {
		l.logger.Error("failed to parse event payload", "error", err)
		return
	}
	if event == nil {
		return
	}

	l.logger.Info("link shared event",
		"channel", event.Channel,
		"message_ts", event.MessageTS,
		"links", len(event.Links),
	)

	go l.handler.HandleLinkEvent(ctx, *event)
}

// parseLinkEvent extracts a LinkEvent from an events_api payload. Returns
// (nil, nil) for event types this service does not handle.
func parseLinkEvent(payload json.RawMessage) (*domain.LinkEvent, error) {
	var body struct {
		Event struct {
			Type      string `json:"type"`
			Channel   string `json:"channel"`
			MessageTS string `json:"message_ts"`
			Links     []struct {
				URL string `json:"url"`
			} `json:"links"`
		} `json:"event"`
	}
	if err := json.Unmarshal(payload, &body); err != nil {
		return nil, fmt.Errorf("unmarshal payload: %w", err)
	}

	if body.Event.Type != "link_shared" {
		return nil, nil
	}

	links := make([]string, 0, len(body.Event.Links))
	for _, l := range body.Event.Links {
		if l.URL != "" {
			links = append(links, l.URL)
		}
	}

	return &domain.LinkEvent{
		Channel:   body.Event.Channel,
		MessageTS: body.Event.MessageTS,
		Links:     links,
	}, nil
}

type socketEnvelope struct {
	Type       string          `json:"type"`
	EnvelopeID string          `json:"envelope_id"`
	Reason     string          `json:"reason"`
	Payload    json.RawMessage `json:"payload"`
}

type ackEnvelope struct {
	EnvelopeID string `json:"envelope_id"`
}
