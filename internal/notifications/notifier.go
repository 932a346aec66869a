// Package notifications relays identity change events between sessions of
// the same principal over Redis pub/sub.
package notifications

import (
	"context"
	"encoding/json"
	"fmt"
	"runtime/debug"
	"strings"

	"linesen/internal/models"
	"linesen/internal/observability"
	"linesen/internal/store"

	"github.com/redis/go-redis/v9"
)

const sessionChannelPrefix = "session:principal:"

// SessionChannel returns the pub/sub channel for a principal's session events.
func SessionChannel(principal models.Principal) string {
	return sessionChannelPrefix + string(principal)
}

type sessionPayload struct {
	Event     store.EventKind `json:"event"`
	Principal string          `json:"principal"`
}

// Notifier publishes and consumes session events in Redis channels.
type Notifier struct {
	rdb *redis.Client
}

// NewNotifier creates a new Notifier instance using the provided Redis client.
func NewNotifier(rdb *redis.Client) *Notifier {
	return &Notifier{rdb: rdb}
}

// PublishSessionEvent sends ev to the principal's channel.
func (n *Notifier) PublishSessionEvent(ctx context.Context, ev store.IdentityEvent) error {
	if n.rdb == nil || ev.Principal.Anonymous() {
		return nil
	}
	payload, err := json.Marshal(sessionPayload{Event: ev.Kind, Principal: string(ev.Principal)})
	if err != nil {
		return fmt.Errorf("marshal session event: %w", err)
	}
	return n.rdb.Publish(ctx, SessionChannel(ev.Principal), string(payload)).Err()
}

// StartSessionSubscriber subscribes to every principal's session channel and
// calls onEvent for each decoded event until ctx is cancelled.
func (n *Notifier) StartSessionSubscriber(ctx context.Context, onEvent func(store.IdentityEvent)) error {
	if n.rdb == nil {
		return nil
	}
	sub := n.rdb.PSubscribe(ctx, sessionChannelPrefix+"*")
	if _, err := sub.Receive(ctx); err != nil {
		_ = sub.Close()
		return fmt.Errorf("subscribe session events: %w", err)
	}
	ch := sub.Channel()

	go func() {
		defer func() { _ = sub.Close() }()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-ch:
				if !ok {
					return
				}
				ev, err := decodeSessionEvent(msg.Channel, msg.Payload)
				if err != nil {
					observability.Logger.WarnContext(ctx, "dropping session event", "channel", msg.Channel, "error", err)
					continue
				}
				func() {
					defer func() {
						if r := recover(); r != nil {
							observability.Logger.ErrorContext(ctx, "panic in session subscriber",
								"panic", r, "stack", string(debug.Stack()))
						}
					}()
					onEvent(ev)
				}()
			}
		}
	}()

	return nil
}

func decodeSessionEvent(channel, payload string) (store.IdentityEvent, error) {
	var p sessionPayload
	if err := json.Unmarshal([]byte(payload), &p); err != nil {
		return store.IdentityEvent{}, err
	}
	if p.Principal == "" || SessionChannel(models.Principal(p.Principal)) != channel {
		return store.IdentityEvent{}, fmt.Errorf("principal %q does not match channel", p.Principal)
	}
	switch p.Event {
	case store.SignedIn, store.SignedOut, store.TokenRefreshed:
	default:
		return store.IdentityEvent{}, fmt.Errorf("unknown event %q", strings.TrimSpace(string(p.Event)))
	}
	return store.IdentityEvent{Kind: p.Event, Principal: models.Principal(p.Principal)}, nil
}
