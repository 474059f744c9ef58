// Package events receives identity lifecycle events from the external
// identity provider over a Redis channel. Delivery is at-least-once; the
// provisioning handler is idempotent, so every event is acknowledged by
// consumption whether or not provisioning succeeded, and failures are only
// logged. Authentication must never break on a provisioning hiccup.
package events

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"

	"github.com/classdesk/classdesk/internal/provision"
)

// IdentityChannel carries identity created/updated events, one JSON
// provision.IdentityEvent per message.
const IdentityChannel = "classdesk:identity"

// Provisioner consumes one identity event. *provision.Handler satisfies it.
type Provisioner interface {
	HandleIdentityEvent(ctx context.Context, evt provision.IdentityEvent) error
}

type Listener struct {
	client  *redis.Client
	handler Provisioner
}

func New(ctx context.Context, addr, password string, db int, handler Provisioner) (*Listener, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("events.New: ping: %w", err)
	}

	return &Listener{client: client, handler: handler}, nil
}

func (l *Listener) Close() error {
	if err := l.client.Close(); err != nil {
		return fmt.Errorf("events.Listener.Close: %w", err)
	}
	return nil
}

// Run subscribes to IdentityChannel and dispatches events until ctx is
// cancelled. Undecodable payloads are logged and skipped.
func (l *Listener) Run(ctx context.Context) error {
	sub := l.client.Subscribe(ctx, IdentityChannel)
	defer func() { _ = sub.Close() }()

	// Wait for subscription confirmation.
	if _, err := sub.Receive(ctx); err != nil {
		return fmt.Errorf("events.Run: receive confirmation: %w", err)
	}

	ch := sub.Channel()

	log.Info().Str("channel", IdentityChannel).Msg("events: listening for identity events")

	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-ch:
			if !ok {
				return nil
			}
			l.dispatch(ctx, []byte(msg.Payload))
		}
	}
}

func (l *Listener) dispatch(ctx context.Context, payload []byte) {
	evt, err := Decode(payload)
	if err != nil {
		log.Warn().Err(err).Msg("events: undecodable identity event, skipping")
		return
	}

	if err := l.handler.HandleIdentityEvent(ctx, evt); err != nil {
		// Reported out-of-band only: the event is consumed regardless, and
		// the fallback provisioning entry point covers any gap.
		log.Warn().
			Err(err).
			Stringer("identity_id", evt.IdentityID).
			Msg("events: provisioning failed")
	}
}

// Decode parses one identity event payload.
func Decode(payload []byte) (provision.IdentityEvent, error) {
	var evt provision.IdentityEvent
	if err := json.Unmarshal(payload, &evt); err != nil {
		return provision.IdentityEvent{}, fmt.Errorf("events.Decode: %w", err)
	}
	return evt, nil
}
