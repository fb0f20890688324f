package remote

import (
	"context"
	"encoding/json"
	"fmt"

	"fleetedge/fleet"
	"fleetedge/store"
)

// Deliver replays one queued mutation against the authority. It
// satisfies the replayer's Sender interface. The returned serverRef is
// non-empty only when the authority assigned a canonical ref (booking
// creation).
func (c *Client) Deliver(ctx context.Context, item store.SyncItem) (string, error) {
	switch item.EntityType {
	case store.EntityBooking:
		return c.deliverBooking(ctx, item)
	case store.EntityDeployment:
		return c.deliverDeployment(ctx, item)
	default:
		return "", fmt.Errorf("unknown sync entity type %q", item.EntityType)
	}
}

func (c *Client) deliverBooking(ctx context.Context, item store.SyncItem) (string, error) {
	var b fleet.Booking
	if err := json.Unmarshal(item.Payload, &b); err != nil {
		return "", fmt.Errorf("decode queued booking %s: %w", item.EntityID, err)
	}

	switch item.Op {
	case store.OpCreate:
		rec, err := c.CreateBooking(ctx, &b, item.IdempotencyKey)
		if err != nil {
			return "", err
		}
		return rec.Ref, nil
	case store.OpUpdate:
		_, err := c.UpdateBooking(ctx, &b, item.IdempotencyKey)
		return "", err
	case store.OpDelete:
		return "", c.CancelBooking(ctx, b.Ref, b.CancellationReason, item.IdempotencyKey)
	default:
		return "", fmt.Errorf("unknown sync op %q", item.Op)
	}
}

func (c *Client) deliverDeployment(ctx context.Context, item store.SyncItem) (string, error) {
	var d fleet.Deployment
	if err := json.Unmarshal(item.Payload, &d); err != nil {
		return "", fmt.Errorf("decode queued deployment %s: %w", item.EntityID, err)
	}

	switch item.Op {
	case store.OpCreate:
		_, err := c.CreateDeployment(ctx, &d, item.IdempotencyKey)
		return "", err
	case store.OpUpdate:
		_, err := c.UpdateDeployment(ctx, &d, item.IdempotencyKey)
		return "", err
	default:
		return "", fmt.Errorf("unknown sync op %q", item.Op)
	}
}
