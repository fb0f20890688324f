package messaging

import (
	"log"
	"time"

	"fleetedge/engine"
)

// Bridge forwards selected engine events onto the ops topic. Dead
// letters always go out; booking status changes are mirrored so depot
// dashboards don't need to poll the REST API.
type Bridge struct {
	pub    Publisher
	nodeID string
	topic  string
	subID  engine.SubscriberID
	bus    *engine.EventBus
}

// NewBridge subscribes to the engine's event bus and starts forwarding.
func NewBridge(pub Publisher, bus *engine.EventBus, nodeID, topic string) *Bridge {
	b := &Bridge{pub: pub, nodeID: nodeID, topic: topic, bus: bus}
	b.subID = bus.SubscribeTypes(b.handle, engine.EventSyncDeadLettered, engine.EventBookingStatusChanged)
	return b
}

// Close detaches the bridge from the event bus.
func (b *Bridge) Close() {
	b.bus.Unsubscribe(b.subID)
}

func (b *Bridge) handle(evt engine.Event) {
	out := OpsEvent{NodeID: b.nodeID, Timestamp: time.Now().UTC()}

	switch payload := evt.Payload.(type) {
	case engine.SyncDeadLetteredEvent:
		out.Kind = KindSyncDeadLetter
		out.Data = SyncDeadLetter{
			EntityType: payload.EntityType,
			EntityID:   payload.EntityID,
			Op:         payload.Op,
			LastError:  payload.LastError,
		}
	case engine.BookingStatusChangedEvent:
		out.Kind = KindBookingStatus
		out.Data = BookingStatus{
			Ref:       payload.Ref,
			OldStatus: payload.OldStatus,
			NewStatus: payload.NewStatus,
		}
	default:
		return
	}

	if err := PublishJSON(b.pub, b.topic, out); err != nil {
		log.Printf("ops bridge: publish %s: %v", out.Kind, err)
	}
}
