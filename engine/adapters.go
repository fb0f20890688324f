package engine

import "fleetedge/store"

// syncEmitter bridges replayer outcomes onto the engine's EventBus.
type syncEmitter struct {
	bus *EventBus
}

func (e *syncEmitter) EmitSyncDelivered(item store.SyncItem, serverRef string) {
	e.bus.Emit(Event{Type: EventSyncDelivered, Payload: SyncDeliveredEvent{
		EntityType: item.EntityType,
		EntityID:   item.EntityID,
		Op:         item.Op,
		ServerRef:  serverRef,
	}})
}

func (e *syncEmitter) EmitSyncDeadLettered(item store.SyncItem, lastError string) {
	e.bus.Emit(Event{Type: EventSyncDeadLettered, Payload: SyncDeadLetteredEvent{
		EntityType: item.EntityType,
		EntityID:   item.EntityID,
		Op:         item.Op,
		LastError:  lastError,
	}})
}
