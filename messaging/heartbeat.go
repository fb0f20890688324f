package messaging

import (
	"log"
	"os"
	"sync"
	"time"

	"fleetedge/store"
)

// Heartbeater announces the node on startup and reports liveness plus
// sync queue depth periodically.
type Heartbeater struct {
	pub      Publisher
	db       *store.DB
	nodeID   string
	depotID  string
	version  string
	topic    string
	interval time.Duration

	startTime time.Time

	stopOnce sync.Once
	stopCh   chan struct{}
}

// NewHeartbeater creates a heartbeater for the given node identity.
func NewHeartbeater(pub Publisher, db *store.DB, nodeID, depotID, version, topic string, interval time.Duration) *Heartbeater {
	if interval <= 0 {
		interval = 60 * time.Second
	}
	return &Heartbeater{
		pub:      pub,
		db:       db,
		nodeID:   nodeID,
		depotID:  depotID,
		version:  version,
		topic:    topic,
		interval: interval,
		stopCh:   make(chan struct{}),
	}
}

// Start publishes the online announcement and begins the heartbeat loop.
func (h *Heartbeater) Start() {
	h.startTime = time.Now()
	h.sendOnline()
	go h.loop()
}

// Stop halts the heartbeat loop.
func (h *Heartbeater) Stop() {
	h.stopOnce.Do(func() { close(h.stopCh) })
}

func (h *Heartbeater) sendOnline() {
	hostname, _ := os.Hostname()
	evt := OpsEvent{
		Kind:      KindNodeOnline,
		NodeID:    h.nodeID,
		Timestamp: time.Now().UTC(),
		Data: NodeOnline{
			Hostname: hostname,
			Version:  h.version,
			DepotID:  h.depotID,
		},
	}
	if err := PublishJSON(h.pub, h.topic, evt); err != nil {
		log.Printf("heartbeater: send online: %v", err)
	} else {
		log.Printf("heartbeater: node %s online", h.nodeID)
	}
}

func (h *Heartbeater) sendHeartbeat() {
	pending, err := h.db.CountPendingSync()
	if err != nil {
		log.Printf("heartbeater: count pending sync: %v", err)
	}
	dead, err := h.db.CountDeadLetters()
	if err != nil {
		log.Printf("heartbeater: count dead letters: %v", err)
	}
	evt := OpsEvent{
		Kind:      KindNodeHeartbeat,
		NodeID:    h.nodeID,
		Timestamp: time.Now().UTC(),
		Data: NodeHeartbeat{
			UptimeSeconds: int64(time.Since(h.startTime).Seconds()),
			PendingSync:   pending,
			DeadLetters:   dead,
		},
	}
	if err := PublishJSON(h.pub, h.topic, evt); err != nil {
		log.Printf("heartbeater: send heartbeat: %v", err)
	}
}

func (h *Heartbeater) loop() {
	ticker := time.NewTicker(h.interval)
	defer ticker.Stop()
	for {
		select {
		case <-h.stopCh:
			return
		case <-ticker.C:
			h.sendHeartbeat()
		}
	}
}
