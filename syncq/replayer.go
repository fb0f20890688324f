package syncq

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"fleetedge/config"
	"fleetedge/store"
)

// Sender delivers one queued mutation to the remote authority. A
// non-transient error means the mutation itself is bad; the replayer
// dead-letters it immediately rather than burning retries.
type Sender interface {
	Deliver(ctx context.Context, item store.SyncItem) (serverRef string, err error)
}

// IsTransientFunc classifies a delivery error as retryable.
type IsTransientFunc func(error) bool

// EventEmitter is the interface the replayer uses to report outcomes.
type EventEmitter interface {
	EmitSyncDelivered(item store.SyncItem, serverRef string)
	EmitSyncDeadLettered(item store.SyncItem, lastError string)
}

// Result summarizes one replay pass.
type Result struct {
	Succeeded    int `json:"succeeded"`
	Failed       int `json:"failed"`
	DeadLettered int `json:"deadLettered"`
}

// Replayer drains the durable sync queue: periodically, and on explicit
// connectivity-restored triggers. Passes never overlap; per-entity
// ordering is FIFO; deliveries across entities run concurrently up to a
// bounded limit.
type Replayer struct {
	db          *store.DB
	sender      Sender
	isTransient IsTransientFunc
	cfg         config.SyncConfig
	emitter     EventEmitter

	// now is injected so backoff tests never wait on the wall clock.
	now func() time.Time

	mu      sync.Mutex
	running bool
	pending bool

	trigger  chan struct{}
	stopChan chan struct{}
	wg       sync.WaitGroup
}

// NewReplayer creates a replayer. A nil now defaults to time.Now.
func NewReplayer(db *store.DB, sender Sender, isTransient IsTransientFunc, cfg config.SyncConfig, emitter EventEmitter, now func() time.Time) *Replayer {
	if now == nil {
		now = time.Now
	}
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = 5
	}
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = 4
	}
	return &Replayer{
		db:          db,
		sender:      sender,
		isTransient: isTransient,
		cfg:         cfg,
		emitter:     emitter,
		now:         now,
		trigger:     make(chan struct{}, 1),
		stopChan:    make(chan struct{}),
	}
}

// Start begins the periodic drain loop.
func (r *Replayer) Start() {
	r.wg.Add(1)
	go r.drainLoop()
}

// Stop stops the drain loop.
func (r *Replayer) Stop() {
	select {
	case <-r.stopChan:
	default:
		close(r.stopChan)
	}
	r.wg.Wait()
}

// TriggerReplay requests an immediate pass, e.g. when connectivity is
// restored. If a pass is already queued the request coalesces.
func (r *Replayer) TriggerReplay() {
	select {
	case r.trigger <- struct{}{}:
	default:
	}
}

func (r *Replayer) drainLoop() {
	defer r.wg.Done()

	interval := r.cfg.DrainInterval
	if interval <= 0 {
		interval = 5 * time.Second
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-r.stopChan:
			return
		case <-ticker.C:
			r.Replay()
		case <-r.trigger:
			r.Replay()
		}
	}
}

// Replay runs one drain pass. If a pass is already in flight the call
// records a follow-up request and returns immediately; the active pass
// runs again when it finishes, so no queued work is missed and no two
// passes ever overlap.
func (r *Replayer) Replay() Result {
	r.mu.Lock()
	if r.running {
		r.pending = true
		r.mu.Unlock()
		return Result{}
	}
	r.running = true
	r.mu.Unlock()

	var total Result
	for {
		res := r.replayPass()
		total.Succeeded += res.Succeeded
		total.Failed += res.Failed
		total.DeadLettered += res.DeadLettered

		r.mu.Lock()
		again := r.pending
		r.pending = false
		if !again {
			r.running = false
		}
		r.mu.Unlock()
		if !again {
			return total
		}
	}
}

func (r *Replayer) replayPass() Result {
	items, err := r.db.ListDueSync(r.now(), 100)
	if err != nil {
		log.Printf("list due sync items: %v", err)
		return Result{}
	}
	if len(items) == 0 {
		return Result{}
	}

	// ListDueSync returns at most one item per entity (the FIFO head),
	// so no two in-flight deliveries ever share an idempotency key.
	sem := make(chan struct{}, r.cfg.Concurrency)
	var wg sync.WaitGroup
	var mu sync.Mutex
	var res Result

	for _, item := range items {
		wg.Add(1)
		sem <- struct{}{}
		go func(item store.SyncItem) {
			defer wg.Done()
			defer func() { <-sem }()

			outcome := r.deliver(item)
			mu.Lock()
			switch outcome {
			case deliveredOK:
				res.Succeeded++
			case deliveredDead:
				res.DeadLettered++
			default:
				res.Failed++
			}
			mu.Unlock()
		}(item)
	}
	wg.Wait()
	return res
}

type deliveryOutcome int

const (
	deliveredOK deliveryOutcome = iota
	deliveredRetry
	deliveredDead
)

func (r *Replayer) deliver(item store.SyncItem) deliveryOutcome {
	ctx := context.Background()
	serverRef, err := r.sender.Deliver(ctx, item)
	if err == nil {
		if err := r.db.DeleteSync(item.ID); err != nil {
			log.Printf("delete sync item %d: %v", item.ID, err)
		}
		if r.emitter != nil {
			r.emitter.EmitSyncDelivered(item, serverRef)
		}
		return deliveredOK
	}

	// Permanent rejections don't improve with retries.
	if r.isTransient != nil && !r.isTransient(err) {
		return r.deadLetter(item, err)
	}

	if item.Attempts+1 >= r.cfg.MaxAttempts {
		return r.deadLetter(item, err)
	}

	nextAt := r.now().Add(Backoff(r.cfg.BackoffBase, r.cfg.BackoffCap, item.Attempts))
	if err := r.db.BumpSyncRetry(item.ID, nextAt, err.Error()); err != nil {
		log.Printf("bump sync retry %d: %v", item.ID, err)
	}
	return deliveredRetry
}

func (r *Replayer) deadLetter(item store.SyncItem, cause error) deliveryOutcome {
	msg := fmt.Sprintf("attempt %d: %v", item.Attempts+1, cause)
	if err := r.db.MoveSyncToDeadLetter(item.ID, msg); err != nil {
		log.Printf("dead-letter sync item %d: %v", item.ID, err)
		return deliveredRetry
	}
	log.Printf("sync item %d (%s %s %s) dead-lettered: %v", item.ID, item.Op, item.EntityType, item.EntityID, cause)
	if r.emitter != nil {
		r.emitter.EmitSyncDeadLettered(item, msg)
	}
	return deliveredDead
}
