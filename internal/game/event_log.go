package game

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/time/rate"

	"retro-platformer/internal/config"
)

// Events per batch write before forcing a flush.
const eventBatchSize = 64

// EventLog fans admitted events into a bounded in-memory ring served
// by the API and an append-only NDJSON file written by a background
// batcher. Admission is rate limited globally and per event type; the
// per-type budget keeps a chatty type (platform spawns during a sprint)
// from evicting rare ones (resets). Anything over budget is counted
// and dropped. Emit never blocks the engine.
type EventLog struct {
	mu    sync.Mutex
	ring  []Event
	head  int // next write slot
	count int // valid entries, up to len(ring)

	global  *rate.Limiter
	perType [eventTypeCount]*rate.Limiter

	out      chan Event
	file     *os.File
	path     string
	flushInt time.Duration

	writerWg sync.WaitGroup
	stopChan chan struct{}
	stopOnce sync.Once
	running  atomic.Bool

	seq     atomic.Uint64
	total   atomic.Uint64
	dropped atomic.Uint64
}

// NewEventLog creates a stopped event log sized from cfg. Start opens
// the file sink and the writer goroutine.
func NewEventLog(cfg config.EventsConfig) *EventLog {
	el := &EventLog{
		ring:     make([]Event, cfg.RingSize),
		global:   rate.NewLimiter(rate.Limit(cfg.GlobalPerSec), cfg.GlobalBurst),
		out:      make(chan Event, cfg.RingSize),
		path:     cfg.Path,
		flushInt: time.Duration(cfg.FlushInterval * float64(time.Second)),
		stopChan: make(chan struct{}),
	}
	for i := range el.perType {
		el.perType[i] = rate.NewLimiter(rate.Limit(cfg.PerTypePerSec), cfg.PerTypeBurst)
	}
	return el
}

// Start opens the NDJSON sink (creating its directory) and begins the
// writer goroutine. An empty path keeps the ring alive with no file.
func (el *EventLog) Start() error {
	if el.running.Load() {
		return nil
	}

	if el.path != "" {
		if dir := filepath.Dir(el.path); dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return fmt.Errorf("event log dir: %w", err)
			}
		}
		file, err := os.OpenFile(el.path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
		if err != nil {
			return fmt.Errorf("event log file: %w", err)
		}
		el.file = file
	}

	el.running.Store(true)
	el.writerWg.Add(1)
	go el.writerLoop()
	return nil
}

// Stop drains pending events, flushes and closes the file. Safe to
// call more than once.
func (el *EventLog) Stop() {
	el.stopOnce.Do(func() {
		el.running.Store(false)
		close(el.stopChan)
		el.writerWg.Wait()

		if el.file != nil {
			el.file.Close()
		}
	})
}

// Emit admits an event, stamping its sequence number. Returns false
// when the log is stopped or the event was rate limited away.
func (el *EventLog) Emit(event Event) bool {
	if !el.running.Load() {
		return false
	}

	t := event.Type
	if t >= eventTypeCount {
		t = EventTypeUnknown
	}
	if !el.global.Allow() || !el.perType[t].Allow() {
		el.dropped.Add(1)
		return false
	}

	event.Sequence = el.seq.Add(1)

	el.mu.Lock()
	el.ring[el.head] = event
	el.head = (el.head + 1) % len(el.ring)
	if el.count < len(el.ring) {
		el.count++
	}
	el.mu.Unlock()

	el.total.Add(1)

	if el.file != nil {
		select {
		case el.out <- event:
		default:
			// Writer backlogged; the ring kept the event, only the
			// file line is lost.
			el.dropped.Add(1)
		}
	}
	return true
}

// EmitSimple builds and admits an event in one call.
func (el *EventLog) EmitSimple(eventType EventType, tick uint64, payload interface{}) bool {
	return el.Emit(NewEvent(eventType, tick, payload))
}

// Recent returns up to limit of the newest admitted events, oldest
// first. limit <= 0 returns everything retained.
func (el *EventLog) Recent(limit int) []Event {
	el.mu.Lock()
	defer el.mu.Unlock()

	n := el.count
	if limit > 0 && limit < n {
		n = limit
	}
	out := make([]Event, n)
	start := el.head - n
	if start < 0 {
		start += len(el.ring)
	}
	for i := 0; i < n; i++ {
		out[i] = el.ring[(start+i)%len(el.ring)]
	}
	return out
}

// writerLoop batches events to the NDJSON file, flushing on batch size
// or the configured interval, and drains the channel on shutdown.
func (el *EventLog) writerLoop() {
	defer el.writerWg.Done()

	ticker := time.NewTicker(el.flushInt)
	defer ticker.Stop()

	batch := make([]Event, 0, eventBatchSize)

	for {
		select {
		case ev := <-el.out:
			batch = append(batch, ev)
			if len(batch) >= eventBatchSize {
				el.flushBatch(batch)
				batch = batch[:0]
			}

		case <-ticker.C:
			if len(batch) > 0 {
				el.flushBatch(batch)
				batch = batch[:0]
			}

		case <-el.stopChan:
			for {
				select {
				case ev := <-el.out:
					batch = append(batch, ev)
				default:
					if len(batch) > 0 {
						el.flushBatch(batch)
					}
					return
				}
			}
		}
	}
}

// flushBatch appends newline-delimited JSON. A single bad event is
// skipped, not fatal.
func (el *EventLog) flushBatch(batch []Event) {
	if el.file == nil {
		return
	}
	for _, event := range batch {
		data, err := json.Marshal(event)
		if err != nil {
			continue
		}
		el.file.Write(data)
		el.file.Write([]byte("\n"))
	}
}

// Stats returns counters for monitoring.
func (el *EventLog) Stats() map[string]interface{} {
	el.mu.Lock()
	buffered := el.count
	el.mu.Unlock()

	return map[string]interface{}{
		"total":    el.total.Load(),
		"dropped":  el.dropped.Load(),
		"buffered": buffered,
		"running":  el.running.Load(),
	}
}

// DroppedCount returns the number of events lost to rate limiting or
// writer backpressure.
func (el *EventLog) DroppedCount() uint64 {
	return el.dropped.Load()
}

// TotalCount returns the number of admitted events.
func (el *EventLog) TotalCount() uint64 {
	return el.total.Load()
}
