package match

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"os"
	"sync"
	"sync/atomic"
	"time"
)

const (
	BatchFlushSize     = 256                    // Events per batch write
	BatchFlushInterval = 100 * time.Millisecond // How often the writer wakes
	SubscriberBuffer   = 256                    // Default subscriber channel size
)

// EventLog is the append-only record of a match. It is authoritative: events
// are never dropped or rewritten. Subscribers and the optional NDJSON
// writer read from it without ever blocking the tick loop.
type EventLog struct {
	mu     sync.RWMutex
	events []Event

	subMu   sync.Mutex
	subs    map[int]chan Event
	nextSub int

	// Async writer
	writerWg sync.WaitGroup
	stopChan chan struct{}
	stopOnce sync.Once
	running  atomic.Bool
	file     *os.File
	flushed  int // events already written; writer goroutine only
	logger   *log.Logger

	droppedDeliveries atomic.Uint64
	written           atomic.Uint64
}

// NewEventLog creates an empty event log.
func NewEventLog() *EventLog {
	return &EventLog{
		subs:     make(map[int]chan Event),
		stopChan: make(chan struct{}),
		logger:   log.Default(),
	}
}

// Append assigns the next sequence number, stores ev and fans it out to
// subscribers. Slow subscribers miss deliveries; they can catch up with Since.
func (l *EventLog) Append(ev Event) Event {
	l.mu.Lock()
	ev.Seq = uint64(len(l.events)) + 1
	l.events = append(l.events, ev)
	l.mu.Unlock()

	l.subMu.Lock()
	for _, ch := range l.subs {
		select {
		case ch <- ev:
		default:
			l.droppedDeliveries.Add(1)
		}
	}
	l.subMu.Unlock()
	return ev
}

// Len is the number of events recorded.
func (l *EventLog) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.events)
}

// All returns a copy of every event in order.
func (l *EventLog) All() []Event {
	return l.Since(0)
}

// Since returns a copy of the events with sequence numbers above seq.
func (l *EventLog) Since(seq uint64) []Event {
	l.mu.RLock()
	defer l.mu.RUnlock()
	if seq >= uint64(len(l.events)) {
		return nil
	}
	out := make([]Event, len(l.events)-int(seq))
	copy(out, l.events[seq:])
	return out
}

// Subscribe returns a channel receiving every future event and a cancel
// function that closes it.
func (l *EventLog) Subscribe(buffer int) (<-chan Event, func()) {
	if buffer <= 0 {
		buffer = SubscriberBuffer
	}
	ch := make(chan Event, buffer)

	l.subMu.Lock()
	id := l.nextSub
	l.nextSub++
	l.subs[id] = ch
	l.subMu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			l.subMu.Lock()
			delete(l.subs, id)
			l.subMu.Unlock()
			close(ch)
		})
	}
}

// Start begins the async NDJSON writer appending to filePath.
func (l *EventLog) Start(filePath string) error {
	if l.running.Load() || filePath == "" {
		return nil
	}
	file, err := os.OpenFile(filePath, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("open event log: %w", err)
	}
	l.file = file
	l.running.Store(true)

	l.writerWg.Add(1)
	go l.writerLoop()
	return nil
}

// Stop flushes outstanding events and closes the file. Safe to call twice.
func (l *EventLog) Stop() {
	l.stopOnce.Do(func() {
		close(l.stopChan)
		l.writerWg.Wait()
		if l.file != nil {
			if err := l.file.Close(); err != nil {
				l.logger.Printf("⚠️ Event log close failed: %v", err)
			}
		}
		l.running.Store(false)
	})
}

// writerLoop batches newly appended events to disk.
func (l *EventLog) writerLoop() {
	defer l.writerWg.Done()

	ticker := time.NewTicker(BatchFlushInterval)
	defer ticker.Stop()

	for {
		select {
		case <-l.stopChan:
			for l.flushBatch() {
			}
			return
		case <-ticker.C:
			for l.flushBatch() {
			}
		}
	}
}

// flushBatch writes up to BatchFlushSize pending events and reports whether
// more may be waiting.
func (l *EventLog) flushBatch() bool {
	l.mu.RLock()
	end := min(len(l.events), l.flushed+BatchFlushSize)
	batch := l.events[l.flushed:end:end]
	l.mu.RUnlock()
	if len(batch) == 0 {
		return false
	}

	if err := WriteNDJSON(l.file, batch); err != nil {
		l.logger.Printf("⚠️ Event log write failed: %v", err)
		return false
	}
	l.flushed = end
	l.written.Add(uint64(len(batch)))
	return len(batch) == BatchFlushSize
}

// Stats returns counters for monitoring.
func (l *EventLog) Stats() map[string]interface{} {
	l.subMu.Lock()
	subs := len(l.subs)
	l.subMu.Unlock()
	return map[string]interface{}{
		"total":              l.Len(),
		"written":            l.written.Load(),
		"subscribers":        subs,
		"dropped_deliveries": l.droppedDeliveries.Load(),
		"writer_running":     l.running.Load(),
	}
}

// WriteNDJSON writes events as newline-delimited JSON.
func WriteNDJSON(w io.Writer, events []Event) error {
	bw := bufio.NewWriter(w)
	enc := json.NewEncoder(bw)
	for i := range events {
		if err := enc.Encode(&events[i]); err != nil {
			return fmt.Errorf("encode event %d: %w", events[i].Seq, err)
		}
	}
	return bw.Flush()
}

// ReadNDJSON parses events written by WriteNDJSON.
func ReadNDJSON(r io.Reader) ([]Event, error) {
	var out []Event
	dec := json.NewDecoder(r)
	for dec.More() {
		var ev Event
		if err := dec.Decode(&ev); err != nil {
			return out, fmt.Errorf("decode event %d: %w", len(out)+1, err)
		}
		out = append(out, ev)
	}
	return out, nil
}
