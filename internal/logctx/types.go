package logctx

import (
	"sync"
	"sync/atomic"
	"time"
)

// Single log record
type Event struct {
	Timestamp time.Time
	Severity  string
	Tags      []string
	Message   string
}

// Buffered, leveled logger carried inside a context
type Logger struct {
	ID         string
	CreatedAt  time.Time
	queue      []Event
	mutex      sync.Mutex // protects queue and PrintLevel
	cond       *sync.Cond // signals watcher of new events
	Done       <-chan struct{}
	PrintLevel int           // Highest event level recorded (errors are always recorded)
	MaxQueued  int           // Oldest events are discarded past this many (0 = unbounded)
	Dropped    atomic.Uint64 // Events discarded due to MaxQueued
	wg         *sync.WaitGroup
}

// Repeat suppression bookkeeping for the watcher
type dedupState struct {
	lastMsg          string
	repeatCount      int
	lastSuppressTime time.Time
}
