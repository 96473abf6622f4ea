// Single-threaded non-blocking fan-out relay: one listener, a fixed table of clients,
// bounded per-client queues and address based admission
package relay

import (
	"fmt"
	"io"
	"ser2sockd/internal/global"
	"ser2sockd/internal/queue/bounded"
	"ser2sockd/internal/queue/mpmc"
	"strconv"

	"golang.org/x/sys/unix"
)

// Builds the relay and every slot with its queue. Loads the admission rules and enable flag.
// uplink receives bytes read from clients (nil discards them).
func New(cfg Config, uplink io.Writer) (new *Relay, err error) {
	if cfg.MaxConnections < 2 {
		err = fmt.Errorf("max connections must allow the listener and at least one client, got %d", cfg.MaxConnections)
		return
	}
	if cfg.ReadBufferSize < 1 {
		err = fmt.Errorf("read buffer size must be positive, got %d", cfg.ReadBufferSize)
		return
	}
	if cfg.Backlog < 1 {
		cfg.Backlog = global.DefaultListenBacklog
	}
	if cfg.InboxSize < 2 {
		cfg.InboxSize = global.DefaultInboxSize
	}
	if uplink == nil {
		uplink = io.Discard
	}

	new = &Relay{
		Namespace: []string{global.NSRelay},
		cfg:       cfg,
		state:     StateIdle,
		slots:     make([]slot, cfg.MaxConnections),
		scratch:   make([]byte, cfg.ReadBufferSize),
		pollFDs:   make([]unix.PollFd, 0, cfg.MaxConnections),
		pollSlots: make([]int, 0, cfg.MaxConnections),
		uplink:    uplink,
		wake:      make(chan struct{}, 1),
		Metrics:   &MetricStorage{},
	}

	for i := range new.slots {
		ns := append(append([]string{}, new.Namespace...), global.NSClient, strconv.Itoa(i))
		new.slots[i].state = emptySlot{}
		new.slots[i].queue, err = bounded.New(ns, cfg.QueueCapacity)
		if err != nil {
			err = fmt.Errorf("failed creating queue for slot %d: %v", i, err)
			new = nil
			return
		}
	}

	new.inbox, err = mpmc.New[[]byte](append(append([]string{}, new.Namespace...), global.NSInbox), cfg.InboxSize)
	if err != nil {
		err = fmt.Errorf("failed creating relay inbox: %v", err)
		new = nil
		return
	}

	matcher, err := admissionRules(cfg.ACL)
	if err != nil {
		err = fmt.Errorf("failed loading acl: %w", err)
		new = nil
		return
	}
	new.acl.Store(matcher)

	new.enabled.Store(cfg.Enabled)
	new.connected.Store(true)
	return
}
