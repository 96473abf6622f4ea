package relay

import (
	"context"
	"fmt"
	"ser2sockd/internal/atomics"
	"ser2sockd/internal/global"
	"ser2sockd/internal/logctx"
	"ser2sockd/internal/network"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sys/unix"
)

// Places fd into the first empty slot. Client sockets get keep-alive and abortive close applied first.
func (relay *Relay) add(state slotState) (index int, err error) {
	index = -1
	for i := range relay.slots {
		if _, used := relay.slots[i].state.descriptor(); !used {
			index = i
			break
		}
	}
	if index < 0 {
		err = ErrTableFull
		return
	}

	if client, isClient := state.(clientSlot); isClient {
		err = network.TuneClient(client.fd, relay.cfg.Client)
		if err != nil {
			index = -1
			return
		}
		relay.slots[index].queue.Clear()
		relay.Metrics.ActiveClients.Add(1)
		atomics.StoreMax(&relay.Metrics.PeakClients, relay.Metrics.ActiveClients.Load())
	}

	relay.slots[index].state = state
	return
}

// Closes the slot descriptor, drops its queued data and marks it empty. Safe to call repeatedly.
func (relay *Relay) cleanup(ctx context.Context, index int) {
	if index < 0 || index >= len(relay.slots) {
		return
	}
	entry := &relay.slots[index]

	switch state := entry.state.(type) {
	case listenerSlot:
		unix.Close(state.fd)
		relay.boundAddr.Store(nil)
		logctx.LogEvent(ctx, global.VerbosityProgress, global.InfoLog,
			"Closed listener on %s\n", state.addr)
	case clientSlot:
		unix.Close(state.fd)
		dropped := entry.queue.Clear()
		atomics.Subtract(&relay.Metrics.ActiveClients, 1, 4)
		relay.Metrics.Disconnects.Add(1)
		logctx.LogEvent(ctx, global.VerbosityProgress, global.InfoLog,
			"Client %s (session %s, slot %d) disconnected after %s, %d queued chunks discarded\n",
			state.peer, state.session, index, time.Since(state.connected).Round(time.Millisecond), dropped)
	default:
		return
	}

	entry.state = emptySlot{}
}

// Cleans up every slot
func (relay *Relay) cleanupAll(ctx context.Context) {
	for i := range relay.slots {
		relay.cleanup(ctx, i)
	}
}

func newClient(fd int, sa unix.Sockaddr) (client clientSlot) {
	client = clientSlot{
		fd:        fd,
		peer:      network.FromSockaddr(sa),
		session:   uuid.NewString(),
		connected: time.Now(),
	}
	return
}

// Human readable slot summary for debug logs
func (relay *Relay) describeSlot(index int) string {
	switch state := relay.slots[index].state.(type) {
	case listenerSlot:
		return fmt.Sprintf("slot %d listener fd=%d %s", index, state.fd, state.addr)
	case clientSlot:
		return fmt.Sprintf("slot %d client fd=%d %s queued=%d", index, state.fd, state.peer, relay.slots[index].queue.Len())
	default:
		return fmt.Sprintf("slot %d empty", index)
	}
}
