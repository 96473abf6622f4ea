package relay

import (
	"context"
	"errors"
	"runtime/debug"
	"ser2sockd/internal/global"
	"ser2sockd/internal/logctx"
	"ser2sockd/internal/network"
	"time"

	"golang.org/x/sys/unix"
)

// Runs one bounded step of the relay state machine.
// Reports whether anything needed attention; callers should yield when it returns false.
func (relay *Relay) Tick(ctx context.Context) (busy bool) {
	relay.Metrics.Ticks.Add(1)

	defer func() {
		if fatalError := recover(); fatalError != nil {
			relay.Metrics.Panics.Add(1)
			logctx.LogEvent(ctx, global.VerbosityStandard, global.ErrorLog,
				"panic in relay tick: %v\n%s", fatalError, debug.Stack())
			relay.drain(ctx)
			busy = true
		}
	}()

	busy = relay.drainInbox() > 0

	switch relay.state {
	case StateIdle:
		if !relay.shouldRun() || time.Now().Before(relay.nextBind) {
			return
		}
		relay.setState(StateBinding)
		fallthrough
	case StateBinding:
		relay.bind(ctx)
		busy = true
	case StatePolling:
		if !relay.shouldRun() {
			relay.drain(ctx)
			busy = true
			return
		}
		if relay.pollOnce(ctx) {
			busy = true
		}
	case StateDraining:
		relay.drain(ctx)
		busy = true
	}
	return
}

// Repeatedly ticks until ctx is done, then drains every connection
func (relay *Relay) Run(ctx context.Context) {
	ctx = logctx.AppendCtxTag(ctx, global.NSRelay)

	backoff := time.NewTimer(relay.cfg.IdleBackoff)
	defer backoff.Stop()

	for {
		select {
		case <-ctx.Done():
			relay.Close(ctx)
			return
		default:
		}

		if relay.Tick(ctx) {
			continue
		}

		backoff.Reset(relay.cfg.IdleBackoff)
		select {
		case <-ctx.Done():
		case <-backoff.C:
		case <-relay.wake:
		}
	}
}

// Drains all connections immediately (loop goroutine only)
func (relay *Relay) Close(ctx context.Context) {
	if relay.state == StateIdle && relay.boundAddr.Load() == nil {
		return
	}
	relay.drain(ctx)
}

func (relay *Relay) shouldRun() bool {
	return relay.enabled.Load() && relay.connected.Load()
}

func (relay *Relay) setState(state State) {
	relay.state = state
	relay.lastState.Store(uint32(state))
}

// Creates the listening socket. Failure returns to idle until the retry delay passes.
func (relay *Relay) bind(ctx context.Context) {
	fd, err := network.Listen(relay.cfg.ListenAddr, relay.cfg.Backlog)
	if err != nil {
		relay.Metrics.BindFailures.Add(1)
		relay.nextBind = time.Now().Add(relay.cfg.BindRetryDelay)
		relay.setState(StateIdle)
		logctx.LogEvent(ctx, global.VerbosityStandard, global.ErrorLog,
			"Listener setup failed, retrying in %s: %v\n", relay.cfg.BindRetryDelay, err)
		return
	}

	addr, err := network.LocalAddr(fd)
	if err != nil {
		addr = relay.cfg.ListenAddr
	}

	_, err = relay.add(listenerSlot{fd: fd, addr: addr})
	if err != nil {
		unix.Close(fd)
		relay.Metrics.BindFailures.Add(1)
		relay.nextBind = time.Now().Add(relay.cfg.BindRetryDelay)
		relay.setState(StateIdle)
		logctx.LogEvent(ctx, global.VerbosityStandard, global.ErrorLog,
			"Listener could not be placed in connection table: %v\n", err)
		return
	}

	relay.boundAddr.Store(&addr)
	relay.setState(StatePolling)
	logctx.LogEvent(ctx, global.VerbosityStandard, global.InfoLog,
		"Listening on %s for up to %d clients\n", addr, len(relay.slots)-1)
}

// Closes every slot and returns to idle
func (relay *Relay) drain(ctx context.Context) {
	relay.setState(StateDraining)
	relay.cleanupAll(ctx)
	relay.Metrics.Drains.Add(1)
	relay.setState(StateIdle)
	logctx.LogEvent(ctx, global.VerbosityProgress, global.InfoLog, "Relay drained\n")
}

// One readiness poll followed by the exception, read and write passes
func (relay *Relay) pollOnce(ctx context.Context) (busy bool) {
	relay.buildPollSet()

	ready, err := relay.poll()
	if err != nil {
		logctx.LogEvent(ctx, global.VerbosityStandard, global.ErrorLog,
			"Readiness poll failed: %v\n", err)
		relay.drain(ctx)
		busy = true
		return
	}
	if ready == 0 {
		return
	}
	busy = true

	logctx.LogEvent(ctx, global.VerbosityDebug, global.InfoLog,
		"Poll reported %d ready descriptors\n", ready)

	// Exception pass
	for i := range relay.pollFDs {
		index, revents, current := relay.pollEntry(i)
		if !current || revents&pollException == 0 {
			continue
		}

		// A failed listener cannot be rebound in place: binding happens only from Idle and
		// the way back to Idle is Draining, which also closes every client.
		if _, isListener := relay.slots[index].state.(listenerSlot); isListener {
			logctx.LogEvent(ctx, global.VerbosityStandard, global.ErrorLog,
				"Listener reported error condition (events 0x%x), rebinding\n", revents)
			relay.drain(ctx)
			return
		}

		logctx.LogEvent(ctx, global.VerbosityDebug, global.InfoLog,
			"Exception on %s (events 0x%x)\n", relay.describeSlot(index), revents)
		relay.Metrics.Exceptions.Add(1)
		relay.cleanup(ctx, index)
		relay.consumeEntry(i)
	}

	// Read pass
	for i := range relay.pollFDs {
		index, revents, current := relay.pollEntry(i)
		if !current || revents&pollReadable == 0 {
			continue
		}

		switch state := relay.slots[index].state.(type) {
		case listenerSlot:
			relay.acceptNew(ctx, state.fd)
		case clientSlot:
			if !relay.readClient(ctx, index, state) {
				relay.consumeEntry(i)
			}
		}
	}

	// Write pass
	for i := range relay.pollFDs {
		index, revents, current := relay.pollEntry(i)
		if !current || revents&pollWritable == 0 {
			continue
		}

		state, isClient := relay.slots[index].state.(clientSlot)
		if !isClient || relay.slots[index].queue.IsEmpty() {
			continue
		}
		relay.writeClient(ctx, index, state)
	}
	return
}

// One non-blocking read from a client, forwarded upstream. Returns false if the slot was cleaned up.
func (relay *Relay) readClient(ctx context.Context, index int, client clientSlot) (alive bool) {
	n, err := unix.Read(client.fd, relay.scratch)
	if err != nil {
		if errors.Is(err, unix.EAGAIN) || errors.Is(err, unix.EINTR) {
			alive = true
			return
		}
		logctx.LogEvent(ctx, global.VerbosityProgress, global.InfoLog,
			"Read from %s failed: %v\n", client.peer, err)
		relay.cleanup(ctx, index)
		return
	}
	if n == 0 {
		relay.cleanup(ctx, index)
		return
	}

	alive = true
	relay.Metrics.BytesUp.Add(uint64(n))
	logctx.LogEvent(ctx, global.VerbosityData, global.InfoLog,
		"Received %d bytes from %s\n", n, client.peer)
	logctx.LogEvent(ctx, global.VerbosityFullData, global.InfoLog,
		"Uplink data from %s: %q\n", client.peer, relay.scratch[:n])

	_, err = relay.uplink.Write(relay.scratch[:n])
	if err != nil {
		relay.Metrics.UplinkErrors.Add(1)
		logctx.LogEvent(ctx, global.VerbosityStandard, global.WarnLog,
			"Failed forwarding %d bytes from %s to source: %v\n", n, client.peer, err)
	}
	return
}

// Sends exactly one queued chunk. A partial send discards the unsent remainder.
func (relay *Relay) writeClient(ctx context.Context, index int, client clientSlot) {
	data, ok := relay.slots[index].queue.Dequeue()
	if !ok {
		return
	}

	n, err := unix.SendmsgN(client.fd, data, nil, nil, unix.MSG_NOSIGNAL|unix.MSG_DONTWAIT)
	if err != nil {
		if errors.Is(err, unix.EAGAIN) || errors.Is(err, unix.EINTR) {
			relay.Metrics.WriteDrops.Add(1)
			logctx.LogEvent(ctx, global.VerbosityData, global.WarnLog,
				"Send to %s would block, dropped %d byte chunk\n", client.peer, len(data))
			return
		}
		logctx.LogEvent(ctx, global.VerbosityProgress, global.InfoLog,
			"Send to %s failed: %v\n", client.peer, err)
		relay.cleanup(ctx, index)
		return
	}

	relay.Metrics.BytesDown.Add(uint64(n))
	if n < len(data) {
		relay.Metrics.ShortWrites.Add(1)
		logctx.LogEvent(ctx, global.VerbosityDebug, global.WarnLog,
			"Short send to %s: %d of %d bytes, remainder discarded\n", client.peer, n, len(data))
	}
}
