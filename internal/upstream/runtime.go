package upstream

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"ser2sockd/internal/global"
	"ser2sockd/internal/logctx"
	"time"
)

const dialTimeout = 5 * time.Second

func tcpOpener(address string) func(context.Context) (io.ReadWriteCloser, error) {
	dialer := net.Dialer{Timeout: dialTimeout, KeepAlive: global.DefaultKeepAliveIdle}
	return func(ctx context.Context) (stream io.ReadWriteCloser, err error) {
		stream, err = dialer.DialContext(ctx, "tcp", address)
		if err != nil {
			err = fmt.Errorf("failed to connect to %s: %v", address, err)
		}
		return
	}
}

// Keeps the source open until ctx is done. Every non-empty read is one chunk handed to publish.
func (link *Link) Run(ctx context.Context, publish func([]byte) bool) (err error) {
	ctx = logctx.AppendCtxTag(ctx, global.NSSource)

	for {
		if ctx.Err() != nil {
			return
		}

		stream, openErr := link.open(ctx)
		if openErr != nil {
			link.Metrics.ConnectFailures.Add(1)
			logctx.LogEvent(ctx, global.VerbosityStandard, global.WarnLog,
				"Source %s unavailable, retrying in %s: %v\n", link.name, link.delay, openErr)
			if !link.wait(ctx) {
				return
			}
			continue
		}

		link.Metrics.Connects.Add(1)
		link.Metrics.Connected.Store(1)
		link.connected.Store(true)
		logctx.LogEvent(ctx, global.VerbosityStandard, global.InfoLog, "Source %s connected\n", link.name)

		sessionErr := link.session(ctx, stream, publish)

		link.connected.Store(false)
		link.Metrics.Connected.Store(0)
		link.discardUplink()

		if ctx.Err() != nil {
			return
		}
		link.Metrics.Disconnects.Add(1)
		logctx.LogEvent(ctx, global.VerbosityStandard, global.WarnLog,
			"Source %s lost, reconnecting in %s: %v\n", link.name, link.delay, sessionErr)
		if !link.wait(ctx) {
			return
		}
	}
}

// Reads from stream and drains the uplink into it until either side fails
func (link *Link) session(ctx context.Context, stream io.ReadWriteCloser, publish func([]byte) bool) (err error) {
	sessionCtx, cancel := context.WithCancelCause(ctx)

	writerDone := make(chan struct{})
	go func() {
		defer close(writerDone)
		link.writer(sessionCtx, stream, cancel)
	}()

	// Unblocks the read below on shutdown or writer failure
	stop := context.AfterFunc(sessionCtx, func() { stream.Close() })
	defer func() {
		cancel(nil)
		<-writerDone
		stop()
		stream.Close()
	}()

	buf := make([]byte, link.bufSize)
	for {
		n, readErr := stream.Read(buf)
		if n > 0 {
			chunk := make([]byte, n)
			copy(chunk, buf[:n])

			link.Metrics.ChunksRead.Add(1)
			link.Metrics.BytesRead.Add(uint64(n))
			logctx.LogEvent(ctx, global.VerbosityData, global.InfoLog,
				"Read %d bytes from source\n", n)
			logctx.LogEvent(ctx, global.VerbosityFullData, global.InfoLog,
				"Source data: %q\n", chunk)

			if !publish(chunk) {
				link.Metrics.PublishDrops.Add(1)
			}
		}
		if readErr != nil {
			if cause := context.Cause(sessionCtx); cause != nil && sessionCtx.Err() != nil {
				err = cause
				return
			}
			if errors.Is(readErr, io.EOF) {
				err = fmt.Errorf("source closed the stream")
				return
			}
			err = readErr
			return
		}
	}
}

// Writes queued client data to the stream in arrival order
func (link *Link) writer(ctx context.Context, stream io.Writer, fail context.CancelCauseFunc) {
	for {
		chunk, ok := link.uplink.Pop(ctx, chunkSize)
		if !ok {
			return
		}

		n, err := stream.Write(chunk)
		link.Metrics.BytesWritten.Add(uint64(n))
		if err != nil {
			link.Metrics.WriteErrors.Add(1)
			fail(fmt.Errorf("write to source failed: %v", err))
			return
		}
	}
}

// Queues a copy of p for the source. Never blocks.
func (link *Link) Write(p []byte) (n int, err error) {
	if len(p) == 0 {
		return
	}
	if !link.connected.Load() {
		link.Metrics.UplinkDrops.Add(1)
		err = ErrNotConnected
		return
	}

	chunk := make([]byte, len(p))
	copy(chunk, p)
	if !link.uplink.Push(chunk, len(chunk)) {
		link.Metrics.UplinkDrops.Add(1)
		err = ErrUplinkFull
		return
	}
	n = len(p)
	return
}

// Whether the source stream is currently open
func (link *Link) Connected() bool {
	return link.connected.Load()
}

// Drops client data queued for a stream that no longer exists
func (link *Link) discardUplink() {
	for {
		_, ok := link.uplink.TryPop(chunkSize)
		if !ok {
			return
		}
		link.Metrics.UplinkDrops.Add(1)
	}
}

// Sleeps the reconnect delay. False when ctx ended first.
func (link *Link) wait(ctx context.Context) bool {
	timer := time.NewTimer(link.delay)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}

func chunkSize(chunk []byte) int { return len(chunk) }
