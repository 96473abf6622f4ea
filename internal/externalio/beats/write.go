package beats

import (
	"context"
	"fmt"
	"os"
	"ser2sockd/internal/global"
	"ser2sockd/internal/logctx"
	"time"

	lumberjack "github.com/elastic/go-lumber/client/v2"
)

const (
	dialTimeout time.Duration = 3 * time.Second
	redialDelay time.Duration = 3 * time.Second
)

// Queues a copy of data for mirroring. Never blocks; a full buffer drops the chunk.
func (mirror *Mirror) Send(data []byte) {
	if mirror == nil || len(data) == 0 {
		return
	}

	chunk := make([]byte, len(data))
	copy(chunk, data)

	select {
	case mirror.events <- event{timestamp: time.Now(), data: chunk}:
		mirror.Metrics.Queued.Add(1)
	default:
		mirror.Metrics.Dropped.Add(1)
	}
}

// Ships queued chunks until ctx is done
func (mirror *Mirror) Run(ctx context.Context) {
	if mirror == nil {
		return
	}
	ctx = logctx.AppendCtxTag(ctx, global.NSMirror)
	defer mirror.Shutdown()

	for {
		select {
		case <-ctx.Done():
			return
		case evt := <-mirror.events:
			err := mirror.write(ctx, evt)
			if err != nil {
				mirror.Metrics.Dropped.Add(1)
				logctx.LogEvent(ctx, global.VerbosityProgress, global.WarnLog,
					"Failed mirroring chunk to %s: %v\n", mirror.endpoint, err)
			}
		}
	}
}

// Sends one event, dialing first if needed. A failed connection is dropped and redialed after a delay.
func (mirror *Mirror) write(ctx context.Context, evt event) (err error) {
	if mirror.sink == nil {
		if time.Now().Before(mirror.retryAfter) {
			err = fmt.Errorf("server unavailable until %s", mirror.retryAfter.Format(time.TimeOnly))
			return
		}

		compression := lumberjack.CompressionLevel(0)
		timeout := lumberjack.Timeout(dialTimeout)

		mirror.sink, err = lumberjack.SyncDial(mirror.endpoint, compression, timeout)
		if err != nil {
			mirror.sink = nil
			mirror.retryAfter = time.Now().Add(redialDelay)
			err = fmt.Errorf("failed connection to beats server: %w", err)
			return
		}
		mirror.Metrics.Dials.Add(1)
		logctx.LogEvent(ctx, global.VerbosityProgress, global.InfoLog,
			"Connected to beats server %s\n", mirror.endpoint)
	}

	fields := map[string]interface{}{
		// Minimum required fields
		"@timestamp": evt.timestamp,
		"message":    string(evt.data),

		// Common fields
		"host": map[string]interface{}{
			"name":     global.Hostname,
			"hostname": global.Hostname,
		},
		"agent": map[string]interface{}{
			"program": global.ProgBaseName,
			"version": global.ProgVersion,
			"type":    "filebeat",
			"pid":     os.Getpid(),
		},
		"ser2sock": map[string]interface{}{
			"source": mirror.sourceName,
			"bytes":  len(evt.data),
		},
	}

	_, err = mirror.sink.Send([]interface{}{fields})
	if err != nil {
		mirror.Metrics.SendFails.Add(1)
		mirror.sink.Close()
		mirror.sink = nil
		mirror.retryAfter = time.Now().Add(redialDelay)
		return
	}
	mirror.Metrics.Sent.Add(1)
	return
}

// Gracefully stops module
func (mirror *Mirror) Shutdown() (err error) {
	if mirror == nil {
		return
	}
	if mirror.sink != nil {
		err = mirror.sink.Close()
		mirror.sink = nil
	}
	return
}
