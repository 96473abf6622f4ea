package beats

import (
	"context"
	"net"
	"ser2sockd/internal/global"
	"testing"
	"time"

	"github.com/elastic/go-lumber/lj"
	server "github.com/elastic/go-lumber/server/v2"
)

func TestNewMirror_NoEndpoint(t *testing.T) {
	mirror := NewMirror([]string{global.NSTest}, "", "serial:/dev/ttyUSB0", 0)
	if mirror != nil {
		t.Fatalf("expected nil mirror without endpoint")
	}

	// nil mirror is inert
	mirror.Send([]byte("data"))
	if err := mirror.Shutdown(); err != nil {
		t.Fatalf("expected no error shutting down nil mirror, but got '%v'", err)
	}
}

func TestMirror_SendDropsWhenFull(t *testing.T) {
	mirror := NewMirror([]string{global.NSTest}, "127.0.0.1:1", "test", 2)

	for i := 0; i < 5; i++ {
		mirror.Send([]byte("chunk"))
	}
	if mirror.Metrics.Queued.Load() != 2 {
		t.Fatalf("expected 2 queued, but got '%d'", mirror.Metrics.Queued.Load())
	}
	if mirror.Metrics.Dropped.Load() != 3 {
		t.Fatalf("expected 3 dropped, but got '%d'", mirror.Metrics.Dropped.Load())
	}
}

func TestMirror_DeliversToBeatsServer(t *testing.T) {
	listener, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("expected no error listening, but got '%v'", err)
	}
	srv, err := server.NewWithListener(listener)
	if err != nil {
		t.Fatalf("expected no error starting lumberjack server, but got '%v'", err)
	}
	defer srv.Close()

	mirror := NewMirror([]string{global.NSTest}, listener.Addr().String(), "tcp:panel:10000", 8)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go mirror.Run(ctx)

	mirror.Send([]byte("!KPM:[00110011]\r\n"))

	var batch *lj.Batch
	select {
	case batch = <-srv.ReceiveChan():
	case <-time.After(5 * time.Second):
		t.Fatalf("timed out waiting for mirrored event")
	}
	batch.ACK()

	if len(batch.Events) != 1 {
		t.Fatalf("expected 1 event, but got '%d'", len(batch.Events))
	}
	fields, ok := batch.Events[0].(map[string]interface{})
	if !ok {
		t.Fatalf("expected map event, but got '%T'", batch.Events[0])
	}
	if fields["message"] != "!KPM:[00110011]\r\n" {
		t.Fatalf("expected mirrored message, but got '%v'", fields["message"])
	}
	meta, ok := fields["ser2sock"].(map[string]interface{})
	if !ok || meta["source"] != "tcp:panel:10000" {
		t.Fatalf("expected source metadata, but got '%v'", fields["ser2sock"])
	}
}
