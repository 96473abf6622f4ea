package daemon

import (
	"bufio"
	"context"
	"io"
	"net"
	"os"
	"path/filepath"
	"ser2sockd/internal/global"
	"ser2sockd/internal/logctx"
	"strconv"
	"testing"
	"time"
)

func freePort(t *testing.T) (port int) {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("failed reserving port: %v", err)
	}
	port = ln.Addr().(*net.TCPAddr).Port
	ln.Close()
	return
}

func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(3 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatalf("timed out waiting for %s", what)
		}
		time.Sleep(10 * time.Millisecond)
	}
}

func TestDaemon_EndToEnd(t *testing.T) {
	t.Setenv("NOTIFY_SOCKET", "")

	// Upstream device stand-in
	source, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("failed to start source listener: %v", err)
	}
	defer source.Close()
	sourceConns := make(chan net.Conn, 1)
	go func() {
		conn, err := source.Accept()
		if err == nil {
			sourceConns <- conn
		}
	}()

	relayPort := freePort(t)
	cfg := Config{
		Enabled:              true,
		ListenIP:             "127.0.0.1",
		ListenPort:           relayPort,
		RequireConnectivity:  false,
		ACL:                  "127.0.0.1",
		IdleBackoff:          time.Millisecond,
		BindRetryDelay:       50 * time.Millisecond,
		SourceType:           "tcp",
		SourceAddress:        source.Addr().String(),
		SourceReconnectDelay: 50 * time.Millisecond,
	}

	configPath := filepath.Join(t.TempDir(), "ser2sockd.json")
	err = os.WriteFile(configPath, []byte(`{"enabled":true,"acl":"10.0.0.0/8"}`), 0600)
	if err != nil {
		t.Fatalf("failed writing config: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	ctx = logctx.New(ctx, global.NSTest, global.VerbosityNone, ctx.Done())

	daemon := NewDaemon(cfg, configPath)
	err = daemon.Start(ctx)
	if err != nil {
		t.Fatalf("expected daemon to start, but got '%v'", err)
	}
	defer daemon.Shutdown()

	var upstream net.Conn
	select {
	case upstream = <-sourceConns:
	case <-time.After(3 * time.Second):
		t.Fatalf("daemon never connected to the source")
	}
	defer upstream.Close()

	waitFor(t, "relay listener", func() bool {
		_, listening := daemon.Relay.Addr()
		return listening
	})

	client, err := net.DialTimeout("tcp", net.JoinHostPort("127.0.0.1", strconv.Itoa(relayPort)), time.Second)
	if err != nil {
		t.Fatalf("failed to dial relay: %v", err)
	}
	defer client.Close()
	waitFor(t, "client admission", func() bool { return daemon.Relay.Metrics.ActiveClients.Load() == 1 })

	// Source to client
	_, err = upstream.Write([]byte("status ok\n"))
	if err != nil {
		t.Fatalf("failed writing to source side: %v", err)
	}
	client.SetReadDeadline(time.Now().Add(3 * time.Second))
	line, err := bufio.NewReader(client).ReadString('\n')
	if err != nil {
		t.Fatalf("expected broadcast line, but got error '%v'", err)
	}
	if line != "status ok\n" {
		t.Fatalf("expected 'status ok', but got '%q'", line)
	}

	// Client to source
	_, err = client.Write([]byte("cmd"))
	if err != nil {
		t.Fatalf("failed writing from client: %v", err)
	}
	upstream.SetReadDeadline(time.Now().Add(3 * time.Second))
	buf := make([]byte, 3)
	_, err = io.ReadFull(upstream, buf)
	if err != nil {
		t.Fatalf("expected uplink bytes, but got error '%v'", err)
	}
	if string(buf) != "cmd" {
		t.Fatalf("expected 'cmd', but got '%s'", buf)
	}

	// Reload swaps the acl from the config file
	err = daemon.Reload(ctx)
	if err != nil {
		t.Fatalf("expected reload to succeed, but got '%v'", err)
	}
	if daemon.Relay.ACL() != "10.0.0.0/8" {
		t.Fatalf("expected reloaded acl '10.0.0.0/8', but got '%s'", daemon.Relay.ACL())
	}

	// Invalid acl keeps the previous configuration in full
	logger := logctx.GetLogger(daemon.ctx)
	levelBefore := logger.PrintLevel
	for _, bad := range []string{
		`{"enabled":false,"logVerbosity":5,"acl":"10.0.0.0/40"}`,
		`{"enabled":false,"logVerbosity":5,"acl":"bad"}`,
	} {
		err = os.WriteFile(configPath, []byte(bad), 0600)
		if err != nil {
			t.Fatalf("failed rewriting config: %v", err)
		}
		err = daemon.Reload(ctx)
		if err == nil {
			t.Fatalf("expected reload of %s to fail", bad)
		}
		if daemon.Relay.ACL() != "10.0.0.0/8" {
			t.Fatalf("expected previous acl kept, but got '%s'", daemon.Relay.ACL())
		}
		if !daemon.Relay.Enabled() {
			t.Fatalf("expected relay to stay enabled after rejected reload of %s", bad)
		}
		if logger.PrintLevel != levelBefore {
			t.Fatalf("expected verbosity %d kept, but got '%d'", levelBefore, logger.PrintLevel)
		}
	}

	daemon.Shutdown()
	err = daemon.Run()
	if err != nil {
		t.Fatalf("expected clean exit, but got '%v'", err)
	}
	if daemon.Relay.Metrics.ActiveClients.Load() != 0 {
		t.Fatalf("expected clients drained on shutdown")
	}
}
