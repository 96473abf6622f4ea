// Process lifecycle handling: signals, reloads and systemd notifications
package lifecycle

import (
	"context"
	"fmt"
	"net"
	"os"
	"ser2sockd/internal/global"
	"ser2sockd/internal/logctx"
	"strings"

	"golang.org/x/sys/unix"
)

// Service manager state assignments understood by sd_notify
const (
	stateReady     string = "READY=1"
	stateStopping  string = "STOPPING=1"
	stateReloading string = "RELOADING=1"
	fieldStatus    string = "STATUS="
	fieldMonotonic string = "MONOTONIC_USEC="
)

// Announces a reload. systemd requires the monotonic timestamp alongside RELOADING.
func NotifyReload(ctx context.Context) (err error) {
	var now unix.Timespec
	err = unix.ClockGettime(unix.CLOCK_MONOTONIC, &now)
	if err != nil {
		err = fmt.Errorf("failed reading monotonic clock: %v", err)
		return
	}

	micros := int64(now.Sec)*1_000_000 + int64(now.Nsec)/1_000
	err = notify(ctx, stateReloading, fmt.Sprintf("%s%d", fieldMonotonic, micros))
	return
}

// Marks the relay as serving. A non-empty status is sent in the same datagram.
func NotifyReady(ctx context.Context, status string) (err error) {
	fields := []string{stateReady}
	if status != "" {
		fields = append(fields, fieldStatus+status)
	}
	err = notify(ctx, fields...)
	return
}

func NotifyStopping(ctx context.Context) (err error) {
	err = notify(ctx, stateStopping)
	return
}

// Free-form text shown by systemctl status
func NotifyStatus(ctx context.Context, status string) (err error) {
	err = notify(ctx, fieldStatus+status)
	return
}

// Resolves NOTIFY_SOCKET. A leading '@' selects the abstract namespace.
func notifySocket() (addr *net.UnixAddr) {
	path := os.Getenv("NOTIFY_SOCKET")
	if path == "" {
		return
	}
	if strings.HasPrefix(path, "@") {
		path = "\x00" + path[1:]
	}
	addr = &net.UnixAddr{Name: path, Net: "unixgram"}
	return
}

// Writes one newline separated datagram of assignments.
// Without NOTIFY_SOCKET the process is not supervised and nothing is sent.
func notify(ctx context.Context, fields ...string) (err error) {
	addr := notifySocket()
	if addr == nil {
		return
	}

	conn, err := net.DialUnix(addr.Net, nil, addr)
	if err != nil {
		err = fmt.Errorf("failed connecting to notify socket %q: %v", addr.Name, err)
		return
	}
	defer conn.Close()

	payload := strings.Join(fields, "\n")
	_, err = conn.Write([]byte(payload))
	if err != nil {
		err = fmt.Errorf("failed sending notification: %v", err)
		return
	}

	logctx.LogEvent(ctx, global.VerbosityDebug, global.InfoLog, "Sent service manager notification %q\n", payload)
	return
}
