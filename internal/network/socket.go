// Raw socket helpers for the non-blocking relay (listener setup, client tuning, address conversion)
package network

import (
	"fmt"
	"net/netip"
	"time"

	"golang.org/x/sys/unix"
)

// Keep-alive and close behaviour applied to every accepted client
type ClientOptions struct {
	KeepAliveIdle     time.Duration
	KeepAliveInterval time.Duration
	KeepAliveCount    int
}

// Creates a non-blocking TCP listening socket bound to addr
func Listen(addr netip.AddrPort, backlog int) (fd int, err error) {
	domain := unix.AF_INET
	if addr.Addr().Is6() && !addr.Addr().Is4In6() {
		domain = unix.AF_INET6
	}

	fd, err = unix.Socket(domain, unix.SOCK_STREAM|unix.SOCK_NONBLOCK|unix.SOCK_CLOEXEC, unix.IPPROTO_TCP)
	if err != nil {
		err = fmt.Errorf("failed to create listening socket: %v", err)
		return
	}

	// Allow immediate rebinding after the listener is dropped
	err = unix.SetsockoptInt(fd, unix.SOL_SOCKET, unix.SO_REUSEADDR, 1)
	if err != nil {
		unix.Close(fd)
		err = fmt.Errorf("failed to set SO_REUSEADDR: %v", err)
		return
	}

	err = setAbortiveClose(fd)
	if err != nil {
		unix.Close(fd)
		return
	}

	err = unix.Bind(fd, ToSockaddr(addr))
	if err != nil {
		unix.Close(fd)
		err = fmt.Errorf("failed to bind %s: %v", addr, err)
		return
	}

	err = unix.Listen(fd, backlog)
	if err != nil {
		unix.Close(fd)
		err = fmt.Errorf("failed to listen on %s: %v", addr, err)
		return
	}
	return
}

// Applies keep-alive probing and abortive close to an accepted client socket
func TuneClient(fd int, opts ClientOptions) (err error) {
	err = unix.SetNonblock(fd, true)
	if err != nil {
		err = fmt.Errorf("failed to set non-blocking mode: %v", err)
		return
	}

	err = unix.SetsockoptInt(fd, unix.SOL_SOCKET, unix.SO_KEEPALIVE, 1)
	if err != nil {
		err = fmt.Errorf("failed to enable keep-alive: %v", err)
		return
	}

	err = unix.SetsockoptInt(fd, unix.IPPROTO_TCP, unix.TCP_KEEPIDLE, durationSeconds(opts.KeepAliveIdle))
	if err != nil {
		err = fmt.Errorf("failed to set keep-alive idle: %v", err)
		return
	}

	err = unix.SetsockoptInt(fd, unix.IPPROTO_TCP, unix.TCP_KEEPINTVL, durationSeconds(opts.KeepAliveInterval))
	if err != nil {
		err = fmt.Errorf("failed to set keep-alive interval: %v", err)
		return
	}

	count := opts.KeepAliveCount
	if count < 1 {
		count = 1
	}
	err = unix.SetsockoptInt(fd, unix.IPPROTO_TCP, unix.TCP_KEEPCNT, count)
	if err != nil {
		err = fmt.Errorf("failed to set keep-alive count: %v", err)
		return
	}

	err = setAbortiveClose(fd)
	return
}

// Linger on with zero timeout: close sends RST and never blocks
func setAbortiveClose(fd int) (err error) {
	err = unix.SetsockoptLinger(fd, unix.SOL_SOCKET, unix.SO_LINGER, &unix.Linger{Onoff: 1, Linger: 0})
	if err != nil {
		err = fmt.Errorf("failed to set SO_LINGER: %v", err)
	}
	return
}

// Socket option granularity is whole seconds (minimum 1)
func durationSeconds(d time.Duration) (seconds int) {
	seconds = int(d / time.Second)
	if seconds < 1 {
		seconds = 1
	}
	return
}

// Address the socket is bound to
func LocalAddr(fd int) (addr netip.AddrPort, err error) {
	sa, err := unix.Getsockname(fd)
	if err != nil {
		err = fmt.Errorf("failed to read socket name: %v", err)
		return
	}
	addr = FromSockaddr(sa)
	return
}
