package relay

import (
	"context"
	"errors"
	"ser2sockd/internal/global"
	"ser2sockd/internal/logctx"
	"ser2sockd/internal/network"

	"golang.org/x/sys/unix"
)

// Accepts one pending connection and admits or refuses it before any data is exchanged
func (relay *Relay) acceptNew(ctx context.Context, listenFD int) {
	fd, sa, err := unix.Accept4(listenFD, unix.SOCK_NONBLOCK|unix.SOCK_CLOEXEC)
	if err != nil {
		if errors.Is(err, unix.EAGAIN) || errors.Is(err, unix.EINTR) || errors.Is(err, unix.ECONNABORTED) {
			return
		}
		logctx.LogEvent(ctx, global.VerbosityStandard, global.WarnLog,
			"Failed to accept connection: %v\n", err)
		return
	}

	peer := network.FromSockaddr(sa)

	if !relay.acl.Load().Matches(peer.Addr()) {
		unix.Close(fd)
		relay.Metrics.RejectedACL.Add(1)
		logctx.LogEvent(ctx, global.VerbosityStandard, global.WarnLog,
			"Rejected connection from %s: address not permitted by acl\n", peer)
		return
	}

	client := newClient(fd, sa)
	index, err := relay.add(client)
	if err != nil {
		unix.Close(fd)
		if errors.Is(err, ErrTableFull) {
			relay.Metrics.RejectedCapacity.Add(1)
			logctx.LogEvent(ctx, global.VerbosityStandard, global.WarnLog,
				"Refused connection from %s: capacity of %d clients reached\n", peer, len(relay.slots)-1)
		} else {
			relay.Metrics.TuneFailures.Add(1)
			logctx.LogEvent(ctx, global.VerbosityStandard, global.WarnLog,
				"Dropped connection from %s: %v\n", peer, err)
		}
		return
	}

	relay.Metrics.Accepted.Add(1)
	logctx.LogEvent(ctx, global.VerbosityProgress, global.InfoLog,
		"Accepted client %s (session %s, slot %d)\n", peer, client.session, index)
}
