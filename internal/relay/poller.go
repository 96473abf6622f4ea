package relay

import (
	"errors"

	"golang.org/x/sys/unix"
)

// Revents masks. Exception covers reset peers and, on the listener slot, a dead listening socket.
const (
	pollReadable  int16 = unix.POLLIN
	pollWritable  int16 = unix.POLLOUT
	pollException int16 = unix.POLLERR | unix.POLLHUP | unix.POLLNVAL
)

// Builds interest for every occupied slot. Write interest only for clients with queued data.
func (relay *Relay) buildPollSet() {
	relay.pollFDs = relay.pollFDs[:0]
	relay.pollSlots = relay.pollSlots[:0]

	for i := range relay.slots {
		fd, used := relay.slots[i].state.descriptor()
		if !used {
			continue
		}

		events := pollReadable
		if _, isClient := relay.slots[i].state.(clientSlot); isClient && !relay.slots[i].queue.IsEmpty() {
			events |= pollWritable
		}

		relay.pollFDs = append(relay.pollFDs, unix.PollFd{Fd: int32(fd), Events: events})
		relay.pollSlots = append(relay.pollSlots, i)
	}
}

// Waits at most the configured poll timeout for readiness. Interrupted waits report nothing ready.
func (relay *Relay) poll() (ready int, err error) {
	if len(relay.pollFDs) == 0 {
		return
	}

	timeout := unix.NsecToTimespec(relay.cfg.PollTimeout.Nanoseconds())
	ready, err = unix.Ppoll(relay.pollFDs, &timeout, nil)
	if errors.Is(err, unix.EINTR) {
		ready, err = 0, nil
	}
	return
}

// Readiness of poll entry i, valid only while the slot still holds the polled descriptor
func (relay *Relay) pollEntry(i int) (index int, revents int16, current bool) {
	index = relay.pollSlots[i]
	revents = relay.pollFDs[i].Revents
	fd, used := relay.slots[index].state.descriptor()
	current = used && int32(fd) == relay.pollFDs[i].Fd && revents != 0
	return
}

// Marks entry i handled so later passes in the same tick skip it
func (relay *Relay) consumeEntry(i int) {
	relay.pollFDs[i].Revents = 0
}
