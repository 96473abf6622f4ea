package relay

// Offers buf to every connected client queue. Full queues drop it for that client only.
// Loop goroutine only; other goroutines use Publish.
func (relay *Relay) Broadcast(buf []byte) (accepted int) {
	if len(buf) == 0 {
		return
	}
	relay.Metrics.BroadcastChunks.Add(1)

	for i := range relay.slots {
		if _, isClient := relay.slots[i].state.(clientSlot); !isClient {
			continue
		}
		if relay.slots[i].queue.Enqueue(buf, len(buf)) {
			accepted++
		} else {
			relay.Metrics.BroadcastDrops.Add(1)
		}
	}
	return
}

// Hands a copy of buf to the loop for broadcast on its next tick
func (relay *Relay) Publish(buf []byte) (success bool) {
	if len(buf) == 0 {
		return
	}

	chunk := make([]byte, len(buf))
	copy(chunk, buf)

	success = relay.inbox.Push(chunk, len(chunk))
	if !success {
		relay.Metrics.InboxDrops.Add(1)
		return
	}
	relay.signal()
	return
}

// Broadcasts everything published since the last tick.
// Bounded by inbox size so a fast producer cannot starve the poll.
func (relay *Relay) drainInbox() (count int) {
	for count < relay.inbox.Size {
		chunk, ok := relay.inbox.TryPop(chunkSize)
		if !ok {
			return
		}
		relay.Broadcast(chunk)
		count++
	}
	return
}

func (relay *Relay) signal() {
	select {
	case relay.wake <- struct{}{}:
	default:
	}
}

func chunkSize(chunk []byte) int { return len(chunk) }
