package relay

import (
	"errors"
	"io"
	"net/netip"
	"ser2sockd/internal/acl"
	"ser2sockd/internal/network"
	"ser2sockd/internal/queue/bounded"
	"ser2sockd/internal/queue/mpmc"
	"sync/atomic"
	"time"

	"golang.org/x/sys/unix"
)

var ErrTableFull = errors.New("connection table full")

// Loop phase
type State uint32

const (
	StateIdle State = iota
	StateBinding
	StatePolling
	StateDraining
)

func (state State) String() string {
	switch state {
	case StateIdle:
		return "idle"
	case StateBinding:
		return "binding"
	case StatePolling:
		return "polling"
	case StateDraining:
		return "draining"
	default:
		return "unknown"
	}
}

// Slot contents: emptySlot, listenerSlot or clientSlot
type slotState interface {
	descriptor() (fd int, ok bool)
}

type emptySlot struct{}

type listenerSlot struct {
	fd   int
	addr netip.AddrPort
}

type clientSlot struct {
	fd        int
	peer      netip.AddrPort
	session   string
	connected time.Time
}

func (emptySlot) descriptor() (int, bool)      { return -1, false }
func (s listenerSlot) descriptor() (int, bool) { return s.fd, true }
func (s clientSlot) descriptor() (int, bool)   { return s.fd, true }

// Table entry. The queue belongs to the slot for the relay lifetime and is reused across clients.
type slot struct {
	state slotState
	queue *bounded.Queue
}

type Config struct {
	Enabled        bool
	ListenAddr     netip.AddrPort
	Backlog        int
	MaxConnections int // table size, one slot is taken by the listener
	QueueCapacity  int
	ReadBufferSize int
	InboxSize      uint64
	PollTimeout    time.Duration
	IdleBackoff    time.Duration
	BindRetryDelay time.Duration
	Client         network.ClientOptions
	ACL            string // empty means allow all IPv4
}

// Fan-out relay between one upstream source and a fixed set of TCP clients.
// Tick, Broadcast and Close must be called from a single goroutine.
// Publish, ReplaceACL, SetEnabled, SetConnected and CollectMetrics are safe from any goroutine.
type Relay struct {
	Namespace []string
	cfg       Config

	state     State
	slots     []slot
	nextBind  time.Time
	scratch   []byte
	pollFDs   []unix.PollFd
	pollSlots []int
	boundAddr atomic.Pointer[netip.AddrPort]
	uplink    io.Writer
	acl       atomic.Pointer[acl.Matcher]
	inbox     *mpmc.Queue[[]byte]
	wake      chan struct{} // Signals the idle loop that new work arrived
	enabled   atomic.Bool
	connected atomic.Bool
	lastState atomic.Uint32
	Metrics   *MetricStorage
}

type MetricStorage struct {
	ActiveClients atomic.Uint64 // Clients currently holding a slot
	PeakClients   atomic.Uint64 // Highest concurrent client count

	Accepted         atomic.Uint64 // Clients admitted
	RejectedACL      atomic.Uint64 // Closed at accept, address not allowed
	RejectedCapacity atomic.Uint64 // Closed at accept, no free slot
	TuneFailures     atomic.Uint64 // Closed at accept, socket options could not be applied
	Disconnects      atomic.Uint64 // Client slots cleaned up
	Exceptions       atomic.Uint64 // Clients closed on error or hangup reported by poll

	BytesUp   atomic.Uint64 // Client -> source
	BytesDown atomic.Uint64 // Relay -> clients (sent)

	BroadcastChunks atomic.Uint64 // Chunks offered to Broadcast
	BroadcastDrops  atomic.Uint64 // Per client enqueue rejections (queue full)
	InboxDrops      atomic.Uint64 // Published chunks rejected by a full inbox
	ShortWrites     atomic.Uint64 // Sends that accepted only part of a chunk
	WriteDrops      atomic.Uint64 // Chunks discarded because the socket would block
	UplinkErrors    atomic.Uint64 // Failed writes to the source

	BindFailures atomic.Uint64 // Listener creation failures
	Drains       atomic.Uint64 // Transitions through draining
	Panics       atomic.Uint64 // Recovered tick panics
	Ticks        atomic.Uint64 // Tick invocations
}
