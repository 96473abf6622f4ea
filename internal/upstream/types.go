package upstream

import (
	"context"
	"errors"
	"io"
	"ser2sockd/internal/queue/mpmc"
	"sync/atomic"
	"time"
)

var (
	ErrUplinkFull   = errors.New("uplink queue full")
	ErrNotConnected = errors.New("source not connected")
)

const (
	TypeSerial string = "serial"
	TypeTCP    string = "tcp"
)

// Single external data source shared by every relay client
type Source interface {
	// Reads until ctx is done, handing each chunk to publish. Reconnects on failure.
	Run(ctx context.Context, publish func([]byte) bool) error
	// Queues client bytes for the source without blocking
	Write(p []byte) (int, error)
	Name() string
}

type Config struct {
	Type           string
	Device         string
	Baud           int
	ReadTimeout    time.Duration
	Address        string
	ReconnectDelay time.Duration
	ReadBufferSize int
	UplinkSize     uint64
}

// Reconnecting byte stream source (serial device or remote TCP host)
type Link struct {
	Namespace []string
	name      string
	open      func(ctx context.Context) (io.ReadWriteCloser, error)
	delay     time.Duration
	bufSize   int
	uplink    *mpmc.Queue[[]byte]
	connected atomic.Bool
	Metrics   *MetricStorage
}

type MetricStorage struct {
	Connected       atomic.Uint64 // 1 while the stream is open
	Connects        atomic.Uint64 // Successful opens
	ConnectFailures atomic.Uint64 // Failed opens
	Disconnects     atomic.Uint64 // Streams lost after opening
	ChunksRead      atomic.Uint64 // Non-empty reads
	BytesRead       atomic.Uint64 // Source -> relay
	PublishDrops    atomic.Uint64 // Chunks the relay did not accept
	BytesWritten    atomic.Uint64 // Relay -> source
	WriteErrors     atomic.Uint64 // Failed writes to the stream
	UplinkDrops     atomic.Uint64 // Client chunks dropped before reaching the stream
}
