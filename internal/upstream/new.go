// Upstream data sources: a local serial device or a remote ser2sock host
package upstream

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"ser2sockd/internal/global"
	"ser2sockd/internal/queue/mpmc"
	"time"

	"github.com/tarm/serial"
)

// Creates the source described by cfg
func New(namespace []string, cfg Config) (link *Link, err error) {
	if cfg.ReconnectDelay <= 0 {
		cfg.ReconnectDelay = global.DefaultReconnectDelay
	}
	if cfg.ReadBufferSize < 1 {
		cfg.ReadBufferSize = global.DefaultReadBufferSize
	}
	if cfg.UplinkSize < 2 {
		cfg.UplinkSize = global.DefaultUplinkSize
	}

	link = &Link{
		Namespace: append(append([]string{}, namespace...), global.NSSource),
		delay:     cfg.ReconnectDelay,
		bufSize:   cfg.ReadBufferSize,
		Metrics:   &MetricStorage{},
	}

	switch cfg.Type {
	case TypeSerial, "":
		if cfg.Device == "" {
			cfg.Device = global.DefaultSerialDevice
		}
		if cfg.Baud <= 0 {
			cfg.Baud = global.DefaultSerialBaud
		}
		if cfg.ReadTimeout <= 0 {
			cfg.ReadTimeout = global.DefaultSerialTimeout
		}
		link.name = TypeSerial + ":" + cfg.Device
		link.open = serialOpener(cfg.Device, cfg.Baud, cfg.ReadTimeout)
	case TypeTCP:
		if cfg.Address == "" {
			err = fmt.Errorf("tcp source requires an address")
			link = nil
			return
		}
		_, _, err = net.SplitHostPort(cfg.Address)
		if err != nil {
			err = fmt.Errorf("invalid tcp source address '%s': %v", cfg.Address, err)
			link = nil
			return
		}
		link.name = TypeTCP + ":" + cfg.Address
		link.open = tcpOpener(cfg.Address)
	default:
		err = fmt.Errorf("unknown source type '%s' (expected %s or %s)", cfg.Type, TypeSerial, TypeTCP)
		link = nil
		return
	}

	link.uplink, err = mpmc.New[[]byte](append(append([]string{}, link.Namespace...), global.NSUplink), cfg.UplinkSize)
	if err != nil {
		err = fmt.Errorf("failed creating uplink queue: %v", err)
		link = nil
		return
	}
	return
}

func (link *Link) Name() string {
	return link.name
}

// Serial port with read timeouts reported as empty reads instead of EOF
type serialPort struct {
	*serial.Port
}

func (port serialPort) Read(p []byte) (n int, err error) {
	n, err = port.Port.Read(p)
	if n == 0 && errors.Is(err, io.EOF) {
		err = nil
	}
	return
}

func serialOpener(device string, baud int, readTimeout time.Duration) func(context.Context) (io.ReadWriteCloser, error) {
	return func(ctx context.Context) (stream io.ReadWriteCloser, err error) {
		port, err := serial.OpenPort(&serial.Config{
			Name:        device,
			Baud:        baud,
			ReadTimeout: readTimeout,
		})
		if err != nil {
			err = fmt.Errorf("failed to open serial device %s: %v", device, err)
			return
		}
		stream = serialPort{Port: port}
		return
	}
}
