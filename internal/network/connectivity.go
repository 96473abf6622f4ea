package network

import (
	"context"
	"fmt"
	"sync"

	"github.com/godbus/dbus/v5"
)

const (
	nmBusName    string          = "org.freedesktop.NetworkManager"
	nmObjectPath dbus.ObjectPath = "/org/freedesktop/NetworkManager"
	nmStateProp  string          = "State"

	// NM_STATE_CONNECTED_LOCAL, anything at or above has a usable LAN
	nmStateConnectedLocal uint32 = 50
)

// Answers whether the host currently has network connectivity
type Monitor interface {
	Connected(ctx context.Context) (up bool, err error)
}

// Monitor that is always connected
type AlwaysUp struct{}

func (AlwaysUp) Connected(context.Context) (bool, error) { return true, nil }

// Monitor based on local interface state
type InterfaceMonitor struct{}

func (InterfaceMonitor) Connected(context.Context) (up bool, err error) {
	up, err = hasRoutableInterface()
	if err != nil {
		err = fmt.Errorf("failed to list interfaces: %v", err)
	}
	return
}

// Monitor that asks NetworkManager over the system bus
type NMMonitor struct {
	mu   sync.Mutex
	conn *dbus.Conn
}

func (monitor *NMMonitor) Connected(ctx context.Context) (up bool, err error) {
	monitor.mu.Lock()
	defer monitor.mu.Unlock()

	if monitor.conn == nil {
		monitor.conn, err = dbus.ConnectSystemBus(dbus.WithContext(ctx))
		if err != nil {
			monitor.conn = nil
			err = fmt.Errorf("failed to connect to system bus: %v", err)
			return
		}
	}

	var state dbus.Variant
	err = monitor.conn.Object(nmBusName, nmObjectPath).
		CallWithContext(ctx, "org.freedesktop.DBus.Properties.Get", 0, nmBusName, nmStateProp).
		Store(&state)
	if err != nil {
		monitor.conn.Close()
		monitor.conn = nil
		err = fmt.Errorf("failed to query NetworkManager state: %v", err)
		return
	}

	value, ok := state.Value().(uint32)
	if !ok {
		err = fmt.Errorf("unexpected NetworkManager state type %s", state.Signature())
		return
	}
	up = value >= nmStateConnectedLocal
	return
}

func (monitor *NMMonitor) Close() {
	monitor.mu.Lock()
	defer monitor.mu.Unlock()
	if monitor.conn != nil {
		monitor.conn.Close()
		monitor.conn = nil
	}
}

// Prefers NetworkManager, falls back to interface inspection when the bus is unavailable
type AutoMonitor struct {
	NM       *NMMonitor
	Fallback InterfaceMonitor
}

func NewAutoMonitor() (monitor *AutoMonitor) {
	monitor = &AutoMonitor{NM: &NMMonitor{}}
	return
}

func (monitor *AutoMonitor) Connected(ctx context.Context) (up bool, err error) {
	up, nmErr := monitor.NM.Connected(ctx)
	if nmErr == nil {
		return
	}
	up, err = monitor.Fallback.Connected(ctx)
	return
}

func (monitor *AutoMonitor) Close() {
	monitor.NM.Close()
}
