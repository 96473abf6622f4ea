package relay

import (
	"fmt"
	"net/netip"
	"ser2sockd/internal/acl"
)

// Current loop phase as last recorded by the loop
func (relay *Relay) State() State {
	return State(relay.lastState.Load())
}

// Bound listener address, false when not listening
func (relay *Relay) Addr() (addr netip.AddrPort, listening bool) {
	bound := relay.boundAddr.Load()
	if bound == nil {
		return
	}
	addr, listening = *bound, true
	return
}

// Turns the relay on or off. Disabling drains every connection on the next tick.
func (relay *Relay) SetEnabled(enabled bool) {
	relay.enabled.Store(enabled)
	relay.signal()
}

func (relay *Relay) Enabled() bool {
	return relay.enabled.Load()
}

// Reports host connectivity. Losing it drains every connection on the next tick.
func (relay *Relay) SetConnected(connected bool) {
	relay.connected.Store(connected)
	relay.signal()
}

func (relay *Relay) Connected() bool {
	return relay.connected.Load()
}

// Swaps the admission rules. On parse error the current rules stay in effect.
// Existing clients are not re-checked.
func (relay *Relay) ReplaceACL(rules string) (err error) {
	matcher, err := admissionRules(rules)
	if err != nil {
		err = fmt.Errorf("keeping previous acl: %w", err)
		return
	}
	relay.acl.Store(matcher)
	return
}

// Active admission rules in config syntax
func (relay *Relay) ACL() string {
	return relay.acl.Load().String()
}

// Parses rules for admission. A rule string without any entries (blank, only commas) admits any IPv4 peer.
func admissionRules(rules string) (matcher *acl.Matcher, err error) {
	matcher, err = acl.Parse(rules)
	if err != nil {
		return
	}
	if matcher.Len() == 0 {
		matcher, err = acl.Parse(acl.AllowAll)
	}
	return
}
