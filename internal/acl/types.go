package acl

import (
	"errors"
	"net/netip"
	"sync"
)

var (
	ErrBadFormatIP   = errors.New("bad address format")
	ErrBadFormatCIDR = errors.New("bad CIDR format")
)

type RuleKind string

const (
	KindAddress RuleKind = "address" // a.b.c.d
	KindCIDR    RuleKind = "cidr"    // a.b.c.d/n
	KindRange   RuleKind = "range"   // a.b.c.d-e.f.g.h
)

// Inclusive address interval, both ends in the same family
type Rule struct {
	Kind   RuleKind
	Start  netip.Addr
	End    netip.Addr
	Prefix netip.Prefix // only for KindCIDR
}

// Ordered set of allowed address intervals
type Matcher struct {
	mu    sync.RWMutex
	rules []Rule
}
