package acl

import (
	"fmt"
	"net/netip"
	"strings"
)

// Parses one comma separated entry
func parseRule(entry string) (rule Rule, err error) {
	if strings.Contains(entry, "/") {
		var prefix netip.Prefix
		prefix, err = netip.ParsePrefix(entry)
		if err != nil {
			err = fmt.Errorf("%w: '%s'", ErrBadFormatCIDR, entry)
			return
		}
		prefix = prefix.Masked()
		if prefix.Addr().Is4In6() && prefix.Bits() >= 96 {
			prefix = netip.PrefixFrom(prefix.Addr().Unmap(), prefix.Bits()-96)
		}

		rule = Rule{
			Kind:   KindCIDR,
			Start:  prefix.Addr(),
			End:    lastAddr(prefix),
			Prefix: prefix,
		}
		return
	}

	if startStr, endStr, isRange := strings.Cut(entry, "-"); isRange {
		var start, end netip.Addr
		start, err = parseAddr(startStr)
		if err != nil {
			return
		}
		end, err = parseAddr(endStr)
		if err != nil {
			return
		}
		if start.BitLen() != end.BitLen() {
			err = fmt.Errorf("%w: range '%s' mixes address families", ErrBadFormatIP, entry)
			return
		}
		if end.Less(start) {
			err = fmt.Errorf("%w: range '%s' ends before it starts", ErrBadFormatIP, entry)
			return
		}

		rule = Rule{Kind: KindRange, Start: start, End: end}
		return
	}

	addr, err := parseAddr(entry)
	if err != nil {
		return
	}
	rule = Rule{Kind: KindAddress, Start: addr, End: addr}
	return
}

func parseAddr(text string) (addr netip.Addr, err error) {
	text = strings.TrimSpace(text)
	addr, err = netip.ParseAddr(text)
	if err != nil || addr.Zone() != "" {
		err = fmt.Errorf("%w: '%s'", ErrBadFormatIP, text)
		return
	}
	addr = addr.Unmap()
	return
}

// Highest address inside a masked prefix
func lastAddr(prefix netip.Prefix) (last netip.Addr) {
	raw := prefix.Addr().AsSlice()
	hostBits := len(raw)*8 - prefix.Bits()

	for i := len(raw) - 1; i >= 0 && hostBits > 0; i-- {
		if hostBits >= 8 {
			raw[i] = 0xff
			hostBits -= 8
			continue
		}
		raw[i] |= byte(1<<hostBits) - 1
		hostBits = 0
	}

	last, _ = netip.AddrFromSlice(raw)
	return
}

func (rule Rule) String() string {
	switch rule.Kind {
	case KindCIDR:
		return rule.Prefix.String()
	case KindRange:
		return rule.Start.String() + "-" + rule.End.String()
	default:
		return rule.Start.String()
	}
}

func (rule Rule) contains(addr netip.Addr) bool {
	if addr.BitLen() != rule.Start.BitLen() {
		return false
	}
	return addr.Compare(rule.Start) >= 0 && addr.Compare(rule.End) <= 0
}
