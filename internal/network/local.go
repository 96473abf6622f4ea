package network

import (
	"fmt"
	"net"
	"net/netip"
)

// First usable address assigned to the named interface, IPv4 preferred
func InterfaceAddress(name string) (addr netip.Addr, err error) {
	iface, err := net.InterfaceByName(name)
	if err != nil {
		err = fmt.Errorf("unknown interface '%s': %v", name, err)
		return
	}

	addrs, err := iface.Addrs()
	if err != nil {
		err = fmt.Errorf("failed to list addresses of '%s': %v", name, err)
		return
	}

	var fallback netip.Addr
	for _, a := range addrs {
		ipNet, ok := a.(*net.IPNet)
		if !ok {
			continue
		}
		ip, ok := netip.AddrFromSlice(ipNet.IP)
		if !ok || ip.IsLinkLocalUnicast() {
			continue
		}
		ip = ip.Unmap()
		if ip.Is4() {
			addr = ip
			return
		}
		if !fallback.IsValid() {
			fallback = ip
		}
	}

	if !fallback.IsValid() {
		err = fmt.Errorf("no usable address on interface '%s'", name)
		return
	}
	addr = fallback
	return
}

// Reports whether any non-loopback interface is up with a routable address
func hasRoutableInterface() (found bool, err error) {
	ifaces, err := net.Interfaces()
	if err != nil {
		return
	}

	for _, iface := range ifaces {
		if iface.Flags&net.FlagUp == 0 || iface.Flags&net.FlagLoopback != 0 {
			continue
		}

		addrs, addrErr := iface.Addrs()
		if addrErr != nil {
			continue
		}
		for _, a := range addrs {
			ipNet, ok := a.(*net.IPNet)
			if ok && !ipNet.IP.IsLinkLocalUnicast() && !ipNet.IP.IsLoopback() {
				found = true
				return
			}
		}
	}
	return
}
