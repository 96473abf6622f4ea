package network

import (
	"fmt"
	"net/netip"

	"golang.org/x/sys/unix"
)

// Converts a kernel socket address to netip form (zero value for non-IP families)
func FromSockaddr(sa unix.Sockaddr) (addr netip.AddrPort) {
	switch v := sa.(type) {
	case *unix.SockaddrInet4:
		addr = netip.AddrPortFrom(netip.AddrFrom4(v.Addr), uint16(v.Port))
	case *unix.SockaddrInet6:
		addr = netip.AddrPortFrom(netip.AddrFrom16(v.Addr).Unmap(), uint16(v.Port))
	}
	return
}

// Converts netip address into the matching kernel socket address
func ToSockaddr(addr netip.AddrPort) (sa unix.Sockaddr) {
	ip := addr.Addr()
	if ip.Is4() || ip.Is4In6() {
		sa = &unix.SockaddrInet4{Port: int(addr.Port()), Addr: ip.Unmap().As4()}
		return
	}
	sa = &unix.SockaddrInet6{Port: int(addr.Port()), Addr: ip.As16()}
	return
}

// Builds listen address from host text and port. Host is an IP literal or a local interface name.
func ParseListenAddr(host string, port int) (addr netip.AddrPort, err error) {
	if port < 0 || port > 65535 {
		err = fmt.Errorf("invalid port %d", port)
		return
	}

	ip, err := netip.ParseAddr(host)
	if err != nil {
		var ifaceErr error
		ip, ifaceErr = InterfaceAddress(host)
		if ifaceErr != nil {
			err = fmt.Errorf("invalid listen address '%s': %v (%v)", host, err, ifaceErr)
			return
		}
		err = nil
	}
	addr = netip.AddrPortFrom(ip, uint16(port))
	return
}
