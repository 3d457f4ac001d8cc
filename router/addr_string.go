package router

import "net/netip"

// ipString formats a 128-bit address using the standard library's
// zero-compression rules rather than reimplementing RFC 5952.
func ipString(a Addr) string {
	return netip.AddrFrom16(a).String()
}

// ParseAddr parses standard IPv6 text notation into an Addr.
func ParseAddr(s string) (Addr, error) {
	ip, err := netip.ParseAddr(s)
	if err != nil {
		return Addr{}, err
	}
	ip = ip.Unmap()
	if !ip.Is6() {
		return Addr{}, errNotIPv6(s)
	}
	return ip.As16(), nil
}

type errNotIPv6 string

func (e errNotIPv6) Error() string {
	return "not an ipv6 address: " + string(e)
}
