// Package router implements the forwarding core of a userspace IPv6 router:
// a Patricia trie FIB, a Neighbor Discovery cache, an Ethernet codec, the
// IPv6 forwarding plane, and the minimal ICMPv6 stack needed to participate
// in a subnet (Neighbor Solicitation/Advertisement, Echo Request).
package router

import "fmt"

// Addr is a 128-bit IPv6 address, stored big-endian: byte 0 is the most
// significant byte, and within each byte bit 7 is the most significant bit.
type Addr [16]byte

// AddrFromSlice copies a 16-byte big-endian address out of b.
func AddrFromSlice(b []byte) Addr {
	var a Addr
	copy(a[:], b)
	return a
}

// String renders the address in standard IPv6 text form.
func (a Addr) String() string {
	// Defer to net/netip's formatter rather than reinventing RFC 5952
	// zero-compression.
	return ipString(a)
}

// GetBit returns the bit at position i (0 is the most significant bit of
// byte 0). i must be in [0, 128).
func (a Addr) GetBit(i int) int {
	byteIdx := i / 8
	bitIdx := 7 - (i % 8)
	return int((a[byteIdx] >> uint(bitIdx)) & 1)
}

// IsMulticast reports whether a falls in ff00::/8.
func (a Addr) IsMulticast() bool {
	return a[0] == 0xff
}

// IsZero reports whether a is the unspecified address.
func (a Addr) IsZero() bool {
	return a == Addr{}
}

// ClearPrefix zeroes all bits with index >= n, canonicalizing a stored FIB
// key so that only the meaningful prefix bits remain set.
func ClearPrefix(a Addr, n int) Addr {
	if n >= 128 {
		return a
	}
	if n < 0 {
		n = 0
	}
	out := a
	// Bytes entirely beyond the prefix are zeroed outright.
	fullBytes := n / 8
	for i := fullBytes + 1; i < 16; i++ {
		out[i] = 0
	}
	// The byte straddling the boundary keeps only its top (n%8) bits.
	if rem := n % 8; fullBytes < 16 {
		mask := byte(0xff) << uint(8-rem)
		out[fullBytes] &= mask
	}
	return out
}

// MatchLen returns the length of the longest common prefix of a and b over
// bits [0, end], stopping at the first bit that differs.
func MatchLen(a, b Addr, end int) int {
	count := 0
	for i := 0; i <= end; i++ {
		if a.GetBit(i) != b.GetBit(i) {
			return count
		}
		count++
	}
	return count
}

// solicitedNodePrefix is ff02::1:ff00:0/104.
var solicitedNodePrefix = Addr{0xff, 0x02, 0, 0, 0, 0, 0, 0, 0, 0, 0, 1, 0xff, 0, 0, 0}

// SolicitedNode derives the solicited-node multicast address for target:
// ff02::1:ff00:0/104 concatenated with the low 24 bits of target.
func SolicitedNode(target Addr) Addr {
	out := solicitedNodePrefix
	out[13] = target[13]
	out[14] = target[14]
	out[15] = target[15]
	return out
}

// MAC is an Ethernet hardware address.
type MAC [6]byte

func (m MAC) String() string {
	return fmt.Sprintf("%02x:%02x:%02x:%02x:%02x:%02x", m[0], m[1], m[2], m[3], m[4], m[5])
}

// IsZero reports whether m is the all-zero address.
func (m MAC) IsZero() bool {
	return m == MAC{}
}

// BroadcastMAC is the Ethernet broadcast address.
var BroadcastMAC = MAC{0xff, 0xff, 0xff, 0xff, 0xff, 0xff}

// IsIPv6Multicast reports whether m carries the 33:33 IPv6-multicast prefix.
func (m MAC) IsIPv6Multicast() bool {
	return m[0] == 0x33 && m[1] == 0x33
}

// SolicitedNodeMAC returns the Ethernet destination for an IPv6 multicast
// address: 33:33 followed by the low 32 bits of addr.
func SolicitedNodeMAC(addr Addr) MAC {
	return MAC{0x33, 0x33, addr[12], addr[13], addr[14], addr[15]}
}
