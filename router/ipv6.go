package router

const (
	ipv6HeaderLen  = 40
	nextHeaderICMP = 0x3a
)

// receiveIPv6 is the forwarding plane's entry point, called with the
// Ethernet payload once Receive has confirmed the frame is IPv6. Every
// failure path is a silent drop with a log line, per spec.md §7.
func (r *Router) receiveIPv6(dev *Device, pkt []byte) {
	if dev.Binding == nil {
		r.log.Debug("drop: device has no ipv6 binding", "device", dev.Name)
		return
	}
	if len(pkt) < ipv6HeaderLen {
		r.log.Debug("drop: packet shorter than ipv6 header", "device", dev.Name, "len", len(pkt))
		return
	}
	if pkt[0]>>4 != 6 {
		r.log.Debug("drop: bad ip version", "device", dev.Name, "version", pkt[0]>>4)
		return
	}

	var src, dst Addr
	copy(src[:], pkt[8:24])
	copy(dst[:], pkt[24:40])
	nextHeader := pkt[6]
	hopLimit := pkt[7]

	if dst.IsMulticast() {
		if !addrLow24Match(dst, dev.Binding.Address) {
			r.log.Debug("drop: multicast not solicited for this interface", "device", dev.Name, "dst", ipString(dst))
			return
		}
		r.deliverLocal(dev, src, dst, nextHeader, pkt[ipv6HeaderLen:])
		return
	}

	if ctxDev, ok := r.findByAddress(dst); ok {
		r.deliverLocal(ctxDev, src, dst, nextHeader, pkt[ipv6HeaderLen:])
		return
	}

	route, ok := r.fib.Search(dst)
	if !ok {
		r.log.Debug("drop: no route", "dst", ipString(dst))
		return
	}

	if hopLimit == 0 {
		r.log.Debug("drop: hop limit already zero on arrival", "dst", ipString(dst))
		return
	}
	hopLimit--
	if hopLimit == 0 {
		r.log.Debug("drop: hop limit exhausted in transit", "dst", ipString(dst))
		return
	}

	fwd := make([]byte, len(pkt))
	copy(fwd, pkt)
	fwd[7] = hopLimit

	switch route.Kind {
	case RouteConnected:
		r.outputToHost(route.Device, dst, fwd)
	case RouteNetwork:
		r.outputToNextHop(route.NextHop, fwd)
	}
}

// addrLow24Match reports whether a and b share their low 24 bits (the
// solicited-node multicast match rule).
func addrLow24Match(a, b Addr) bool {
	return a[13] == b[13] && a[14] == b[14] && a[15] == b[15]
}

// deliverLocal dispatches a packet addressed to this router on Next
// Header; only ICMPv6 is handled.
func (r *Router) deliverLocal(dev *Device, src, dst Addr, nextHeader uint8, payload []byte) {
	switch nextHeader {
	case nextHeaderICMP:
		r.receiveICMPv6(dev, src, dst, payload)
	default:
		r.log.Debug("drop: unsupported next header", "next_header", nextHeader)
	}
}

// outputToHost resolves dst via the neighbor cache and Ethernet-encapsulates
// pkt for a connected destination. A cache miss drops the packet and
// triggers a Neighbor Solicitation, per spec.md §4.5 — there is no
// pending-packet queue for resolution.
func (r *Router) outputToHost(dev *Device, dst Addr, pkt []byte) {
	entry, ok := r.neighbors.Search(dst)
	if !ok {
		r.log.Debug("drop: neighbor miss, emitting solicitation", "device", dev.Name, "dst", ipString(dst))
		r.sendNS(dev, dst)
		return
	}
	r.transmitUnicast(dev, entry.MAC, NewBuffer(pkt))
}

// outputToNextHop resolves nextHop via the neighbor cache directly; on a
// miss it falls back to a FIB lookup of the next hop to find the
// connected device to solicit on, and otherwise drops as unreachable.
func (r *Router) outputToNextHop(nextHop Addr, pkt []byte) {
	entry, ok := r.neighbors.Search(nextHop)
	if ok {
		r.transmitUnicast(entry.Device, entry.MAC, NewBuffer(pkt))
		return
	}

	route, ok := r.fib.Search(nextHop)
	if !ok || route.Kind != RouteConnected {
		r.log.Debug("drop: next hop unreachable", "next_hop", ipString(nextHop))
		return
	}
	r.sendNS(route.Device, nextHop)
}

// buildIPv6Header serializes a 40-byte header: version 6, traffic class
// and flow label zero, for self-originated ICMPv6 output.
func buildIPv6Header(src, dst Addr, nextHeader uint8, hopLimit uint8, payloadLen int) []byte {
	hdr := make([]byte, ipv6HeaderLen)
	hdr[0] = 0x60
	putUint16(hdr[4:6], uint16(payloadLen))
	hdr[6] = nextHeader
	hdr[7] = hopLimit
	copy(hdr[8:24], src[:])
	copy(hdr[24:40], dst[:])
	return hdr
}
