package router

const (
	ethernetHeaderLen = 14
	etherTypeIPv6     = 0x86dd
)

// Receive is the core's single ingress entry point: parse the Ethernet
// header, apply the destination-MAC filter, and dispatch on ethertype.
// Every failure path here is a silent drop with a log line; nothing
// propagates as an error, per spec.md §7.
func (r *Router) Receive(dev *Device, frame []byte) {
	if len(frame) < ethernetHeaderLen {
		r.log.Debug("drop: frame shorter than ethernet header", "device", dev.Name, "len", len(frame))
		return
	}

	var dst, src MAC
	copy(dst[:], frame[0:6])
	copy(src[:], frame[6:12])
	etherType := getUint16(frame[12:14])

	if !r.acceptsDestMAC(dev, dst) {
		r.log.Debug("drop: destination mac not for this device", "device", dev.Name, "dst", dst.String())
		return
	}

	if etherType != etherTypeIPv6 {
		r.log.Debug("drop: unsupported ethertype", "device", dev.Name, "ethertype", etherType)
		return
	}

	r.receiveIPv6(dev, frame[ethernetHeaderLen:])
}

// acceptsDestMAC reports whether dst is this device's own unicast address,
// the broadcast address, or an IPv6 multicast MAC.
func (r *Router) acceptsDestMAC(dev *Device, dst MAC) bool {
	return dst == dev.MAC || dst == BroadcastMAC || dst.IsIPv6Multicast()
}

// buildEthernetHeader serializes a 14-byte {dst, src, ethertype} header.
func buildEthernetHeader(dst, src MAC, etherType uint16) []byte {
	hdr := make([]byte, ethernetHeaderLen)
	copy(hdr[0:6], dst[:])
	copy(hdr[6:12], src[:])
	putUint16(hdr[12:14], etherType)
	return hdr
}

// transmitUnicast prepends an Ethernet header addressed to dstMAC and
// hands the serialized frame to dev's sink. Over-length and send failures
// are dropped with a log line; the buffer's header run is the only
// allocation released along that path (no separate free step is needed in
// Go, but every exit still ends in drop-and-log as spec.md requires).
func (r *Router) transmitUnicast(dev *Device, dstMAC MAC, buf *Buffer) {
	buf.Prepend(buildEthernetHeader(dstMAC, dev.MAC, etherTypeIPv6))
	r.transmit(dev, buf)
}

// transmitMulticast prepends an Ethernet header whose destination MAC is
// 33:33 followed by the low 32 bits of dstAddr, per the IPv6 multicast
// egress rule.
func (r *Router) transmitMulticast(dev *Device, dstAddr Addr, buf *Buffer) {
	dstMAC := MAC{0x33, 0x33, dstAddr[12], dstAddr[13], dstAddr[14], dstAddr[15]}
	buf.Prepend(buildEthernetHeader(dstMAC, dev.MAC, etherTypeIPv6))
	r.transmit(dev, buf)
}

func (r *Router) transmit(dev *Device, buf *Buffer) {
	frame, err := buf.Serialize()
	if err != nil {
		r.log.Warn("drop: egress frame over length cap", "device", dev.Name, "err", err)
		return
	}
	if dev.Sink == nil {
		r.log.Warn("drop: device has no transmit sink", "device", dev.Name)
		return
	}
	if err := dev.Sink.Send(frame); err != nil {
		r.log.Warn("drop: transmit sink error", "device", dev.Name, "err", err)
	}
}
