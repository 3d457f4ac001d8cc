package router

import (
	"golang.org/x/net/ipv6"
)

const (
	icmpTypeEchoRequest           = 128
	icmpTypeEchoReply             = 129
	icmpTypeNeighborSolicitation  = 135
	icmpTypeNeighborAdvertisement = 136

	ndOptSourceLinkLayerAddr = 1
	ndOptTargetLinkLayerAddr = 2

	ndFlagSolicited = 0x40000000
	ndFlagOverride  = 0x20000000

	ndMessageLen    = 32
	echoHeaderLen   = 8
	echoMaxDataLen  = 256
	hopLimitDefault = 0xff
)

// receiveICMPv6 dispatches a locally-delivered ICMPv6 message by type.
// dev is the delivery context device (per spec.md §4.5, the device whose
// binding matched, not necessarily the ingress device); src/dst are the
// enclosing IPv6 header's addresses.
func (r *Router) receiveICMPv6(dev *Device, src, dst Addr, msg []byte) {
	if len(msg) < 1 {
		r.log.Debug("drop: empty icmpv6 message")
		return
	}

	switch msg[0] {
	case icmpTypeNeighborSolicitation:
		r.log.Debug("icmpv6 rx", "type", ipv6.ICMPTypeNeighborSolicitation, "device", dev.Name)
		r.receiveNS(dev, src, msg)
	case icmpTypeNeighborAdvertisement:
		r.log.Debug("icmpv6 rx", "type", ipv6.ICMPTypeNeighborAdvertisement, "device", dev.Name)
		r.receiveNA(dev, msg)
	case icmpTypeEchoRequest:
		r.log.Debug("icmpv6 rx", "type", ipv6.ICMPTypeEchoRequest, "device", dev.Name)
		r.receiveEchoRequest(dev, src, dst, msg)
	default:
		r.log.Debug("drop: unsupported icmpv6 type", "type", msg[0])
	}
}

// receiveNS handles an inbound Neighbor Solicitation: if its target
// matches dev's assigned address, learn the sender's link-layer address
// and reply with a solicited, override Neighbor Advertisement.
func (r *Router) receiveNS(dev *Device, src Addr, msg []byte) {
	if len(msg) < ndMessageLen {
		r.log.Debug("drop: ns message too short")
		return
	}

	var target Addr
	copy(target[:], msg[8:24])
	if dev.Binding == nil || target != dev.Binding.Address {
		r.log.Debug("drop: ns target not this interface", "target", ipString(target))
		return
	}

	var senderMAC MAC
	if msg[24] == ndOptSourceLinkLayerAddr {
		copy(senderMAC[:], msg[26:32])
		r.neighbors.Update(dev, senderMAC, src)
	}

	payload := make([]byte, ndMessageLen)
	payload[0] = icmpTypeNeighborAdvertisement
	putUint32(payload[4:8], ndFlagSolicited|ndFlagOverride)
	copy(payload[8:24], target[:])
	payload[24] = ndOptTargetLinkLayerAddr
	payload[25] = 1
	copy(payload[26:32], dev.MAC[:])
	finalizeICMP(payload, target, src)

	ipHdr := buildIPv6Header(target, src, nextHeaderICMP, hopLimitDefault, len(payload))
	buf := NewBuffer(payload)
	buf.Prepend(ipHdr)
	r.transmitUnicast(dev, senderMAC, buf)
}

// receiveNA handles an inbound Neighbor Advertisement by learning the
// advertised target's link-layer address unconditionally.
func (r *Router) receiveNA(dev *Device, msg []byte) {
	if len(msg) < ndMessageLen {
		r.log.Debug("drop: na message too short")
		return
	}

	var target Addr
	copy(target[:], msg[8:24])
	var mac MAC
	if msg[24] == ndOptTargetLinkLayerAddr {
		copy(mac[:], msg[26:32])
	}
	r.neighbors.Update(dev, mac, target)
}

// receiveEchoRequest answers an Echo Request with an identical-payload
// Echo Reply, routed back through the normal egress path (so an
// unresolved sender still triggers a Neighbor Solicitation rather than a
// hand-rolled send).
func (r *Router) receiveEchoRequest(dev *Device, src, dst Addr, msg []byte) {
	if len(msg) < echoHeaderLen {
		r.log.Debug("drop: echo request too short")
		return
	}
	data := msg[echoHeaderLen:]
	if len(data) > echoMaxDataLen {
		r.log.Debug("drop: echo request payload too large", "len", len(data))
		return
	}

	payload := make([]byte, echoHeaderLen+len(data))
	payload[0] = icmpTypeEchoReply
	copy(payload[4:8], msg[4:8]) // id, seq
	copy(payload[echoHeaderLen:], data)
	finalizeICMP(payload, dst, src)

	ipHdr := buildIPv6Header(dst, src, nextHeaderICMP, hopLimitDefault, len(payload))
	fullPkt := append(ipHdr, payload...)
	r.outputToHost(dev, src, fullPkt)
}

// sendNS emits a Neighbor Solicitation for target on dev, destined to
// target's solicited-node multicast group.
func (r *Router) sendNS(dev *Device, target Addr) {
	if dev.Binding == nil {
		r.log.Debug("drop: cannot solicit from device without a binding", "device", dev.Name)
		return
	}

	payload := make([]byte, ndMessageLen)
	payload[0] = icmpTypeNeighborSolicitation
	copy(payload[8:24], target[:])
	payload[24] = ndOptSourceLinkLayerAddr
	payload[25] = 1
	copy(payload[26:32], dev.MAC[:])

	mcastDst := SolicitedNode(target)
	finalizeICMP(payload, dev.Binding.Address, mcastDst)

	ipHdr := buildIPv6Header(dev.Binding.Address, mcastDst, nextHeaderICMP, hopLimitDefault, len(payload))
	buf := NewBuffer(payload)
	buf.Prepend(ipHdr)
	r.transmitMulticast(dev, mcastDst, buf)
}

// finalizeICMP zeroes payload's checksum field and recomputes it over the
// pseudo-header formed from src/dst, chaining the pseudo-header's
// complemented partial sum as the seed into the payload sum.
func finalizeICMP(payload []byte, src, dst Addr) {
	ph := PseudoHeader{Src: src, Dst: dst, Length: uint32(len(payload)), NextHeader: nextHeaderICMP}
	cs := Checksum16(payload, ph.Seed())
	putUint16(payload[2:4], cs)
}
