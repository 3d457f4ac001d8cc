package router

import "testing"

func setupSingleDeviceRouter(t *testing.T, addr string) (*Router, *Device, *fakeSink) {
	t.Helper()
	r := newTestRouter()
	dev, sink := newTestDevice("d1", MAC{0x02, 0, 0, 0, 0, 1})
	r.RegisterDevice(dev)
	if err := r.ConfigureAddress("d1", mustAddr(t, addr), 64); err != nil {
		t.Fatalf("ConfigureAddress: %v", err)
	}
	return r, dev, sink
}

func buildNSMessage(target Addr, senderMAC MAC) []byte {
	msg := make([]byte, ndMessageLen)
	msg[0] = icmpTypeNeighborSolicitation
	copy(msg[8:24], target[:])
	msg[24] = ndOptSourceLinkLayerAddr
	msg[25] = 1
	copy(msg[26:32], senderMAC[:])
	return msg
}

func TestReceiveNSRespondsWithSolicitedOverrideNA(t *testing.T) {
	r, dev, sink := setupSingleDeviceRouter(t, "2001:db8:0:1001::1")
	ourAddr := dev.Binding.Address
	senderAddr := mustAddr(t, "2001:db8:0:1001::2")
	senderMAC := MAC{0x96, 0xe0, 0x07, 0xc6, 0x7f, 0xe1}

	msg := buildNSMessage(ourAddr, senderMAC)
	finalizeICMP(msg, senderAddr, ourAddr)

	r.receiveNS(dev, senderAddr, msg)

	if len(sink.sent) != 1 {
		t.Fatalf("sent %d frames, want 1", len(sink.sent))
	}
	frame := sink.sent[0]
	icmp := frame[ethernetHeaderLen+ipv6HeaderLen:]
	if icmp[0] != icmpTypeNeighborAdvertisement {
		t.Fatalf("reply type = %d, want %d", icmp[0], icmpTypeNeighborAdvertisement)
	}
	flags := getUint32(icmp[4:8])
	if flags&ndFlagSolicited == 0 || flags&ndFlagOverride == 0 {
		t.Errorf("flags = %#08x, want solicited|override set", flags)
	}
	var gotTarget Addr
	copy(gotTarget[:], icmp[8:24])
	if gotTarget != ourAddr {
		t.Errorf("target = %s, want %s", gotTarget, ourAddr)
	}
	var gotMAC MAC
	copy(gotMAC[:], icmp[26:32])
	if gotMAC != dev.MAC {
		t.Errorf("option mac = %s, want %s", gotMAC, dev.MAC)
	}

	entry, ok := r.neighbors.Search(senderAddr)
	if !ok || entry.MAC != senderMAC {
		t.Errorf("neighbor cache after NS = %+v, %v; want sender mac %s", entry, ok, senderMAC)
	}
}

func TestReceiveNSIgnoresWrongTarget(t *testing.T) {
	r, dev, sink := setupSingleDeviceRouter(t, "2001:db8::1")
	wrongTarget := mustAddr(t, "2001:db8::99")
	msg := buildNSMessage(wrongTarget, MAC{0x02, 0, 0, 0, 0, 2})

	r.receiveNS(dev, mustAddr(t, "2001:db8::2"), msg)
	if len(sink.sent) != 0 {
		t.Error("expected no reply for NS targeting a foreign address")
	}
}

func TestReceiveEchoRequestRepliesWithSamePayload(t *testing.T) {
	r, dev, sink := setupSingleDeviceRouter(t, "2001:db8::1")
	ourAddr := dev.Binding.Address
	senderAddr := mustAddr(t, "2001:db8::2")
	senderMAC := MAC{0x02, 0, 0, 0, 0, 2}
	r.neighbors.Update(dev, senderMAC, senderAddr)

	data := make([]byte, 32)
	for i := range data {
		data[i] = byte(i)
	}
	msg := make([]byte, echoHeaderLen+len(data))
	msg[0] = icmpTypeEchoRequest
	putUint16(msg[4:6], 0x1234)
	putUint16(msg[6:8], 7)
	copy(msg[echoHeaderLen:], data)
	finalizeICMP(msg, senderAddr, ourAddr)

	r.receiveEchoRequest(dev, senderAddr, ourAddr, msg)

	if len(sink.sent) != 1 {
		t.Fatalf("sent %d frames, want 1", len(sink.sent))
	}
	frame := sink.sent[0]
	ipHdr := frame[ethernetHeaderLen : ethernetHeaderLen+ipv6HeaderLen]
	var gotSrc, gotDst Addr
	copy(gotSrc[:], ipHdr[8:24])
	copy(gotDst[:], ipHdr[24:40])
	if gotSrc != ourAddr || gotDst != senderAddr {
		t.Errorf("reply src/dst = %s/%s, want %s/%s", gotSrc, gotDst, ourAddr, senderAddr)
	}

	icmp := frame[ethernetHeaderLen+ipv6HeaderLen:]
	if icmp[0] != icmpTypeEchoReply {
		t.Fatalf("reply type = %d, want %d", icmp[0], icmpTypeEchoReply)
	}
	if getUint16(icmp[4:6]) != 0x1234 || getUint16(icmp[6:8]) != 7 {
		t.Errorf("id/seq not echoed: %x/%x", icmp[4:6], icmp[6:8])
	}
	for i, b := range data {
		if icmp[echoHeaderLen+i] != b {
			t.Fatalf("payload mismatch at %d: got %#02x, want %#02x", i, icmp[echoHeaderLen+i], b)
		}
	}

	ph := PseudoHeader{Src: ourAddr, Dst: senderAddr, Length: uint32(len(icmp)), NextHeader: nextHeaderICMP}
	if Checksum16(icmp, ph.Seed()) != 0 {
		t.Error("echo reply checksum does not validate")
	}
}

func TestReceiveEchoRequestDropsOversizedPayload(t *testing.T) {
	r, dev, sink := setupSingleDeviceRouter(t, "2001:db8::1")
	msg := make([]byte, echoHeaderLen+echoMaxDataLen+1)
	msg[0] = icmpTypeEchoRequest

	r.receiveEchoRequest(dev, mustAddr(t, "2001:db8::2"), dev.Binding.Address, msg)
	if len(sink.sent) != 0 {
		t.Error("expected oversized echo request to be dropped")
	}
}

func TestSendNSTargetsSolicitedNodeMulticast(t *testing.T) {
	r, dev, sink := setupSingleDeviceRouter(t, "2001:db8:0:1000::1")
	target := mustAddr(t, "2001:db8:0:1000::2")

	r.sendNS(dev, target)

	if len(sink.sent) != 1 {
		t.Fatalf("sent %d frames, want 1", len(sink.sent))
	}
	frame := sink.sent[0]
	var dstMAC MAC
	copy(dstMAC[:], frame[0:6])
	if dstMAC != (MAC{0x33, 0x33, 0xff, 0x00, 0x00, 0x02}) {
		t.Errorf("dst mac = %s, want 33:33:ff:00:00:02", dstMAC)
	}

	ipHdr := frame[ethernetHeaderLen : ethernetHeaderLen+ipv6HeaderLen]
	var dstAddr Addr
	copy(dstAddr[:], ipHdr[24:40])
	if dstAddr != mustAddr(t, "ff02::1:ff00:2") {
		t.Errorf("dst addr = %s, want ff02::1:ff00:2", dstAddr)
	}

	icmp := frame[ethernetHeaderLen+ipv6HeaderLen:]
	if icmp[0] != icmpTypeNeighborSolicitation {
		t.Fatalf("type = %d, want %d", icmp[0], icmpTypeNeighborSolicitation)
	}
	var gotTarget Addr
	copy(gotTarget[:], icmp[8:24])
	if gotTarget != target {
		t.Errorf("ns target = %s, want %s", gotTarget, target)
	}
	var optMAC MAC
	copy(optMAC[:], icmp[26:32])
	if optMAC != dev.MAC {
		t.Errorf("source link-layer option mac = %s, want %s", optMAC, dev.MAC)
	}
}

func TestReceiveNALearnsTarget(t *testing.T) {
	r, dev, _ := setupSingleDeviceRouter(t, "2001:db8::1")
	target := mustAddr(t, "2001:db8::2")
	mac := MAC{0xaa, 0xbb, 0xcc, 0xdd, 0xee, 0xff}

	msg := make([]byte, ndMessageLen)
	msg[0] = icmpTypeNeighborAdvertisement
	copy(msg[8:24], target[:])
	msg[24] = ndOptTargetLinkLayerAddr
	msg[25] = 1
	copy(msg[26:32], mac[:])

	r.receiveNA(dev, msg)

	entry, ok := r.neighbors.Search(target)
	if !ok || entry.MAC != mac {
		t.Errorf("neighbor after NA = %+v, %v; want mac %s", entry, ok, mac)
	}
}
