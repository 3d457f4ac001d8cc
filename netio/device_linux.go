// Package netio is the raw packet-socket I/O collaborator: it opens an
// AF_PACKET socket per interface, filters the interface namespace the way
// the original reference's main loop does, and feeds received frames to
// the router core over a channel. It is deliberately outside THE CORE's
// scope (spec.md §1 "external collaborator") but is what makes the
// program actually move bytes.
package netio

import (
	"context"
	"fmt"
	"net"

	"golang.org/x/sys/unix"

	"sixrouter/router"
)

// ignoredInterfaces mirrors the original's IGNORE_INTERFACES list
// (original_source/main.cpp): virtual/bonding interfaces that should never
// be bound as router-facing devices.
var ignoredInterfaces = map[string]bool{
	"lo":     true,
	"bond0":  true,
	"dummy0": true,
	"tunl0":  true,
	"sit0":   true,
}

// ListInterfaces returns the names of every system interface not on the
// ignore list.
func ListInterfaces() ([]string, error) {
	ifaces, err := net.Interfaces()
	if err != nil {
		return nil, fmt.Errorf("netio: enumerate interfaces: %w", err)
	}
	var names []string
	for _, ifc := range ifaces {
		if ignoredInterfaces[ifc.Name] {
			continue
		}
		names = append(names, ifc.Name)
	}
	return names, nil
}

// htons converts a host-order uint16 to network order, matching the
// original's use of htons() around ETH_P_IPV6 in its socket() call.
func htons(v uint16) uint16 {
	return v<<8 | v>>8
}

const ethPIPv6 = 0x86dd

// RawSocket is an AF_PACKET/SOCK_RAW socket bound to one interface,
// filtered at the kernel level to IPv6 ethertype frames.
type RawSocket struct {
	name    string
	fd      int
	ifIndex int
	mac     router.MAC
}

// OpenRawSocket binds a new raw socket to the named interface. Names on
// ignoredInterfaces are refused here, at the single point every caller
// (config-driven startup or otherwise) funnels through, rather than relying
// on each caller to have pre-filtered against ListInterfaces.
func OpenRawSocket(name string) (*RawSocket, error) {
	if ignoredInterfaces[name] {
		return nil, fmt.Errorf("netio: %s is an ignored interface, refusing to bind", name)
	}

	ifc, err := net.InterfaceByName(name)
	if err != nil {
		return nil, fmt.Errorf("netio: lookup interface %s: %w", name, err)
	}

	fd, err := unix.Socket(unix.AF_PACKET, unix.SOCK_RAW, int(htons(ethPIPv6)))
	if err != nil {
		return nil, fmt.Errorf("netio: open raw socket on %s: %w", name, err)
	}

	addr := &unix.SockaddrLinklayer{
		Protocol: htons(ethPIPv6),
		Ifindex:  ifc.Index,
	}
	if err := unix.Bind(fd, addr); err != nil {
		unix.Close(fd)
		return nil, fmt.Errorf("netio: bind raw socket on %s: %w", name, err)
	}
	if err := unix.SetNonblock(fd, true); err != nil {
		unix.Close(fd)
		return nil, fmt.Errorf("netio: set nonblocking on %s: %w", name, err)
	}

	var mac router.MAC
	copy(mac[:], ifc.HardwareAddr)

	return &RawSocket{name: name, fd: fd, ifIndex: ifc.Index, mac: mac}, nil
}

// MAC returns the interface's hardware address.
func (s *RawSocket) MAC() router.MAC { return s.mac }

// Send implements router.Sink, writing frame directly to the socket. A
// short write is surfaced as an error so the router treats it as a drop.
func (s *RawSocket) Send(frame []byte) error {
	n, err := unix.Write(s.fd, frame)
	if err != nil {
		return fmt.Errorf("netio: write to %s: %w", s.name, err)
	}
	if n != len(frame) {
		return fmt.Errorf("netio: short write to %s: %d of %d bytes", s.name, n, len(frame))
	}
	return nil
}

// Close releases the underlying file descriptor.
func (s *RawSocket) Close() error {
	return unix.Close(s.fd)
}

// maxReadLen matches the packet buffer line-size cap; no received frame
// can usefully exceed it either.
const maxReadLen = 1550

// Frame pairs a received byte slice with the device it arrived on, ready
// for the dispatcher goroutine to hand to router.Router.Receive.
type Frame struct {
	Device *router.Device
	Bytes  []byte
}

// Run blocks reading frames from sock and forwarding them on out, tagged
// with dev, until ctx is cancelled. Each device runs its own goroutine
// calling Run; the dispatcher goroutine draining out is the only caller
// of router.Router.Receive, preserving the single-owner invariant spec.md
// §5 requires of the FIB and neighbor cache.
func Run(ctx context.Context, sock *RawSocket, dev *router.Device, out chan<- Frame) {
	buf := make([]byte, maxReadLen)
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		n, err := unix.Read(sock.fd, buf)
		if err != nil {
			if err == unix.EAGAIN || err == unix.EWOULDBLOCK {
				continue
			}
			return
		}
		if n == 0 {
			continue
		}

		cp := make([]byte, n)
		copy(cp, buf[:n])

		select {
		case out <- Frame{Device: dev, Bytes: cp}:
		case <-ctx.Done():
			return
		}
	}
}
