package router

import (
	"fmt"
	"io"
)

// neighborBuckets is the bucket count for the neighbor cache's hash table,
// matching the original's 1111 (which is 11 × 101, not a prime).
const neighborBuckets = 1111

// neighborEntry is one link of a bucket's collision chain.
type neighborEntry struct {
	addr Addr
	mac  MAC
	dev  *Device
	next *neighborEntry
}

// NeighborEntry is a resolved (MAC, device) pair returned by Search.
type NeighborEntry struct {
	Address Addr
	MAC     MAC
	Device  *Device
}

// NeighborTable is a bucketed hash-chained neighbor cache mapping a
// 128-bit IPv6 address to its resolved MAC and egress device. No eviction
// or aging: entries live until process exit.
type NeighborTable struct {
	buckets [neighborBuckets]*neighborEntry
}

// NewNeighborTable returns an empty neighbor cache.
func NewNeighborTable() *NeighborTable {
	return &NeighborTable{}
}

// hashAddr sums the address's four 32-bit words and reduces mod the
// bucket count, the same scheme as the reference implementation.
func hashAddr(addr Addr) int {
	var sum uint32
	for w := 0; w < 4; w++ {
		sum += getUint32(addr[w*4 : w*4+4])
	}
	return int(sum % neighborBuckets)
}

// Update installs or refreshes the (mac, dev) resolution for addr. The
// chain is scanned head-inclusive; a matching address is overwritten in
// place, otherwise a new entry is appended at the tail. At most one entry
// per address exists across all chains.
func (t *NeighborTable) Update(dev *Device, mac MAC, addr Addr) {
	idx := hashAddr(addr)

	if t.buckets[idx] == nil {
		t.buckets[idx] = &neighborEntry{addr: addr, mac: mac, dev: dev}
		return
	}

	cur := t.buckets[idx]
	for {
		if cur.addr == addr {
			cur.mac = mac
			cur.dev = dev
			return
		}
		if cur.next == nil {
			cur.next = &neighborEntry{addr: addr, mac: mac, dev: dev}
			return
		}
		cur = cur.next
	}
}

// Search returns the resolved entry for addr, if any.
func (t *NeighborTable) Search(addr Addr) (NeighborEntry, bool) {
	for cur := t.buckets[hashAddr(addr)]; cur != nil; cur = cur.next {
		if cur.addr == addr {
			return NeighborEntry{Address: cur.addr, MAC: cur.mac, Device: cur.dev}, true
		}
	}
	return NeighborEntry{}, false
}

// Entries returns every cached resolution, in bucket/chain order, for
// operator dumps.
func (t *NeighborTable) Entries() []NeighborEntry {
	var out []NeighborEntry
	for _, head := range t.buckets {
		for cur := head; cur != nil; cur = cur.next {
			out = append(out, NeighborEntry{Address: cur.addr, MAC: cur.mac, Device: cur.dev})
		}
	}
	return out
}

// Dump writes a fixed-column text table of every cached entry.
func (t *NeighborTable) Dump(w io.Writer) {
	for _, e := range t.Entries() {
		devName := "?"
		if e.Device != nil {
			devName = e.Device.Name
		}
		fmt.Fprintf(w, "%-40s %-18s %s\n", ipString(e.Address), e.MAC.String(), devName)
	}
}
