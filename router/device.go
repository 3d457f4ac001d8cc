package router

import (
	"fmt"
	"io"
	"log/slog"
)

// Sink is the opaque per-device transmit collaborator: a byte-oriented,
// non-blocking raw-socket send assumed never to partial-write a datagram.
// A short write is the caller's problem to treat as a drop; Sink itself
// need not simulate one.
type Sink interface {
	Send(frame []byte) error
}

// Binding is the single IPv6 address a Device may carry. Assigning one
// atomically installs a Connected route for its prefix.
type Binding struct {
	Address   Addr
	PrefixLen int
	Device    *Device
}

// Device is one network interface: a name, a MAC, at most one IPv6
// binding, and a transmit sink. Devices are created at startup and live
// for the process lifetime.
type Device struct {
	Name    string
	MAC     MAC
	Binding *Binding
	Sink    Sink
}

// ConfigError reports a fatal misconfiguration: naming a device that was
// never registered. Per the error-handling design, control-plane errors
// are fatal to the process, never recovered locally like ingress errors.
type ConfigError struct {
	Op     string
	Device string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("router: %s: unknown device %q", e.Op, e.Device)
}

// Router owns the FIB, the neighbor cache, and the device registry. All
// three are touched only from the single goroutine that calls Receive and
// the Configure*/AddNeighbor methods, preserving the no-locking invariant:
// the dispatcher goroutine is the sole owner.
type Router struct {
	devices   map[string]*Device
	fib       *FIB
	neighbors *NeighborTable
	log       *slog.Logger
}

// NewRouter returns an empty Router. Devices must be registered with
// RegisterDevice before ConfigureAddress/AddNeighbor can reference them.
func NewRouter(log *slog.Logger) *Router {
	if log == nil {
		log = slog.Default()
	}
	return &Router{
		devices:   make(map[string]*Device),
		fib:       NewFIB(),
		neighbors: NewNeighborTable(),
		log:       log.With("component", "router"),
	}
}

// RegisterDevice adds dev to the device namespace, keyed by name.
func (r *Router) RegisterDevice(dev *Device) {
	r.devices[dev.Name] = dev
}

// Device looks up a registered device by name.
func (r *Router) Device(name string) (*Device, bool) {
	d, ok := r.devices[name]
	return d, ok
}

// ConfigureAddress assigns addr/prefixLen to dev and installs the implied
// Connected route. Naming an unregistered device is fatal misconfiguration.
func (r *Router) ConfigureAddress(devName string, addr Addr, prefixLen int) error {
	dev, ok := r.devices[devName]
	if !ok {
		return &ConfigError{Op: "configure_address", Device: devName}
	}

	dev.Binding = &Binding{Address: addr, PrefixLen: prefixLen, Device: dev}
	r.fib.Insert(addr, prefixLen, &Route{Kind: RouteConnected, Device: dev})
	r.log.Info("configured address", "device", devName, "address", ipString(addr), "prefix_len", prefixLen)
	return nil
}

// ConfigureNetRoute installs a static Network route toward nextHop.
func (r *Router) ConfigureNetRoute(prefix Addr, prefixLen int, nextHop Addr) {
	r.fib.Insert(prefix, prefixLen, &Route{Kind: RouteNetwork, NextHop: nextHop})
	r.log.Info("configured route", "prefix", ipString(prefix), "prefix_len", prefixLen, "next_hop", ipString(nextHop))
}

// AddNeighbor installs a static neighbor cache entry on devName. Naming an
// unregistered device is fatal misconfiguration.
func (r *Router) AddNeighbor(devName string, mac MAC, addr Addr) error {
	dev, ok := r.devices[devName]
	if !ok {
		return &ConfigError{Op: "add_neighbor", Device: devName}
	}
	r.neighbors.Update(dev, mac, addr)
	r.log.Info("configured neighbor", "device", devName, "address", ipString(addr), "mac", mac.String())
	return nil
}

// DumpNeighbors writes a text table of the neighbor cache for operator
// inspection. Must only be called from the dispatcher goroutine, or via a
// request it answers, since it walks unsynchronized state.
func (r *Router) DumpNeighbors(w io.Writer) {
	r.neighbors.Dump(w)
}

// DumpRoutes writes a text table of the FIB for operator inspection. Same
// single-owner caveat as DumpNeighbors.
func (r *Router) DumpRoutes(w io.Writer) {
	r.fib.Dump(w)
}

// findByAddress reports whether addr is assigned to any registered
// device, and if so, the owning device (the "self" classification in
// spec.md §4.5 dispatches to the matching device's context, not the
// ingress device).
func (r *Router) findByAddress(addr Addr) (*Device, bool) {
	for _, dev := range r.devices {
		if dev.Binding != nil && dev.Binding.Address == addr {
			return dev, true
		}
	}
	return nil, false
}

// DumpKind selects which operator console dump a DumpRequest is asking for.
type DumpKind int

const (
	DumpKindNeighbors DumpKind = iota
	DumpKindRoutes
)

// DumpRow is one line of structured data for a dump, rendered as a table
// row by the operator console rather than pre-formatted text.
type DumpRow []string

// DumpRequest lets a goroutine outside the dispatcher (the operator
// console) ask for a structured dump without touching the FIB or neighbor
// cache directly. The dispatcher goroutine is the only caller of
// HandleDumpRequest, preserving the single-owner invariant spec.md §5
// requires even though the console itself runs as its own Bubble Tea
// program.
type DumpRequest struct {
	Kind  DumpKind
	Reply chan<- []DumpRow
}

// HandleDumpRequest renders the requested dump as table rows and sends
// them on req.Reply. Must be called only from the dispatcher goroutine
// that owns the FIB and neighbor cache.
func (r *Router) HandleDumpRequest(req DumpRequest) {
	var rows []DumpRow
	switch req.Kind {
	case DumpKindNeighbors:
		for _, e := range r.neighbors.Entries() {
			devName := "?"
			if e.Device != nil {
				devName = e.Device.Name
			}
			rows = append(rows, DumpRow{ipString(e.Address), e.MAC.String(), devName})
		}
	case DumpKindRoutes:
		for _, rt := range r.fib.Routes() {
			rows = append(rows, DumpRow{rt.Prefix, rt.Detail})
		}
	}
	req.Reply <- rows
}
