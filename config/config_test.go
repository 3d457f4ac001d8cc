package config

import (
	"os"
	"path/filepath"
	"testing"

	"sixrouter/router"
)

const sampleYAML = `
interfaces:
  - name: d1
    address: "2001:db8:0:1::1"
    prefix_len: 64
routes:
  - prefix: "2001:db8:0:2::"
    prefix_len: 64
    next_hop: "2001:db8:0:1::2"
neighbors:
  - interface: d1
    address: "2001:db8:0:1::2"
    mac: "aa:bb:cc:dd:ee:ff"
`

func writeSample(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "sixrouter.yaml")
	if err := os.WriteFile(path, []byte(sampleYAML), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	return path
}

func TestLoadParsesAllSections(t *testing.T) {
	f, err := Load(writeSample(t))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(f.Interfaces) != 1 || f.Interfaces[0].Name != "d1" {
		t.Errorf("interfaces = %+v", f.Interfaces)
	}
	if len(f.Routes) != 1 || f.Routes[0].PrefixLen != 64 {
		t.Errorf("routes = %+v", f.Routes)
	}
	if len(f.Neighbors) != 1 || f.Neighbors[0].MAC != "aa:bb:cc:dd:ee:ff" {
		t.Errorf("neighbors = %+v", f.Neighbors)
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load("/nonexistent/sixrouter.yaml"); err == nil {
		t.Fatal("expected error for missing file")
	}
}

type nopSink struct{}

func (nopSink) Send([]byte) error { return nil }

func TestApplyWiresRouterFromFile(t *testing.T) {
	f, err := Load(writeSample(t))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	r := router.NewRouter(nil)
	r.RegisterDevice(&router.Device{Name: "d1", MAC: router.MAC{0x02, 0, 0, 0, 0, 1}, Sink: nopSink{}})

	if err := f.Apply(r); err != nil {
		t.Fatalf("Apply: %v", err)
	}

	dev, ok := r.Device("d1")
	if !ok || dev.Binding == nil {
		t.Fatal("expected d1 to have a binding after apply")
	}
	if dev.Binding.PrefixLen != 64 {
		t.Errorf("prefix len = %d, want 64", dev.Binding.PrefixLen)
	}
}

func TestApplyUnknownInterfaceIsFatal(t *testing.T) {
	f := &File{Interfaces: []Interface{{Name: "ghost", Address: "2001:db8::1", PrefixLen: 64}}}
	r := router.NewRouter(nil)
	if err := f.Apply(r); err == nil {
		t.Fatal("expected fatal error for unknown interface")
	}
}
