// Package config loads a YAML startup file and applies it to a
// router.Router, replacing the hardcoded configure() step of the original
// reference with data-driven startup.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"sixrouter/router"
)

// File is the top-level YAML document shape.
type File struct {
	Interfaces []Interface `yaml:"interfaces"`
	Routes     []Route     `yaml:"routes"`
	Neighbors  []Neighbor  `yaml:"neighbors"`
}

// Interface assigns an IPv6 address to a named device.
type Interface struct {
	Name      string `yaml:"name"`
	Address   string `yaml:"address"`
	PrefixLen int    `yaml:"prefix_len"`
}

// Route is a static network route toward a next hop.
type Route struct {
	Prefix    string `yaml:"prefix"`
	PrefixLen int    `yaml:"prefix_len"`
	NextHop   string `yaml:"next_hop"`
}

// Neighbor is a static neighbor cache entry.
type Neighbor struct {
	Interface string `yaml:"interface"`
	Address   string `yaml:"address"`
	MAC       string `yaml:"mac"`
}

// Load parses path and returns the decoded File without applying it.
func Load(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	}

	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("config: parse %s: %w", path, err)
	}
	return &f, nil
}

// Apply drives the address, route and neighbor configuration operations
// against r: all interfaces first, then all routes, then all neighbors,
// each section in file order. Any error here is fatal misconfiguration —
// there is no partial-start state worth keeping.
func (f *File) Apply(r *router.Router) error {
	for _, ifc := range f.Interfaces {
		addr, err := router.ParseAddr(ifc.Address)
		if err != nil {
			return fmt.Errorf("config: interface %s: %w", ifc.Name, err)
		}
		if err := r.ConfigureAddress(ifc.Name, addr, ifc.PrefixLen); err != nil {
			return err
		}
	}

	for _, rt := range f.Routes {
		prefix, err := router.ParseAddr(rt.Prefix)
		if err != nil {
			return fmt.Errorf("config: route %s/%d: %w", rt.Prefix, rt.PrefixLen, err)
		}
		nextHop, err := router.ParseAddr(rt.NextHop)
		if err != nil {
			return fmt.Errorf("config: route %s/%d next hop: %w", rt.Prefix, rt.PrefixLen, err)
		}
		r.ConfigureNetRoute(prefix, rt.PrefixLen, nextHop)
	}

	for _, n := range f.Neighbors {
		addr, err := router.ParseAddr(n.Address)
		if err != nil {
			return fmt.Errorf("config: neighbor %s: %w", n.Address, err)
		}
		mac, err := parseMAC(n.MAC)
		if err != nil {
			return fmt.Errorf("config: neighbor %s: %w", n.Address, err)
		}
		if err := r.AddNeighbor(n.Interface, mac, addr); err != nil {
			return err
		}
	}

	return nil
}

func parseMAC(s string) (router.MAC, error) {
	var m router.MAC
	n, err := fmt.Sscanf(s, "%02x:%02x:%02x:%02x:%02x:%02x",
		&m[0], &m[1], &m[2], &m[3], &m[4], &m[5])
	if err != nil || n != 6 {
		return router.MAC{}, fmt.Errorf("invalid mac address %q", s)
	}
	return m, nil
}
