// Package node defines the stations and access points of a simulated WLAN.
package node

import (
	"fmt"
	"net"
	"net/netip"

	"gonum.org/v1/gonum/spatial/r2"
)

// Role distinguishes stations from access points.
type Role int

const (
	Station Role = iota
	AccessPoint
)

func (r Role) String() string {
	switch r {
	case Station:
		return "station"
	case AccessPoint:
		return "access_point"
	default:
		return fmt.Sprintf("role(%d)", int(r))
	}
}

// None marks the absence of a node, e.g. an unassociated station's AP.
const None = -1

// Node is one radio endpoint. Position is only changed by mobility events.
type Node struct {
	ID       int
	Name     string
	Role     Role
	Position r2.Vec
	IP       netip.Addr
	MAC      net.HardwareAddr
}

// Distance returns the euclidean distance between two nodes.
func Distance(a, b *Node) float64 {
	return r2.Norm(r2.Sub(a.Position, b.Position))
}

// AssignAddresses hands out consecutive host addresses from subnet to nodes
// in order, starting at .1, and MACs 00:00:00:00:00:01 onwards.
func AssignAddresses(subnet netip.Prefix, nodes []*Node) error {
	if !subnet.Addr().Is4() {
		return fmt.Errorf("subnet %s: only IPv4 is supported", subnet)
	}
	addr := subnet.Masked().Addr()
	for i, n := range nodes {
		addr = addr.Next()
		if !subnet.Contains(addr) {
			return fmt.Errorf("subnet %s exhausted after %d nodes", subnet, i)
		}
		n.IP = addr
		n.MAC = net.HardwareAddr{0, 0, 0, 0, byte((i + 1) >> 8), byte(i + 1)}
	}
	return nil
}
