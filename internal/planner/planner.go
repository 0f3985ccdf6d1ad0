// Package planner partitions a parent CIDR block into per-zone subnet
// plans. Planning is pure: the provider is queried for zone names and
// existing subnet counts before planning, and the resulting plan is
// handed to the provisioner unchanged.
package planner

import (
	"errors"
	"fmt"
	"sort"

	"github.com/asmotherman/sky/internal/cidr"
)

var (
	// ErrInvalidRequest indicates an empty zone list or a non-positive count.
	ErrInvalidRequest = errors.New("invalid plan request")
	// ErrInsufficientCapacity indicates the parent block cannot fit the
	// requested number of subnets at the computed prefix length.
	ErrInsufficientCapacity = errors.New("parent block cannot fit the requested subnets")
)

// Zone is an availability zone eligible for subnet placement.
// ExistingSubnets counts the same-type subnets already present in the
// zone; it only offsets generated names and is never mutated here.
type Zone struct {
	Name            string
	ExistingSubnets int
}

// Policy holds the subnet sizing policy flags.
type Policy struct {
	// Balanced trades usable addresses for growth headroom by moving
	// the child prefix halfway toward /28.
	Balanced bool
	// ByteAligned rounds the child prefix up to the next octet
	// boundary for human-readable addressing.
	ByteAligned bool
}

// Entry is one planned subnet. Index is the per-zone naming index
// (Zone.ExistingSubnets plus the position within this run).
type Entry struct {
	Zone   Zone
	Index  int
	Block  cidr.Block
	Public bool
}

// Request describes one planning pass.
type Request struct {
	Parent cidr.Block
	Zones  []Zone
	// CountPerZone is the number of new subnets per zone.
	CountPerZone int
	// ExistingTotal is the number of subnets already allocated anywhere
	// in the parent network; new block indices start after it.
	ExistingTotal int
	Public        bool
	Policy        Policy
}

// Plan computes the ordered list of subnets to create. Zones are
// processed in lexicographic name order so that repeated invocations
// over an unchanged zone set produce the same plan.
func Plan(req Request) ([]Entry, error) {
	if len(req.Zones) == 0 {
		return nil, fmt.Errorf("%w: no zones", ErrInvalidRequest)
	}
	if req.CountPerZone < 1 {
		return nil, fmt.Errorf("%w: count per zone must be at least 1, got %d", ErrInvalidRequest, req.CountPerZone)
	}
	if req.ExistingTotal < 0 {
		return nil, fmt.Errorf("%w: negative existing subnet total %d", ErrInvalidRequest, req.ExistingTotal)
	}

	prefix, err := childPrefix(req)
	if err != nil {
		return nil, err
	}

	zones := make([]Zone, len(req.Zones))
	copy(zones, req.Zones)
	sort.Slice(zones, func(i, j int) bool { return zones[i].Name < zones[j].Name })

	entries := make([]Entry, 0, len(zones)*req.CountPerZone)
	next := req.ExistingTotal
	for _, zone := range zones {
		for i := 0; i < req.CountPerZone; i++ {
			block, err := req.Parent.SubBlock(next, prefix)
			if err != nil {
				return nil, fmt.Errorf("%w: %v", ErrInsufficientCapacity, err)
			}
			entries = append(entries, Entry{
				Zone:   zone,
				Index:  zone.ExistingSubnets + i,
				Block:  block,
				Public: req.Public,
			})
			next++
		}
	}

	return entries, nil
}

// childPrefix computes the prefix length for the new subnets: the
// smallest prefix that fits all existing and new subnets without
// overlap, then widened by the sizing policy. Balanced applies before
// ByteAligned.
func childPrefix(req Request) (int, error) {
	total := req.ExistingTotal + len(req.Zones)*req.CountPerZone

	extraBits := 0
	for 1<<extraBits < total {
		extraBits++
	}

	prefix := req.Parent.Prefix() + extraBits
	if prefix > 32 {
		return 0, fmt.Errorf("%w: %d subnets need /%d inside %s", ErrInsufficientCapacity, total, prefix, req.Parent)
	}

	if req.Policy.Balanced && prefix < 28 {
		prefix += (28 - prefix) / 2
	}
	if req.Policy.ByteAligned && prefix < 24 {
		prefix += 8 - prefix%8
	}

	if prefix > 32 {
		return 0, fmt.Errorf("%w: policy widened prefix to /%d", ErrInsufficientCapacity, prefix)
	}

	return prefix, nil
}
