package cidr

import (
	"errors"
	"fmt"
)

var (
	// ErrNotPrivate indicates a block outside the RFC 1918 private ranges.
	ErrNotPrivate = errors.New("block is not in a private address range")
	// ErrBadNetmask indicates a prefix length the VPC service rejects.
	ErrBadNetmask = errors.New("VPC requires a prefix length between /16 and /28")
)

// privateRanges are the RFC 1918 private networks.
var privateRanges = []Block{
	{addr: 10 << 24, prefix: 8},                // 10.0.0.0/8
	{addr: 172<<24 | 16<<16, prefix: 12},       // 172.16.0.0/12
	{addr: 192<<24 | 168<<16, prefix: 16},      // 192.168.0.0/16
}

// ValidateVPC checks that a block is usable as a VPC CIDR: it must sit
// inside one of the RFC 1918 private ranges and carry a prefix length
// the VPC service accepts.
func ValidateVPC(b Block) error {
	private := false
	for _, r := range privateRanges {
		if r.Contains(b) {
			private = true
			break
		}
	}
	if !private {
		return fmt.Errorf("%w: %s", ErrNotPrivate, b)
	}

	if b.prefix < 16 || b.prefix > 28 {
		return fmt.Errorf("%w: got %s", ErrBadNetmask, b)
	}

	return nil
}
