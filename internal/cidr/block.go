// Package cidr provides IPv4 CIDR block arithmetic for subnet planning.
package cidr

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

var (
	// ErrInvalidBlock indicates a malformed CIDR string.
	ErrInvalidBlock = errors.New("invalid CIDR block")
	// ErrOutOfRange indicates a sub-block request that does not fit inside the parent.
	ErrOutOfRange = errors.New("sub-block out of range")
)

// reservedAddresses is the number of addresses AWS holds back in every
// subnet: network, gateway, DNS and broadcast.
const reservedAddresses = 4

// Block is an immutable IPv4 CIDR block. The address is always the
// canonical base address of the block: all bits beyond the prefix
// length are zero.
type Block struct {
	addr   uint32
	prefix int
}

// Parse parses a block in "a.b.c.d/n" notation. The address is
// canonicalized to the base address of the block.
func Parse(s string) (Block, error) {
	addrPart, prefixPart, ok := strings.Cut(s, "/")
	if !ok {
		return Block{}, fmt.Errorf("%w: %q", ErrInvalidBlock, s)
	}

	octets := strings.Split(addrPart, ".")
	if len(octets) != 4 {
		return Block{}, fmt.Errorf("%w: %q", ErrInvalidBlock, s)
	}

	var addr uint32
	for _, octet := range octets {
		n, err := strconv.Atoi(octet)
		if err != nil || n < 0 || n > 255 || (len(octet) > 1 && octet[0] == '0') {
			return Block{}, fmt.Errorf("%w: %q", ErrInvalidBlock, s)
		}
		addr = addr<<8 | uint32(n)
	}

	prefix, err := strconv.Atoi(prefixPart)
	if err != nil || prefix < 0 || prefix > 32 {
		return Block{}, fmt.Errorf("%w: %q", ErrInvalidBlock, s)
	}

	return Block{addr: addr & mask(prefix), prefix: prefix}, nil
}

// MustParse parses a block and panics on failure. Intended for
// constants and tests.
func MustParse(s string) Block {
	b, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return b
}

// Prefix returns the prefix length of the block.
func (b Block) Prefix() int {
	return b.prefix
}

// Contains reports whether other is fully inside b.
func (b Block) Contains(other Block) bool {
	return other.prefix >= b.prefix && other.addr&mask(b.prefix) == b.addr
}

// SubBlock returns the index-th block of prefix length newPrefix inside b.
func (b Block) SubBlock(index, newPrefix int) (Block, error) {
	if newPrefix < b.prefix || newPrefix > 32 {
		return Block{}, fmt.Errorf("%w: prefix /%d not inside %s", ErrOutOfRange, newPrefix, b)
	}
	if index < 0 || index >= 1<<(newPrefix-b.prefix) {
		return Block{}, fmt.Errorf("%w: index %d of /%d inside %s", ErrOutOfRange, index, newPrefix, b)
	}
	return Block{addr: b.addr | uint32(index)<<(32-newPrefix), prefix: newPrefix}, nil
}

// UsableHosts returns the number of addresses available for hosts in
// the block after the four AWS-reserved addresses.
func (b Block) UsableHosts() int {
	return 1<<(32-b.prefix) - reservedAddresses
}

// String returns the block in canonical "a.b.c.d/n" notation.
func (b Block) String() string {
	return fmt.Sprintf("%d.%d.%d.%d/%d",
		b.addr>>24, b.addr>>16&255, b.addr>>8&255, b.addr&255, b.prefix)
}

func mask(prefix int) uint32 {
	if prefix == 0 {
		return 0
	}
	return ^uint32(0) << (32 - prefix)
}
