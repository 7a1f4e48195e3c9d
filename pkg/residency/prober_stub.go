//go:build !linux
// +build !linux

package residency

import (
	"errors"

	"github.com/srodi/showpagemap/pkg/types"
)

var errUnsupported = errors.New("residency probe requires linux")

// Probe always fails on unsupported platforms.
func Probe(path string, pageSize int) (*Mapping, error) {
	return nil, errUnsupported
}

// Range is empty on unsupported platforms.
func (m *Mapping) Range() types.AddressRange {
	return types.AddressRange{Tag: m.Path}
}

// Close is a no-op stub.
func (m *Mapping) Close() error {
	return nil
}
