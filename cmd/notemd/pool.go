package main

import (
	"fmt"

	notemd "github.com/alnah/go-notemd"
)

// poolAdapter exposes a notemd.ConverterPool through the Pool interface.
type poolAdapter struct {
	pool *notemd.ConverterPool
}

// Compile-time check that poolAdapter implements Pool.
var _ Pool = (*poolAdapter)(nil)

// Acquire returns nil, not a typed nil, when no converter could be created.
func (a *poolAdapter) Acquire() CLIConverter {
	conv := a.pool.Acquire()
	if conv == nil {
		return nil
	}
	return conv
}

// Release panics on a converter the pool did not hand out.
func (a *poolAdapter) Release(c CLIConverter) {
	conv, ok := c.(*notemd.Converter)
	if !ok {
		panic(fmt.Sprintf("poolAdapter.Release: unexpected type %T", c))
	}
	a.pool.Release(conv)
}

func (a *poolAdapter) Size() int {
	return a.pool.Size()
}
