package observation

import (
	"encoding/binary"
	"fmt"
	"math"

	"github.com/cespare/xxhash/v2"

	obserr "github.com/adalundhe/branchobs/core/errors"
	"github.com/adalundhe/branchobs/core/solver"
)

// StaticCache holds the static part of an observation for the duration of an
// episode, together with a fingerprint of the structure it was computed from.
// The zero value is an empty cache.
type StaticCache[T any] struct {
	value       T
	fingerprint uint64
	valid       bool
}

// Load returns the cached value and whether there is one.
func (c *StaticCache[T]) Load() (T, bool) {
	return c.value, c.valid
}

// Store caches v, computed from a structure with the given fingerprint.
func (c *StaticCache[T]) Store(v T, fingerprint uint64) {
	c.value = v
	c.fingerprint = fingerprint
	c.valid = true
}

// Invalidate empties the cache.
func (c *StaticCache[T]) Invalidate() {
	var zero T
	c.value = zero
	c.fingerprint = 0
	c.valid = false
}

// Valid reports whether a value is cached.
func (c *StaticCache[T]) Valid() bool {
	return c.valid
}

// Fingerprint returns the structure fingerprint of the cached value.
func (c *StaticCache[T]) Fingerprint() uint64 {
	return c.fingerprint
}

// fingerprint identifies the structure static features are computed from.
// Without the structure check only the problem dimensions are hashed.
func (o options) fingerprint(vars []solver.Variable, rows []solver.Row) uint64 {
	buf := make([]byte, 0, 16)
	buf = binary.LittleEndian.AppendUint64(buf, uint64(len(vars)))
	buf = binary.LittleEndian.AppendUint64(buf, uint64(len(rows)))
	if !o.structureCheck {
		return xxhash.Sum64(buf)
	}

	d := xxhash.New()
	_, _ = d.Write(buf)
	for _, v := range vars {
		buf = buf[:0]
		buf = append(buf, byte(v.Type))
		buf = binary.LittleEndian.AppendUint64(buf, math.Float64bits(v.Objective))
		_, _ = d.Write(buf)
	}
	for _, r := range rows {
		buf = buf[:0]
		buf = binary.LittleEndian.AppendUint64(buf, math.Float64bits(r.Lhs))
		buf = binary.LittleEndian.AppendUint64(buf, math.Float64bits(r.Rhs))
		buf = binary.LittleEndian.AppendUint64(buf, uint64(len(r.Entries)))
		for _, e := range r.Entries {
			buf = binary.LittleEndian.AppendUint64(buf, uint64(e.Var))
			buf = binary.LittleEndian.AppendUint64(buf, math.Float64bits(e.Coef))
		}
		_, _ = d.Write(buf)
	}
	return d.Sum64()
}

// loadCached returns the cached value when it was built from structure fp.
// A stale cache is an error unless the structure check is enabled, in which
// case it is dropped so the caller rebuilds it.
func loadCached[T any](c *StaticCache[T], o options, op string, fp uint64) (T, bool, error) {
	var zero T
	v, ok := c.Load()
	if !ok {
		return zero, false, nil
	}
	if c.Fingerprint() == fp {
		return v, true, nil
	}
	if !o.structureCheck {
		return zero, false, obserr.New(obserr.KindCachePrecondition, op,
			fmt.Errorf("problem dimensions changed while static features were cached"))
	}
	o.logger.Warn("problem structure changed within episode, rebuilding static features",
		"extractor", op,
		"cached_fingerprint", c.Fingerprint(),
		"fingerprint", fp)
	c.Invalidate()
	return zero, false, nil
}
