// Package dataset turns episodes into training samples: encoded observations
// paired with a per-variable target, stored in memory or in SQLite.
package dataset

import (
	"bytes"
	"context"
	"encoding"
	"fmt"

	"github.com/google/uuid"

	"github.com/adalundhe/branchobs/core/tensor"
)

// Sample is one decision point. Features holds the binary encoding of each
// observation by extractor name.
type Sample struct {
	ID       uuid.UUID
	Episode  string
	Step     int
	Done     bool
	Features map[string][]byte
	Target   tensor.Vector
}

// Decode decodes the named feature into dst.
func (s Sample) Decode(name string, dst encoding.BinaryUnmarshaler) error {
	data, ok := s.Features[name]
	if !ok {
		return fmt.Errorf("sample %s: no feature %q", s.ID, name)
	}
	return dst.UnmarshalBinary(data)
}

// Clone returns a deep copy.
func (s Sample) Clone() Sample {
	out := s
	out.Target = s.Target.Clone()
	if s.Features != nil {
		out.Features = make(map[string][]byte, len(s.Features))
		for name, data := range s.Features {
			out.Features[name] = bytes.Clone(data)
		}
	}
	return out
}

// cost approximates the memory held by s.
func (s Sample) cost() int64 {
	n := int64(96 + len(s.Episode) + 8*len(s.Target))
	for name, data := range s.Features {
		n += int64(len(name) + len(data))
	}
	return n
}

// Sink receives collected samples.
type Sink interface {
	Add(ctx context.Context, s Sample) error
}

// SinkFunc adapts a function to Sink.
type SinkFunc func(ctx context.Context, s Sample) error

func (f SinkFunc) Add(ctx context.Context, s Sample) error {
	return f(ctx, s)
}
