package tensor

// Wire Format:
//
// Header (8 bytes):
//
//	+--------+--------+--------+--------+--------+--------+--------+--------+
//	|       Magic (4 bytes)             |  Version (2B)   |   Kind (2B)     |
//	+--------+--------+--------+--------+--------+--------+--------+--------+
//
// The header is followed by a kind-specific payload built from three primitives:
//   - scalar:  8 bytes (uint64, or IEEE-754 float64 bits)
//   - floats:  count (8 bytes) followed by count float64 values
//   - ints:    count (8 bytes) followed by count int64 values
//
// A CRC32 (IEEE) checksum over header and payload closes the frame. All
// multi-byte integers are little-endian.

import (
	"encoding/binary"
	"errors"
	"hash/crc32"
	"math"

	obserr "github.com/adalundhe/branchobs/core/errors"
)

const (
	// Magic identifies a framed tensor buffer ("BOBS" as little-endian uint32).
	Magic uint32 = 0x53424F42

	// Version is the current wire format version.
	Version uint16 = 1

	// HeaderSize is the fixed size of the frame header in bytes.
	HeaderSize = 8

	// ChecksumSize is the size of the trailing CRC32 in bytes.
	ChecksumSize = 4

	maxDim = 1 << 31
)

// Kind tags the payload carried by a frame.
type Kind uint16

// Kinds owned by this package. Packages composing tensors into larger values
// allocate their own kinds starting at KindUser.
const (
	KindMatrix Kind = iota + 1
	KindVector
	KindCOO

	KindUser Kind = 64
)

// Errors returned by decoders, always wrapped in a serialization error.
var (
	ErrBufferTooSmall  = errors.New("tensor: buffer too small")
	ErrInvalidMagic    = errors.New("tensor: invalid magic number")
	ErrInvalidVersion  = errors.New("tensor: unsupported version")
	ErrKindMismatch    = errors.New("tensor: unexpected payload kind")
	ErrInvalidChecksum = errors.New("tensor: checksum mismatch")
	ErrShape           = errors.New("tensor: shape does not match data length")
	ErrIndexRange      = errors.New("tensor: index out of range")
	ErrTrailingBytes   = errors.New("tensor: trailing bytes after payload")
)

// Encoder builds a framed buffer. The zero value is not usable; use NewEncoder.
type Encoder struct {
	buf []byte
}

// NewEncoder starts a frame for the given payload kind.
func NewEncoder(kind Kind) *Encoder {
	buf := make([]byte, HeaderSize, 256)
	binary.LittleEndian.PutUint32(buf[0:4], Magic)
	binary.LittleEndian.PutUint16(buf[4:6], Version)
	binary.LittleEndian.PutUint16(buf[6:8], uint16(kind))
	return &Encoder{buf: buf}
}

// Uint64 appends an unsigned scalar.
func (e *Encoder) Uint64(v uint64) {
	e.buf = binary.LittleEndian.AppendUint64(e.buf, v)
}

// Int64 appends a signed scalar.
func (e *Encoder) Int64(v int64) {
	e.Uint64(uint64(v))
}

// Float64 appends a float, preserving its exact bit pattern.
func (e *Encoder) Float64(v float64) {
	e.Uint64(math.Float64bits(v))
}

// Floats appends a length-prefixed float slice.
func (e *Encoder) Floats(xs []float64) {
	e.Uint64(uint64(len(xs)))
	for _, x := range xs {
		e.Float64(x)
	}
}

// Ints appends a length-prefixed int slice.
func (e *Encoder) Ints(xs []int) {
	e.Uint64(uint64(len(xs)))
	for _, x := range xs {
		e.Int64(int64(x))
	}
}

// Matrix appends the shape and raw data of m. A nil matrix is written as 0×0.
func (e *Encoder) Matrix(m *Matrix) {
	rows, cols := m.Dims()
	e.Uint64(uint64(rows))
	e.Uint64(uint64(cols))
	for _, x := range m.RawData() {
		e.Float64(x)
	}
}

// COO appends the shape, indices and values of c.
func (e *Encoder) COO(c COO) {
	e.Uint64(uint64(c.Shape[0]))
	e.Uint64(uint64(c.Shape[1]))
	e.Floats(c.Values)
	e.Ints(c.Indices[0])
	e.Ints(c.Indices[1])
}

// Bytes closes the frame with its checksum and returns it.
func (e *Encoder) Bytes() []byte {
	out := make([]byte, len(e.buf), len(e.buf)+ChecksumSize)
	copy(out, e.buf)
	return binary.LittleEndian.AppendUint32(out, crc32.ChecksumIEEE(e.buf))
}

// Decoder reads a frame produced by an Encoder. The first failure is sticky:
// later reads return zero values and Finish reports the error.
type Decoder struct {
	op   string
	data []byte
	off  int
	err  error
}

// NewDecoder validates the frame envelope (size, magic, version, kind and
// checksum) and positions the decoder at the start of the payload.
func NewDecoder(op string, data []byte, kind Kind) (*Decoder, error) {
	if len(data) < HeaderSize+ChecksumSize {
		return nil, decodeError(op, ErrBufferTooSmall)
	}
	if binary.LittleEndian.Uint32(data[0:4]) != Magic {
		return nil, decodeError(op, ErrInvalidMagic)
	}
	if binary.LittleEndian.Uint16(data[4:6]) != Version {
		return nil, decodeError(op, ErrInvalidVersion)
	}
	if Kind(binary.LittleEndian.Uint16(data[6:8])) != kind {
		return nil, decodeError(op, ErrKindMismatch)
	}

	body := data[:len(data)-ChecksumSize]
	if crc32.ChecksumIEEE(body) != binary.LittleEndian.Uint32(data[len(body):]) {
		return nil, decodeError(op, ErrInvalidChecksum)
	}
	return &Decoder{op: op, data: body, off: HeaderSize}, nil
}

func (d *Decoder) remaining() int {
	return len(d.data) - d.off
}

func (d *Decoder) fail(err error) {
	if d.err == nil {
		d.err = err
	}
}

// Uint64 reads an unsigned scalar.
func (d *Decoder) Uint64() uint64 {
	if d.err != nil {
		return 0
	}
	if d.remaining() < 8 {
		d.fail(ErrBufferTooSmall)
		return 0
	}
	v := binary.LittleEndian.Uint64(d.data[d.off:])
	d.off += 8
	return v
}

// Int64 reads a signed scalar.
func (d *Decoder) Int64() int64 {
	return int64(d.Uint64())
}

// Float64 reads a float.
func (d *Decoder) Float64() float64 {
	return math.Float64frombits(d.Uint64())
}

// count reads an element count and checks that count elements of 8 bytes fit
// in the rest of the buffer, so a corrupt count never triggers a huge allocation.
func (d *Decoder) count() int {
	n := d.Uint64()
	if d.err != nil {
		return 0
	}
	if n > uint64(d.remaining()/8) {
		d.fail(ErrShape)
		return 0
	}
	return int(n)
}

// Floats reads a length-prefixed float slice.
func (d *Decoder) Floats() []float64 {
	n := d.count()
	xs := make([]float64, n)
	for i := range xs {
		xs[i] = d.Float64()
	}
	return xs
}

// Ints reads a length-prefixed int slice.
func (d *Decoder) Ints() []int {
	n := d.count()
	xs := make([]int, n)
	for i := range xs {
		xs[i] = int(d.Int64())
	}
	return xs
}

// Matrix reads a matrix written by Encoder.Matrix.
func (d *Decoder) Matrix() *Matrix {
	rows, cols := d.Uint64(), d.Uint64()
	if d.err != nil {
		return &Matrix{}
	}
	if rows > maxDim || cols > maxDim || rows*cols > uint64(d.remaining()/8) {
		d.fail(ErrShape)
		return &Matrix{}
	}
	m := NewMatrix(int(rows), int(cols))
	for i := range m.data {
		m.data[i] = d.Float64()
	}
	return m
}

// COO reads a sparse matrix written by Encoder.COO and validates it.
func (d *Decoder) COO() COO {
	var c COO
	c.Shape[0] = int(d.Int64())
	c.Shape[1] = int(d.Int64())
	c.Values = d.Floats()
	c.Indices[0] = d.Ints()
	c.Indices[1] = d.Ints()
	if d.err != nil {
		return COO{}
	}
	if err := c.Validate(); err != nil {
		d.fail(err)
		return COO{}
	}
	return c
}

// Finish reports the first decode failure, or ErrTrailingBytes when the
// payload was not fully consumed.
func (d *Decoder) Finish() error {
	if d.err == nil && d.remaining() != 0 {
		d.err = ErrTrailingBytes
	}
	if d.err != nil {
		return decodeError(d.op, d.err)
	}
	return nil
}

func decodeError(op string, err error) error {
	return obserr.New(obserr.KindSerialization, op, err)
}
