package wire

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"math"
)

const logPrefix = "wire:codec"

// Frame header. The magic bytes are followed by the format version and the
// little-endian type code.
const (
	magic0        byte = 'N'
	magic1        byte = 'C'
	FormatVersion byte = 1

	headerSize = 3 + 4

	// maxDepth bounds sub-envelope nesting so a hostile frame cannot exhaust the stack.
	maxDepth = 32
)

var (
	// ErrBadMagic is returned when a frame does not start with the envelope magic.
	ErrBadMagic = errors.New("wire: bad magic")
	// ErrUnsupportedVersion is returned for an unknown format version byte.
	ErrUnsupportedVersion = errors.New("wire: unsupported format version")
	// ErrShortBuffer is returned when the frame ends before a field is complete.
	ErrShortBuffer = errors.New("wire: insufficient data in buffer")
	// ErrTrailingBytes is returned when bytes remain after a complete envelope.
	ErrTrailingBytes = errors.New("wire: trailing bytes after envelope")
	// ErrInvalidTypeCode is returned for a zero type code outside IgnoreTypeCode mode.
	ErrInvalidTypeCode = errors.New("wire: type code is unspecified")
	// ErrInvalidLength is returned for negative or oversized counts and lengths.
	ErrInvalidLength = errors.New("wire: invalid length")
	// ErrBadPresence is returned for a presence flag other than 0 or 1.
	ErrBadPresence = errors.New("wire: invalid property presence flag")
	// ErrDuplicateKey is returned when a frame repeats a property key.
	ErrDuplicateKey = errors.New("wire: duplicate property key")
	// ErrTooDeep is returned when sub-envelopes nest beyond maxDepth.
	ErrTooDeep = errors.New("wire: envelope nesting too deep")
)

type options struct {
	ignoreTypeCode bool
}

// Option configures Encode and Decode.
type Option func(*options)

// IgnoreTypeCode makes Encode write a zero type code for the top-level
// envelope and Decode accept any top-level type code, including zero. It
// exists for harnesses that compare payloads independent of the type marker.
func IgnoreTypeCode() Option {
	return func(o *options) { o.ignoreTypeCode = true }
}

func buildOptions(opts []Option) options {
	var o options
	for _, fn := range opts {
		fn(&o)
	}
	return o
}

// Encode serializes an envelope.
func Encode(env *Envelope, opts ...Option) ([]byte, error) {
	if env == nil {
		return nil, fmt.Errorf("%s - nil envelope", logPrefix)
	}
	o := buildOptions(opts)
	var buf bytes.Buffer
	if err := encodeEnvelope(&buf, env, o.ignoreTypeCode, 0); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func encodeEnvelope(buf *bytes.Buffer, env *Envelope, ignoreTypeCode bool, depth int) error {
	if depth > maxDepth {
		return ErrTooDeep
	}
	typeCode := env.TypeCode
	if ignoreTypeCode {
		typeCode = 0
	} else if typeCode == 0 {
		return fmt.Errorf("%s - encode: %w", logPrefix, ErrInvalidTypeCode)
	}

	buf.WriteByte(magic0)
	buf.WriteByte(magic1)
	buf.WriteByte(FormatVersion)
	writeUint32(buf, typeCode)

	props := env.props()
	if err := writeCount(buf, props.Len()); err != nil {
		return err
	}
	for _, p := range props.Entries() {
		if err := writeBytes(buf, []byte(p.Key)); err != nil {
			return err
		}
		if !p.Present {
			buf.WriteByte(0)
			continue
		}
		buf.WriteByte(1)
		if err := writeBytes(buf, p.Value); err != nil {
			return err
		}
	}

	if err := writeCount(buf, len(env.SubMessages)); err != nil {
		return err
	}
	for i, sub := range env.SubMessages {
		if sub == nil {
			return fmt.Errorf("%s - encode: nil sub-envelope at index %d", logPrefix, i)
		}
		if err := encodeEnvelope(buf, sub, false, depth+1); err != nil {
			return err
		}
	}
	return nil
}

func writeUint32(buf *bytes.Buffer, v uint32) {
	var b [4]byte
	binary.LittleEndian.PutUint32(b[:], v)
	buf.Write(b[:])
}

func writeCount(buf *bytes.Buffer, n int) error {
	if n > math.MaxInt32 {
		return fmt.Errorf("%s - encode: count %d: %w", logPrefix, n, ErrInvalidLength)
	}
	writeUint32(buf, uint32(int32(n)))
	return nil
}

func writeBytes(buf *bytes.Buffer, b []byte) error {
	if err := writeCount(buf, len(b)); err != nil {
		return err
	}
	buf.Write(b)
	return nil
}

// Decode parses exactly one envelope. Bytes left over after the envelope are
// an error: compatibility is handled at the property level, not the frame level.
func Decode(data []byte, opts ...Option) (*Envelope, error) {
	o := buildOptions(opts)
	r := &reader{data: data}
	env, err := r.envelope(o.ignoreTypeCode, 0)
	if err != nil {
		return nil, fmt.Errorf("%s - decode: %w", logPrefix, err)
	}
	if r.remaining() != 0 {
		return nil, fmt.Errorf("%s - decode: %d extra byte(s): %w", logPrefix, r.remaining(), ErrTrailingBytes)
	}
	return env, nil
}

type reader struct {
	data   []byte
	offset int
}

func (r *reader) remaining() int {
	return len(r.data) - r.offset
}

func (r *reader) need(n int) ([]byte, error) {
	if n < 0 || n > r.remaining() {
		return nil, ErrShortBuffer
	}
	b := r.data[r.offset : r.offset+n]
	r.offset += n
	return b, nil
}

func (r *reader) readByte() (byte, error) {
	b, err := r.need(1)
	if err != nil {
		return 0, err
	}
	return b[0], nil
}

func (r *reader) uint32() (uint32, error) {
	b, err := r.need(4)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint32(b), nil
}

// length reads an int32 length and checks it against the bytes left, scaled
// by the minimum encoded size of one element.
func (r *reader) length(minElem int) (int, error) {
	v, err := r.uint32()
	if err != nil {
		return 0, err
	}
	n := int(int32(v))
	if n < 0 {
		return 0, ErrInvalidLength
	}
	if minElem > 0 && n > r.remaining()/minElem {
		return 0, ErrShortBuffer
	}
	return n, nil
}

func (r *reader) envelope(ignoreTypeCode bool, depth int) (*Envelope, error) {
	if depth > maxDepth {
		return nil, ErrTooDeep
	}
	hdr, err := r.need(3)
	if err != nil {
		return nil, err
	}
	if hdr[0] != magic0 || hdr[1] != magic1 {
		return nil, ErrBadMagic
	}
	if hdr[2] != FormatVersion {
		return nil, fmt.Errorf("%w: %d", ErrUnsupportedVersion, hdr[2])
	}
	typeCode, err := r.uint32()
	if err != nil {
		return nil, err
	}
	if typeCode == 0 && !ignoreTypeCode {
		return nil, ErrInvalidTypeCode
	}

	env := NewEnvelope(typeCode)

	// key length (4) + presence flag (1)
	count, err := r.length(5)
	if err != nil {
		return nil, err
	}
	for i := 0; i < count; i++ {
		keyLen, err := r.length(1)
		if err != nil {
			return nil, err
		}
		key, err := r.need(keyLen)
		if err != nil {
			return nil, err
		}
		if env.Properties.Has(string(key)) {
			return nil, fmt.Errorf("%w: %q", ErrDuplicateKey, key)
		}
		present, err := r.readByte()
		if err != nil {
			return nil, err
		}
		switch present {
		case 0:
			env.Properties.SetNull(string(key))
		case 1:
			valLen, err := r.length(1)
			if err != nil {
				return nil, err
			}
			val, err := r.need(valLen)
			if err != nil {
				return nil, err
			}
			env.Properties.Set(string(key), append(make([]byte, 0, valLen), val...))
		default:
			return nil, fmt.Errorf("%w: %d for %q", ErrBadPresence, present, key)
		}
	}

	subCount, err := r.length(headerSize + 8)
	if err != nil {
		return nil, err
	}
	if subCount > 0 {
		env.SubMessages = make([]*Envelope, 0, subCount)
	}
	for i := 0; i < subCount; i++ {
		sub, err := r.envelope(false, depth+1)
		if err != nil {
			return nil, err
		}
		env.SubMessages = append(env.SubMessages, sub)
	}
	return env, nil
}
