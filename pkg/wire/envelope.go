// Package wire implements the binary envelope exchanged with the cadence proxy.
//
// An envelope is a type code, an ordered property bag and a list of nested
// envelopes. Property values are raw bytes; numbers, booleans, durations and
// timestamps are stored as their canonical string encodings (see properties.go).
package wire

import "bytes"

// Envelope is the unit of wire exchange.
type Envelope struct {
	TypeCode    uint32
	Properties  *Properties
	SubMessages []*Envelope
}

// NewEnvelope creates an empty envelope with the given type code.
func NewEnvelope(typeCode uint32) *Envelope {
	return &Envelope{TypeCode: typeCode, Properties: NewProperties()}
}

// Clone returns a deep copy of the envelope.
func (e *Envelope) Clone() *Envelope {
	if e == nil {
		return nil
	}
	out := &Envelope{TypeCode: e.TypeCode, Properties: e.props().Clone()}
	if len(e.SubMessages) > 0 {
		out.SubMessages = make([]*Envelope, len(e.SubMessages))
		for i, sub := range e.SubMessages {
			out.SubMessages[i] = sub.Clone()
		}
	}
	return out
}

// Equal reports whether two envelopes carry the same type code, the same
// properties in the same order and equal sub-envelopes.
func (e *Envelope) Equal(other *Envelope) bool {
	if e == nil || other == nil {
		return e == other
	}
	if e.TypeCode != other.TypeCode {
		return false
	}
	return e.payloadEqual(other)
}

// PayloadEqual is Equal without comparing the top-level type code.
func (e *Envelope) PayloadEqual(other *Envelope) bool {
	if e == nil || other == nil {
		return e == other
	}
	return e.payloadEqual(other)
}

func (e *Envelope) payloadEqual(other *Envelope) bool {
	if !e.props().Equal(other.props()) {
		return false
	}
	if len(e.SubMessages) != len(other.SubMessages) {
		return false
	}
	for i := range e.SubMessages {
		if !e.SubMessages[i].Equal(other.SubMessages[i]) {
			return false
		}
	}
	return true
}

// props never returns nil so callers can treat a zero Envelope as empty.
func (e *Envelope) props() *Properties {
	if e.Properties == nil {
		e.Properties = NewProperties()
	}
	return e.Properties
}

// Property is one entry of the bag. Present is false for an explicit null.
type Property struct {
	Key     string
	Value   []byte
	Present bool
}

// Properties is an insertion-ordered string-keyed bag of byte values.
// It is not safe for concurrent mutation.
type Properties struct {
	keys   []string
	values map[string]Property
}

// NewProperties creates an empty bag.
func NewProperties() *Properties {
	return &Properties{values: make(map[string]Property)}
}

// Len returns the number of entries, null entries included.
func (p *Properties) Len() int {
	return len(p.keys)
}

// Keys returns the keys in insertion order.
func (p *Properties) Keys() []string {
	out := make([]string, len(p.keys))
	copy(out, p.keys)
	return out
}

// Entries returns the entries in insertion order.
func (p *Properties) Entries() []Property {
	out := make([]Property, 0, len(p.keys))
	for _, k := range p.keys {
		out = append(out, p.values[k])
	}
	return out
}

// Has reports whether the key exists, whether null or not.
func (p *Properties) Has(key string) bool {
	_, ok := p.values[key]
	return ok
}

// Get returns the value and true when the key exists and is not null.
func (p *Properties) Get(key string) ([]byte, bool) {
	v, ok := p.values[key]
	if !ok || !v.Present {
		return nil, false
	}
	return v.Value, true
}

// Set stores a present value. Existing keys keep their position.
func (p *Properties) Set(key string, value []byte) {
	if value == nil {
		value = []byte{}
	}
	p.put(Property{Key: key, Value: value, Present: true})
}

// SetNull stores an explicit null for key.
func (p *Properties) SetNull(key string) {
	p.put(Property{Key: key})
}

// Delete removes key entirely.
func (p *Properties) Delete(key string) {
	if _, ok := p.values[key]; !ok {
		return
	}
	delete(p.values, key)
	for i, k := range p.keys {
		if k == key {
			p.keys = append(p.keys[:i], p.keys[i+1:]...)
			break
		}
	}
}

func (p *Properties) put(prop Property) {
	if p.values == nil {
		p.values = make(map[string]Property)
	}
	if _, ok := p.values[prop.Key]; !ok {
		p.keys = append(p.keys, prop.Key)
	}
	p.values[prop.Key] = prop
}

// Clone returns a deep copy.
func (p *Properties) Clone() *Properties {
	out := &Properties{
		keys:   make([]string, len(p.keys)),
		values: make(map[string]Property, len(p.values)),
	}
	copy(out.keys, p.keys)
	for k, v := range p.values {
		if v.Value != nil {
			v.Value = append([]byte{}, v.Value...)
		}
		out.values[k] = v
	}
	return out
}

// Equal compares keys, order, presence and values.
func (p *Properties) Equal(other *Properties) bool {
	if len(p.keys) != len(other.keys) {
		return false
	}
	for i, k := range p.keys {
		if other.keys[i] != k {
			return false
		}
		a, b := p.values[k], other.values[k]
		if a.Present != b.Present || !bytes.Equal(a.Value, b.Value) {
			return false
		}
	}
	return true
}
