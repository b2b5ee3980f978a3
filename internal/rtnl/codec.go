package rtnl

import (
	"fmt"

	vnl "github.com/vishvananda/netlink/nl"
	"golang.org/x/sys/unix"
)

var native = vnl.NativeEndian()

// attrHdrLen is the length of the type/length header preceding every
// attribute value.
const attrHdrLen = unix.SizeofRtAttr

// Attr is a single netlink attribute: a numeric type code and an opaque
// value. Values of container attributes hold further attributes; decode
// them on demand with Nested.
type Attr struct {
	Type  uint16
	Value []byte
}

// NewAttr returns an attribute with the given type code and raw value.
func NewAttr(typ uint16, value []byte) Attr {
	return Attr{Type: typ, Value: value}
}

// Uint32Attr returns an attribute holding a native-endian uint32.
func Uint32Attr(typ uint16, v uint32) Attr {
	b := make([]byte, 4)
	native.PutUint32(b, v)
	return Attr{Type: typ, Value: b}
}

// StringAttr returns an attribute holding a NUL-terminated string, the
// form the kernel expects for names (IFLA_IFNAME, FRA_IIFNAME).
func StringAttr(typ uint16, s string) Attr {
	return Attr{Type: typ, Value: append([]byte(s), 0)}
}

// NestedAttr returns a container attribute holding the encoded children.
func NestedAttr(typ uint16, children []Attr) Attr {
	return Attr{Type: typ | unix.NLA_F_NESTED, Value: EncodeAttrs(children)}
}

// Code returns the attribute type with the container/byte-order flag bits
// masked off.
func (a Attr) Code() uint16 {
	return a.Type &^ (unix.NLA_F_NESTED | unix.NLA_F_NET_BYTEORDER)
}

// Uint32 decodes the value as a native-endian uint32.
func (a Attr) Uint32() uint32 {
	if len(a.Value) < 4 {
		return 0
	}
	return native.Uint32(a.Value)
}

// String decodes the value as a NUL-terminated string.
func (a Attr) String() string {
	v := a.Value
	for i, b := range v {
		if b == 0 {
			return string(v[:i])
		}
	}
	return string(v)
}

// Nested decodes the value as a list of child attributes.
func (a Attr) Nested() ([]Attr, error) {
	return ParseAttrs(a.Value)
}

// Len returns the aligned wire length of the attribute.
// Together with Serialize this satisfies nl.NetlinkRequestData, so an
// Attr can be appended directly to an outgoing nl.NetlinkRequest.
func (a Attr) Len() int {
	return attrAlign(attrHdrLen + len(a.Value))
}

// Serialize renders the attribute in wire format: header with unaligned
// length, value, then zero padding to a 4-byte boundary.
func (a Attr) Serialize() []byte {
	l := attrHdrLen + len(a.Value)
	buf := make([]byte, attrAlign(l))
	native.PutUint16(buf[0:2], uint16(l))
	native.PutUint16(buf[2:4], a.Type)
	copy(buf[attrHdrLen:], a.Value)
	return buf
}

// EncodeAttrs renders a list of attributes in wire format.
func EncodeAttrs(attrs []Attr) []byte {
	var buf []byte
	for _, a := range attrs {
		buf = append(buf, a.Serialize()...)
	}
	return buf
}

// ParseAttrs decodes a raw attribute list. Attribute order is preserved.
// Unknown type codes are kept as-is; the caller decides what to do with
// them.
func ParseAttrs(b []byte) ([]Attr, error) {
	var attrs []Attr
	for len(b) >= attrHdrLen {
		l := int(native.Uint16(b[0:2]))
		typ := native.Uint16(b[2:4])
		if l < attrHdrLen || l > len(b) {
			return nil, fmt.Errorf("malformed attribute: length %d with %d bytes remaining", l, len(b))
		}
		value := make([]byte, l-attrHdrLen)
		copy(value, b[attrHdrLen:l])
		attrs = append(attrs, Attr{Type: typ, Value: value})

		next := attrAlign(l)
		if next >= len(b) {
			break
		}
		b = b[next:]
	}
	return attrs, nil
}

// Lookup returns the value of the first attribute with the given type
// code, or ok=false when absent. Absence is not an error; callers handle
// it explicitly.
func Lookup(attrs []Attr, code uint16) ([]byte, bool) {
	for _, a := range attrs {
		if a.Code() == code {
			return a.Value, true
		}
	}
	return nil, false
}

func attrAlign(n int) int {
	return (n + unix.NLA_ALIGNTO - 1) & ^(unix.NLA_ALIGNTO - 1)
}
