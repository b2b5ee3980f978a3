package rtnl

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sys/unix"
)

func TestAttrRoundTrip(t *testing.T) {
	attrs := []Attr{
		StringAttr(unix.IFLA_IFNAME, "dummy0"),
		Uint32Attr(unix.IFLA_MTU, 1500),
		NewAttr(200, []byte{0xde, 0xad, 0xbe, 0xef}),
	}

	decoded, err := ParseAttrs(EncodeAttrs(attrs))
	require.NoError(t, err)
	require.Len(t, decoded, 3)

	assert.Equal(t, "dummy0", decoded[0].String())
	assert.Equal(t, uint32(1500), decoded[1].Uint32())
	// unknown type code preserved opaque
	assert.Equal(t, uint16(200), decoded[2].Code())
	assert.Equal(t, []byte{0xde, 0xad, 0xbe, 0xef}, decoded[2].Value)
}

func TestAttrAlignment(t *testing.T) {
	// 5-byte value pads to the next 4-byte boundary on the wire
	a := NewAttr(1, []byte{1, 2, 3, 4, 5})
	wire := a.Serialize()
	assert.Equal(t, 12, len(wire))
	assert.Equal(t, 12, a.Len())
	// header length field stays unaligned
	assert.Equal(t, uint16(9), native.Uint16(wire[0:2]))

	decoded, err := ParseAttrs(wire)
	require.NoError(t, err)
	require.Len(t, decoded, 1)
	assert.Equal(t, []byte{1, 2, 3, 4, 5}, decoded[0].Value)
}

func TestNestedAttr(t *testing.T) {
	inner := []Attr{
		StringAttr(unix.IFLA_INFO_KIND, "dummy"),
	}
	outer := NestedAttr(unix.IFLA_LINKINFO, inner)

	assert.Equal(t, uint16(unix.IFLA_LINKINFO), outer.Code())
	assert.NotZero(t, outer.Type&unix.NLA_F_NESTED)

	decoded, err := ParseAttrs(EncodeAttrs([]Attr{outer}))
	require.NoError(t, err)
	require.Len(t, decoded, 1)

	children, err := decoded[0].Nested()
	require.NoError(t, err)
	require.Len(t, children, 1)
	assert.Equal(t, "dummy", children[0].String())
}

func TestParseAttrsMalformed(t *testing.T) {
	// declared length runs past the buffer
	b := make([]byte, 8)
	native.PutUint16(b[0:2], 32)
	native.PutUint16(b[2:4], 1)
	_, err := ParseAttrs(b)
	assert.Error(t, err)

	// declared length shorter than the header
	native.PutUint16(b[0:2], 2)
	_, err = ParseAttrs(b)
	assert.Error(t, err)
}

func TestParseAttrsEmpty(t *testing.T) {
	attrs, err := ParseAttrs(nil)
	require.NoError(t, err)
	assert.Empty(t, attrs)
}

func TestLookup(t *testing.T) {
	attrs := []Attr{
		Uint32Attr(unix.FRA_PRIORITY, 100),
		Uint32Attr(unix.FRA_TABLE, 254),
		Uint32Attr(unix.FRA_PRIORITY, 200), // first occurrence wins
	}

	v, ok := Lookup(attrs, unix.FRA_PRIORITY)
	require.True(t, ok)
	assert.Equal(t, uint32(100), native.Uint32(v))

	_, ok = Lookup(attrs, unix.FRA_IIFNAME)
	assert.False(t, ok, "absent attribute is not an error, just absent")
}

func TestLookupMasksFlags(t *testing.T) {
	nested := NestedAttr(unix.IFLA_LINKINFO, nil)
	v, ok := Lookup([]Attr{nested}, unix.IFLA_LINKINFO)
	assert.True(t, ok)
	assert.Empty(t, v)
}

func TestStringAttrNulTerminated(t *testing.T) {
	a := StringAttr(unix.FRA_IIFNAME, "eth0")
	assert.Equal(t, []byte{'e', 't', 'h', '0', 0}, a.Value)
	assert.Equal(t, "eth0", a.String())
}
