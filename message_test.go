package reachyhal

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildFrame(t *testing.T) {
	frame := buildFrame([]byte{15, 1, 2})
	assert.Equal(t, []byte{0xFF, 0xFF, 0x03, 15, 1, 2}, frame)
}

func TestKeepAliveFrame(t *testing.T) {
	assert.Equal(t, []byte{0xFF, 0xFF, 0x01, 200}, keepAliveFrame())
}

func TestDxlGetRegFrame(t *testing.T) {
	frame := dxlGetRegFrame(36, 2, []byte{10, 11})
	assert.Equal(t, []byte{0xFF, 0xFF, 0x05, 10, 36, 2, 10, 11}, frame)
}

func TestDxlSetRegFrame(t *testing.T) {
	frame := dxlSetRegFrame(30, 2, map[byte][]byte{12: {0x00, 0x08}})
	assert.Equal(t, []byte{0xFF, 0xFF, 0x06, 11, 30, 2, 12, 0x00, 0x08}, frame)
}

func TestOrbitaFrames(t *testing.T) {
	get := orbitaGetFrame(40, 10)
	assert.Equal(t, []byte{0xFF, 0xFF, 0x03, byte(MsgOrbitaGet), 40, 10}, get)

	set := orbitaSetFrameForDisks(40, 20, []int{1}, [][]byte{{1, 2, 3, 4}})
	assert.Equal(t, []byte{0xFF, 0xFF, 0x08, byte(MsgOrbitaSet), 40, 20, 1, 1, 2, 3, 4}, set)
}

func TestFanFrames(t *testing.T) {
	get := fanGetFrame([]byte{5, 6})
	assert.Equal(t, []byte{0xFF, 0xFF, 0x03, 30, 5, 6}, get)

	set := fanSetFrame(map[byte]byte{5: 1})
	assert.Equal(t, []byte{0xFF, 0xFF, 0x03, 31, 5, 1}, set)
}

func TestParseContainerDescriptors(t *testing.T) {
	b := payloadBuilder{}
	for _, c := range []containerDescriptor{
		{Type: "DynamixelMotor", Alias: "dxl_10"},
		{Type: "Load", Alias: "load_17"},
	} {
		b.putByte(byte(len(c.Type)))
		b.putBytes([]byte(c.Type)...)
		b.putByte(byte(len(c.Alias)))
		b.putBytes([]byte(c.Alias)...)
	}

	descs, err := parseContainerDescriptors(b.bytes())
	require.NoError(t, err)
	require.Len(t, descs, 2)
	assert.Equal(t, containerDescriptor{Type: "DynamixelMotor", Alias: "dxl_10"}, descs[0])
	assert.Equal(t, containerDescriptor{Type: "Load", Alias: "load_17"}, descs[1])
}

func TestParseContainerDescriptorsTruncated(t *testing.T) {
	_, err := parseContainerDescriptors([]byte{5, 'D', 'x'})
	assert.Error(t, err)
}

func TestPayloadReaderWidths(t *testing.T) {
	b := payloadBuilder{}
	b.putWord(0x1234)
	b.putDword(0xDEADBEEF)
	b.putFloat32(1.0)

	r := newPayloadReader(b.bytes())
	w, err := r.readWord()
	require.NoError(t, err)
	assert.Equal(t, uint16(0x1234), w)

	d, err := r.readDword()
	require.NoError(t, err)
	assert.Equal(t, uint32(0xDEADBEEF), d)

	f, err := r.readFloat32()
	require.NoError(t, err)
	assert.Equal(t, float32(1.0), f)

	_, err = r.readByte()
	assert.Error(t, err)
}
