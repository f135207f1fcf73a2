package reachyhal

/*
This file contains the routines for reading from and writing to message
payloads (the bytes inside a frame, after the header and length). The wire
format here is little-endian throughout, unlike the big-endian layout a
Modbus-style PDU would use.
*/

import (
	"encoding/binary"
	"fmt"
	"math"
)

// payloadBuilder accumulates the bytes of an outgoing message payload.
type payloadBuilder struct {
	data []byte
}

func (p *payloadBuilder) bytes() []byte {
	return p.data
}

func (p *payloadBuilder) putByte(b byte) {
	p.data = append(p.data, b)
}

func (p *payloadBuilder) putBytes(bs ...byte) {
	p.data = append(p.data, bs...)
}

func (p *payloadBuilder) putWord(w uint16) {
	var buf [2]byte
	binary.LittleEndian.PutUint16(buf[:], w)
	p.data = append(p.data, buf[:]...)
}

func (p *payloadBuilder) putDword(d uint32) {
	var buf [4]byte
	binary.LittleEndian.PutUint32(buf[:], d)
	p.data = append(p.data, buf[:]...)
}

func (p *payloadBuilder) putFloat32(f float32) {
	p.putDword(math.Float32bits(f))
}

// payloadReader walks the bytes of an incoming message payload.
type payloadReader struct {
	cursor int
	data   []byte
}

func newPayloadReader(data []byte) *payloadReader {
	return &payloadReader{data: data}
}

func (p *payloadReader) canRead(count int) error {
	if p.cursor+count > len(p.data) {
		return fmt.Errorf("payload too short: need %d bytes at offset %d, have %d total", count, p.cursor, len(p.data))
	}
	return nil
}

func (p *payloadReader) remaining() int {
	return len(p.data) - p.cursor
}

func (p *payloadReader) readByte() (byte, error) {
	if err := p.canRead(1); err != nil {
		return 0, err
	}
	b := p.data[p.cursor]
	p.cursor++
	return b, nil
}

func (p *payloadReader) readBytes(count int) ([]byte, error) {
	if err := p.canRead(count); err != nil {
		return nil, err
	}
	ret := p.data[p.cursor : p.cursor+count]
	p.cursor += count
	return ret, nil
}

func (p *payloadReader) readWord() (uint16, error) {
	if err := p.canRead(2); err != nil {
		return 0, err
	}
	w := binary.LittleEndian.Uint16(p.data[p.cursor:])
	p.cursor += 2
	return w, nil
}

func (p *payloadReader) readDword() (uint32, error) {
	if err := p.canRead(4); err != nil {
		return 0, err
	}
	d := binary.LittleEndian.Uint32(p.data[p.cursor:])
	p.cursor += 4
	return d, nil
}

func (p *payloadReader) readFloat32() (float32, error) {
	d, err := p.readDword()
	if err != nil {
		return 0, err
	}
	return math.Float32frombits(d), nil
}
