package reachyhal

// FrameDecoder incrementally splits a byte stream into complete message
// payloads on the 0xFF 0xFF LEN PAYLOAD[LEN] framing. It is fed
// arbitrary chunks from the serial reader and hands back whichever messages
// became complete in that chunk; a trailing partial frame is retained for
// the next call. Bytes before the first header are silently discarded, and
// it makes no assumption about chunk boundaries: the same bytes delivered
// in one call or many produce the same sequence of messages.
//
// Splitting the whole buffer on the header byte string would be ambiguous
// whenever a payload itself contains 0xFF 0xFF; this implementation avoids
// that by starting each header search at the position where the previous
// message ended, so bytes inside an already-consumed payload are never
// taken for a header.
type FrameDecoder struct {
	buf []byte
}

// NewFrameDecoder returns an empty decoder.
func NewFrameDecoder() *FrameDecoder {
	return &FrameDecoder{}
}

// Feed appends newly-read bytes and returns every message payload that is
// now complete, in arrival order.
func (d *FrameDecoder) Feed(chunk []byte) [][]byte {
	d.buf = append(d.buf, chunk...)

	var messages [][]byte
	pos := 0
	for {
		headerAt := indexOfHeader(d.buf, pos)
		if headerAt < 0 {
			// No full header in what remains. A lone trailing 0xFF might be
			// the first byte of a header split across the next chunk, so
			// keep it; everything else can never complete a message.
			if n := len(d.buf); n > pos && d.buf[n-1] == frameHeader1 {
				d.buf = d.buf[n-1:]
			} else {
				d.buf = d.buf[:0]
			}
			return messages
		}

		rest := d.buf[headerAt+2:]
		if len(rest) < 1 {
			// Header seen but the length byte hasn't arrived yet.
			d.buf = d.buf[headerAt:]
			return messages
		}

		length := int(rest[0])
		if len(rest) < 1+length {
			// Length byte present but the payload isn't fully buffered yet.
			d.buf = d.buf[headerAt:]
			return messages
		}

		payload := make([]byte, length)
		copy(payload, rest[1:1+length])
		messages = append(messages, payload)

		pos = headerAt + 2 + 1 + length
	}
}

// indexOfHeader finds the next occurrence of 0xFF 0xFF at or after from.
func indexOfHeader(buf []byte, from int) int {
	for i := from; i+1 < len(buf); i++ {
		if buf[i] == frameHeader1 && buf[i+1] == frameHeader2 {
			return i
		}
	}
	return -1
}
