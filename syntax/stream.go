// Package syntax is a thin convenience layer over the TLS presentation-language
// codec (github.com/cisco/go-tls-syntax). It lets callers accumulate several
// values into one buffer, or consume them back off one, without juggling
// offsets by hand.
package syntax

import (
	tlssyntax "github.com/cisco/go-tls-syntax"
)

// Marshal and Unmarshal are re-exported so callers that only need a single
// value don't have to import go-tls-syntax directly.
func Marshal(val interface{}) ([]byte, error) {
	return tlssyntax.Marshal(val)
}

func Unmarshal(data []byte, val interface{}) (int, error) {
	return tlssyntax.Unmarshal(data, val)
}

// WriteStream accumulates a sequence of TLS-encoded values into one buffer.
type WriteStream struct {
	buffer []byte
}

func NewWriteStream() *WriteStream {
	return &WriteStream{}
}

func (s *WriteStream) Data() []byte {
	return s.buffer
}

func (s *WriteStream) Write(val interface{}) error {
	enc, err := tlssyntax.Marshal(val)
	if err != nil {
		return err
	}
	s.buffer = append(s.buffer, enc...)
	return nil
}

func (s *WriteStream) WriteAll(vals ...interface{}) error {
	for _, val := range vals {
		if err := s.Write(val); err != nil {
			return err
		}
	}
	return nil
}

// Append copies raw, already-encoded bytes onto the buffer.
func (s *WriteStream) Append(b []byte) {
	s.buffer = append(s.buffer, b...)
}

// ReadStream consumes a sequence of TLS-encoded values off of one buffer.
type ReadStream struct {
	buffer []byte
	cursor int
}

func NewReadStream(data []byte) *ReadStream {
	return &ReadStream{buffer: data}
}

func (s *ReadStream) Read(val interface{}) (int, error) {
	read, err := tlssyntax.Unmarshal(s.buffer[s.cursor:], val)
	if err != nil {
		return 0, err
	}

	s.cursor += read
	return read, nil
}

func (s *ReadStream) ReadAll(vals ...interface{}) (int, error) {
	total := 0
	for _, val := range vals {
		read, err := s.Read(val)
		if err != nil {
			return 0, err
		}
		total += read
	}
	return total, nil
}

// Consumed reports how many bytes have been read so far.
func (s *ReadStream) Consumed() int {
	return s.cursor
}

// Remaining reports how many bytes are still unread.
func (s *ReadStream) Remaining() int {
	return len(s.buffer) - s.cursor
}
