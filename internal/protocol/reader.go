package protocol

import (
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// ErrMalformedHeader is returned by MessageReader when the bytes on the wire
// do not form a valid message header. The connection is unrecoverable at
// that point since the stream can no longer be re-framed.
var ErrMalformedHeader = errors.New("malformed message header")

// MessageReader reassembles complete protocol messages from a byte stream.
//
// TCP gives no guarantee that one read corresponds to one message: a message
// may arrive split across several segments and several messages may arrive
// in one. Because the header has a fixed width the reader can consume exactly
// HeaderLength bytes, learn the payload length, and then consume exactly that
// many more, leaving the stream positioned at the next message.
type MessageReader struct {
	r      io.Reader
	header [HeaderLength]byte
}

func NewMessageReader(r io.Reader) *MessageReader {
	return &MessageReader{r: r}
}

// ReadMessage blocks until one complete message has been read and decoded.
// Transport errors are returned as-is (io.EOF included); a header that
// violates the framing rules returns ErrMalformedHeader.
func (mr *MessageReader) ReadMessage() (Message, error) {
	if _, err := io.ReadFull(mr.r, mr.header[:]); err != nil {
		return Message{}, err
	}

	commandField := string(mr.header[:CommandFieldLength])
	lengthField := string(mr.header[CommandFieldLength+1 : HeaderLength-1])

	if mr.header[CommandFieldLength] != FieldDelimiter[0] || mr.header[HeaderLength-1] != FieldDelimiter[0] {
		return Message{}, ErrMalformedHeader
	}

	length, err := strconv.Atoi(strings.TrimSpace(lengthField))
	if err != nil || length < 0 || length > MaxPayloadLength {
		return Message{}, ErrMalformedHeader
	}

	payload := make([]byte, length)
	if _, err := io.ReadFull(mr.r, payload); err != nil {
		// A stream that ends mid-payload is a disconnect, but io.EOF here
		// would look like a clean close to the caller.
		if err == io.EOF {
			err = io.ErrUnexpectedEOF
		}
		return Message{}, fmt.Errorf("reading %d byte payload: %w", length, err)
	}

	token := strings.TrimRight(commandField, string(commandPadChar))
	return Message{
		Command: ParseCommand(token),
		Token:   token,
		Payload: string(payload),
	}, nil
}
