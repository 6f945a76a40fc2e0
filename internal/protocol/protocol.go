// Package protocol implements the fixed-field text protocol spoken between
// the trivia server and its clients. Every message on the wire has the form
//
//	<command padded to 16 chars>|<payload length zero-padded to 4 digits>|<payload>
//
// with '|' separating the three fields and '#' separating tokens within a
// payload. The command and length fields have fixed widths so a complete
// header is always exactly HeaderLength bytes, which is what allows messages
// to be reassembled from a TCP stream (see MessageReader).
package protocol

import (
	"fmt"
	"strconv"
	"strings"
)

const (
	// CommandFieldLength is the fixed width of the command field.
	CommandFieldLength = 16
	// LengthFieldLength is the fixed width of the payload length field.
	LengthFieldLength = 4
	// MaxPayloadLength is the largest payload size representable by the
	// length field.
	MaxPayloadLength = 9999

	// HeaderLength is the number of bytes preceding the payload: the command
	// field, the length field, and the two field delimiters.
	HeaderLength = CommandFieldLength + 1 + LengthFieldLength + 1

	// FieldDelimiter separates the command, length, and payload fields.
	FieldDelimiter = "|"
	// DataDelimiter separates tokens within a payload.
	DataDelimiter = "#"

	commandPadChar = ' '
	messageParts   = 3
)

// DefaultPort is the port the server listens on unless configured otherwise.
const DefaultPort = 5678

// BuildMessage assembles a complete wire message from a command token and a
// payload. It returns false if the command is wider than the command field or
// the payload is larger than the length field can express; both indicate a
// bug in the caller rather than a client-triggerable condition.
func BuildMessage(command, payload string) (string, bool) {
	if len(command) > CommandFieldLength || len(payload) > MaxPayloadLength {
		return "", false
	}

	commandField := command + strings.Repeat(string(commandPadChar), CommandFieldLength-len(command))
	lengthField := fmt.Sprintf("%0*d", LengthFieldLength, len(payload))

	return strings.Join([]string{commandField, lengthField, payload}, FieldDelimiter), true
}

// ParseMessage splits a wire message into its command token (with the field
// padding stripped) and payload. Malformed input of any shape is a protocol
// failure reported as ok=false, never a panic: clients can send us anything.
func ParseMessage(message string) (command, payload string, ok bool) {
	parts := strings.SplitN(message, FieldDelimiter, messageParts+1)
	if len(parts) != messageParts {
		return "", "", false
	}

	commandField, lengthField, data := parts[0], parts[1], parts[2]
	if len(commandField) != CommandFieldLength {
		return "", "", false
	}

	length, err := strconv.Atoi(strings.TrimSpace(lengthField))
	if err != nil || length < 0 || length > MaxPayloadLength {
		return "", "", false
	}
	if length != len(data) {
		return "", "", false
	}

	return strings.TrimRight(commandField, string(commandPadChar)), data, true
}

// SplitFields tokenizes a payload on the data delimiter and validates the
// token count. A count mismatch is how handlers detect a payload of the
// wrong shape (e.g. a LOGIN payload that isn't exactly user#password), so it
// is reported as ok=false rather than an error.
func SplitFields(data string, expected int) ([]string, bool) {
	fields := strings.Split(data, DataDelimiter)
	if len(fields) != expected {
		return nil, false
	}
	return fields, true
}

// JoinFields assembles payload tokens with the data delimiter.
func JoinFields(fields []string) string {
	return strings.Join(fields, DataDelimiter)
}
