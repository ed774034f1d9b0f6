// Package lrcp implements the Line Reversal Control Protocol: a session
// layer over UDP providing ordered, retransmitted byte streams, carrying an
// application that reverses each line it receives.
package lrcp

import (
	"fmt"
	"strconv"
	"strings"
)

// MaxPacketSize is the LRCP packet size limit; larger packets are not LRCP.
const MaxPacketSize = 1000

// MaxNumericValue bounds every numeric field, limiting sessions to 2 billion
// bytes of data transferred in each direction.
const MaxNumericValue = 2_147_483_648

// Message is one decoded LRCP message.
type Message interface{}

// A ConnectMessage asks the server to open a session.
type ConnectMessage struct {
	Session uint32
}

// A DataMessage carries payload bytes. Pos refers to the position in the
// stream of unescaped application bytes, not the escaped wire form.
type DataMessage struct {
	Session uint32
	Pos     uint32
	Data    string
}

// An AckMessage tells the other side how many payload bytes have been
// received so far.
type AckMessage struct {
	Session uint32
	Length  uint32
}

// A CloseMessage requests that the session is closed. Either side may send
// it.
type CloseMessage struct {
	Session uint32
}

// ParseMessage parses and validates one LRCP packet. Each message is a
// series of fields separated by forward slashes and starts and ends with a
// forward slash, like
//
//	/data/1234567/0/hello/
//
// Payload fields escape "/" and "\" with a leading backslash. Any packet
// that does not parse must be silently ignored by the caller.
func ParseMessage(s string) (Message, error) {
	if len(s) < 2 || !strings.HasPrefix(s, "/") || !strings.HasSuffix(s, "/") {
		return nil, fmt.Errorf("message must begin and end with a slash")
	}
	fields, err := splitEscaped(s[1 : len(s)-1])
	if err != nil {
		return nil, err
	}
	if len(fields) == 0 {
		return nil, fmt.Errorf("empty message")
	}

	switch kind := fields[0]; kind {
	case "connect":
		session, err := numericFields(fields, 1)
		if err != nil {
			return nil, err
		}
		return &ConnectMessage{Session: session[0]}, nil
	case "data":
		if len(fields) != 4 {
			return nil, fmt.Errorf("data message must have 3 fields")
		}
		numbers, err := numericFields(fields[:3], 2)
		if err != nil {
			return nil, err
		}
		return &DataMessage{Session: numbers[0], Pos: numbers[1], Data: fields[3]}, nil
	case "ack":
		numbers, err := numericFields(fields, 2)
		if err != nil {
			return nil, err
		}
		return &AckMessage{Session: numbers[0], Length: numbers[1]}, nil
	case "close":
		session, err := numericFields(fields, 1)
		if err != nil {
			return nil, err
		}
		return &CloseMessage{Session: session[0]}, nil
	default:
		return nil, fmt.Errorf("unknown message type: %q", kind)
	}
}

// numericFields parses fields[1:] as exactly count numeric values.
func numericFields(fields []string, count int) ([]uint32, error) {
	if len(fields) != count+1 {
		return nil, fmt.Errorf("%s message must have %d fields", fields[0], count)
	}
	numbers := make([]uint32, count)
	for i, field := range fields[1:] {
		value, err := strconv.ParseUint(field, 10, 32)
		if err != nil || value > MaxNumericValue {
			return nil, fmt.Errorf("invalid numeric field: %q", field)
		}
		numbers[i] = uint32(value)
	}
	return numbers, nil
}

// splitEscaped splits on unescaped slashes, unescaping the fields.
func splitEscaped(s string) ([]string, error) {
	var fields []string
	var current strings.Builder
	escaped := false
	for _, r := range s {
		switch {
		case escaped:
			current.WriteRune(r)
			escaped = false
		case r == '\\':
			escaped = true
		case r == '/':
			fields = append(fields, current.String())
			current.Reset()
		default:
			current.WriteRune(r)
		}
	}
	if escaped {
		return nil, fmt.Errorf("trailing escape character")
	}
	return append(fields, current.String()), nil
}

// escape makes payload bytes safe for a data field.
func escape(s string) string {
	var b strings.Builder
	for i := 0; i < len(s); i++ {
		if s[i] == '/' || s[i] == '\\' {
			b.WriteByte('\\')
		}
		b.WriteByte(s[i])
	}
	return b.String()
}

func formatAck(session, length uint32) string {
	return fmt.Sprintf("/ack/%d/%d/", session, length)
}

func formatData(session, pos uint32, data string) string {
	return fmt.Sprintf("/data/%d/%d/%s/", session, pos, escape(data))
}

func formatClose(session uint32) string {
	return fmt.Sprintf("/close/%d/", session)
}
