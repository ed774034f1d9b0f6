package speed

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
)

// Message types for the Speed Daemon protocol.
//
// The protocol uses a binary format. Each message starts with a single u8
// identifying the message type. All integers are unsigned big-endian, and
// strings are transmitted with a u8 length prefix, so they are limited to
// 255 bytes.
const (
	ErrorMessageType         uint8 = 0x10
	PlateMessageType         uint8 = 0x20
	TicketMessageType        uint8 = 0x21
	WantHeartbeatMessageType uint8 = 0x40
	HeartbeatMessageType     uint8 = 0x41
	IAmCameraMessageType     uint8 = 0x80
	IAmDispatcherMessageType uint8 = 0x81
)

// Message is one decoded client-to-server message.
type Message interface{}

// UnknownMessageTypeError reports a message type the protocol does not
// define. It is an error for a client to send one.
type UnknownMessageTypeError struct {
	Type uint8
}

func (e *UnknownMessageTypeError) Error() string {
	return fmt.Sprintf("illegal message: %02X", e.Type)
}

// ReadMessage reads one client message from r.
//
// It returns io.EOF when the stream ends cleanly on a message boundary. A
// stream that ends mid-message yields io.ErrUnexpectedEOF, and an undefined
// message type yields an UnknownMessageTypeError.
func ReadMessage(r io.Reader) (Message, error) {
	var t uint8
	if err := binary.Read(r, binary.BigEndian, &t); err != nil {
		return nil, err
	}
	switch t {
	case PlateMessageType:
		return readPlateMessage(r)
	case WantHeartbeatMessageType:
		return readWantHeartbeatMessage(r)
	case IAmCameraMessageType:
		return readIAmCameraMessage(r)
	case IAmDispatcherMessageType:
		return readIAmDispatcherMessage(r)
	default:
		return nil, &UnknownMessageTypeError{Type: t}
	}
}

// A PlateMessage reports that a number plate was observed by a camera.
type PlateMessage struct {
	Plate     string
	Timestamp uint32
}

func readPlateMessage(r io.Reader) (*PlateMessage, error) {
	m := &PlateMessage{}
	plate, err := readString(r)
	if err != nil {
		return nil, fmt.Errorf("error reading PLATE: %w", err)
	}
	m.Plate = plate
	if err := binary.Read(r, binary.BigEndian, &m.Timestamp); err != nil {
		return nil, fmt.Errorf("error reading TIMESTAMP: %w", unexpectedEOF(err))
	}
	return m, nil
}

// A WantHeartbeatMessage requests heartbeats at the given interval, specified
// in deciseconds. An interval of 0 deciseconds means no heartbeats at all.
type WantHeartbeatMessage struct {
	Interval uint32
}

func readWantHeartbeatMessage(r io.Reader) (*WantHeartbeatMessage, error) {
	m := &WantHeartbeatMessage{}
	if err := binary.Read(r, binary.BigEndian, &m.Interval); err != nil {
		return nil, fmt.Errorf("error reading INTERVAL: %w", unexpectedEOF(err))
	}
	return m, nil
}

// An IAmCameraMessage identifies the client as a speed camera at a fixed
// position. The speed limit is in miles per hour.
type IAmCameraMessage struct {
	Road  uint16
	Mile  uint16
	Limit uint16
}

func readIAmCameraMessage(r io.Reader) (*IAmCameraMessage, error) {
	m := &IAmCameraMessage{}
	if err := binary.Read(r, binary.BigEndian, m); err != nil {
		return nil, fmt.Errorf("error reading IAmCamera fields: %w", unexpectedEOF(err))
	}
	return m, nil
}

// An IAmDispatcherMessage identifies the client as a ticket dispatcher
// responsible for a set of roads.
type IAmDispatcherMessage struct {
	Roads []uint16
}

func readIAmDispatcherMessage(r io.Reader) (*IAmDispatcherMessage, error) {
	var count uint8
	if err := binary.Read(r, binary.BigEndian, &count); err != nil {
		return nil, fmt.Errorf("error reading NUMROADS: %w", unexpectedEOF(err))
	}
	roads := make([]uint16, count)
	if err := binary.Read(r, binary.BigEndian, &roads); err != nil {
		return nil, fmt.Errorf("error reading ROADS: %w", unexpectedEOF(err))
	}
	return &IAmDispatcherMessage{Roads: roads}, nil
}

func readString(r io.Reader) (string, error) {
	var length uint8
	if err := binary.Read(r, binary.BigEndian, &length); err != nil {
		return "", unexpectedEOF(err)
	}
	buf := make([]byte, length)
	if _, err := io.ReadFull(r, buf); err != nil {
		return "", unexpectedEOF(err)
	}
	return string(buf), nil
}

// unexpectedEOF maps a bare EOF inside a message payload to
// io.ErrUnexpectedEOF so that only a boundary EOF reads as a clean close.
func unexpectedEOF(err error) error {
	if err == io.EOF {
		return io.ErrUnexpectedEOF
	}
	return err
}

// An ErrorMessage notifies a client that it did something the protocol
// declares an error. The server disconnects the client after sending it.
type ErrorMessage struct {
	Msg string
}

func (m *ErrorMessage) MarshalBinary() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte(ErrorMessageType)
	if err := writeString(&buf, m.Msg); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// A TicketMessage is a speeding ticket delivered to a dispatcher.
//
// Mile1 and Timestamp1 refer to the earlier of the two observations, Mile2
// and Timestamp2 to the later. Speed is in hundredths of miles per hour.
type TicketMessage struct {
	Plate      string
	Road       uint16
	Mile1      uint16
	Timestamp1 uint32
	Mile2      uint16
	Timestamp2 uint32
	Speed      uint16
}

func (m *TicketMessage) MarshalBinary() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte(TicketMessageType)
	if err := writeString(&buf, m.Plate); err != nil {
		return nil, err
	}
	for _, v := range []any{m.Road, m.Mile1, m.Timestamp1, m.Mile2, m.Timestamp2, m.Speed} {
		if err := binary.Write(&buf, binary.BigEndian, v); err != nil {
			return nil, err
		}
	}
	return buf.Bytes(), nil
}

// A HeartbeatMessage lets a client check that the connection is still alive.
type HeartbeatMessage struct{}

func (m *HeartbeatMessage) MarshalBinary() ([]byte, error) {
	return []byte{HeartbeatMessageType}, nil
}

func writeString(buf *bytes.Buffer, s string) error {
	if len(s) > 255 {
		return fmt.Errorf("string exceeds length prefix: %d bytes", len(s))
	}
	buf.WriteByte(uint8(len(s)))
	buf.WriteString(s)
	return nil
}
