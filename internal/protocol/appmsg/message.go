package appmsg

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"
	"unicode/utf8"
)

const (
	// HeaderLength user_id(2) + message_type(1) + payload_length(2)
	HeaderLength = 5

	// MaxPayloadLength максимальная длина payload в байтах
	MaxPayloadLength = math.MaxUint16
)

// Message сообщение между App и Backend.
// Используется и для запросов, и для ответов.
type Message struct {
	UserID  uint16
	Type    MessageType
	Payload string
}

// Encode кодирует сообщение: заголовок в сетевом порядке байт, затем payload
func Encode(m Message) ([]byte, error) {
	if len(m.Payload) > MaxPayloadLength {
		return nil, fmt.Errorf("%w: %d bytes", ErrPayloadTooLarge, len(m.Payload))
	}

	buf := make([]byte, HeaderLength+len(m.Payload))
	putHeader(buf, m.UserID, m.Type, uint16(len(m.Payload)))
	copy(buf[HeaderLength:], m.Payload)

	return buf, nil
}

// Decode декодирует сообщение из буфера.
// Заявленной длине payload доверяем: если байтов меньше, берём то, что есть.
func Decode(b []byte) (Message, error) {
	if len(b) < HeaderLength {
		return Message{}, fmt.Errorf("%w: got %d bytes, header needs %d", ErrMalformed, len(b), HeaderLength)
	}

	userID, msgType, length := parseHeader(b)

	payload := b[HeaderLength:]
	if int(length) < len(payload) {
		payload = payload[:length]
	}
	if !utf8.Valid(payload) {
		return Message{UserID: userID, Type: msgType}, fmt.Errorf("%w: payload is not valid UTF-8", ErrMalformed)
	}

	return Message{UserID: userID, Type: msgType, Payload: string(payload)}, nil
}

// ReadMessage читает ровно одно сообщение из потока.
// io.EOF возвращается как есть, только если поток закрыт до первого байта.
func ReadMessage(r io.Reader) (Message, error) {
	var header [HeaderLength]byte
	if n, err := io.ReadFull(r, header[:]); err != nil {
		if n == 0 && errors.Is(err, io.EOF) {
			return Message{}, io.EOF
		}
		return Message{}, fmt.Errorf("%w: short header (%d bytes): %w", ErrMalformed, n, err)
	}

	userID, msgType, length := parseHeader(header[:])

	payload := make([]byte, length)
	if _, err := io.ReadFull(r, payload); err != nil {
		return Message{UserID: userID, Type: msgType},
			fmt.Errorf("%w: short payload (want %d bytes): %w", ErrMalformed, length, err)
	}
	if !utf8.Valid(payload) {
		return Message{UserID: userID, Type: msgType}, fmt.Errorf("%w: payload is not valid UTF-8", ErrMalformed)
	}

	return Message{UserID: userID, Type: msgType, Payload: string(payload)}, nil
}

// WriteMessage кодирует и записывает сообщение одним вызовом Write
func WriteMessage(w io.Writer, m Message) error {
	buf, err := Encode(m)
	if err != nil {
		return err
	}
	_, err = w.Write(buf)
	return err
}

// String форматирует сообщение для логов
func (m Message) String() string {
	return fmt.Sprintf("user=%d type=%s size=%d payload=%q", m.UserID, m.Type, len(m.Payload), m.Payload)
}

func putHeader(buf []byte, userID uint16, msgType MessageType, length uint16) {
	binary.BigEndian.PutUint16(buf[0:2], userID)
	buf[2] = byte(msgType)
	binary.BigEndian.PutUint16(buf[3:5], length)
}

func parseHeader(b []byte) (uint16, MessageType, uint16) {
	return binary.BigEndian.Uint16(b[0:2]), MessageType(int8(b[2])), binary.BigEndian.Uint16(b[3:5])
}
