package carmsg

import (
	"fmt"
	"io"
	"strconv"
)

// Length размер сообщения Backend<->Car в байтах
const Length = 2

// Code команда Backend -> Car или результат Car -> Backend
type Code int8

const (
	CodeStartRental Code = 0
	CodeEndRental   Code = 1
	CodePing        Code = 2
	CodeSuccess     Code = 3
	CodeFail        Code = 4
)

// Reason причина отказа, имеет смысл только вместе с CodeFail
type Reason int8

const (
	ReasonNone          Reason = 0
	ReasonAlreadyRented Reason = 1
	ReasonNotRented     Reason = 2
)

// Message команда или ответ машины
type Message struct {
	Code   Code
	Reason Reason
}

// Command создает команду без причины
func Command(code Code) Message {
	return Message{Code: code, Reason: ReasonNone}
}

// Success создает успешный ответ
func Success() Message {
	return Message{Code: CodeSuccess, Reason: ReasonNone}
}

// Fail создает ответ с отказом
func Fail(reason Reason) Message {
	return Message{Code: CodeFail, Reason: reason}
}

// IsSuccess проверяет, что машина подтвердила команду
func (m Message) IsSuccess() bool {
	return m.Code == CodeSuccess
}

// Encode кодирует сообщение в два байта
func Encode(m Message) []byte {
	return []byte{byte(m.Code), byte(m.Reason)}
}

// Decode декодирует сообщение ровно из двух байт
func Decode(b []byte) (Message, error) {
	if len(b) != Length {
		return Message{}, fmt.Errorf("%w: got %d bytes, want %d", ErrMalformed, len(b), Length)
	}
	return Message{Code: Code(int8(b[0])), Reason: Reason(int8(b[1]))}, nil
}

// ReadMessage читает одно сообщение из потока
func ReadMessage(r io.Reader) (Message, error) {
	var buf [Length]byte
	if n, err := io.ReadFull(r, buf[:]); err != nil {
		return Message{}, fmt.Errorf("%w: read %d of %d bytes: %w", ErrMalformed, n, Length, err)
	}
	return Decode(buf[:])
}

// WriteMessage записывает одно сообщение в поток
func WriteMessage(w io.Writer, m Message) error {
	_, err := w.Write(Encode(m))
	return err
}

func (m Message) String() string {
	return m.Code.String() + "/" + m.Reason.String()
}

func (c Code) String() string {
	switch c {
	case CodeStartRental:
		return "START_RENTAL"
	case CodeEndRental:
		return "END_RENTAL"
	case CodePing:
		return "PING"
	case CodeSuccess:
		return "SUCCESS"
	case CodeFail:
		return "FAIL"
	default:
		return "UNKNOWN(" + strconv.Itoa(int(c)) + ")"
	}
}

func (r Reason) String() string {
	switch r {
	case ReasonNone:
		return "NONE"
	case ReasonAlreadyRented:
		return "ALREADY_RENTED"
	case ReasonNotRented:
		return "NOT_RENTED"
	default:
		return "UNKNOWN(" + strconv.Itoa(int(r)) + ")"
	}
}
