package appmsg

import "errors"

var (
	// ErrMalformed возвращается, когда сообщение короче заголовка или payload не является UTF-8
	ErrMalformed = errors.New("appmsg: malformed message")

	// ErrPayloadTooLarge возвращается, когда payload не помещается в 16-битное поле длины
	ErrPayloadTooLarge = errors.New("appmsg: payload too large")
)
