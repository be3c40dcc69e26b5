package carmsg

import "errors"

// ErrMalformed возвращается, когда сообщение не состоит ровно из двух байт
var ErrMalformed = errors.New("carmsg: malformed message")
