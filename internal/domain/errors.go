package domain

import "errors"

// ErrInvalidCarAddress возвращается, когда строка "address:port" не разбирается
var ErrInvalidCarAddress = errors.New("domain: invalid car address")
