package appmsg

import "strconv"

// MessageType тип сообщения App<->Backend.
// Запросы и коды ответов делят одно числовое пространство.
type MessageType int8

const (
	TypeRegister          MessageType = 0
	TypePostCar           MessageType = 1 // зарезервирован, Backend его не обрабатывает
	TypeRequestCars       MessageType = 2
	TypeStartRental       MessageType = 3
	TypeEndRental         MessageType = 4
	TypeCarList           MessageType = 5
	TypeSuccess           MessageType = 6
	TypeBadFormat         MessageType = 7
	TypeInvalidType       MessageType = 8
	TypeAlreadyRegistered MessageType = 9
	TypeNotRegistered     MessageType = 10
	TypeAlreadyRented     MessageType = 11
	TypeNotRented         MessageType = 12
	TypeCarUnavailable    MessageType = 13
)

var typeNames = map[MessageType]string{
	TypeRegister:          "REGISTER",
	TypePostCar:           "POST_CAR",
	TypeRequestCars:       "REQUEST_CARS",
	TypeStartRental:       "START_RENTAL",
	TypeEndRental:         "END_RENTAL",
	TypeCarList:           "CAR_LIST",
	TypeSuccess:           "SUCCESS",
	TypeBadFormat:         "BAD_FORMAT",
	TypeInvalidType:       "INVALID_TYPE",
	TypeAlreadyRegistered: "ALREADY_REGISTERED",
	TypeNotRegistered:     "NOT_REGISTERED",
	TypeAlreadyRented:     "ALREADY_RENTED",
	TypeNotRented:         "NOT_RENTED",
	TypeCarUnavailable:    "CAR_UNAVAILABLE",
}

// String возвращает символьное имя типа
func (t MessageType) String() string {
	if name, ok := typeNames[t]; ok {
		return name
	}
	return "UNKNOWN(" + strconv.Itoa(int(t)) + ")"
}

// Known проверяет, что тип входит в перечисление
func (t MessageType) Known() bool {
	_, ok := typeNames[t]
	return ok
}

// IsRequest проверяет, что Backend обрабатывает сообщения этого типа
func (t MessageType) IsRequest() bool {
	switch t {
	case TypeRegister, TypeRequestCars, TypeStartRental, TypeEndRental:
		return true
	default:
		return false
	}
}

// IsError проверяет, что тип является кодом ошибки
func (t MessageType) IsError() bool {
	return t >= TypeBadFormat && t <= TypeCarUnavailable
}
