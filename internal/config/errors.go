package config

import "errors"

var (
	// ErrRead возвращается, когда файл конфигурации не удалось прочитать или разобрать
	ErrRead = errors.New("config: failed to read")

	// ErrInvalid возвращается при недопустимых значениях
	ErrInvalid = errors.New("config: invalid configuration")
)
