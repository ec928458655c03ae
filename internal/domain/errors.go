package domain

import "errors"

// Ошибки предметной области
var (
	// ErrContractNotFound возвращается, когда контракт не найден
	ErrContractNotFound = errors.New("contract not found")

	// ErrInvalidStatusTransition возвращается при недопустимой смене статуса контракта
	ErrInvalidStatusTransition = errors.New("invalid contract status transition")

	// ErrContractTerminated возвращается при попытке изменить расторгнутый контракт
	ErrContractTerminated = errors.New("contract is terminated")

	// ErrCounterpartyNotFound возвращается, когда контрагент не найден
	ErrCounterpartyNotFound = errors.New("counterparty not found")

	// ErrCounterpartyInUse возвращается при удалении контрагента, на которого ссылаются контракты
	ErrCounterpartyInUse = errors.New("counterparty is referenced by contracts")

	// ErrUserNotFound возвращается, когда пользователь не найден
	ErrUserNotFound = errors.New("user not found")

	// ErrEmailAlreadyExists возвращается при регистрации с занятым email
	ErrEmailAlreadyExists = errors.New("email already exists")

	// ErrInvalidCredentials возвращается при неверных учетных данных
	ErrInvalidCredentials = errors.New("invalid credentials")

	// ErrInvalidPassword возвращается при неверном текущем пароле
	ErrInvalidPassword = errors.New("invalid password")

	// ErrNotificationNotFound возвращается, когда уведомление не найдено
	ErrNotificationNotFound = errors.New("notification not found")
)
