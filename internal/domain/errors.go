package domain

import "errors"

type ErrorKind int

const (
	KindInternal ErrorKind = iota
	KindValidation
	KindNotFound
	KindConflict
	KindForbidden
	KindUnauthorized
	KindUnavailable
	KindBadGateway
)

// Error is a user-facing error; Message is safe to return to clients.
type Error struct {
	Kind    ErrorKind
	Message string
}

func (e *Error) Error() string {
	return e.Message
}

func NewValidationError(message string) error {
	return &Error{Kind: KindValidation, Message: message}
}

func NewNotFoundError(message string) error {
	return &Error{Kind: KindNotFound, Message: message}
}

func NewConflictError(message string) error {
	return &Error{Kind: KindConflict, Message: message}
}

func NewForbiddenError(message string) error {
	return &Error{Kind: KindForbidden, Message: message}
}

func KindOf(err error) ErrorKind {
	var domainErr *Error
	if errors.As(err, &domainErr) {
		return domainErr.Kind
	}
	return KindInternal
}

func MessageOf(err error) string {
	var domainErr *Error
	if errors.As(err, &domainErr) {
		return domainErr.Message
	}
	return ""
}

var (
	ErrNotFound               = &Error{Kind: KindNotFound, Message: "запись не найдена"}
	ErrUserNotFound           = &Error{Kind: KindNotFound, Message: "пользователь не найден"}
	ErrPatientProfileRequired = &Error{Kind: KindNotFound, Message: "профиль пациента не найден"}
	ErrClinicNotFound         = &Error{Kind: KindNotFound, Message: "клиника не найдена"}
	ErrServiceNotFound        = &Error{Kind: KindNotFound, Message: "услуга не найдена"}
	ErrDoctorNotFound         = &Error{Kind: KindNotFound, Message: "врач не найден"}
	ErrAppointmentNotFound    = &Error{Kind: KindNotFound, Message: "запись на прием не найдена"}
	ErrInventoryItemNotFound  = &Error{Kind: KindNotFound, Message: "позиция склада не найдена"}
	ErrNotificationNotFound   = &Error{Kind: KindNotFound, Message: "уведомление не найдено"}

	ErrStartInPast       = &Error{Kind: KindValidation, Message: "время начала должно быть в будущем"}
	ErrEndBeforeStart    = &Error{Kind: KindValidation, Message: "время окончания должно быть позже времени начала"}
	ErrInvalidDate       = &Error{Kind: KindValidation, Message: "неверный формат даты, ожидается YYYY-MM-DD"}
	ErrNegativeStock     = &Error{Kind: KindValidation, Message: "количество на складе не может быть отрицательным"}
	ErrDuplicateWeekday  = &Error{Kind: KindValidation, Message: "день недели указан более одного раза"}
	ErrInvalidSlotLength = &Error{Kind: KindValidation, Message: "длительность слота должна быть от 5 до 240 минут"}

	ErrInvalidWorkingHours = &Error{Kind: KindValidation, Message: "некорректное рабочее время"}
	ErrClinicClosed        = &Error{Kind: KindValidation, Message: "клиника не работает в этот день"}
	ErrOutsideWorkingHours = &Error{Kind: KindValidation, Message: "запись выходит за рабочее время клиники"}
	ErrDuringBreak         = &Error{Kind: KindValidation, Message: "запись попадает на перерыв клиники"}
	ErrOffSlotGrid         = &Error{Kind: KindValidation, Message: "время начала не совпадает с сеткой слотов"}
	ErrWrongSlotLength     = &Error{Kind: KindValidation, Message: "длительность записи не совпадает с длительностью слота"}

	ErrSlotUnavailable   = &Error{Kind: KindConflict, Message: "слот больше недоступен"}
	ErrPatientBusy       = &Error{Kind: KindConflict, Message: "у вас уже есть запись на это время"}
	ErrInvalidTransition = &Error{Kind: KindConflict, Message: "недопустимая смена статуса записи"}
	ErrAlreadyOnboarded  = &Error{Kind: KindConflict, Message: "роль пользователя уже назначена"}
	ErrClinicExists      = &Error{Kind: KindConflict, Message: "у пользователя уже есть клиника"}
	ErrInvalidClinicMove = &Error{Kind: KindConflict, Message: "недопустимая смена статуса клиники"}

	ErrForbidden    = &Error{Kind: KindForbidden, Message: "доступ запрещен"}
	ErrUnauthorized = &Error{Kind: KindUnauthorized, Message: "требуется авторизация"}

	ErrAIUnavailable   = &Error{Kind: KindUnavailable, Message: "сервис ИИ недоступен"}
	ErrAIInvalidOutput = &Error{Kind: KindBadGateway, Message: "сервис ИИ вернул некорректный ответ"}
	ErrStorageDisabled = &Error{Kind: KindUnavailable, Message: "файловое хранилище не настроено"}
)
