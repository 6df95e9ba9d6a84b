package model

import "time"

// Request — заявка, проходящая согласование.
// Граф статусов читает и меняет только статус и время изменения,
// остальные поля для него непрозрачны.
type Request interface {
	RequestID() string
	RequestStatus() string
	SetRequestStatus(status string)
	RequestUpdatedAt() time.Time
	SetRequestUpdatedAt(at time.Time)
}

// DaysBetween возвращает количество календарных дней между датами (to - from).
// Время суток и часовой пояс не учитываются.
func DaysBetween(from, to time.Time) int {
	f := time.Date(from.Year(), from.Month(), from.Day(), 0, 0, 0, 0, time.UTC)
	t := time.Date(to.Year(), to.Month(), to.Day(), 0, 0, 0, 0, time.UTC)
	return int(t.Sub(f).Hours() / 24)
}
