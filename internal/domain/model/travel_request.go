package model

import "time"

// TravelRequest — заявка на командировку.
type TravelRequest struct {
	// ID — UUID заявки
	ID string
	// Type — тип поездки (national, international, ...)
	Type string
	// Destination — основной пункт назначения
	Destination string
	// SecondaryDestination — дополнительный пункт назначения
	SecondaryDestination string
	// Objective — цель поездки
	Objective string
	// DepartureDate — дата отъезда
	DepartureDate *time.Time
	// ReturnDate — дата возвращения
	ReturnDate *time.Time
	// VisaRequired — нужна ли виза
	VisaRequired bool
	// Status — статус согласования
	Status string
	// Duration — длительность в днях (вычисляется из дат)
	Duration *int
	// Version — номер редакции, увеличивается при каждом обновлении
	Version int
	// RequesterID — автор заявки (users.id)
	RequesterID *string
	// ProjectID — проект (обязателен)
	ProjectID string
	// MissionID — миссия проекта (обязательна)
	MissionID string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// RequestID реализует Request.
func (t *TravelRequest) RequestID() string { return t.ID }

// RequestStatus реализует Request.
func (t *TravelRequest) RequestStatus() string { return t.Status }

// SetRequestStatus реализует Request.
func (t *TravelRequest) SetRequestStatus(status string) { t.Status = status }

// RequestUpdatedAt реализует Request.
func (t *TravelRequest) RequestUpdatedAt() time.Time { return t.UpdatedAt }

// SetRequestUpdatedAt реализует Request.
func (t *TravelRequest) SetRequestUpdatedAt(at time.Time) { t.UpdatedAt = at }
