package model

import "time"

// VisaRequest — заявка на визу. Всегда ссылается на паспорт.
type VisaRequest struct {
	ID                    string
	MissionPurpose        string
	DateOfMission         *time.Time
	CountryOfFirstMission string
	CountryIssuingVisa    string
	TravelerType          string
	// PassportID — паспорт, на который оформляется виза (обязателен)
	PassportID string
	// Поля паспорта на момент подачи заявки
	PassportNumber string
	IssueDate      *time.Time
	ExpiryDate     *time.Time
	IssuingCountry string
	IssuedBy       string
	// Status — статус согласования
	Status    string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// RequestID реализует Request.
func (v *VisaRequest) RequestID() string { return v.ID }

// RequestStatus реализует Request.
func (v *VisaRequest) RequestStatus() string { return v.Status }

// SetRequestStatus реализует Request.
func (v *VisaRequest) SetRequestStatus(status string) { v.Status = status }

// RequestUpdatedAt реализует Request.
func (v *VisaRequest) RequestUpdatedAt() time.Time { return v.UpdatedAt }

// SetRequestUpdatedAt реализует Request.
func (v *VisaRequest) SetRequestUpdatedAt(at time.Time) { v.UpdatedAt = at }
