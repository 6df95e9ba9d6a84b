package model

import "time"

// Project — проект клиента, к которому привязываются миссии и командировки.
type Project struct {
	ID         string
	Name       string
	Code       string
	ClientName string
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// ProjectStats — количество миссий проекта.
type ProjectStats struct {
	ProjectID    string
	Name         string
	Code         string
	MissionCount int
}

// Mission — миссия в рамках проекта.
type Mission struct {
	ID          string
	Name        string
	Description string
	StartDate   *time.Time
	EndDate     *time.Time
	// ProjectID — проект миссии (может отсутствовать)
	ProjectID *string
	// ProjectName, ProjectCode — заполняются при чтении
	ProjectName *string
	ProjectCode *string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Passport — паспорт пользователя (документ для визовых заявок).
type Passport struct {
	ID             string
	PassportNumber string
	IssueDate      *time.Time
	ExpiryDate     *time.Time
	IssuingCountry string
	IssuedBy       string
	// OwnerID — владелец (users.id)
	OwnerID   string
	CreatedAt time.Time
	UpdatedAt time.Time
}
