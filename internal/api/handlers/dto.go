// dto.go — JSON-представления запросов и ответов и маппинг domain ↔ API.
package handlers

import (
	"time"

	openapi_types "github.com/oapi-codegen/runtime/types"

	"github.com/tayeb-bk/Stage-Ver/internal/domain/model"
	"github.com/tayeb-bk/Stage-Ver/internal/service"
)

// --- Пользователи ---

type userResponse struct {
	ID        string    `json:"id"`
	Username  *string   `json:"username,omitempty"`
	Email     *string   `json:"email,omitempty"`
	FirstName *string   `json:"first_name,omitempty"`
	LastName  *string   `json:"last_name,omitempty"`
	FullName  string    `json:"full_name"`
	Role      string    `json:"role"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func mapUser(u *model.User) userResponse {
	return userResponse{
		ID:        u.ID,
		Username:  u.Username,
		Email:     u.Email,
		FirstName: u.FirstName,
		LastName:  u.LastName,
		FullName:  u.FullName(),
		Role:      u.Role.String(),
		CreatedAt: u.CreatedAt,
		UpdatedAt: u.UpdatedAt,
	}
}

type registerRequest struct {
	Username  string               `json:"username"`
	Email     *openapi_types.Email `json:"email,omitempty"`
	FirstName string               `json:"first_name"`
	LastName  string               `json:"last_name"`
	Password  string               `json:"password"`
	Role      string               `json:"role"`
}

func (req registerRequest) toInput() service.RegisterInput {
	in := service.RegisterInput{
		Username:  req.Username,
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Password:  req.Password,
		Role:      req.Role,
	}
	if req.Email != nil {
		in.Email = string(*req.Email)
	}
	return in
}

// --- Заявки на командировку ---

type travelRequestBody struct {
	Type                 string              `json:"type"`
	Destination          string              `json:"destination"`
	SecondaryDestination string              `json:"secondary_destination"`
	Objective            string              `json:"objective"`
	DepartureDate        *openapi_types.Date `json:"departure_date"`
	ReturnDate           *openapi_types.Date `json:"return_date"`
	VisaRequired         bool                `json:"visa_required"`
	RequesterID          *string             `json:"requester_id"`
	ProjectID            string              `json:"project_id"`
	MissionID            string              `json:"mission_id"`
	Status               *string             `json:"status"`
}

func (b travelRequestBody) toInput() service.TravelRequestInput {
	return service.TravelRequestInput{
		Type:                 b.Type,
		Destination:          b.Destination,
		SecondaryDestination: b.SecondaryDestination,
		Objective:            b.Objective,
		DepartureDate:        timeOf(b.DepartureDate),
		ReturnDate:           timeOf(b.ReturnDate),
		VisaRequired:         b.VisaRequired,
		RequesterID:          b.RequesterID,
		ProjectID:            b.ProjectID,
		MissionID:            b.MissionID,
		Status:               b.Status,
	}
}

type travelRequestResponse struct {
	ID                   string              `json:"id"`
	Type                 string              `json:"type"`
	Destination          string              `json:"destination"`
	SecondaryDestination string              `json:"secondary_destination"`
	Objective            string              `json:"objective"`
	DepartureDate        *openapi_types.Date `json:"departure_date"`
	ReturnDate           *openapi_types.Date `json:"return_date"`
	VisaRequired         bool                `json:"visa_required"`
	Status               string              `json:"status"`
	Duration             *int                `json:"duration"`
	Version              int                 `json:"version"`
	RequesterID          *string             `json:"requester_id"`
	ProjectID            string              `json:"project_id"`
	MissionID            string              `json:"mission_id"`
	CreatedAt            time.Time           `json:"created_at"`
	UpdatedAt            time.Time           `json:"updated_at"`
}

func mapTravelRequest(t *model.TravelRequest) travelRequestResponse {
	return travelRequestResponse{
		ID:                   t.ID,
		Type:                 t.Type,
		Destination:          t.Destination,
		SecondaryDestination: t.SecondaryDestination,
		Objective:            t.Objective,
		DepartureDate:        dateOf(t.DepartureDate),
		ReturnDate:           dateOf(t.ReturnDate),
		VisaRequired:         t.VisaRequired,
		Status:               t.Status,
		Duration:             t.Duration,
		Version:              t.Version,
		RequesterID:          t.RequesterID,
		ProjectID:            t.ProjectID,
		MissionID:            t.MissionID,
		CreatedAt:            t.CreatedAt,
		UpdatedAt:            t.UpdatedAt,
	}
}

// --- Визовые заявки ---

type visaRequestBody struct {
	MissionPurpose        string              `json:"mission_purpose"`
	DateOfMission         *openapi_types.Date `json:"date_of_mission"`
	CountryOfFirstMission string              `json:"country_of_first_mission"`
	CountryIssuingVisa    string              `json:"country_issuing_visa"`
	TravelerType          string              `json:"traveler_type"`
	PassportID            string              `json:"passport_id"`
	PassportNumber        string              `json:"passport_number"`
	IssueDate             *openapi_types.Date `json:"issue_date"`
	ExpiryDate            *openapi_types.Date `json:"expiry_date"`
	IssuingCountry        string              `json:"issuing_country"`
	IssuedBy              string              `json:"issued_by"`
	Status                *string             `json:"status"`
}

func (b visaRequestBody) toInput() service.VisaRequestInput {
	return service.VisaRequestInput{
		MissionPurpose:        b.MissionPurpose,
		DateOfMission:         timeOf(b.DateOfMission),
		CountryOfFirstMission: b.CountryOfFirstMission,
		CountryIssuingVisa:    b.CountryIssuingVisa,
		TravelerType:          b.TravelerType,
		PassportID:            b.PassportID,
		PassportNumber:        b.PassportNumber,
		IssueDate:             timeOf(b.IssueDate),
		ExpiryDate:            timeOf(b.ExpiryDate),
		IssuingCountry:        b.IssuingCountry,
		IssuedBy:              b.IssuedBy,
		Status:                b.Status,
	}
}

type visaRequestResponse struct {
	ID                    string              `json:"id"`
	MissionPurpose        string              `json:"mission_purpose"`
	DateOfMission         *openapi_types.Date `json:"date_of_mission"`
	CountryOfFirstMission string              `json:"country_of_first_mission"`
	CountryIssuingVisa    string              `json:"country_issuing_visa"`
	TravelerType          string              `json:"traveler_type"`
	PassportID            string              `json:"passport_id"`
	PassportNumber        string              `json:"passport_number"`
	IssueDate             *openapi_types.Date `json:"issue_date"`
	ExpiryDate            *openapi_types.Date `json:"expiry_date"`
	IssuingCountry        string              `json:"issuing_country"`
	IssuedBy              string              `json:"issued_by"`
	Status                string              `json:"status"`
	CreatedAt             time.Time           `json:"created_at"`
	UpdatedAt             time.Time           `json:"updated_at"`
}

func mapVisaRequest(v *model.VisaRequest) visaRequestResponse {
	return visaRequestResponse{
		ID:                    v.ID,
		MissionPurpose:        v.MissionPurpose,
		DateOfMission:         dateOf(v.DateOfMission),
		CountryOfFirstMission: v.CountryOfFirstMission,
		CountryIssuingVisa:    v.CountryIssuingVisa,
		TravelerType:          v.TravelerType,
		PassportID:            v.PassportID,
		PassportNumber:        v.PassportNumber,
		IssueDate:             dateOf(v.IssueDate),
		ExpiryDate:            dateOf(v.ExpiryDate),
		IssuingCountry:        v.IssuingCountry,
		IssuedBy:              v.IssuedBy,
		Status:                v.Status,
		CreatedAt:             v.CreatedAt,
		UpdatedAt:             v.UpdatedAt,
	}
}

// --- Справочники ---

type projectBody struct {
	Name       string `json:"name"`
	Code       string `json:"code"`
	ClientName string `json:"client_name"`
}

type projectResponse struct {
	ID         string    `json:"id"`
	Name       string    `json:"name"`
	Code       string    `json:"code"`
	ClientName string    `json:"client_name"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

func mapProject(p *model.Project) projectResponse {
	return projectResponse{
		ID:         p.ID,
		Name:       p.Name,
		Code:       p.Code,
		ClientName: p.ClientName,
		CreatedAt:  p.CreatedAt,
		UpdatedAt:  p.UpdatedAt,
	}
}

type projectStatsResponse struct {
	ProjectID    string `json:"project_id"`
	Name         string `json:"name"`
	Code         string `json:"code"`
	MissionCount int    `json:"mission_count"`
}

type missionBody struct {
	Name        string              `json:"name"`
	Description string              `json:"description"`
	StartDate   *openapi_types.Date `json:"start_date"`
	EndDate     *openapi_types.Date `json:"end_date"`
	ProjectID   *string             `json:"project_id"`
}

func (b missionBody) toInput() service.MissionInput {
	return service.MissionInput{
		Name:        b.Name,
		Description: b.Description,
		StartDate:   timeOf(b.StartDate),
		EndDate:     timeOf(b.EndDate),
		ProjectID:   b.ProjectID,
	}
}

type missionResponse struct {
	ID          string              `json:"id"`
	Name        string              `json:"name"`
	Description string              `json:"description"`
	StartDate   *openapi_types.Date `json:"start_date"`
	EndDate     *openapi_types.Date `json:"end_date"`
	ProjectID   *string             `json:"project_id"`
	ProjectName *string             `json:"project_name,omitempty"`
	ProjectCode *string             `json:"project_code,omitempty"`
	CreatedAt   time.Time           `json:"created_at"`
	UpdatedAt   time.Time           `json:"updated_at"`
}

func mapMission(m *model.Mission) missionResponse {
	return missionResponse{
		ID:          m.ID,
		Name:        m.Name,
		Description: m.Description,
		StartDate:   dateOf(m.StartDate),
		EndDate:     dateOf(m.EndDate),
		ProjectID:   m.ProjectID,
		ProjectName: m.ProjectName,
		ProjectCode: m.ProjectCode,
		CreatedAt:   m.CreatedAt,
		UpdatedAt:   m.UpdatedAt,
	}
}

type passportBody struct {
	PassportNumber string              `json:"passport_number"`
	IssueDate      *openapi_types.Date `json:"issue_date"`
	ExpiryDate     *openapi_types.Date `json:"expiry_date"`
	IssuingCountry string              `json:"issuing_country"`
	IssuedBy       string              `json:"issued_by"`
}

func (b passportBody) toInput() service.PassportInput {
	return service.PassportInput{
		PassportNumber: b.PassportNumber,
		IssueDate:      timeOf(b.IssueDate),
		ExpiryDate:     timeOf(b.ExpiryDate),
		IssuingCountry: b.IssuingCountry,
		IssuedBy:       b.IssuedBy,
	}
}

type passportResponse struct {
	ID             string              `json:"id"`
	PassportNumber string              `json:"passport_number"`
	IssueDate      *openapi_types.Date `json:"issue_date"`
	ExpiryDate     *openapi_types.Date `json:"expiry_date"`
	IssuingCountry string              `json:"issuing_country"`
	IssuedBy       string              `json:"issued_by"`
	OwnerID        string              `json:"owner_id"`
	CreatedAt      time.Time           `json:"created_at"`
	UpdatedAt      time.Time           `json:"updated_at"`
}

func mapPassport(p *model.Passport) passportResponse {
	return passportResponse{
		ID:             p.ID,
		PassportNumber: p.PassportNumber,
		IssueDate:      dateOf(p.IssueDate),
		ExpiryDate:     dateOf(p.ExpiryDate),
		IssuingCountry: p.IssuingCountry,
		IssuedBy:       p.IssuedBy,
		OwnerID:        p.OwnerID,
		CreatedAt:      p.CreatedAt,
		UpdatedAt:      p.UpdatedAt,
	}
}

// --- Счета ---

// Денежные суммы передаются строками, чтобы не терять точность.
type invoiceBody struct {
	TravelRequestID    string `json:"travel_request_id"`
	TicketPrice        string `json:"ticket_price"`
	HotelPricePerNight string `json:"hotel_price_per_night"`
	PerDiemRate        string `json:"per_diem_rate"`
}

type invoiceResponse struct {
	ID                 string    `json:"id"`
	TravelRequestID    string    `json:"travel_request_id"`
	TravelerName       string    `json:"traveler_name"`
	TravelerEmail      string    `json:"traveler_email"`
	TicketPrice        string    `json:"ticket_price"`
	HotelPricePerNight string    `json:"hotel_price_per_night"`
	PerDiemRate        string    `json:"per_diem_rate"`
	Nights             int       `json:"nights"`
	TravelDays         int       `json:"travel_days"`
	HotelTotal         string    `json:"hotel_total"`
	PerDiemTotal       string    `json:"per_diem_total"`
	TotalAmount        string    `json:"total_amount"`
	Currency           string    `json:"currency"`
	CreatedAt          time.Time `json:"created_at"`
}

func mapInvoice(inv *model.Invoice) invoiceResponse {
	return invoiceResponse{
		ID:                 inv.ID,
		TravelRequestID:    inv.TravelRequestID,
		TravelerName:       inv.TravelerName,
		TravelerEmail:      inv.TravelerEmail,
		TicketPrice:        inv.TicketPrice.String(),
		HotelPricePerNight: inv.HotelPricePerNight.String(),
		PerDiemRate:        inv.PerDiemRate.String(),
		Nights:             inv.Nights,
		TravelDays:         inv.TravelDays,
		HotelTotal:         inv.HotelTotal.String(),
		PerDiemTotal:       inv.PerDiemTotal.String(),
		TotalAmount:        inv.TotalAmount.String(),
		Currency:           inv.Currency,
		CreatedAt:          inv.CreatedAt,
	}
}

// --- Даты ---

func dateOf(t *time.Time) *openapi_types.Date {
	if t == nil {
		return nil
	}
	return &openapi_types.Date{Time: *t}
}

func timeOf(d *openapi_types.Date) *time.Time {
	if d == nil {
		return nil
	}
	t := d.Time
	return &t
}

// mapList применяет f к каждому элементу; пустой список кодируется как [].
func mapList[T, R any](items []T, f func(T) R) []R {
	out := make([]R, len(items))
	for i, it := range items {
		out[i] = f(it)
	}
	return out
}
