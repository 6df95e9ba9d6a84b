package model

import (
	"time"

	"github.com/woodsbury/decimal128"
)

// Invoice — счёт по одобренной командировке. Один счёт на заявку.
type Invoice struct {
	ID              string
	TravelRequestID string
	TravelerName    string
	TravelerEmail   string
	// Входные тарифы
	TicketPrice        decimal128.Decimal
	HotelPricePerNight decimal128.Decimal
	PerDiemRate        decimal128.Decimal
	// Вычисляемые значения
	Nights       int
	TravelDays   int
	HotelTotal   decimal128.Decimal
	PerDiemTotal decimal128.Decimal
	TotalAmount  decimal128.Decimal
	Currency     string
	CreatedAt    time.Time
}
