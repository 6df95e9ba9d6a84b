// invoices.go — обработчики /api/v1/invoices.
package handlers

import (
	"net/http"

	"github.com/woodsbury/decimal128"

	apierrors "github.com/tayeb-bk/Stage-Ver/internal/api/errors"
	"github.com/tayeb-bk/Stage-Ver/internal/service"
)

// ListInvoices — GET /api/v1/invoices.
func (h *APIHandler) ListInvoices(w http.ResponseWriter, r *http.Request) {
	items, err := h.svc.Invoices.List(r.Context())
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, mapList(items, mapInvoice))
}

// GenerateInvoice — POST /api/v1/invoices.
// Выставляет счёт по одобренной заявке; суммы считает сервис.
func (h *APIHandler) GenerateInvoice(w http.ResponseWriter, r *http.Request) {
	u := actor(w, r)
	if u == nil {
		return
	}
	var body invoiceBody
	if !decodeJSON(w, r, &body) {
		return
	}

	in := service.InvoiceInput{TravelRequestID: body.TravelRequestID}
	for _, f := range []struct {
		name string
		raw  string
		dst  *decimal128.Decimal
	}{
		{"ticket_price", body.TicketPrice, &in.TicketPrice},
		{"hotel_price_per_night", body.HotelPricePerNight, &in.HotelPricePerNight},
		{"per_diem_rate", body.PerDiemRate, &in.PerDiemRate},
	} {
		d, err := decimal128.Parse(f.raw)
		if err != nil {
			apierrors.ValidationError(w, "Некорректная сумма "+f.name+": "+f.raw)
			return
		}
		*f.dst = d
	}

	inv, err := h.svc.Invoices.Generate(r.Context(), u, in)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, mapInvoice(inv))
}

// GetInvoice — GET /api/v1/invoices/{id}.
func (h *APIHandler) GetInvoice(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	inv, err := h.svc.Invoices.Get(r.Context(), id)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, mapInvoice(inv))
}

// DeleteInvoice — DELETE /api/v1/invoices/{id}.
func (h *APIHandler) DeleteInvoice(w http.ResponseWriter, r *http.Request) {
	u := actor(w, r)
	if u == nil {
		return
	}
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	if err := h.svc.Invoices.Delete(r.Context(), u, id); err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
