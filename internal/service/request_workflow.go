// request_workflow.go — согласование заявок, общее для командировок и виз.
//
// Переходы этапов выполняются через compare-and-set по статусу, поэтому
// параллельные вызовы одного этапа записывают ровно один переход.
// Этап не по порядку по умолчанию ничего не меняет и возвращает заявку
// как есть; в строгом режиме возвращается ErrStateConflict.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/tayeb-bk/Stage-Ver/internal/domain/model"
	"github.com/tayeb-bk/Stage-Ver/internal/domain/workflow"
	"github.com/tayeb-bk/Stage-Ver/internal/repository"
)

var workflowTransitionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "tm_workflow_transitions_total",
	Help: "Этапы согласования заявок по результату (applied, noop, conflict).",
}, []string{"kind", "step", "result"})

// RequestStore — хранилище заявок одного вида.
type RequestStore[R model.Request] interface {
	GetByID(ctx context.Context, id string) (R, error)
	List(ctx context.Context, f repository.RequestFilter) ([]R, error)
	Create(ctx context.Context, rec R) error
	UpdateStatus(ctx context.Context, id, status string) error
	CompareAndSetStatus(ctx context.Context, id, expected, next string) (updatedAt time.Time, ok bool, err error)
	Delete(ctx context.Context, id string) error
}

// RequestWorkflow — операции согласования над заявками вида R.
type RequestWorkflow[R model.Request] struct {
	kind   string
	store  RequestStore[R]
	strict bool
	logger *slog.Logger
}

// NewRequestWorkflow создаёт workflow для заявок вида kind ("travel", "visa").
func NewRequestWorkflow[R model.Request](kind string, store RequestStore[R], strict bool, logger *slog.Logger) *RequestWorkflow[R] {
	return &RequestWorkflow[R]{
		kind:   kind,
		store:  store,
		strict: strict,
		logger: logger.With(slog.String("component", "workflow"), slog.String("kind", kind)),
	}
}

// Get возвращает заявку по ID.
func (w *RequestWorkflow[R]) Get(ctx context.Context, id string) (R, error) {
	rec, err := w.store.GetByID(ctx, id)
	if err != nil {
		var zero R
		return zero, mapRepoError(err, fmt.Sprintf("заявка %s", id))
	}
	return rec, nil
}

// Submit сохраняет новую заявку в статусе PENDING.
// prepare выполняет проверки и вычисляет производные поля; при ошибке
// prepare заявка не сохраняется.
func (w *RequestWorkflow[R]) Submit(ctx context.Context, rec R, prepare func(R) error) (R, error) {
	var zero R
	if prepare != nil {
		if err := prepare(rec); err != nil {
			return zero, err
		}
	}
	rec.SetRequestStatus(workflow.InitialStatus)

	if err := w.store.Create(ctx, rec); err != nil {
		return zero, mapRepoError(err, "заявка")
	}

	w.logger.Info("Заявка создана", slog.String("id", rec.RequestID()))
	return rec, nil
}

// Step1 — первичное согласование: PENDING → STEP1_APPROVED | STEP1_REJECTED.
func (w *RequestWorkflow[R]) Step1(ctx context.Context, id string, approved bool) (R, error) {
	return w.step(ctx, id, workflow.Step1, approved)
}

// Step2 — финальное согласование: STEP1_APPROVED → APPROVED | REJECTED.
func (w *RequestWorkflow[R]) Step2(ctx context.Context, id string, approved bool) (R, error) {
	return w.step(ctx, id, workflow.Step2, approved)
}

func (w *RequestWorkflow[R]) step(ctx context.Context, id string, step workflow.Step, approved bool) (R, error) {
	var zero R

	rec, err := w.Get(ctx, id)
	if err != nil {
		return zero, err
	}

	current := rec.RequestStatus()
	next, err := workflow.Next(step, current, approved)
	if err != nil {
		return w.outOfOrder(rec, step, err)
	}

	updatedAt, ok, err := w.store.CompareAndSetStatus(ctx, id, current, next)
	if err != nil {
		return zero, err
	}
	if !ok {
		// Статус изменён параллельным запросом
		rec, err = w.Get(ctx, id)
		if err != nil {
			return zero, err
		}
		return w.outOfOrder(rec, step, &workflow.TransitionError{
			Code:    workflow.CodeInvalidTransition,
			Message: fmt.Sprintf("статус изменён параллельно: %q", rec.RequestStatus()),
		})
	}

	rec.SetRequestStatus(next)
	rec.SetRequestUpdatedAt(updatedAt)
	workflowTransitionsTotal.WithLabelValues(w.kind, step.String(), "applied").Inc()
	w.logger.Info("Этап согласования выполнен",
		slog.String("id", id),
		slog.String("step", step.String()),
		slog.String("from", current),
		slog.String("to", next),
	)
	return rec, nil
}

// outOfOrder — этап не применим к текущему статусу заявки.
func (w *RequestWorkflow[R]) outOfOrder(rec R, step workflow.Step, cause error) (R, error) {
	var te *workflow.TransitionError
	if !errors.As(cause, &te) {
		var zero R
		return zero, cause
	}

	if w.strict {
		workflowTransitionsTotal.WithLabelValues(w.kind, step.String(), "conflict").Inc()
		var zero R
		return zero, fmt.Errorf("%w: %s", ErrStateConflict, te.Message)
	}

	workflowTransitionsTotal.WithLabelValues(w.kind, step.String(), "noop").Inc()
	w.logger.Debug("Этап согласования пропущен",
		slog.String("id", rec.RequestID()),
		slog.String("step", step.String()),
		slog.String("status", rec.RequestStatus()),
	)
	return rec, nil
}

// ListByStatus возвращает заявки со статусом status без учёта регистра.
// Пустой status — все заявки.
func (w *RequestWorkflow[R]) ListByStatus(ctx context.Context, status string) ([]R, error) {
	return w.list(ctx, repository.RequestFilter{Status: strings.TrimSpace(status)})
}

func (w *RequestWorkflow[R]) list(ctx context.Context, f repository.RequestFilter) ([]R, error) {
	recs, err := w.store.List(ctx, f)
	if err != nil {
		return nil, err
	}
	if recs == nil {
		recs = []R{}
	}
	return recs, nil
}

// UpdateStatus безусловно устанавливает статус заявки в обход графа.
func (w *RequestWorkflow[R]) UpdateStatus(ctx context.Context, id, status string) (R, error) {
	var zero R

	status = strings.TrimSpace(status)
	if status == "" {
		return zero, fmt.Errorf("%w: статус не может быть пустым", ErrValidation)
	}

	if err := w.store.UpdateStatus(ctx, id, status); err != nil {
		return zero, mapRepoError(err, fmt.Sprintf("заявка %s", id))
	}

	w.logger.Info("Статус заявки установлен вручную",
		slog.String("id", id),
		slog.String("status", status),
	)
	return w.Get(ctx, id)
}

// Delete удаляет заявку. Отсутствие заявки ошибкой не считается.
func (w *RequestWorkflow[R]) Delete(ctx context.Context, id string) error {
	err := w.store.Delete(ctx, id)
	if err != nil && !errors.Is(err, repository.ErrNotFound) {
		return mapRepoError(err, fmt.Sprintf("заявка %s", id))
	}
	return nil
}
