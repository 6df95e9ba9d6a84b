// Пакет workflow — граф статусов заявок (командировки и визы).
//
// Двухэтапное согласование:
//   - PENDING → STEP1_APPROVED | STEP1_REJECTED (этап 1)
//   - STEP1_APPROVED → APPROVED | REJECTED (этап 2)
//
// Прямая установка произвольного статуса (override) выполняется
// в обход графа и здесь не проверяется.
package workflow

import (
	"fmt"
	"strings"
)

// Статусы заявки.
const (
	StatusPending       = "PENDING"
	StatusStep1Approved = "STEP1_APPROVED"
	StatusStep1Rejected = "STEP1_REJECTED"
	StatusApproved      = "APPROVED"
	StatusRejected      = "REJECTED"
)

// InitialStatus — статус любой новой заявки.
const InitialStatus = StatusPending

// Step — этап согласования.
type Step int

const (
	// Step1 — первичное согласование.
	Step1 Step = 1
	// Step2 — финальное согласование.
	Step2 Step = 2
)

func (s Step) String() string {
	return fmt.Sprintf("step%d", int(s))
}

// edge — переход одного этапа: исходный статус и два возможных результата.
type edge struct {
	from    string
	approve string
	reject  string
}

// transitions — матрица переходов по этапам.
var transitions = map[Step]edge{
	Step1: {from: StatusPending, approve: StatusStep1Approved, reject: StatusStep1Rejected},
	Step2: {from: StatusStep1Approved, approve: StatusApproved, reject: StatusRejected},
}

// Codes ошибок перехода.
const (
	CodeInvalidTransition = "INVALID_TRANSITION"
	CodeUnknownStep       = "UNKNOWN_STEP"
)

// TransitionError — переход из текущего статуса недопустим.
type TransitionError struct {
	Code    string // Машиночитаемый код (INVALID_TRANSITION, UNKNOWN_STEP)
	Message string // Человекочитаемое описание
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Source возвращает статус, из которого допустим этап.
func Source(step Step) (string, bool) {
	e, ok := transitions[step]
	return e.from, ok
}

// Next вычисляет статус после этапа step для заявки в статусе current.
// Возвращает *TransitionError, если этап не применим к текущему статусу.
func Next(step Step, current string, approved bool) (string, error) {
	e, ok := transitions[step]
	if !ok {
		return "", &TransitionError{
			Code:    CodeUnknownStep,
			Message: fmt.Sprintf("неизвестный этап %d", int(step)),
		}
	}
	if current != e.from {
		return "", &TransitionError{
			Code:    CodeInvalidTransition,
			Message: fmt.Sprintf("%s из статуса %q недопустим, ожидается %q", step, current, e.from),
		}
	}
	if approved {
		return e.approve, nil
	}
	return e.reject, nil
}

// MatchStatus сравнивает статусы без учёта регистра.
func MatchStatus(a, b string) bool {
	return strings.EqualFold(a, b)
}
