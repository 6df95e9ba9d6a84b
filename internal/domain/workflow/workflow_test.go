package workflow

import (
	"errors"
	"testing"
)

func TestNext(t *testing.T) {
	tests := []struct {
		name     string
		step     Step
		current  string
		approved bool
		want     string
		wantCode string
	}{
		{name: "step1 одобрение", step: Step1, current: StatusPending, approved: true, want: StatusStep1Approved},
		{name: "step1 отказ", step: Step1, current: StatusPending, approved: false, want: StatusStep1Rejected},
		{name: "step2 одобрение", step: Step2, current: StatusStep1Approved, approved: true, want: StatusApproved},
		{name: "step2 отказ", step: Step2, current: StatusStep1Approved, approved: false, want: StatusRejected},
		{name: "повторный step1", step: Step1, current: StatusStep1Approved, approved: true, wantCode: CodeInvalidTransition},
		{name: "step2 до step1", step: Step2, current: StatusPending, approved: false, wantCode: CodeInvalidTransition},
		{name: "step2 после отказа на step1", step: Step2, current: StatusStep1Rejected, approved: true, wantCode: CodeInvalidTransition},
		{name: "статус в нижнем регистре не совпадает", step: Step1, current: "pending", approved: true, wantCode: CodeInvalidTransition},
		{name: "неизвестный этап", step: Step(3), current: StatusPending, approved: true, wantCode: CodeUnknownStep},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Next(tt.step, tt.current, tt.approved)
			if tt.wantCode != "" {
				var te *TransitionError
				if !errors.As(err, &te) {
					t.Fatalf("ожидалась TransitionError, получено %v", err)
				}
				if te.Code != tt.wantCode {
					t.Errorf("Code = %q, хотели %q", te.Code, tt.wantCode)
				}
				return
			}
			if err != nil {
				t.Fatalf("неожиданная ошибка: %v", err)
			}
			if got != tt.want {
				t.Errorf("Next = %q, хотели %q", got, tt.want)
			}
		})
	}
}

func TestSource(t *testing.T) {
	if s, ok := Source(Step1); !ok || s != StatusPending {
		t.Errorf("Source(Step1) = %q, %v", s, ok)
	}
	if s, ok := Source(Step2); !ok || s != StatusStep1Approved {
		t.Errorf("Source(Step2) = %q, %v", s, ok)
	}
	if _, ok := Source(Step(0)); ok {
		t.Error("Source(0) не должен существовать")
	}
}

func TestMatchStatus(t *testing.T) {
	if !MatchStatus("approved", StatusApproved) {
		t.Error("approved и APPROVED должны совпадать")
	}
	if MatchStatus("approve", StatusApproved) {
		t.Error("частичное совпадение недопустимо")
	}
}
