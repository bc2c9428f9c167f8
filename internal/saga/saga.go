// Package saga runs a sequence of steps that each may have a compensating
// action. When a step fails the compensations of the steps that already
// completed run in reverse order.
package saga

import (
	"context"
	"fmt"
	"strings"

	"github.com/FraktalSoftwares/alerta-veiculos-sub000/internal/logger"
)

// Step is one unit of a saga. Compensate may be nil when the step has no
// side effect worth undoing.
type Step struct {
	Name       string
	Do         func(ctx context.Context) error
	Compensate func(ctx context.Context) error
}

// CompensationFailure records a compensation that could not be applied
type CompensationFailure struct {
	Step string
	Err  error
}

// Error is returned by Run when a step fails. Unwrap yields the step's own
// error so callers can keep classifying it.
type Error struct {
	Saga                 string
	Step                 string
	Cause                error
	Compensated          []string
	CompensationFailures []CompensationFailure
}

func (e *Error) Error() string {
	msg := fmt.Sprintf("saga %s failed at step %s: %v", e.Saga, e.Step, e.Cause)
	if len(e.CompensationFailures) == 0 {
		return msg
	}
	parts := make([]string, 0, len(e.CompensationFailures))
	for _, f := range e.CompensationFailures {
		parts = append(parts, fmt.Sprintf("%s: %v", f.Step, f.Err))
	}
	return msg + "; compensation failed: " + strings.Join(parts, ", ")
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// Compensable reports whether every compensation succeeded
func (e *Error) Compensable() bool {
	return len(e.CompensationFailures) == 0
}

type Saga struct {
	name   string
	steps  []Step
	logger *logger.Logger
}

func New(name string, log *logger.Logger) *Saga {
	return &Saga{name: name, logger: log}
}

// AddStep appends a step; steps run in insertion order
func (s *Saga) AddStep(step Step) *Saga {
	s.steps = append(s.steps, step)
	return s
}

// Run executes the steps. Compensations run detached from ctx cancellation
// since a cancelled request must still undo remote side effects.
func (s *Saga) Run(ctx context.Context) error {
	for i, step := range s.steps {
		if err := step.Do(ctx); err != nil {
			s.logger.Warnw("saga step failed",
				"saga", s.name,
				"step", step.Name,
				"error", err,
			)
			return s.compensate(context.WithoutCancel(ctx), i, step.Name, err)
		}
	}
	return nil
}

func (s *Saga) compensate(ctx context.Context, failedAt int, failedStep string, cause error) *Error {
	sagaErr := &Error{
		Saga:  s.name,
		Step:  failedStep,
		Cause: cause,
	}

	for i := failedAt - 1; i >= 0; i-- {
		step := s.steps[i]
		if step.Compensate == nil {
			continue
		}
		if err := step.Compensate(ctx); err != nil {
			s.logger.Errorw("saga compensation failed",
				"saga", s.name,
				"step", step.Name,
				"failed_step", failedStep,
				"error", err,
			)
			sagaErr.CompensationFailures = append(sagaErr.CompensationFailures, CompensationFailure{
				Step: step.Name,
				Err:  err,
			})
			continue
		}
		sagaErr.Compensated = append(sagaErr.Compensated, step.Name)
		s.logger.Infow("saga step compensated", "saga", s.name, "step", step.Name)
	}

	return sagaErr
}
