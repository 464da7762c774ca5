package service

import (
	"fmt"
	"sync"

	"github.com/neurocalc-mcp-server/internal/domain"
)

// Wizard walks one calculator's inputs in declared order, accumulating an
// AnswerSet. It is safe for concurrent use.
type Wizard struct {
	mu      sync.Mutex
	def     *domain.CalculatorDefinition
	answers domain.AnswerSet
}

// WizardState is a snapshot of a wizard for transport layers.
type WizardState struct {
	CalculatorID string                    `json:"calculator_id"`
	Answers      domain.AnswerSet          `json:"answers"`
	Answered     int                       `json:"answered"`
	Total        int                       `json:"total"`
	Next         *domain.InputSpec         `json:"next,omitempty"`
	Complete     bool                      `json:"complete"`
	Result       *domain.CalculationResult `json:"result,omitempty"`
}

// NewWizard starts an empty wizard for def.
func NewWizard(def *domain.CalculatorDefinition) *Wizard {
	return &Wizard{def: def, answers: domain.AnswerSet{}}
}

// Calculator returns the calculator the wizard is bound to.
func (w *Wizard) Calculator() *domain.CalculatorDefinition {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.def
}

// Next returns the first unanswered input.
func (w *Wizard) Next() (domain.InputSpec, bool) {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.next()
}

func (w *Wizard) next() (domain.InputSpec, bool) {
	for _, in := range w.def.Inputs {
		if !w.answers.Has(in.ID) {
			return in, true
		}
	}
	return domain.InputSpec{}, false
}

// Answer records a value for a declared input. Re-answering overwrites.
func (w *Wizard) Answer(id string, v domain.InputValue) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	in, ok := w.def.Input(id)
	if !ok {
		return domain.NewValidationError(id, "input is not declared by calculator "+w.def.ID, v.String())
	}
	if !in.Accepts(v) {
		return domain.NewValidationError(id, acceptsMessage(in), v.String())
	}
	w.answers[id] = v
	return nil
}

// Answers returns a copy of the current AnswerSet.
func (w *Wizard) Answers() domain.AnswerSet {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.answers.Clone()
}

// Complete reports whether every declared input is answered.
func (w *Wizard) Complete() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	_, pending := w.next()
	return !pending
}

// Result evaluates the calculator once every input is answered.
func (w *Wizard) Result() (domain.CalculationResult, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if in, pending := w.next(); pending {
		return domain.CalculationResult{}, fmt.Errorf("%w: next unanswered input is %s", domain.ErrIncomplete, in.ID)
	}
	return w.def.Calculate(w.answers), nil
}

// Reset discards every answer.
func (w *Wizard) Reset() {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.answers = domain.AnswerSet{}
}

// Switch rebinds the wizard to another calculator, discarding the answers.
func (w *Wizard) Switch(def *domain.CalculatorDefinition) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.def = def
	w.answers = domain.AnswerSet{}
}

// State returns a snapshot including the result once complete.
func (w *Wizard) State() WizardState {
	w.mu.Lock()
	defer w.mu.Unlock()

	st := WizardState{
		CalculatorID: w.def.ID,
		Answers:      w.answers.Clone(),
		Answered:     len(w.answers),
		Total:        len(w.def.Inputs),
	}
	if in, pending := w.next(); pending {
		st.Next = &in
		return st
	}
	res := w.def.Calculate(w.answers)
	st.Complete = true
	st.Result = &res
	return st
}
