package service

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/neurocalc-mcp-server/internal/domain"
)

func mustCalculator(t *testing.T, id string) *domain.CalculatorDefinition {
	t.Helper()
	def, ok := LookupCalculator(id)
	require.True(t, ok)
	return def
}

func TestWizard_WalksInputsInOrder(t *testing.T) {
	w := NewWizard(mustCalculator(t, "gcs"))

	next, ok := w.Next()
	require.True(t, ok)
	assert.Equal(t, "eye", next.ID)
	assert.False(t, w.Complete())

	require.NoError(t, w.Answer("eye", domain.Number(3)))
	next, _ = w.Next()
	assert.Equal(t, "verbal", next.ID)

	_, err := w.Result()
	assert.ErrorIs(t, err, domain.ErrIncomplete)

	require.NoError(t, w.Answer("verbal", domain.Number(4)))
	require.NoError(t, w.Answer("motor", domain.Number(5)))

	_, ok = w.Next()
	assert.False(t, ok)
	assert.True(t, w.Complete())

	res, err := w.Result()
	require.NoError(t, err)
	n, _ := res.Score.AsNumber()
	assert.Equal(t, 12.0, n)
	assert.Equal(t, "Moderate brain injury (GCS 9-12)", res.Interpretation)
}

func TestWizard_RejectsUndeclared(t *testing.T) {
	w := NewWizard(mustCalculator(t, "gcs"))

	var validation *domain.ValidationError
	require.ErrorAs(t, w.Answer("pupils", domain.Number(1)), &validation)
	assert.Equal(t, "pupils", validation.Field)

	require.ErrorAs(t, w.Answer("eye", domain.Number(7)), &validation)
	assert.Equal(t, "eye", validation.Field)

	assert.Empty(t, w.Answers())
}

func TestWizard_ResetAndSwitchDiscardAnswers(t *testing.T) {
	w := NewWizard(mustCalculator(t, "abcd2"))
	require.NoError(t, w.Answer("age", domain.Bool(true)))
	assert.Len(t, w.Answers(), 1)

	w.Reset()
	assert.Empty(t, w.Answers())
	assert.Equal(t, "abcd2", w.Calculator().ID)

	require.NoError(t, w.Answer("age", domain.Bool(true)))
	w.Switch(mustCalculator(t, "ich"))
	assert.Empty(t, w.Answers())
	assert.Equal(t, "ich", w.Calculator().ID)

	next, _ := w.Next()
	assert.Equal(t, "gcs", next.ID)
}

func TestWizard_AnswersAreCopies(t *testing.T) {
	w := NewWizard(mustCalculator(t, "mrs"))
	require.NoError(t, w.Answer("mrs", domain.Number(2)))

	answers := w.Answers()
	answers["mrs"] = domain.Number(6)
	assert.Equal(t, 2.0, w.Answers().Number("mrs"))
}

func TestWizard_State(t *testing.T) {
	w := NewWizard(mustCalculator(t, "mrs"))

	st := w.State()
	assert.Equal(t, "mrs", st.CalculatorID)
	assert.Equal(t, 0, st.Answered)
	assert.Equal(t, 1, st.Total)
	require.NotNil(t, st.Next)
	assert.Equal(t, "mrs", st.Next.ID)
	assert.False(t, st.Complete)
	assert.Nil(t, st.Result)

	require.NoError(t, w.Answer("mrs", domain.Number(6)))
	st = w.State()
	assert.True(t, st.Complete)
	assert.Nil(t, st.Next)
	require.NotNil(t, st.Result)
	assert.Equal(t, "Deceased", st.Result.Interpretation)
}

func TestWizard_ConcurrentAnswers(t *testing.T) {
	w := NewWizard(mustCalculator(t, "hasbled"))
	def := w.Calculator()

	var wg sync.WaitGroup
	for _, in := range def.Inputs {
		wg.Add(1)
		go func(id string) {
			defer wg.Done()
			assert.NoError(t, w.Answer(id, domain.Bool(true)))
		}(in.ID)
	}
	wg.Wait()

	res, err := w.Result()
	require.NoError(t, err)
	n, _ := res.Score.AsNumber()
	assert.Equal(t, 9.0, n)
}
