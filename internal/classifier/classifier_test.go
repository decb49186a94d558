package classifier

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"loyalty_qa/pkg"
)

type fakeCompleter struct {
	output string
	err    error
	vars   map[string]any
}

func (f *fakeCompleter) Complete(_ context.Context, vars map[string]any) (string, error) {
	f.vars = vars
	return f.output, f.err
}

func TestClassifyAcceptsClosedSetLabels(t *testing.T) {
	for _, label := range []string{"research", "wallet", "unknown"} {
		completer := &fakeCompleter{output: label}
		got, err := New(completer).Classify(context.Background(), "How do points work?")
		require.NoError(t, err)
		assert.Equal(t, pkg.IntentLabel(label), got)
	}
}

func TestClassifyTrimsSurroundingWhitespace(t *testing.T) {
	completer := &fakeCompleter{output: " wallet\n"}
	got, err := New(completer).Classify(context.Background(), "What can I get with my miles?")
	require.NoError(t, err)
	assert.Equal(t, pkg.IntentWallet, got)
}

func TestClassifyRejectsLabelOutsideClosedSet(t *testing.T) {
	completer := &fakeCompleter{output: "weather"}
	_, err := New(completer).Classify(context.Background(), "Will it rain tomorrow?")

	var unknownErr *pkg.UnknownIntentError
	require.True(t, errors.As(err, &unknownErr))
	assert.Equal(t, "weather", unknownErr.Label)
}

func TestClassifyRejectsParaphrasedLabel(t *testing.T) {
	completer := &fakeCompleter{output: "The intent is wallet."}
	_, err := New(completer).Classify(context.Background(), "How can I use my Hilton points?")

	var unknownErr *pkg.UnknownIntentError
	require.True(t, errors.As(err, &unknownErr))
}

func TestClassifyPropagatesGenerationFailure(t *testing.T) {
	completer := &fakeCompleter{err: pkg.ErrGenerationService}
	_, err := New(completer).Classify(context.Background(), "hello")
	assert.ErrorIs(t, err, pkg.ErrGenerationService)
}

func TestClassifyBindsOnlyQuerySlot(t *testing.T) {
	completer := &fakeCompleter{output: "research"}
	_, err := New(completer).Classify(context.Background(), "What is an airline alliance?")
	require.NoError(t, err)

	require.Len(t, completer.vars, 1)
	assert.Equal(t, "What is an airline alliance?", completer.vars[pkg.SlotQuery])
}
