// Package classifier labels a raw query with one intent from the closed set.
// The label comes from a generative call, so the returned text is validated
// strictly against the set rather than trusted.
package classifier

import (
	"context"
	"strings"

	"loyalty_qa/internal/llm"
	"loyalty_qa/pkg"
)

type Classifier struct {
	completer llm.Completer
}

// New wraps a completer built on the classification template.
func New(completer llm.Completer) *Classifier {
	return &Classifier{completer: completer}
}

// Classify invokes the classification call and interprets its output. The
// trimmed completion must equal one of the closed labels exactly; no fuzzy
// matching or recovery is attempted, a paraphrased answer fails fast with
// UnknownIntentError.
func (c *Classifier) Classify(ctx context.Context, query string) (pkg.IntentLabel, error) {
	out, err := c.completer.Complete(ctx, map[string]any{pkg.SlotQuery: query})
	if err != nil {
		return "", err
	}

	label := pkg.IntentLabel(strings.TrimSpace(out))
	if !label.Valid() {
		return "", &pkg.UnknownIntentError{Label: string(label)}
	}
	return label, nil
}
