// Package strategy maps each intent label to its response strategy: a prompt
// template, the slot contract that template declares, and the inputs the
// dispatcher must gather for it.
package strategy

import (
	"context"
	"fmt"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/components/prompt"

	"loyalty_qa/internal/llm"
	"loyalty_qa/internal/prompts"
	"loyalty_qa/pkg"
)

// Strategy binds one intent to its generation template. Immutable after
// registry construction.
type Strategy struct {
	Intent           pkg.IntentLabel
	Template         prompt.ChatTemplate
	Completer        llm.Completer
	RequiresContext  bool
	RequiresUserData bool
	// Slots is the template's declared slot contract. The dispatcher binds
	// exactly these names, no more.
	Slots []string
}

// Registry is the fixed intent -> strategy mapping. There is no runtime
// registration; the set is closed at construction.
type Registry struct {
	strategies map[pkg.IntentLabel]Strategy
}

// NewRegistry compiles the fixed strategy set against the answer model and
// validates every slot contract. A declared-but-unbindable slot fails here,
// not at request time.
func NewRegistry(ctx context.Context, cm model.BaseChatModel) (*Registry, error) {
	entries := []Strategy{
		{
			Intent:          pkg.IntentResearch,
			Template:        prompts.Research(),
			RequiresContext: true,
			Slots:           prompts.ResearchSlots,
		},
		{
			Intent:           pkg.IntentWallet,
			Template:         prompts.Wallet(),
			RequiresUserData: true,
			Slots:            prompts.WalletSlots,
		},
		{
			Intent:   pkg.IntentUnknown,
			Template: prompts.Unknown(),
			Slots:    prompts.UnknownSlots,
		},
	}

	for i := range entries {
		completer, err := llm.NewCompleter(ctx, cm, entries[i].Template)
		if err != nil {
			return nil, fmt.Errorf("error building %s strategy: %w", entries[i].Intent, err)
		}
		entries[i].Completer = completer
	}

	return newRegistry(entries)
}

func newRegistry(entries []Strategy) (*Registry, error) {
	strategies := make(map[pkg.IntentLabel]Strategy, len(entries))
	for _, s := range entries {
		if err := validate(s); err != nil {
			return nil, fmt.Errorf("invalid %s strategy: %w", s.Intent, err)
		}
		if _, exists := strategies[s.Intent]; exists {
			return nil, fmt.Errorf("duplicate strategy for intent %s", s.Intent)
		}
		strategies[s.Intent] = s
	}
	return &Registry{strategies: strategies}, nil
}

// Resolve looks up the strategy for a label. Labels outside the registered set
// fail with UnknownIntentError.
func (r *Registry) Resolve(label pkg.IntentLabel) (Strategy, error) {
	s, ok := r.strategies[label]
	if !ok {
		return Strategy{}, &pkg.UnknownIntentError{Label: string(label)}
	}
	return s, nil
}

// validate checks that a strategy's declared slots line up with the inputs the
// dispatcher will gather for it.
func validate(s Strategy) error {
	if !s.Intent.Valid() {
		return fmt.Errorf("label %q is outside the closed intent set", s.Intent)
	}
	if s.Template == nil {
		return fmt.Errorf("missing template")
	}
	if s.Completer == nil {
		return fmt.Errorf("missing completer")
	}

	slots := make(map[string]bool, len(s.Slots))
	for _, slot := range s.Slots {
		if slots[slot] {
			return fmt.Errorf("duplicate slot %q", slot)
		}
		slots[slot] = true
	}

	// Every strategy receives the raw query and the rendered history.
	if !slots[pkg.SlotQuery] {
		return fmt.Errorf("missing required slot %q", pkg.SlotQuery)
	}
	if !slots[pkg.SlotConversationHistory] {
		return fmt.Errorf("missing required slot %q", pkg.SlotConversationHistory)
	}
	if slots[pkg.SlotContext] != s.RequiresContext {
		return fmt.Errorf("slot %q and RequiresContext disagree", pkg.SlotContext)
	}
	if slots[pkg.SlotUserData] != s.RequiresUserData {
		return fmt.Errorf("slot %q and RequiresUserData disagree", pkg.SlotUserData)
	}
	for _, slot := range s.Slots {
		switch slot {
		case pkg.SlotQuery, pkg.SlotConversationHistory, pkg.SlotContext, pkg.SlotUserData:
		default:
			return fmt.Errorf("slot %q has no binding source", slot)
		}
	}
	return nil
}
