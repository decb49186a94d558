package pkg

import (
	"errors"
	"fmt"
)

// Core types shared across the QA backend

// Role identifies the speaker of a dialogue turn.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// DialogueTurn is a single utterance in a user's conversation log.
// Immutable once created.
type DialogueTurn struct {
	Role Role   `json:"role"`
	Text string `json:"text"`
}

// RetrievedDocument is one scored result from the similarity search service.
// The orchestrator only reads it and holds it for a single request.
type RetrievedDocument struct {
	Content  string         `json:"content"`
	Metadata map[string]any `json:"metadata"`
	Score    float64        `json:"score"`
}

// IntentLabel is the classified purpose of a user query, drawn from a closed set.
type IntentLabel string

const (
	IntentResearch IntentLabel = "research"
	IntentWallet   IntentLabel = "wallet"
	IntentUnknown  IntentLabel = "unknown"

	// IntentClassify is the meta label for the classification template itself.
	// Never a valid classification result.
	IntentClassify IntentLabel = "intent"
)

// Valid reports whether the label is one of the dispatchable intents.
func (l IntentLabel) Valid() bool {
	switch l {
	case IntentResearch, IntentWallet, IntentUnknown:
		return true
	}
	return false
}

// Slot names used by the prompt templates.
const (
	SlotQuery               = "query"
	SlotConversationHistory = "conversation_history"
	SlotContext             = "context"
	SlotUserData            = "user_data"
)

// UnknownIntentError is returned when the classifier produces a label outside
// the closed intent set, or the registry is asked for an unregistered label.
type UnknownIntentError struct {
	Label string
}

func (e *UnknownIntentError) Error() string {
	return fmt.Sprintf("unknown intent: %q", e.Label)
}

// Sentinel errors for external collaborator failures. All are request-scoped.
var (
	ErrRetrievalService  = errors.New("retrieval service failure")
	ErrGenerationService = errors.New("generation service failure")
	ErrProfileLookup     = errors.New("profile lookup failure")
)
