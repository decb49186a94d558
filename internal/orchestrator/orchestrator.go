// Package orchestrator dispatches each query through one response strategy:
// classify the intent, resolve its strategy, gather the inputs the strategy
// declares, generate, and record the completed exchange.
package orchestrator

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"loyalty_qa/internal/history"
	"loyalty_qa/internal/logger"
	"loyalty_qa/internal/retrieval"
	"loyalty_qa/internal/strategy"
	"loyalty_qa/pkg"
)

// Classifier labels a raw query with one intent from the closed set.
type Classifier interface {
	Classify(ctx context.Context, query string) (pkg.IntentLabel, error)
}

// StrategyResolver looks up the strategy registered for a label.
type StrategyResolver interface {
	Resolve(label pkg.IntentLabel) (strategy.Strategy, error)
}

// ProfileReader loads a user's wallet data.
type ProfileReader interface {
	Get(ctx context.Context, userID string) (map[string]string, error)
}

// Config carries dispatch settings, including the deadline imposed on each
// external call. A deadline hit surfaces on the same failure path as a
// service error.
type Config struct {
	TopK            int
	ScoreThreshold  float64
	ClassifyTimeout time.Duration
	RetrieveTimeout time.Duration
	ProfileTimeout  time.Duration
	GenerateTimeout time.Duration
}

// Orchestrator wires the classifier, registry, history store and external
// collaborators into the per-request dispatch sequence.
type Orchestrator struct {
	classifier Classifier
	resolver   StrategyResolver
	history    *history.Store
	gateway    retrieval.Gateway
	profiles   ProfileReader
	cfg        Config
}

func New(classifier Classifier, resolver StrategyResolver, hist *history.Store, gateway retrieval.Gateway, profiles ProfileReader, cfg Config) *Orchestrator {
	if cfg.TopK == 0 {
		cfg.TopK = 3
	}
	if cfg.ScoreThreshold == 0 {
		cfg.ScoreThreshold = 0.5
	}
	return &Orchestrator{
		classifier: classifier,
		resolver:   resolver,
		history:    hist,
		gateway:    gateway,
		profiles:   profiles,
		cfg:        cfg,
	}
}

// inputBundle is the per-request slot binding set, built fresh for every
// request and discarded after the response is produced.
type inputBundle struct {
	Query               string
	ConversationHistory string
	Context             string
	UserData            string
}

// bind projects the bundle onto exactly the slots a strategy declares.
func (b inputBundle) bind(slots []string) (map[string]any, error) {
	vars := make(map[string]any, len(slots))
	for _, slot := range slots {
		switch slot {
		case pkg.SlotQuery:
			vars[slot] = b.Query
		case pkg.SlotConversationHistory:
			vars[slot] = b.ConversationHistory
		case pkg.SlotContext:
			vars[slot] = b.Context
		case pkg.SlotUserData:
			vars[slot] = b.UserData
		default:
			return nil, fmt.Errorf("slot %q has no binding source", slot)
		}
	}
	return vars, nil
}

// Handle runs one request through classification, dispatch, generation and
// history recording. The history write happens only after generation
// succeeds; a failure at any step leaves the user's history untouched.
func (o *Orchestrator) Handle(ctx context.Context, userID, query string) (string, error) {
	started := time.Now()

	label, err := o.classify(ctx, query)
	if err != nil {
		logger.Warn().Err(err).Str("user_id", userID).Msg("intent classification failed")
		return "", err
	}
	logger.Debug().Str("user_id", userID).Str("intent", string(label)).Msg("intent classified")

	strat, err := o.resolver.Resolve(label)
	if err != nil {
		return "", err
	}

	bundle := inputBundle{
		Query:               query,
		ConversationHistory: o.history.Render(userID),
	}

	if strat.RequiresContext {
		bundle.Context, err = o.retrieveContext(ctx, query)
		if err != nil {
			logger.Warn().Err(err).Str("user_id", userID).Msg("context retrieval failed")
			return "", err
		}
	}

	if strat.RequiresUserData {
		bundle.UserData = o.loadUserData(ctx, userID)
	}

	vars, err := bundle.bind(strat.Slots)
	if err != nil {
		return "", err
	}

	gctx, cancel := withTimeout(ctx, o.cfg.GenerateTimeout)
	defer cancel()
	text, err := strat.Completer.Complete(gctx, vars)
	if err != nil {
		logger.Warn().Err(err).Str("user_id", userID).Str("intent", string(label)).Msg("generation failed")
		return "", err
	}

	// The only mutation in the request, and only after a successful
	// generation call.
	o.history.Record(userID, query, text)

	logger.Info().
		Str("user_id", userID).
		Str("intent", string(label)).
		Int64("elapsed_ms", time.Since(started).Milliseconds()).
		Msg("request completed")

	return text, nil
}

func (o *Orchestrator) classify(ctx context.Context, query string) (pkg.IntentLabel, error) {
	cctx, cancel := withTimeout(ctx, o.cfg.ClassifyTimeout)
	defer cancel()
	return o.classifier.Classify(cctx, query)
}

func (o *Orchestrator) retrieveContext(ctx context.Context, query string) (string, error) {
	rctx, cancel := withTimeout(ctx, o.cfg.RetrieveTimeout)
	defer cancel()

	docs, err := o.gateway.Search(rctx, query, o.cfg.TopK, o.cfg.ScoreThreshold)
	if err != nil {
		return "", err
	}
	return retrieval.BuildContext(docs), nil
}

// loadUserData degrades to an empty profile on lookup failure; wallet prompts
// handle absent data gracefully and the request must not fail for it.
func (o *Orchestrator) loadUserData(ctx context.Context, userID string) string {
	pctx, cancel := withTimeout(ctx, o.cfg.ProfileTimeout)
	defer cancel()

	data, err := o.profiles.Get(pctx, userID)
	if err != nil {
		logger.Warn().Err(err).Str("user_id", userID).Msg("profile lookup failed, using empty profile")
		return ""
	}
	return renderUserData(data)
}

// renderUserData serializes the profile mapping deterministically.
func renderUserData(data map[string]string) string {
	if len(data) == 0 {
		return ""
	}
	keys := make([]string, 0, len(data))
	for k := range data {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	pairs := make([]string, 0, len(keys))
	for _, k := range keys {
		pairs = append(pairs, k+": "+data[k])
	}
	return strings.Join(pairs, ", ")
}

func withTimeout(ctx context.Context, d time.Duration) (context.Context, context.CancelFunc) {
	if d <= 0 {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, d)
}
