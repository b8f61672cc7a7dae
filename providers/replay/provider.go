// Package replay implements a deterministic scoring backend that replays a
// recorded set of JSON payloads instead of calling a live model. It is used
// to re-run the estimator and compliance filter against a fixed set of
// samples without spending API budget.
package replay

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/AltairaLabs/beliefbench/providers"
)

// Recording is the on-disk shape of a replay file: a flat list of
// previously captured responses, matched either by the SHA-256 of the
// composed prompt (Instructions+UserText) or, failing that, by sequential
// order.
type Recording struct {
	ModelID string           `json:"model_id"`
	Entries []RecordingEntry `json:"entries"`
}

// RecordingEntry captures one previously recorded ScoreClaim response.
type RecordingEntry struct {
	PromptKey  string          `json:"prompt_key"`
	RawJSON    json.RawMessage `json:"raw_json"`
	ResponseID string          `json:"response_id"`
}

// Provider replays recorded responses instead of calling a live backend.
type Provider struct {
	id      string
	modelID string
	byKey   map[string]RecordingEntry
	entries []RecordingEntry

	mu   sync.Mutex
	next int
}

// NewProvider builds a replay provider from an in-memory recording.
func NewProvider(id string, rec Recording) (*Provider, error) {
	if len(rec.Entries) == 0 {
		return nil, fmt.Errorf("replay provider: recording has no entries")
	}
	byKey := make(map[string]RecordingEntry, len(rec.Entries))
	for _, e := range rec.Entries {
		if e.PromptKey != "" {
			byKey[e.PromptKey] = e
		}
	}
	return &Provider{id: id, modelID: rec.ModelID, byKey: byKey, entries: rec.Entries}, nil
}

// NewProviderFromFile loads a recording from a JSON file on disk.
func NewProviderFromFile(id, path string) (*Provider, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("replay provider: read recording: %w", err)
	}
	var rec Recording
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, fmt.Errorf("replay provider: parse recording: %w", err)
	}
	return NewProvider(id, rec)
}

// ID returns the provider identifier.
func (p *Provider) ID() string {
	return p.id
}

// PromptKey computes the matching key replay uses to find an entry for a
// given request: the prompt's own fingerprint fields.
func PromptKey(instructions, userText string) string {
	return fmt.Sprintf("%s\x00%s", instructions, userText)
}

// ScoreClaim returns the recorded entry matching req's composed prompt, or,
// if no exact match is indexed, the next entry in recording order.
func (p *Provider) ScoreClaim(_ context.Context, req providers.ScoreRequest) (providers.ScoreResponse, error) {
	start := time.Now()

	entry, err := p.nextEntry(req)
	if err != nil {
		return providers.ScoreResponse{}, err
	}

	return providers.ScoreResponse{
		RawJSON:         entry.RawJSON,
		ProviderModelID: p.modelID,
		ResponseID:      entry.ResponseID,
		Latency:         time.Since(start),
	}, nil
}

func (p *Provider) nextEntry(req providers.ScoreRequest) (RecordingEntry, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if entry, ok := p.byKey[PromptKey(req.Instructions, req.UserText)]; ok {
		return entry, nil
	}

	if p.next >= len(p.entries) {
		return RecordingEntry{}, fmt.Errorf("replay provider: exhausted recorded entries (index %d)", p.next)
	}
	entry := p.entries[p.next]
	p.next++
	return entry, nil
}

// Close is a no-op for the replay provider.
func (p *Provider) Close() error {
	return nil
}
