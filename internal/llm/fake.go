package llm

import (
	"context"
	"sync"
)

// Fake is an in-process completer for tests and offline runs. It replays
// Responses in order, repeating the last one once exhausted.
type Fake struct {
	mu        sync.Mutex
	Responses []string
	Err       error
	Calls     int
	Prompts   []string
}

// NewFake creates a Fake replaying the given responses.
func NewFake(responses ...string) *Fake {
	return &Fake{Responses: responses}
}

// Complete implements models.Completer.
func (f *Fake) Complete(ctx context.Context, prompt string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.Calls++
	f.Prompts = append(f.Prompts, prompt)
	if f.Err != nil {
		return "", f.Err
	}
	if len(f.Responses) == 0 {
		return "", nil
	}
	idx := f.Calls - 1
	if idx >= len(f.Responses) {
		idx = len(f.Responses) - 1
	}
	return f.Responses[idx], nil
}
