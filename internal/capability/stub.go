package capability

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
)

// Stub is an in-process capability serving canned responses. It is used
// when the real backend is not configured, and in tests.
type Stub struct {
	name      string
	responses map[string]json.RawMessage
}

// NewStub creates a stub capability whose tools are the keys of responses.
func NewStub(name string, responses map[string]json.RawMessage) *Stub {
	if responses == nil {
		responses = make(map[string]json.RawMessage)
	}
	return &Stub{name: name, responses: responses}
}

func (s *Stub) Name() string { return s.name }

func (s *Stub) Connect(ctx context.Context) error { return nil }

func (s *Stub) Call(ctx context.Context, tool string, args map[string]any) (json.RawMessage, error) {
	resp, ok := s.responses[tool]
	if !ok {
		return nil, fmt.Errorf("stub capability %q has no tool %q", s.name, tool)
	}
	return resp, nil
}

func (s *Stub) Tools() []string {
	tools := make([]string, 0, len(s.responses))
	for tool := range s.responses {
		tools = append(tools, tool)
	}
	sort.Strings(tools)
	return tools
}

func (s *Stub) Close() error { return nil }
