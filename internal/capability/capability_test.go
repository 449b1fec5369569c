package capability

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistryConnectAndCall(t *testing.T) {
	r := NewRegistry()
	stub := NewStub("news", map[string]json.RawMessage{
		"search": json.RawMessage(`{"articles":[]}`),
	})

	require.NoError(t, r.Connect(context.Background(), stub))
	assert.Equal(t, []string{"news"}, r.Names())

	out, err := r.Call(context.Background(), "news", "search", map[string]any{"q": "bitcoin"})
	require.NoError(t, err)
	assert.JSONEq(t, `{"articles":[]}`, string(out))
}

func TestRegistryCallUnknownCapability(t *testing.T) {
	r := NewRegistry()
	_, err := r.Call(context.Background(), "missing", "tool", nil)
	assert.Error(t, err)
}

func TestRegistryConnectFailureIsIsolated(t *testing.T) {
	r := NewRegistry()

	err := r.Connect(context.Background(), &failingClient{})
	require.Error(t, err)
	assert.Empty(t, r.Names())

	// A failed connect must not block other capabilities.
	require.NoError(t, r.Connect(context.Background(), NewStub("data", nil)))
	assert.Equal(t, []string{"data"}, r.Names())
}

func TestRegistryDisconnect(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, r.Connect(context.Background(), NewStub("news", nil)))
	require.NoError(t, r.Connect(context.Background(), NewStub("data", nil)))

	require.NoError(t, r.Disconnect("news"))
	assert.Equal(t, []string{"data"}, r.Names())

	r.Shutdown()
	assert.Empty(t, r.Names())
}

func TestStubUnknownTool(t *testing.T) {
	stub := NewStub("news", map[string]json.RawMessage{"search": json.RawMessage(`{}`)})
	_, err := stub.Call(context.Background(), "other", nil)
	assert.Error(t, err)
	assert.Equal(t, []string{"search"}, stub.Tools())
}

type failingClient struct{}

func (f *failingClient) Name() string { return "broken" }

func (f *failingClient) Connect(ctx context.Context) error { return errors.New("no backend") }

func (f *failingClient) Call(ctx context.Context, tool string, args map[string]any) (json.RawMessage, error) {
	return nil, errors.New("not connected")
}

func (f *failingClient) Tools() []string { return nil }

func (f *failingClient) Close() error { return nil }
