package agent

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
)

// Request is one model generation step. Tools carry declarations only; the
// loop in Run executes handlers.
type Request struct {
	Model    string
	Messages []Message
	Tools    []Tool
	Settings Settings
}

type Response struct {
	Message      Message
	Usage        Usage
	FinishReason FinishReason
}

// Stream yields text deltas for one generation step. After Next returns
// false, Message holds the complete assistant message (including any tool
// calls) unless Err is non-nil.
type Stream interface {
	Next() bool
	Delta() string
	Message() *Message
	Usage() Usage
	FinishReason() FinishReason
	Err() error
	Close() error
}

// Model is one provider binding.
type Model interface {
	Generate(ctx context.Context, req Request) (*Response, error)
	Stream(ctx context.Context, req Request) (Stream, error)
}

var (
	registryMu sync.RWMutex
	registry   = map[string]Model{}
)

// Register binds a provider name ("openai", "anthropic", ...) to a model
// implementation. Registering the same name twice is an error.
func Register(provider string, m Model) error {
	if provider == "" {
		return fmt.Errorf("provider name is required")
	}
	if m == nil {
		return fmt.Errorf("model is required")
	}
	registryMu.Lock()
	defer registryMu.Unlock()
	if _, ok := registry[provider]; ok {
		return fmt.Errorf("provider %q already registered", provider)
	}
	registry[provider] = m
	return nil
}

// Resolve splits a "provider:model" reference and looks the provider up.
func Resolve(ref string) (Model, string, error) {
	provider, name, ok := strings.Cut(ref, ":")
	if !ok || provider == "" || name == "" {
		return nil, "", fmt.Errorf("model reference %q must be provider:model", ref)
	}
	registryMu.RLock()
	m, found := registry[provider]
	registryMu.RUnlock()
	if !found {
		return nil, "", fmt.Errorf("unknown provider %q (registered: %s)", provider, registeredProviders())
	}
	return m, name, nil
}

func registeredProviders() string {
	registryMu.RLock()
	defer registryMu.RUnlock()
	names := make([]string, 0, len(registry))
	for n := range registry {
		names = append(names, n)
	}
	sort.Strings(names)
	if len(names) == 0 {
		return "none"
	}
	return strings.Join(names, ", ")
}
