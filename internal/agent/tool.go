// Package agent dispatches natural-language questions to the clinical tools
// through a tool-calling language model.
package agent

import (
	"context"
	"errors"
	"fmt"
	"sort"
)

// ErrUnknownTool is returned by Registry.Invoke for a name it does not hold.
var ErrUnknownTool = errors.New("unknown tool")

// Tool is a named capability the model can call with a single text input.
// Invoke returns user-facing text for resolution failures and empty results;
// an error means the infrastructure failed.
type Tool struct {
	Name        string
	Description string
	Invoke      func(ctx context.Context, input string) (string, error)
}

// Registry indexes tools by name, keeping registration order for listing.
type Registry struct {
	tools []Tool
	index map[string]int
}

// NewRegistry builds a registry. Later duplicates replace earlier entries.
func NewRegistry(tools ...Tool) *Registry {
	r := &Registry{index: make(map[string]int, len(tools))}
	for _, t := range tools {
		r.Register(t)
	}
	return r
}

// Register adds or replaces a tool.
func (r *Registry) Register(t Tool) {
	if i, ok := r.index[t.Name]; ok {
		r.tools[i] = t
		return
	}
	r.index[t.Name] = len(r.tools)
	r.tools = append(r.tools, t)
}

// Get returns the named tool.
func (r *Registry) Get(name string) (Tool, bool) {
	i, ok := r.index[name]
	if !ok {
		return Tool{}, false
	}
	return r.tools[i], true
}

// Tools returns the tools in registration order.
func (r *Registry) Tools() []Tool {
	out := make([]Tool, len(r.tools))
	copy(out, r.tools)
	return out
}

// Names returns the tool names sorted alphabetically.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.tools))
	for _, t := range r.tools {
		names = append(names, t.Name)
	}
	sort.Strings(names)
	return names
}

// Invoke calls the named tool directly.
func (r *Registry) Invoke(ctx context.Context, name, input string) (string, error) {
	t, ok := r.Get(name)
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrUnknownTool, name)
	}
	return t.Invoke(ctx, input)
}
