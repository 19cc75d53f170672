package agent

import (
	"context"
	"fmt"
	"sort"

	"snello/llm"
)

// Tool defines the interface for operations the model may invoke.
// Each tool takes a small argument map (usually a single "input"
// string) and returns a human-readable outcome string. Tools never
// return errors for bad input; an error means the tool itself broke.
type Tool interface {
	Name() string
	Description() string
	Parameters() map[string]any // JSON Schema
	Execute(ctx context.Context, args map[string]any) (string, error)
}

// FuncTool wraps a plain function as a Tool.
type FuncTool struct {
	ToolName   string
	ToolDesc   string
	ToolParams map[string]any
	Fn         func(ctx context.Context, args map[string]any) (string, error)
}

func (f *FuncTool) Name() string               { return f.ToolName }
func (f *FuncTool) Description() string        { return f.ToolDesc }
func (f *FuncTool) Parameters() map[string]any { return f.ToolParams }
func (f *FuncTool) Execute(ctx context.Context, args map[string]any) (string, error) {
	return f.Fn(ctx, args)
}

// Registry is the closed set of tools an agent exposes to the model.
// It is built once at startup and validated then, so a model-chosen
// name either maps to a registered handler or is rejected outright.
type Registry struct {
	tools map[string]Tool
	order []string
}

// NewRegistry validates and indexes the given tools. Registration
// fails on an empty name, a nil handler, or a duplicate name.
func NewRegistry(tools ...Tool) (*Registry, error) {
	r := &Registry{tools: make(map[string]Tool, len(tools))}
	for _, t := range tools {
		if t == nil || t.Name() == "" {
			return nil, fmt.Errorf("tool with empty name")
		}
		if ft, ok := t.(*FuncTool); ok && ft.Fn == nil {
			return nil, fmt.Errorf("tool %s has no handler", t.Name())
		}
		if _, exists := r.tools[t.Name()]; exists {
			return nil, fmt.Errorf("duplicate tool name: %s", t.Name())
		}
		r.tools[t.Name()] = t
		r.order = append(r.order, t.Name())
	}
	return r, nil
}

// Get returns a tool by name, or nil.
func (r *Registry) Get(name string) Tool {
	return r.tools[name]
}

// Names returns all registered tool names, sorted.
func (r *Registry) Names() []string {
	names := append([]string(nil), r.order...)
	sort.Strings(names)
	return names
}

// Len returns the number of registered tools.
func (r *Registry) Len() int { return len(r.tools) }

// Schemas builds the LLM-facing tool declarations in registration order.
func (r *Registry) Schemas() []llm.ToolSchema {
	schemas := make([]llm.ToolSchema, 0, len(r.order))
	for _, name := range r.order {
		t := r.tools[name]
		schemas = append(schemas, llm.ToolSchema{
			Name:        t.Name(),
			Description: t.Description(),
			Parameters:  t.Parameters(),
		})
	}
	return schemas
}
