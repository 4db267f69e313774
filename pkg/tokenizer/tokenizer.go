// Package tokenizer is the boundary to the external schema tokenizer.
//
// The server never lexes source itself. It hands the tokenizer a stream of
// source chunks plus a description of which analyses to run, and gets back
// the classified spans it turns into LSP semantic tokens.
package tokenizer

import (
	"context"
	"encoding/json"
	"iter"
	"slices"

	"github.com/walteh/knotls/pkg/semtok"
)

// Tokenizer runs one parse over a stream of source chunks.
type Tokenizer interface {
	Parse(ctx context.Context, source iter.Seq[string], opts *ParseOptions, policy *ErrorPolicy) (*ParseResult, error)
}

// ParseOptions selects the analyses the tokenizer performs.
type ParseOptions struct {
	EnableAst            bool       `json:"enableAst"`
	Ast                  AstOptions `json:"ast"`
	EnableSemanticTokens bool       `json:"enableSemanticTokens"`
	SemanticTokens       []string   `json:"semanticTokens"`
}

// AstOptions lists the AST sub-analyses. Enums is only sent when non-nil.
type AstOptions struct {
	BaseModels []string `json:"baseModels"`
	Types      []string `json:"types"`
	Enums      []string `json:"enums,omitzero"`
}

// Clone returns a deep copy so callers can hand options to a tokenizer
// without sharing the slices of a dialect's defaults.
func (o *ParseOptions) Clone() *ParseOptions {
	if o == nil {
		return nil
	}
	out := *o
	out.Ast.BaseModels = cloneKeepEmpty(o.Ast.BaseModels)
	out.Ast.Types = cloneKeepEmpty(o.Ast.Types)
	out.Ast.Enums = cloneKeepEmpty(o.Ast.Enums)
	out.SemanticTokens = cloneKeepEmpty(o.SemanticTokens)
	return &out
}

func cloneKeepEmpty(s []string) []string {
	if s == nil {
		return nil
	}
	return append(make([]string, 0, len(s)), s...)
}

type OnError string

const (
	// OnErrorContinue asks the tokenizer to recover and return partial results.
	OnErrorContinue OnError = "continue"
	OnErrorThrow    OnError = "throw"
)

type ErrorPolicy struct {
	OnError OnError `json:"onError"`
}

// ContinueOnError is the policy the server always uses: malformed source
// produces whatever tokens the tokenizer manages, never a failed request.
func ContinueOnError() *ErrorPolicy {
	return &ErrorPolicy{OnError: OnErrorContinue}
}

type ParseResult struct {
	Result Result `json:"result"`
}

type Result struct {
	SemanticTokens []semtok.Span `json:"semanticTokens"`

	// Ast is whatever AST data the tokenizer chose to return. It is kept
	// opaque and never interpreted.
	Ast json.RawMessage `json:"ast,omitempty"`
}

// Spans returns the semantic tokens, never nil.
func (r *ParseResult) Spans() []semtok.Span {
	if r == nil || r.Result.SemanticTokens == nil {
		return []semtok.Span{}
	}
	return r.Result.SemanticTokens
}

// SingleChunk is the degenerate stream holding the whole document.
func SingleChunk(text string) iter.Seq[string] {
	return func(yield func(string) bool) {
		yield(text)
	}
}

func Chunks(parts ...string) iter.Seq[string] {
	return slices.Values(parts)
}

// Func adapts a plain function to the Tokenizer interface.
type Func func(ctx context.Context, source iter.Seq[string], opts *ParseOptions, policy *ErrorPolicy) (*ParseResult, error)

func (f Func) Parse(ctx context.Context, source iter.Seq[string], opts *ParseOptions, policy *ErrorPolicy) (*ParseResult, error) {
	return f(ctx, source, opts, policy)
}

// Static returns a tokenizer that ignores its input and always reports spans.
func Static(spans ...semtok.Span) Tokenizer {
	return Func(func(ctx context.Context, _ iter.Seq[string], _ *ParseOptions, _ *ErrorPolicy) (*ParseResult, error) {
		return &ParseResult{Result: Result{SemanticTokens: slices.Clone(spans)}}, nil
	})
}
