// Copyright 2023 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package protocol

import (
	"context"

	"github.com/creachadair/jrpc2"
	"github.com/creachadair/jrpc2/handler"
)

// Server is the part of the LSP server surface knotls implements.
type Server interface {
	// See https://microsoft.github.io/language-server-protocol/specifications/lsp/3.17/specification#setTrace
	SetTrace(context.Context, *SetTraceParams) error
	// See https://microsoft.github.io/language-server-protocol/specifications/lsp/3.17/specification#exit
	Exit(context.Context) error
	// See https://microsoft.github.io/language-server-protocol/specifications/lsp/3.17/specification#initialize
	Initialize(context.Context, *ParamInitialize) (*InitializeResult, error)
	// See https://microsoft.github.io/language-server-protocol/specifications/lsp/3.17/specification#initialized
	Initialized(context.Context, *InitializedParams) error
	// See https://microsoft.github.io/language-server-protocol/specifications/lsp/3.17/specification#shutdown
	Shutdown(context.Context) error
	// See https://microsoft.github.io/language-server-protocol/specifications/lsp/3.17/specification#textDocument_didChange
	DidChange(context.Context, *DidChangeTextDocumentParams) error
	// See https://microsoft.github.io/language-server-protocol/specifications/lsp/3.17/specification#textDocument_didClose
	DidClose(context.Context, *DidCloseTextDocumentParams) error
	// See https://microsoft.github.io/language-server-protocol/specifications/lsp/3.17/specification#textDocument_didOpen
	DidOpen(context.Context, *DidOpenTextDocumentParams) error
	// See https://microsoft.github.io/language-server-protocol/specifications/lsp/3.17/specification#textDocument_didSave
	DidSave(context.Context, *DidSaveTextDocumentParams) error
	// See https://microsoft.github.io/language-server-protocol/specifications/lsp/3.17/specification#textDocument_semanticTokens_full
	SemanticTokensFull(context.Context, *SemanticTokensParams) (*SemanticTokens, error)
	// See https://microsoft.github.io/language-server-protocol/specifications/lsp/3.17/specification#textDocument_semanticTokens_full_delta
	SemanticTokensFullDelta(context.Context, *SemanticTokensDeltaParams) (*Or_Result_textDocument_semanticTokens_full_delta, error)
}

func buildServerDispatchMap(server Server) handler.Map {
	return handler.Map{
		"$/cancelRequest":                        createEmptyResultHandler(cancelRequest),
		"$/setTrace":                             createEmptyResultHandler(server.SetTrace),
		"exit":                                   createEmptyHandler(server.Exit),
		"initialize":                             createHandler(server.Initialize),
		"initialized":                            createEmptyResultHandler(server.Initialized),
		"shutdown":                               createEmptyHandler(server.Shutdown),
		"textDocument/didChange":                 createEmptyResultHandler(server.DidChange),
		"textDocument/didClose":                  createEmptyResultHandler(server.DidClose),
		"textDocument/didOpen":                   createEmptyResultHandler(server.DidOpen),
		"textDocument/didSave":                   createEmptyResultHandler(server.DidSave),
		"textDocument/semanticTokens/full":       createHandler(server.SemanticTokensFull),
		"textDocument/semanticTokens/full/delta": createHandler(server.SemanticTokensFullDelta),
	}
}

// cancelRequest accepts $/cancelRequest. Requests here finish quickly, so
// there is nothing to interrupt.
func cancelRequest(ctx context.Context, params *CancelParams) error {
	return nil
}

// ServerCaller drives a Server over a jrpc2 client connection. Editors do
// this for real; tests and get-tokens do it in process.
type ServerCaller struct {
	client *jrpc2.Client
}

var _ Server = (*ServerCaller)(nil)

func NewServerCaller(client *jrpc2.Client) *ServerCaller {
	return &ServerCaller{client: client}
}

func (s *ServerCaller) Close() error {
	return s.client.Close()
}

func (s *ServerCaller) SetTrace(ctx context.Context, params *SetTraceParams) error {
	return createClientNotify(ctx, s.client, "$/setTrace", params)
}

func (s *ServerCaller) Exit(ctx context.Context) error {
	return createClientEmptyNotify(ctx, s.client, "exit")
}

func (s *ServerCaller) Initialize(ctx context.Context, params *ParamInitialize) (*InitializeResult, error) {
	var result *InitializeResult
	if err := createClientCall(ctx, s.client, "initialize", params, &result); err != nil {
		return nil, err
	}
	return result, nil
}

func (s *ServerCaller) Initialized(ctx context.Context, params *InitializedParams) error {
	return createClientNotify(ctx, s.client, "initialized", params)
}

func (s *ServerCaller) Shutdown(ctx context.Context) error {
	return createClientEmptyCall(ctx, s.client, "shutdown")
}

func (s *ServerCaller) DidChange(ctx context.Context, params *DidChangeTextDocumentParams) error {
	return createClientNotify(ctx, s.client, "textDocument/didChange", params)
}

func (s *ServerCaller) DidClose(ctx context.Context, params *DidCloseTextDocumentParams) error {
	return createClientNotify(ctx, s.client, "textDocument/didClose", params)
}

func (s *ServerCaller) DidOpen(ctx context.Context, params *DidOpenTextDocumentParams) error {
	return createClientNotify(ctx, s.client, "textDocument/didOpen", params)
}

func (s *ServerCaller) DidSave(ctx context.Context, params *DidSaveTextDocumentParams) error {
	return createClientNotify(ctx, s.client, "textDocument/didSave", params)
}

func (s *ServerCaller) SemanticTokensFull(ctx context.Context, params *SemanticTokensParams) (*SemanticTokens, error) {
	var result *SemanticTokens
	if err := createClientCall(ctx, s.client, "textDocument/semanticTokens/full", params, &result); err != nil {
		return nil, err
	}
	return result, nil
}

func (s *ServerCaller) SemanticTokensFullDelta(ctx context.Context, params *SemanticTokensDeltaParams) (*Or_Result_textDocument_semanticTokens_full_delta, error) {
	var result *Or_Result_textDocument_semanticTokens_full_delta
	if err := createClientCall(ctx, s.client, "textDocument/semanticTokens/full/delta", params, &result); err != nil {
		return nil, err
	}
	return result, nil
}
