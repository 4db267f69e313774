// Copyright 2023 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package protocol

import (
	"context"

	"github.com/creachadair/jrpc2"
	"github.com/creachadair/jrpc2/handler"
)

// Client is what the server may push to the editor.
type Client interface {
	// See https://microsoft.github.io/language-server-protocol/specifications/lsp/3.17/specification#logTrace
	LogTrace(context.Context, *LogTraceParams) error
	// See https://microsoft.github.io/language-server-protocol/specifications/lsp/3.17/specification#window_logMessage
	LogMessage(context.Context, *LogMessageParams) error
	// See https://microsoft.github.io/language-server-protocol/specifications/lsp/3.17/specification#window_showMessage
	ShowMessage(context.Context, *ShowMessageParams) error
	// See https://microsoft.github.io/language-server-protocol/specifications/lsp/3.17/specification#workspace_semanticTokens_refresh
	SemanticTokensRefresh(context.Context) error
}

func buildClientDispatchMap(client Client) handler.Map {
	return handler.Map{
		"$/logTrace":                       createEmptyResultHandler(client.LogTrace),
		"window/logMessage":                createEmptyResultHandler(client.LogMessage),
		"window/showMessage":               createEmptyResultHandler(client.ShowMessage),
		"workspace/semanticTokens/refresh": createEmptyHandler(client.SemanticTokensRefresh),
	}
}

// ClientHandlers routes server pushes on a jrpc2 client connection to client.
func ClientHandlers(client Client, opts *jrpc2.ClientOptions) *jrpc2.ClientOptions {
	if opts == nil {
		opts = &jrpc2.ClientOptions{}
	}

	methods := buildClientDispatchMap(client)

	opts.OnNotify = func(req *jrpc2.Request) {
		if h, ok := methods[req.Method()]; ok {
			_, _ = h(context.Background(), req)
		}
	}
	opts.OnCallback = func(ctx context.Context, req *jrpc2.Request) (any, error) {
		h, ok := methods[req.Method()]
		if !ok {
			return nil, jrpc2.Errorf(jrpc2.MethodNotFound, "no handler for %q", req.Method())
		}
		return h(ctx, req)
	}

	return opts
}

var _ Client = (*CallbackClient)(nil)

func (c *CallbackClient) LogTrace(ctx context.Context, params *LogTraceParams) error {
	return createNotify(ctx, c, "$/logTrace", params)
}

func (c *CallbackClient) LogMessage(ctx context.Context, params *LogMessageParams) error {
	return createNotify(ctx, c, "window/logMessage", params)
}

func (c *CallbackClient) ShowMessage(ctx context.Context, params *ShowMessageParams) error {
	return createNotify(ctx, c, "window/showMessage", params)
}

func (c *CallbackClient) SemanticTokensRefresh(ctx context.Context) error {
	return createEmptyCallback(ctx, c, "workspace/semanticTokens/refresh")
}
