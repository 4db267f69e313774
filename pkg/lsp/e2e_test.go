package lsp_test

import (
	"context"
	"encoding/json"
	"io"
	"iter"
	"testing"
	"time"

	"github.com/creachadair/jrpc2"
	"github.com/creachadair/jrpc2/channel"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/walteh/knotls/pkg/dialect"
	"github.com/walteh/knotls/pkg/lsp"
	"github.com/walteh/knotls/pkg/lsp/protocol"
	"github.com/walteh/knotls/pkg/semtok"
	"github.com/walteh/knotls/pkg/tokenizer"
)

type editor struct {
	caller *protocol.ServerCaller
	done   <-chan error
}

// connect runs server behind an LSP framed pipe and returns an editor-side
// caller for it.
func connect(t *testing.T, ctx context.Context, server *lsp.Server) *editor {
	t.Helper()

	serverReader, clientWriter := io.Pipe()
	clientReader, serverWriter := io.Pipe()

	instance := server.BuildServerInstance(ctx, &jrpc2.ServerOptions{
		RPCLog:      protocol.NewTestLogger(t, nil),
		Concurrency: 1,
	})

	done := make(chan error, 1)
	go func() {
		done <- instance.StartAndWait(serverReader, serverWriter)
		close(done)
	}()

	caller := protocol.NewServerCaller(jrpc2.NewClient(channel.LSP(clientReader, clientWriter), nil))

	t.Cleanup(func() {
		_ = caller.Close()
		_ = clientWriter.Close()
		_ = serverWriter.Close()
		instance.Stop()
	})

	return &editor{caller: caller, done: done}
}

func e2eContext(t *testing.T) context.Context {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	t.Cleanup(cancel)
	return zerolog.New(zerolog.TestWriter{T: t}).Level(zerolog.DebugLevel).WithContext(ctx)
}

func semanticTokensClient() protocol.ClientCapabilities {
	return protocol.ClientCapabilities{
		TextDocument: &protocol.TextDocumentClientCapabilities{
			SemanticTokens: &protocol.SemanticTokensClientCapabilities{
				Formats: []protocol.TokenFormat{protocol.Relative},
			},
		},
	}
}

func TestEditorSession(t *testing.T) {
	t.Parallel()

	ctx := e2eContext(t)

	spans := []semtok.Span{
		{Kind: "type", Line: 0, InlineIndex: 0, Length: 4},
		{Kind: "type-name", Line: 0, InlineIndex: 5, Length: 4},
		{Kind: "prop-name", Line: 1, InlineIndex: 2, Length: 2},
		{Kind: "prop-type-name", Line: 1, InlineIndex: 6, Length: 6},
	}
	server := lsp.NewServer(ctx, dialect.Knotta, tokenizer.Static(spans...), lsp.WithVersion("v0.0.0-test"))
	ed := connect(t, ctx, server)

	initResult, err := ed.caller.Initialize(ctx, &protocol.ParamInitialize{
		XInitializeParams: protocol.XInitializeParams{
			Capabilities: semanticTokensClient(),
			ClientInfo:   &protocol.ClientInfo{Name: "e2e"},
		},
	})
	require.NoError(t, err)
	require.NotNil(t, initResult.ServerInfo)
	assert.Equal(t, lsp.ServerName, initResult.ServerInfo.Name)
	assert.Equal(t, "v0.0.0-test", initResult.ServerInfo.Version)
	require.NotNil(t, initResult.Capabilities.SemanticTokensProvider)
	assert.Equal(t,
		[]string{"string", "keyword", "type", "decorator", "property", "operator"},
		initResult.Capabilities.SemanticTokensProvider.Legend.TokenTypes)
	assert.Equal(t, []string{"declaration"}, initResult.Capabilities.SemanticTokensProvider.Legend.TokenModifiers)

	require.NoError(t, ed.caller.Initialized(ctx, &protocol.InitializedParams{}))

	untracked, err := ed.caller.SemanticTokensFull(ctx, &protocol.SemanticTokensParams{
		TextDocument: protocol.TextDocumentIdentifier{URI: docURI},
	})
	require.NoError(t, err)
	assert.Equal(t, []uint32{}, untracked.Data)
	assert.Empty(t, untracked.ResultID)

	require.NoError(t, ed.caller.DidOpen(ctx, &protocol.DidOpenTextDocumentParams{
		TextDocument: protocol.TextDocumentItem{
			URI:        docURI,
			LanguageID: "knotta",
			Version:    1,
			Text:       "type User {\n  id: string\n}\n",
		},
	}))

	first, err := ed.caller.SemanticTokensFull(ctx, &protocol.SemanticTokensParams{
		TextDocument: protocol.TextDocumentIdentifier{URI: docURI},
	})
	require.NoError(t, err)
	assert.NotEmpty(t, first.ResultID)
	assert.Equal(t, []uint32{
		0, 0, 4, 1, 0,
		0, 5, 4, 2, 1,
		1, 2, 2, 4, 1,
		0, 4, 6, 2, 0,
	}, first.Data)

	delta, err := ed.caller.SemanticTokensFullDelta(ctx, &protocol.SemanticTokensDeltaParams{
		TextDocument:     protocol.TextDocumentIdentifier{URI: docURI},
		PreviousResultID: first.ResultID,
	})
	require.NoError(t, err)
	require.IsType(t, protocol.SemanticTokensDelta{}, delta.Value)
	assert.Empty(t, delta.Value.(protocol.SemanticTokensDelta).Edits)

	require.NoError(t, ed.caller.DidClose(ctx, &protocol.DidCloseTextDocumentParams{
		TextDocument: protocol.TextDocumentIdentifier{URI: docURI},
	}))

	closed, err := ed.caller.SemanticTokensFull(ctx, &protocol.SemanticTokensParams{
		TextDocument: protocol.TextDocumentIdentifier{URI: docURI},
	})
	require.NoError(t, err)
	assert.Equal(t, []uint32{}, closed.Data)

	require.NoError(t, ed.caller.Shutdown(ctx))

	_, err = ed.caller.SemanticTokensFull(ctx, &protocol.SemanticTokensParams{
		TextDocument: protocol.TextDocumentIdentifier{URI: docURI},
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "server is shut down")

	require.NoError(t, ed.caller.Exit(ctx))

	select {
	case err := <-ed.done:
		require.NoError(t, err)
	case <-ctx.Done():
		t.Fatal("server did not stop after exit")
	}
}

func TestEditorWithoutSemanticTokens(t *testing.T) {
	t.Parallel()

	ctx := e2eContext(t)
	server := lsp.NewServer(ctx, dialect.Ontype, tokenizer.Static())
	ed := connect(t, ctx, server)

	initResult, err := ed.caller.Initialize(ctx, &protocol.ParamInitialize{
		XInitializeParams: protocol.XInitializeParams{
			Capabilities: protocol.ClientCapabilities{
				TextDocument: &protocol.TextDocumentClientCapabilities{},
			},
		},
	})
	require.NoError(t, err)
	assert.Nil(t, initResult.Capabilities.SemanticTokensProvider)
	assert.NotNil(t, initResult.Capabilities.TextDocumentSync)

	out, err := json.Marshal(initResult.Capabilities)
	require.NoError(t, err)
	assert.NotContains(t, string(out), "semanticTokensProvider")
}

func TestEditorSeesTokenizerFailure(t *testing.T) {
	t.Parallel()

	ctx := e2eContext(t)
	calls := 0
	tok := tokenizer.Func(func(ctx context.Context, _ iter.Seq[string], _ *tokenizer.ParseOptions, _ *tokenizer.ErrorPolicy) (*tokenizer.ParseResult, error) {
		calls++
		if calls == 1 {
			return nil, io.ErrUnexpectedEOF
		}
		return &tokenizer.ParseResult{Result: tokenizer.Result{SemanticTokens: []semtok.Span{
			{Kind: "string", Line: 0, InlineIndex: 0, Length: 3},
		}}}, nil
	})

	server := lsp.NewServer(ctx, dialect.Knotta, tok)
	ed := connect(t, ctx, server)

	_, err := ed.caller.Initialize(ctx, &protocol.ParamInitialize{
		XInitializeParams: protocol.XInitializeParams{Capabilities: semanticTokensClient()},
	})
	require.NoError(t, err)

	require.NoError(t, ed.caller.DidOpen(ctx, &protocol.DidOpenTextDocumentParams{
		TextDocument: protocol.TextDocumentItem{URI: docURI, LanguageID: "knotta", Version: 1, Text: `"a"`},
	}))

	params := &protocol.SemanticTokensParams{TextDocument: protocol.TextDocumentIdentifier{URI: docURI}}

	_, err = ed.caller.SemanticTokensFull(ctx, params)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unexpected EOF")

	res, err := ed.caller.SemanticTokensFull(ctx, params)
	require.NoError(t, err, "the connection survives a failed request")
	assert.Equal(t, []uint32{0, 0, 3, 0, 0}, res.Data)
}

func sortedKnottaSpans() *rapid.Generator[[]semtok.Span] {
	kinds := dialect.Knotta.Kinds.Kinds()
	return rapid.Custom(func(t *rapid.T) []semtok.Span {
		n := rapid.IntRange(0, 30).Draw(t, "n")
		spans := make([]semtok.Span, 0, n)
		var line, inline uint32
		for i := 0; i < n; i++ {
			if i > 0 && rapid.Bool().Draw(t, "same_line") {
				inline += rapid.Uint32Range(0, 12).Draw(t, "inline_step")
			} else {
				if i > 0 {
					line += rapid.Uint32Range(1, 4).Draw(t, "line_step")
				}
				inline = rapid.Uint32Range(0, 40).Draw(t, "inline")
			}
			spans = append(spans, semtok.Span{
				Kind:        rapid.SampledFrom(kinds).Draw(t, "kind"),
				Line:        line,
				InlineIndex: inline,
				Length:      rapid.Uint32Range(1, 20).Draw(t, "length"),
			})
		}
		return spans
	})
}

func TestServerTokensDecodeToTokenizerSpans(t *testing.T) {
	t.Parallel()

	ctx := zerolog.Nop().WithContext(context.Background())

	rapid.Check(t, func(rt *rapid.T) {
		spans := sortedKnottaSpans().Draw(rt, "spans")

		server := lsp.NewServer(ctx, dialect.Knotta, tokenizer.Static(spans...))
		require.NoError(rt, server.DidOpen(ctx, &protocol.DidOpenTextDocumentParams{
			TextDocument: protocol.TextDocumentItem{URI: docURI, LanguageID: "knotta", Version: 1, Text: "x"},
		}))

		res, err := server.SemanticTokensFull(ctx, &protocol.SemanticTokensParams{
			TextDocument: protocol.TextDocumentIdentifier{URI: docURI},
		})
		require.NoError(rt, err)

		tokens, err := semtok.Decode(res.Data)
		require.NoError(rt, err)
		require.Len(rt, tokens, len(spans))

		legend := dialect.Knotta.Legend
		for i, span := range spans {
			class, ok := dialect.Knotta.Kinds.Lookup(span.Kind)
			require.True(rt, ok)

			tok := tokens[i]
			assert.Equal(rt, span.Line, tok.Line)
			assert.Equal(rt, span.InlineIndex, tok.InlineIndex)
			assert.Equal(rt, span.Length, tok.Length)
			assert.Equal(rt, class.Type, tok.Type)
			assert.Equal(rt, class.Modifiers, tok.Modifiers)
			assert.NotEmpty(rt, tok.TypeName(legend))
		}
	})
}
