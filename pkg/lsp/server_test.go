package lsp_test

import (
	"context"
	"encoding/json"
	"iter"
	"slices"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"gitlab.com/tozd/go/errors"

	"github.com/walteh/knotls/gen/mockery"
	"github.com/walteh/knotls/pkg/dialect"
	"github.com/walteh/knotls/pkg/lsp"
	"github.com/walteh/knotls/pkg/lsp/protocol"
	"github.com/walteh/knotls/pkg/semtok"
	"github.com/walteh/knotls/pkg/tokenizer"
)

const docURI = protocol.DocumentURI("file:///workspace/models.knotta")

func testContext(t *testing.T) context.Context {
	return zerolog.New(zerolog.TestWriter{T: t}).
		Level(zerolog.DebugLevel).
		With().Str("test", t.Name()).Logger().
		WithContext(context.Background())
}

func open(t *testing.T, ctx context.Context, server *lsp.Server, text string) {
	t.Helper()
	require.NoError(t, server.DidOpen(ctx, &protocol.DidOpenTextDocumentParams{
		TextDocument: protocol.TextDocumentItem{
			URI:        docURI,
			LanguageID: server.Dialect().LanguageID,
			Version:    1,
			Text:       text,
		},
	}))
}

func full(t *testing.T, ctx context.Context, server *lsp.Server) *protocol.SemanticTokens {
	t.Helper()
	res, err := server.SemanticTokensFull(ctx, &protocol.SemanticTokensParams{
		TextDocument: protocol.TextDocumentIdentifier{URI: docURI},
	})
	require.NoError(t, err)
	require.NotNil(t, res)
	return res
}

func drain(source iter.Seq[string]) string {
	var sb strings.Builder
	for chunk := range source {
		sb.WriteString(chunk)
	}
	return sb.String()
}

func TestCapabilities(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name         string
		dialect      *dialect.Dialect
		client       protocol.ClientCapabilities
		wantProvider bool
	}{
		{
			name:         "no_text_document_section",
			dialect:      dialect.Knotta,
			client:       protocol.ClientCapabilities{},
			wantProvider: false,
		},
		{
			name:    "text_document_without_semantic_tokens",
			dialect: dialect.Knotta,
			client: protocol.ClientCapabilities{
				TextDocument: &protocol.TextDocumentClientCapabilities{},
			},
			wantProvider: false,
		},
		{
			name:    "knotta_with_semantic_tokens",
			dialect: dialect.Knotta,
			client: protocol.ClientCapabilities{
				TextDocument: &protocol.TextDocumentClientCapabilities{
					SemanticTokens: &protocol.SemanticTokensClientCapabilities{},
				},
			},
			wantProvider: true,
		},
		{
			name:    "ontype_with_semantic_tokens",
			dialect: dialect.Ontype,
			client: protocol.ClientCapabilities{
				TextDocument: &protocol.TextDocumentClientCapabilities{
					SemanticTokens: &protocol.SemanticTokensClientCapabilities{
						Formats: []protocol.TokenFormat{protocol.Relative},
					},
				},
			},
			wantProvider: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			caps := lsp.Capabilities(tt.dialect, tt.client)

			require.NotNil(t, caps.TextDocumentSync, "document sync is always advertised")
			assert.Equal(t, protocol.TextDocumentSyncOptions{
				OpenClose: true,
				Change:    protocol.Incremental,
				Save:      &protocol.SaveOptions{IncludeText: true},
			}, caps.TextDocumentSync.Value)

			if !tt.wantProvider {
				assert.Nil(t, caps.SemanticTokensProvider)

				out, err := json.Marshal(caps)
				require.NoError(t, err)
				assert.NotContains(t, string(out), "semanticTokensProvider")
				return
			}

			require.NotNil(t, caps.SemanticTokensProvider)
			provider := caps.SemanticTokensProvider
			assert.Equal(t, protocol.DocumentSelector{{Language: tt.dialect.LanguageID}}, provider.DocumentSelector)
			assert.Equal(t, tt.dialect.Legend.TokenTypes(), provider.Legend.TokenTypes)
			assert.Equal(t, tt.dialect.Legend.TokenModifiers(), provider.Legend.TokenModifiers)
			assert.Nil(t, provider.Range, "range requests are not offered")

			out, err := json.Marshal(provider)
			require.NoError(t, err)
			assert.Contains(t, string(out), `"full":{"delta":true}`)
		})
	}
}

func TestInitialize(t *testing.T) {
	t.Parallel()

	ctx := testContext(t)
	server := lsp.NewServer(ctx, dialect.Ontype, tokenizer.Static(), lsp.WithVersion("v1.2.3"))

	res, err := server.Initialize(ctx, &protocol.ParamInitialize{
		XInitializeParams: protocol.XInitializeParams{
			ClientInfo: &protocol.ClientInfo{Name: "test-editor"},
			Capabilities: protocol.ClientCapabilities{
				TextDocument: &protocol.TextDocumentClientCapabilities{
					SemanticTokens: &protocol.SemanticTokensClientCapabilities{},
				},
			},
		},
	})
	require.NoError(t, err)
	require.NotNil(t, res.ServerInfo)
	assert.Equal(t, lsp.ServerName, res.ServerInfo.Name)
	assert.Equal(t, "v1.2.3", res.ServerInfo.Version)
	require.NotNil(t, res.Capabilities.SemanticTokensProvider)
	assert.Contains(t, res.Capabilities.SemanticTokensProvider.Legend.TokenTypes, "enumMember")
}

func TestSemanticTokensFull(t *testing.T) {
	t.Parallel()

	t.Run("untracked_document_returns_empty_data", func(t *testing.T) {
		ctx := testContext(t)
		tok := mockery.NewMockTokenizer_tokenizer(t)
		server := lsp.NewServer(ctx, dialect.Knotta, tok)

		res := full(t, ctx, server)
		assert.Equal(t, []uint32{}, res.Data)
		assert.Empty(t, res.ResultID)

		out, err := json.Marshal(res)
		require.NoError(t, err)
		assert.JSONEq(t, `{"data":[]}`, string(out))
	})

	t.Run("empty_document_skips_tokenizer", func(t *testing.T) {
		ctx := testContext(t)
		tok := mockery.NewMockTokenizer_tokenizer(t)
		server := lsp.NewServer(ctx, dialect.Knotta, tok)

		open(t, ctx, server, "")

		res := full(t, ctx, server)
		assert.Equal(t, []uint32{}, res.Data)
		assert.NotEmpty(t, res.ResultID)
	})

	t.Run("empty_span_list_encodes_to_empty_data", func(t *testing.T) {
		ctx := testContext(t)
		server := lsp.NewServer(ctx, dialect.Knotta, tokenizer.Static())

		open(t, ctx, server, "// nothing to see")

		assert.Equal(t, []uint32{}, full(t, ctx, server).Data)
	})

	t.Run("worked_example", func(t *testing.T) {
		ctx := testContext(t)
		text := "type User {\n  name: string\n}\n"

		tok := mockery.NewMockTokenizer_tokenizer(t)
		tok.EXPECT().
			Parse(mock.Anything, mock.Anything,
				mock.MatchedBy(func(opts *tokenizer.ParseOptions) bool {
					return opts.EnableSemanticTokens && !opts.EnableAst && opts.Ast.Enums == nil
				}),
				mock.MatchedBy(func(policy *tokenizer.ErrorPolicy) bool {
					return policy.OnError == tokenizer.OnErrorContinue
				})).
			RunAndReturn(func(ctx context.Context, source iter.Seq[string], opts *tokenizer.ParseOptions, policy *tokenizer.ErrorPolicy) (*tokenizer.ParseResult, error) {
				if got := drain(source); got != text {
					return nil, errors.Errorf("tokenizer got %q", got)
				}
				return &tokenizer.ParseResult{Result: tokenizer.Result{SemanticTokens: []semtok.Span{
					{Kind: "type-name", Line: 0, InlineIndex: 5, Length: 3},
					{Kind: "prop-name", Line: 1, InlineIndex: 2, Length: 4},
				}}}, nil
			}).
			Once()

		server := lsp.NewServer(ctx, dialect.Knotta, tok)
		open(t, ctx, server, text)

		res := full(t, ctx, server)
		assert.Equal(t, []uint32{0, 5, 3, 2, 1, 1, 2, 4, 4, 1}, res.Data)
		assert.NotEmpty(t, res.ResultID)
	})

	t.Run("ontype_requests_enum_extraction", func(t *testing.T) {
		ctx := testContext(t)

		tok := mockery.NewMockTokenizer_tokenizer(t)
		tok.EXPECT().
			Parse(mock.Anything, mock.Anything,
				mock.MatchedBy(func(opts *tokenizer.ParseOptions) bool {
					return opts.Ast.Enums != nil && len(opts.Ast.Enums) == 0
				}),
				mock.Anything).
			Return(&tokenizer.ParseResult{Result: tokenizer.Result{SemanticTokens: []semtok.Span{
				{Kind: "enum", Line: 0, InlineIndex: 0, Length: 4},
				{Kind: "enum-name", Line: 0, InlineIndex: 5, Length: 5},
				{Kind: "enum-member", Line: 1, InlineIndex: 2, Length: 3},
				{Kind: "enum-member-value", Line: 1, InlineIndex: 8, Length: 1},
			}}}, nil).
			Once()

		server := lsp.NewServer(ctx, dialect.Ontype, tok)
		open(t, ctx, server, "enum Color {\n  Red = 1\n}")

		legend := dialect.Ontype.Legend
		keyword, _ := legend.TypeIndex("keyword")
		enum, _ := legend.TypeIndex("enum")
		member, _ := legend.TypeIndex("enumMember")
		number, _ := legend.TypeIndex("number")
		decl, _ := legend.ModifierBit("declaration")

		assert.Equal(t, []uint32{
			0, 0, 4, keyword, 0,
			0, 5, 5, enum, decl,
			1, 2, 3, member, decl,
			0, 6, 1, number, 0,
		}, full(t, ctx, server).Data)
	})

	t.Run("unmapped_kind_defaults_to_zero_and_is_counted", func(t *testing.T) {
		ctx := testContext(t)
		documents := lsp.NewDocumentStore()
		metrics := lsp.NewMetrics(documents)

		server := lsp.NewServer(ctx, dialect.Knotta, tokenizer.Static(
			semtok.Span{Kind: "mystery", Line: 0, InlineIndex: 1, Length: 2},
			semtok.Span{Kind: "mystery", Line: 0, InlineIndex: 4, Length: 2},
		), lsp.WithDocuments(documents), lsp.WithMetrics(metrics), lsp.WithUnknownKindPolicy(semtok.UnknownKindDefault))
		open(t, ctx, server, "?? ??")

		assert.Equal(t, []uint32{0, 1, 2, 0, 0, 0, 3, 2, 0, 0}, full(t, ctx, server).Data)

		expected := `
# HELP knotls_unmapped_token_kinds_total Token spans whose kind is missing from the dialect's kind table
# TYPE knotls_unmapped_token_kinds_total counter
knotls_unmapped_token_kinds_total{dialect="knotta",kind="mystery"} 2
`
		require.NoError(t, testutil.GatherAndCompare(metrics.Registry(), strings.NewReader(expected), "knotls_unmapped_token_kinds_total"))

		openDocs := `
# HELP knotls_open_documents Documents currently open in the editor
# TYPE knotls_open_documents gauge
knotls_open_documents 1
`
		require.NoError(t, testutil.GatherAndCompare(metrics.Registry(), strings.NewReader(openDocs), "knotls_open_documents"))
	})

	t.Run("unmapped_kind_fails_under_error_policy", func(t *testing.T) {
		ctx := testContext(t)
		server := lsp.NewServer(ctx, dialect.Knotta, tokenizer.Static(
			semtok.Span{Kind: "mystery", Line: 0, InlineIndex: 0, Length: 1},
		), lsp.WithUnknownKindPolicy(semtok.UnknownKindError))
		open(t, ctx, server, "?")

		_, err := server.SemanticTokensFull(ctx, &protocol.SemanticTokensParams{
			TextDocument: protocol.TextDocumentIdentifier{URI: docURI},
		})
		require.Error(t, err)
		assert.ErrorIs(t, err, semtok.ErrUnknownKind)
	})

	t.Run("tokenizer_failure_fails_only_the_request", func(t *testing.T) {
		ctx := testContext(t)
		boom := errors.Base("tokenizer crashed")

		tok := mockery.NewMockTokenizer_tokenizer(t)
		tok.EXPECT().Parse(mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(nil, boom).Once()

		documents := lsp.NewDocumentStore()
		metrics := lsp.NewMetrics(documents)
		server := lsp.NewServer(ctx, dialect.Knotta, tok, lsp.WithDocuments(documents), lsp.WithMetrics(metrics))
		open(t, ctx, server, "type A {}")

		_, err := server.SemanticTokensFull(ctx, &protocol.SemanticTokensParams{
			TextDocument: protocol.TextDocumentIdentifier{URI: docURI},
		})
		require.Error(t, err)
		assert.ErrorIs(t, err, boom)

		doc, ok := server.Documents().Get(docURI)
		require.True(t, ok, "document store is untouched by tokenizer failures")
		assert.Equal(t, "type A {}", doc.Text)

		_, cached := server.Documents().Previous(docURI)
		assert.False(t, cached)

		requests := `
# HELP knotls_requests_total LSP requests and notifications handled, by method and outcome
# TYPE knotls_requests_total counter
knotls_requests_total{method="textDocument/didOpen",outcome="ok"} 1
knotls_requests_total{method="textDocument/semanticTokens/full",outcome="error"} 1
`
		require.NoError(t, testutil.GatherAndCompare(metrics.Registry(), strings.NewReader(requests), "knotls_requests_total"))
	})

	t.Run("tracing_span_per_computation", func(t *testing.T) {
		ctx := testContext(t)
		recorder := tracetest.NewSpanRecorder()
		provider := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))
		t.Cleanup(func() { _ = provider.Shutdown(context.Background()) })

		server := lsp.NewServer(ctx, dialect.Knotta, tokenizer.Static(
			semtok.Span{Kind: "type", Line: 0, InlineIndex: 0, Length: 4},
		), lsp.WithTracer(provider.Tracer("test")))
		open(t, ctx, server, "type")
		full(t, ctx, server)

		spans := recorder.Ended()
		require.Len(t, spans, 1)
		assert.Equal(t, "semanticTokens.compute", spans[0].Name())
	})
}

func TestSemanticTokensFullDelta(t *testing.T) {
	t.Parallel()

	// each line holds one property; the tokenizer reports one span per line
	linesTokenizer := tokenizer.Func(func(ctx context.Context, source iter.Seq[string], _ *tokenizer.ParseOptions, _ *tokenizer.ErrorPolicy) (*tokenizer.ParseResult, error) {
		var spans []semtok.Span
		for i, line := range strings.Split(drain(source), "\n") {
			if line == "" {
				continue
			}
			spans = append(spans, semtok.Span{Kind: "prop-name", Line: uint32(i), InlineIndex: 0, Length: uint32(len(line))})
		}
		return &tokenizer.ParseResult{Result: tokenizer.Result{SemanticTokens: spans}}, nil
	})

	delta := func(t *testing.T, ctx context.Context, server *lsp.Server, previous string) any {
		t.Helper()
		res, err := server.SemanticTokensFullDelta(ctx, &protocol.SemanticTokensDeltaParams{
			TextDocument:     protocol.TextDocumentIdentifier{URI: docURI},
			PreviousResultID: previous,
		})
		require.NoError(t, err)
		require.NotNil(t, res)
		return res.Value
	}

	t.Run("matching_result_id_returns_edits", func(t *testing.T) {
		ctx := testContext(t)
		server := lsp.NewServer(ctx, dialect.Knotta, linesTokenizer)
		open(t, ctx, server, "id\nname\n")

		first := full(t, ctx, server)

		require.NoError(t, server.DidChange(ctx, &protocol.DidChangeTextDocumentParams{
			TextDocument: protocol.VersionedTextDocumentIdentifier{Version: 2, TextDocumentIdentifier: protocol.TextDocumentIdentifier{URI: docURI}},
			ContentChanges: []protocol.TextDocumentContentChangeEvent{
				{Range: &protocol.Range{Start: protocol.Position{Line: 1, Character: 4}, End: protocol.Position{Line: 1, Character: 4}}, Text: "s\nemail"},
			},
		}))

		value := delta(t, ctx, server, first.ResultID)
		require.IsType(t, protocol.SemanticTokensDelta{}, value)
		d := value.(protocol.SemanticTokensDelta)
		assert.NotEmpty(t, d.ResultID)
		assert.NotEqual(t, first.ResultID, d.ResultID)
		require.NotEmpty(t, d.Edits)

		edits := make([]semtok.Edit, 0, len(d.Edits))
		for _, e := range d.Edits {
			edits = append(edits, semtok.Edit{Start: e.Start, DeleteCount: e.DeleteCount, Data: e.Data})
		}

		want := full(t, ctx, server).Data
		applied, err := semtok.Apply(first.Data, edits)
		require.NoError(t, err)
		assert.Equal(t, want, applied, "edits turn the previous data into the current data")
	})

	t.Run("unchanged_document_returns_no_edits", func(t *testing.T) {
		ctx := testContext(t)
		server := lsp.NewServer(ctx, dialect.Knotta, linesTokenizer)
		open(t, ctx, server, "id\n")

		first := full(t, ctx, server)
		value := delta(t, ctx, server, first.ResultID)
		require.IsType(t, protocol.SemanticTokensDelta{}, value)
		assert.Empty(t, value.(protocol.SemanticTokensDelta).Edits)

		out, err := json.Marshal(value)
		require.NoError(t, err)
		assert.Contains(t, string(out), `"edits":[]`)
	})

	t.Run("unknown_result_id_returns_full_data", func(t *testing.T) {
		ctx := testContext(t)
		server := lsp.NewServer(ctx, dialect.Knotta, linesTokenizer)
		open(t, ctx, server, "id\n")
		full(t, ctx, server)

		value := delta(t, ctx, server, "not-a-result-id")
		require.IsType(t, protocol.SemanticTokens{}, value)
		assert.Equal(t, []uint32{0, 0, 2, 4, 1}, value.(protocol.SemanticTokens).Data)
	})

	t.Run("reopened_document_forgets_previous_result", func(t *testing.T) {
		ctx := testContext(t)
		server := lsp.NewServer(ctx, dialect.Knotta, linesTokenizer)
		open(t, ctx, server, "id\n")
		first := full(t, ctx, server)

		require.NoError(t, server.DidClose(ctx, &protocol.DidCloseTextDocumentParams{
			TextDocument: protocol.TextDocumentIdentifier{URI: docURI},
		}))
		open(t, ctx, server, "id\n")

		require.IsType(t, protocol.SemanticTokens{}, delta(t, ctx, server, first.ResultID))
	})

	t.Run("untracked_document_returns_empty_full_data", func(t *testing.T) {
		ctx := testContext(t)
		server := lsp.NewServer(ctx, dialect.Knotta, linesTokenizer)

		value := delta(t, ctx, server, "anything")
		require.IsType(t, protocol.SemanticTokens{}, value)
		assert.Equal(t, []uint32{}, value.(protocol.SemanticTokens).Data)
	})
}

func TestDocumentNotifications(t *testing.T) {
	t.Parallel()

	ctx := testContext(t)
	server := lsp.NewServer(ctx, dialect.Knotta, tokenizer.Static())

	open(t, ctx, server, "type A {}\n")

	require.NoError(t, server.DidChange(ctx, &protocol.DidChangeTextDocumentParams{
		TextDocument: protocol.VersionedTextDocumentIdentifier{Version: 2, TextDocumentIdentifier: protocol.TextDocumentIdentifier{URI: docURI}},
		ContentChanges: []protocol.TextDocumentContentChangeEvent{
			{Range: &protocol.Range{Start: protocol.Position{Line: 0, Character: 5}, End: protocol.Position{Line: 0, Character: 6}}, Text: "Account"},
		},
	}))

	doc, ok := server.Documents().Get(docURI)
	require.True(t, ok)
	assert.Equal(t, "type Account {}\n", doc.Text)
	assert.Equal(t, int32(2), doc.Version)

	saved := "type B {}\n"
	require.NoError(t, server.DidSave(ctx, &protocol.DidSaveTextDocumentParams{
		TextDocument: protocol.TextDocumentIdentifier{URI: docURI},
		Text:         &saved,
	}))
	doc, _ = server.Documents().Get(docURI)
	assert.Equal(t, saved, doc.Text)

	require.NoError(t, server.DidSave(ctx, &protocol.DidSaveTextDocumentParams{
		TextDocument: protocol.TextDocumentIdentifier{URI: docURI},
	}), "a save without text keeps the current content")

	require.NoError(t, server.DidClose(ctx, &protocol.DidCloseTextDocumentParams{
		TextDocument: protocol.TextDocumentIdentifier{URI: docURI},
	}))
	_, ok = server.Documents().Get(docURI)
	assert.False(t, ok)

	err := server.DidChange(ctx, &protocol.DidChangeTextDocumentParams{
		TextDocument:   protocol.VersionedTextDocumentIdentifier{Version: 3, TextDocumentIdentifier: protocol.TextDocumentIdentifier{URI: docURI}},
		ContentChanges: []protocol.TextDocumentContentChangeEvent{{Text: "x"}},
	})
	assert.ErrorIs(t, err, lsp.ErrDocumentNotFound)
}

func TestShutdownRejectsTokenRequests(t *testing.T) {
	t.Parallel()

	ctx := testContext(t)
	server := lsp.NewServer(ctx, dialect.Knotta, tokenizer.Static())
	open(t, ctx, server, "type A {}")

	require.NoError(t, server.Shutdown(ctx))

	_, err := server.SemanticTokensFull(ctx, &protocol.SemanticTokensParams{
		TextDocument: protocol.TextDocumentIdentifier{URI: docURI},
	})
	assert.ErrorIs(t, err, lsp.ErrShutdown)

	_, err = server.SemanticTokensFullDelta(ctx, &protocol.SemanticTokensDeltaParams{
		TextDocument: protocol.TextDocumentIdentifier{URI: docURI},
	})
	assert.ErrorIs(t, err, lsp.ErrShutdown)

	assert.NoError(t, server.Exit(ctx))
}

func TestSetTokenizer(t *testing.T) {
	t.Parallel()

	initialize := func(t *testing.T, ctx context.Context, server *lsp.Server, refresh bool) {
		t.Helper()
		params := &protocol.ParamInitialize{}
		if refresh {
			params.Capabilities.Workspace = &protocol.WorkspaceClientCapabilities{
				SemanticTokens: &protocol.SemanticTokensWorkspaceClientCapabilities{RefreshSupport: true},
			}
		}
		_, err := server.Initialize(ctx, params)
		require.NoError(t, err)
	}

	t.Run("refreshes_when_supported", func(t *testing.T) {
		ctx := testContext(t)
		client := mockery.NewMockClient_protocol(t)
		client.EXPECT().SemanticTokensRefresh(mock.Anything).Return(nil).Once()

		server := lsp.NewServer(ctx, dialect.Knotta, tokenizer.Static())
		server.SetCallbackClient(client)
		initialize(t, ctx, server, true)
		open(t, ctx, server, "type")

		require.NoError(t, server.SetTokenizer(ctx, tokenizer.Static(semtok.Span{Kind: "type", Length: 4})))
		assert.Equal(t, []uint32{0, 0, 4, 1, 0}, full(t, ctx, server).Data, "new tokenizer is used")
	})

	t.Run("silent_without_refresh_support", func(t *testing.T) {
		ctx := testContext(t)
		client := mockery.NewMockClient_protocol(t)

		server := lsp.NewServer(ctx, dialect.Knotta, tokenizer.Static())
		server.SetCallbackClient(client)
		initialize(t, ctx, server, false)

		require.NoError(t, server.SetTokenizer(ctx, tokenizer.Static()))
	})
}

func TestLogTrace(t *testing.T) {
	t.Parallel()

	ctx := testContext(t)
	client := mockery.NewMockClient_protocol(t)

	var traces []*protocol.LogTraceParams
	client.EXPECT().
		LogTrace(mock.Anything, mock.Anything).
		Run(func(ctx context.Context, params *protocol.LogTraceParams) {
			traces = append(traces, params)
		}).
		Return(nil)

	server := lsp.NewServer(ctx, dialect.Knotta, tokenizer.Static(semtok.Span{Kind: "type", Length: 4}))
	server.SetCallbackClient(client)
	open(t, ctx, server, "type")

	// tracing is off until the editor asks for it
	full(t, ctx, server)
	assert.Empty(t, traces)

	require.NoError(t, server.SetTrace(ctx, &protocol.SetTraceParams{Value: protocol.TraceMessages}))
	full(t, ctx, server)
	require.Len(t, traces, 1)
	assert.Contains(t, traces[0].Message, "encoded 1 semantic tokens")
	assert.Empty(t, traces[0].Verbose)

	require.NoError(t, server.SetTrace(ctx, &protocol.SetTraceParams{Value: protocol.TraceVerbose}))
	full(t, ctx, server)
	require.Len(t, traces, 2)
	assert.Contains(t, traces[1].Verbose, "dialect=knotta")

	require.NoError(t, server.SetTrace(ctx, &protocol.SetTraceParams{Value: protocol.TraceOff}))
	full(t, ctx, server)
	assert.Len(t, traces, 2)
}

func TestDocumentURIsSnapshot(t *testing.T) {
	t.Parallel()

	ctx := testContext(t)
	server := lsp.NewServer(ctx, dialect.Knotta, tokenizer.Static())

	for _, uri := range []protocol.DocumentURI{"file:///c", "file:///a", "file:///b"} {
		require.NoError(t, server.DidOpen(ctx, &protocol.DidOpenTextDocumentParams{
			TextDocument: protocol.TextDocumentItem{URI: uri, LanguageID: "knotta", Version: 1},
		}))
	}

	got := server.Documents().URIs()
	assert.True(t, slices.IsSorted(got))
	assert.Len(t, got, 3)
}
