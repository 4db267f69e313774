package lsp

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/creachadair/jrpc2"
	"github.com/google/uuid"
	"github.com/rs/xid"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"gitlab.com/tozd/go/errors"

	"github.com/walteh/knotls/pkg/dialect"
	"github.com/walteh/knotls/pkg/lsp/protocol"
	"github.com/walteh/knotls/pkg/semtok"
	"github.com/walteh/knotls/pkg/tokenizer"
)

const (
	ServerName = "knotls"

	tracerName = "github.com/walteh/knotls/pkg/lsp"
)

var ErrShutdown = errors.Base("server is shut down")

// Server answers semantic token requests for one dialect. The dialect's
// legend and kind table are fixed for the server's lifetime.
type Server struct {
	id      string
	dialect *dialect.Dialect
	policy  semtok.UnknownKindPolicy
	version string

	documents *DocumentStore
	metrics   *Metrics
	tracer    trace.Tracer

	mu                 sync.RWMutex
	tokenizer          tokenizer.Tokenizer
	clientCapabilities protocol.ClientCapabilities
	trace              protocol.TraceValue
	shutdown           bool

	// LSP client for notifications
	callbackClient protocol.Client
}

var _ protocol.Server = (*Server)(nil)

type Option func(*Server)

// WithUnknownKindPolicy sets how kinds missing from the dialect's table are
// encoded. The default is semtok.UnknownKindWarn.
func WithUnknownKindPolicy(p semtok.UnknownKindPolicy) Option {
	return func(s *Server) { s.policy = p }
}

// WithMetrics records request and tokenizer metrics on m.
func WithMetrics(m *Metrics) Option {
	return func(s *Server) { s.metrics = m }
}

// WithVersion sets the version reported in serverInfo.
func WithVersion(v string) Option {
	return func(s *Server) { s.version = v }
}

// WithTracer overrides the tracer taken from the global otel provider.
func WithTracer(t trace.Tracer) Option {
	return func(s *Server) { s.tracer = t }
}

// WithDocuments shares a document store, typically so NewMetrics can report
// on it before the server exists.
func WithDocuments(d *DocumentStore) Option {
	return func(s *Server) { s.documents = d }
}

func NewServer(ctx context.Context, d *dialect.Dialect, tok tokenizer.Tokenizer, opts ...Option) *Server {
	s := &Server{
		id:        xid.New().String(),
		dialect:   d,
		tokenizer: tok,
		policy:    semtok.UnknownKindWarn,
		documents: NewDocumentStore(),
	}

	for _, opt := range opts {
		opt(s)
	}

	if s.tracer == nil {
		s.tracer = otel.Tracer(tracerName)
	}

	zerolog.Ctx(ctx).Debug().
		Str("server_id", s.id).
		Str("dialect", d.LanguageID).
		Str("unknown_kinds", string(s.policy)).
		Msg("created language server")

	return s
}

// BuildServerInstance binds the server to a jrpc2 server whose push
// callbacks reach the editor.
func (s *Server) BuildServerInstance(ctx context.Context, opts *jrpc2.ServerOptions) *protocol.ServerInstance {
	instance := protocol.NewServerInstance(ctx, s, opts)
	s.SetCallbackClient(instance.Client())
	return instance
}

func (s *Server) SetCallbackClient(client protocol.Client) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.callbackClient = client
}

func (s *Server) Documents() *DocumentStore {
	return s.documents
}

func (s *Server) Dialect() *dialect.Dialect {
	return s.dialect
}

func (s *Server) currentTokenizer() tokenizer.Tokenizer {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.tokenizer
}

// SetTokenizer swaps the tokenizer, for example after a config reload, and
// asks the editor to re-request tokens when it supports refreshes.
func (s *Server) SetTokenizer(ctx context.Context, tok tokenizer.Tokenizer) error {
	s.mu.Lock()
	s.tokenizer = tok
	client := s.callbackClient
	refresh := s.clientCapabilities.Workspace != nil &&
		s.clientCapabilities.Workspace.SemanticTokens != nil &&
		s.clientCapabilities.Workspace.SemanticTokens.RefreshSupport
	s.mu.Unlock()

	if !refresh || client == nil {
		zerolog.Ctx(ctx).Debug().Msg("tokenizer replaced, client cannot refresh")
		return nil
	}

	if err := client.SemanticTokensRefresh(ctx); err != nil {
		return errors.Errorf("requesting semantic tokens refresh: %w", err)
	}
	return nil
}

func (s *Server) isShutdown() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.shutdown
}

func (s *Server) Initialize(ctx context.Context, params *protocol.ParamInitialize) (*protocol.InitializeResult, error) {
	logger := zerolog.Ctx(ctx)

	s.mu.Lock()
	s.clientCapabilities = params.Capabilities
	if params.Trace != "" {
		s.trace = params.Trace
	}
	s.mu.Unlock()

	clientName := ""
	if params.ClientInfo != nil {
		clientName = params.ClientInfo.Name
	}

	caps := Capabilities(s.dialect, params.Capabilities)
	logger.Debug().
		Str("client", clientName).
		Bool("semantic_tokens", caps.SemanticTokensProvider != nil).
		Msg("initializing server")

	s.metrics.observeRequest("initialize", nil)

	return &protocol.InitializeResult{
		Capabilities: caps,
		ServerInfo: &protocol.ServerInfo{
			Name:    ServerName,
			Version: s.version,
		},
	}, nil
}

// Capabilities advertises semantic tokens for d only when the client
// declares semantic token support. Document sync is always advertised.
func Capabilities(d *dialect.Dialect, client protocol.ClientCapabilities) protocol.ServerCapabilities {
	encoding := protocol.UTF16

	caps := protocol.ServerCapabilities{
		PositionEncoding: &encoding,
		TextDocumentSync: &protocol.Or_ServerCapabilities_textDocumentSync{
			Value: protocol.TextDocumentSyncOptions{
				OpenClose: true,
				Change:    protocol.Incremental,
				Save:      &protocol.SaveOptions{IncludeText: true},
			},
		},
	}

	if client.TextDocument == nil || client.TextDocument.SemanticTokens == nil {
		return caps
	}

	caps.SemanticTokensProvider = &protocol.SemanticTokensRegistrationOptions{
		TextDocumentRegistrationOptions: protocol.TextDocumentRegistrationOptions{
			DocumentSelector: protocol.DocumentSelector{
				{Language: d.LanguageID},
			},
		},
		SemanticTokensOptions: protocol.SemanticTokensOptions{
			Legend: protocol.SemanticTokensLegend{
				TokenTypes:     d.Legend.TokenTypes(),
				TokenModifiers: d.Legend.TokenModifiers(),
			},
			Full: protocol.SemanticTokensFullDelta{Delta: true},
		},
	}

	return caps
}

func (s *Server) Initialized(ctx context.Context, params *protocol.InitializedParams) error {
	zerolog.Ctx(ctx).Debug().Str("dialect", s.dialect.LanguageID).Msg("server initialized")
	return nil
}

func (s *Server) SetTrace(ctx context.Context, params *protocol.SetTraceParams) error {
	s.mu.Lock()
	s.trace = params.Value
	s.mu.Unlock()

	zerolog.Ctx(ctx).Debug().Str("trace", string(params.Value)).Msg("trace level changed")
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	s.mu.Lock()
	s.shutdown = true
	s.mu.Unlock()

	zerolog.Ctx(ctx).Debug().Msg("shutdown requested")
	s.metrics.observeRequest("shutdown", nil)
	return nil
}

func (s *Server) Exit(ctx context.Context) error {
	zerolog.Ctx(ctx).Debug().Bool("after_shutdown", s.isShutdown()).Msg("exit requested")
	return nil
}

func (s *Server) DidOpen(ctx context.Context, params *protocol.DidOpenTextDocumentParams) error {
	doc := params.TextDocument
	zerolog.Ctx(ctx).Debug().
		Str("uri", string(doc.URI)).
		Str("language", doc.LanguageID).
		Int32("version", doc.Version).
		Msg("document opened")

	s.documents.Open(doc.URI, doc.LanguageID, doc.Version, doc.Text)
	s.metrics.observeRequest("textDocument/didOpen", nil)
	return nil
}

func (s *Server) DidChange(ctx context.Context, params *protocol.DidChangeTextDocumentParams) (err error) {
	defer func() { s.metrics.observeRequest("textDocument/didChange", err) }()

	logger := zerolog.Ctx(ctx)
	logger.Debug().
		Str("uri", string(params.TextDocument.URI)).
		Int32("version", params.TextDocument.Version).
		Int("changes", len(params.ContentChanges)).
		Msg("document changed")

	if err := s.documents.Change(params.TextDocument.URI, params.TextDocument.Version, params.ContentChanges); err != nil {
		logger.Warn().Err(err).Msg("dropping document change")
		return err
	}
	return nil
}

func (s *Server) DidClose(ctx context.Context, params *protocol.DidCloseTextDocumentParams) error {
	zerolog.Ctx(ctx).Debug().Str("uri", string(params.TextDocument.URI)).Msg("document closed")

	s.documents.Close(params.TextDocument.URI)
	s.metrics.observeRequest("textDocument/didClose", nil)
	return nil
}

func (s *Server) DidSave(ctx context.Context, params *protocol.DidSaveTextDocumentParams) (err error) {
	defer func() { s.metrics.observeRequest("textDocument/didSave", err) }()

	logger := zerolog.Ctx(ctx)
	logger.Debug().Str("uri", string(params.TextDocument.URI)).Bool("with_text", params.Text != nil).Msg("document saved")

	if params.Text == nil {
		return nil
	}

	if err := s.documents.Replace(params.TextDocument.URI, *params.Text); err != nil {
		logger.Warn().Err(err).Msg("ignoring save")
		return err
	}
	return nil
}

func (s *Server) SemanticTokensFull(ctx context.Context, params *protocol.SemanticTokensParams) (_ *protocol.SemanticTokens, err error) {
	defer func() { s.metrics.observeRequest("textDocument/semanticTokens/full", err) }()

	if s.isShutdown() {
		return nil, errors.WithStack(ErrShutdown)
	}

	uri := params.TextDocument.URI
	zerolog.Ctx(ctx).Debug().Str("uri", string(uri)).Msg("semantic tokens request received")

	result, tracked, err := s.computeTokens(ctx, uri)
	if err != nil {
		return nil, err
	}
	if tracked {
		s.documents.Remember(uri, result)
	}

	return &protocol.SemanticTokens{
		ResultID: result.ResultID,
		Data:     protocol.NonNilSlice(result.Data),
	}, nil
}

// SemanticTokensFullDelta re-tokenizes the whole document. It answers with
// edits when previousResultId names the last result sent for the document
// and with full data otherwise.
func (s *Server) SemanticTokensFullDelta(ctx context.Context, params *protocol.SemanticTokensDeltaParams) (_ *protocol.Or_Result_textDocument_semanticTokens_full_delta, err error) {
	defer func() { s.metrics.observeRequest("textDocument/semanticTokens/full/delta", err) }()

	if s.isShutdown() {
		return nil, errors.WithStack(ErrShutdown)
	}

	uri := params.TextDocument.URI
	logger := zerolog.Ctx(ctx)
	logger.Debug().
		Str("uri", string(uri)).
		Str("previous_result_id", params.PreviousResultID).
		Msg("semantic tokens delta request received")

	prev, hasPrev := s.documents.Previous(uri)

	result, tracked, err := s.computeTokens(ctx, uri)
	if err != nil {
		return nil, err
	}
	if tracked {
		s.documents.Remember(uri, result)
	}

	if hasPrev && params.PreviousResultID != "" && prev.ResultID == params.PreviousResultID {
		edits := semtok.Diff(prev.Data, result.Data)
		logger.Debug().Int("edits", len(edits)).Msg("answering with edits")
		return &protocol.Or_Result_textDocument_semanticTokens_full_delta{
			Value: protocol.SemanticTokensDelta{
				ResultID: result.ResultID,
				Edits:    toProtocolEdits(edits),
			},
		}, nil
	}

	return &protocol.Or_Result_textDocument_semanticTokens_full_delta{
		Value: protocol.SemanticTokens{
			ResultID: result.ResultID,
			Data:     protocol.NonNilSlice(result.Data),
		},
	}, nil
}

// computeTokens snapshots the document text, runs the tokenizer over it and
// encodes the spans. tracked reports whether the document is open; untracked
// documents get empty data and no result id.
func (s *Server) computeTokens(ctx context.Context, uri protocol.DocumentURI) (result TokenResult, tracked bool, err error) {
	doc, ok := s.documents.Get(uri)
	if !ok {
		zerolog.Ctx(ctx).Debug().Str("uri", string(uri)).Msg("document not open, returning no tokens")
		return TokenResult{Data: []uint32{}}, false, nil
	}

	if doc.Text == "" {
		return TokenResult{ResultID: uuid.NewString(), Data: []uint32{}}, true, nil
	}

	ctx, span := s.tracer.Start(ctx, "semanticTokens.compute", trace.WithAttributes(
		attribute.String("lsp.uri", string(uri)),
		attribute.String("knotls.dialect", s.dialect.LanguageID),
		attribute.Int("lsp.document_version", int(doc.Version)),
	))
	defer func() {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
	}()

	tok := s.currentTokenizer()
	if tok == nil {
		return TokenResult{}, true, errors.New("no tokenizer configured")
	}

	start := time.Now()
	parsed, err := tok.Parse(ctx, tokenizer.SingleChunk(doc.Text), s.dialect.ParseOptions(), tokenizer.ContinueOnError())
	s.metrics.observeTokenizer(s.dialect.LanguageID, time.Since(start), err)
	if err != nil {
		return TokenResult{}, true, errors.Errorf("tokenizing %s: %w", uri, err)
	}

	enc := &semtok.Encoder{
		Table:  s.dialect.Kinds,
		Policy: s.policy,
		OnUnknown: func(ctx context.Context, kind string) {
			s.metrics.unmappedKind(s.dialect.LanguageID, kind)
		},
	}

	spans := parsed.Spans()
	data, err := enc.Encode(ctx, spans)
	if err != nil {
		return TokenResult{}, true, errors.Errorf("encoding tokens for %s: %w", uri, err)
	}

	s.metrics.encoded(s.dialect.LanguageID, len(data))
	span.SetAttributes(attribute.Int("knotls.tokens", len(spans)))
	zerolog.Ctx(ctx).Debug().
		Str("uri", string(uri)).
		Int("tokens", len(spans)).
		Dur("took", time.Since(start)).
		Msg("encoded semantic tokens")

	took := time.Since(start)
	s.logTrace(ctx, fmt.Sprintf("encoded %d semantic tokens for %s", len(spans), uri), func() string {
		return fmt.Sprintf("dialect=%s version=%d tokenizer+encode=%s", s.dialect.LanguageID, doc.Version, took)
	})

	return TokenResult{ResultID: uuid.NewString(), Data: data}, true, nil
}

// logTrace sends $/logTrace when the editor turned tracing on.
func (s *Server) logTrace(ctx context.Context, message string, verbose func() string) {
	s.mu.RLock()
	level, client := s.trace, s.callbackClient
	s.mu.RUnlock()

	if client == nil || level == "" || level == protocol.TraceOff {
		return
	}

	params := &protocol.LogTraceParams{Message: message}
	if level == protocol.TraceVerbose {
		params.Verbose = verbose()
	}

	if err := client.LogTrace(ctx, params); err != nil {
		zerolog.Ctx(ctx).Warn().Err(err).Msg("sending trace to client")
	}
}

func toProtocolEdits(edits []semtok.Edit) []protocol.SemanticTokensEdit {
	out := make([]protocol.SemanticTokensEdit, 0, len(edits))
	for _, e := range edits {
		out = append(out, protocol.SemanticTokensEdit{
			Start:       e.Start,
			DeleteCount: e.DeleteCount,
			Data:        e.Data,
		})
	}
	return out
}
