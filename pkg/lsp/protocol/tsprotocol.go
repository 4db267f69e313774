// Copyright 2023 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package protocol

// The subset of LSP 3.17 structures knotls speaks. Names follow the gopls
// generator so the types read the same as upstream.

import (
	"bytes"
	"encoding/json"

	"gitlab.com/tozd/go/errors"
)

type (
	DocumentURI   string
	URI           string
	ProgressToken = any
	LSPAny        = any
)

// Position in a text document expressed as zero-based line and zero-based
// character offset in UTF-16 code units.
type Position struct {
	Line      uint32 `json:"line"`
	Character uint32 `json:"character"`
}

type Range struct {
	Start Position `json:"start"`
	End   Position `json:"end"`
}

type TextDocumentIdentifier struct {
	URI DocumentURI `json:"uri"`
}

type VersionedTextDocumentIdentifier struct {
	Version int32 `json:"version"`
	TextDocumentIdentifier
}

type TextDocumentItem struct {
	URI        DocumentURI `json:"uri"`
	LanguageID string      `json:"languageId"`
	Version    int32       `json:"version"`
	Text       string      `json:"text"`
}

type WorkDoneProgressParams struct {
	WorkDoneToken ProgressToken `json:"workDoneToken,omitempty"`
}

type PartialResultParams struct {
	PartialResultToken ProgressToken `json:"partialResultToken,omitempty"`
}

type WorkDoneProgressOptions struct {
	WorkDoneProgress bool `json:"workDoneProgress,omitempty"`
}

// ---------------------------------------------------------------------------
// lifecycle

type ClientInfo struct {
	Name    string `json:"name"`
	Version string `json:"version,omitempty"`
}

type ServerInfo struct {
	Name    string `json:"name"`
	Version string `json:"version,omitempty"`
}

type TraceValue string

const (
	TraceOff      TraceValue = "off"
	TraceMessages TraceValue = "messages"
	TraceVerbose  TraceValue = "verbose"
)

type WorkspaceFolder struct {
	URI  URI    `json:"uri"`
	Name string `json:"name"`
}

type WorkspaceFoldersInitializeParams struct {
	WorkspaceFolders []WorkspaceFolder `json:"workspaceFolders,omitempty"`
}

type XInitializeParams struct {
	ProcessID             int32              `json:"processId"`
	ClientInfo            *ClientInfo        `json:"clientInfo,omitempty"`
	Locale                string             `json:"locale,omitempty"`
	RootPath              string             `json:"rootPath,omitempty"`
	RootURI               DocumentURI        `json:"rootUri"`
	Capabilities          ClientCapabilities `json:"capabilities"`
	InitializationOptions any                `json:"initializationOptions,omitempty"`
	Trace                 TraceValue         `json:"trace,omitempty"`
	WorkDoneProgressParams
}

type ParamInitialize struct {
	XInitializeParams
	WorkspaceFoldersInitializeParams
}

type InitializedParams struct{}

type InitializeResult struct {
	Capabilities ServerCapabilities `json:"capabilities"`
	ServerInfo   *ServerInfo        `json:"serverInfo,omitempty"`
}

type SetTraceParams struct {
	Value TraceValue `json:"value"`
}

type CancelParams struct {
	ID any `json:"id"`
}

// ---------------------------------------------------------------------------
// client capabilities
//
// Pointers mark sections whose presence matters: a client that omits
// textDocument.semanticTokens gets no semantic tokens provider.

type ClientCapabilities struct {
	TextDocument *TextDocumentClientCapabilities `json:"textDocument,omitempty"`
	Workspace    *WorkspaceClientCapabilities    `json:"workspace,omitempty"`
	General      *GeneralClientCapabilities      `json:"general,omitempty"`
	Experimental any                             `json:"experimental,omitempty"`
}

type TextDocumentClientCapabilities struct {
	Synchronization *TextDocumentSyncClientCapabilities `json:"synchronization,omitempty"`
	SemanticTokens  *SemanticTokensClientCapabilities   `json:"semanticTokens,omitempty"`
}

type TextDocumentSyncClientCapabilities struct {
	DynamicRegistration bool `json:"dynamicRegistration,omitempty"`
	WillSave            bool `json:"willSave,omitempty"`
	WillSaveWaitUntil   bool `json:"willSaveWaitUntil,omitempty"`
	DidSave             bool `json:"didSave,omitempty"`
}

type WorkspaceClientCapabilities struct {
	SemanticTokens *SemanticTokensWorkspaceClientCapabilities `json:"semanticTokens,omitempty"`
}

type SemanticTokensWorkspaceClientCapabilities struct {
	RefreshSupport bool `json:"refreshSupport,omitempty"`
}

type GeneralClientCapabilities struct {
	PositionEncodings []PositionEncodingKind `json:"positionEncodings,omitempty"`
}

type TokenFormat string

const Relative TokenFormat = "relative"

type SemanticTokensClientCapabilities struct {
	DynamicRegistration     bool                               `json:"dynamicRegistration,omitempty"`
	Requests                ClientSemanticTokensRequestOptions `json:"requests"`
	TokenTypes              []string                           `json:"tokenTypes"`
	TokenModifiers          []string                           `json:"tokenModifiers"`
	Formats                 []TokenFormat                      `json:"formats"`
	OverlappingTokenSupport bool                               `json:"overlappingTokenSupport,omitempty"`
	MultilineTokenSupport   bool                               `json:"multilineTokenSupport,omitempty"`
	ServerCancelSupport     bool                               `json:"serverCancelSupport,omitempty"`
	AugmentsSyntaxTokens    bool                               `json:"augmentsSyntaxTokens,omitempty"`
}

type ClientSemanticTokensRequestOptions struct {
	// Range is either a bool or an empty object.
	Range any `json:"range,omitempty"`
	// Full is either a bool or ClientSemanticTokensRequestFullDelta.
	Full any `json:"full,omitempty"`
}

type ClientSemanticTokensRequestFullDelta struct {
	Delta bool `json:"delta,omitempty"`
}

// ---------------------------------------------------------------------------
// server capabilities

type PositionEncodingKind string

const UTF16 PositionEncodingKind = "utf-16"

type TextDocumentSyncKind uint32

const (
	None        TextDocumentSyncKind = 0
	Full        TextDocumentSyncKind = 1
	Incremental TextDocumentSyncKind = 2
)

type SaveOptions struct {
	IncludeText bool `json:"includeText,omitempty"`
}

type TextDocumentSyncOptions struct {
	OpenClose bool                 `json:"openClose,omitempty"`
	Change    TextDocumentSyncKind `json:"change,omitempty"`
	Save      *SaveOptions         `json:"save,omitempty"`
}

type ServerCapabilities struct {
	PositionEncoding       *PositionEncodingKind                   `json:"positionEncoding,omitempty"`
	TextDocumentSync       *Or_ServerCapabilities_textDocumentSync `json:"textDocumentSync,omitempty"`
	SemanticTokensProvider *SemanticTokensRegistrationOptions      `json:"semanticTokensProvider,omitempty"`
}

// Or_ServerCapabilities_textDocumentSync holds TextDocumentSyncOptions or a
// bare TextDocumentSyncKind.
type Or_ServerCapabilities_textDocumentSync struct {
	Value any `json:"value"`
}

func (t Or_ServerCapabilities_textDocumentSync) MarshalJSON() ([]byte, error) {
	switch x := t.Value.(type) {
	case TextDocumentSyncOptions, TextDocumentSyncKind:
		return json.Marshal(x)
	case nil:
		return []byte("null"), nil
	}
	return nil, errors.Errorf("type %T not one of [TextDocumentSyncKind TextDocumentSyncOptions]", t.Value)
}

func (t *Or_ServerCapabilities_textDocumentSync) UnmarshalJSON(x []byte) error {
	if string(x) == "null" {
		t.Value = nil
		return nil
	}
	var kind TextDocumentSyncKind
	if err := json.Unmarshal(x, &kind); err == nil {
		t.Value = kind
		return nil
	}
	var opts TextDocumentSyncOptions
	if err := strictUnmarshal(x, &opts); err == nil {
		t.Value = opts
		return nil
	}
	return errors.Errorf("unmarshal failed to match one of [TextDocumentSyncKind TextDocumentSyncOptions]")
}

type TextDocumentFilter struct {
	Language string `json:"language,omitempty"`
	Scheme   string `json:"scheme,omitempty"`
	Pattern  string `json:"pattern,omitempty"`
}

type DocumentSelector []TextDocumentFilter

type TextDocumentRegistrationOptions struct {
	DocumentSelector DocumentSelector `json:"documentSelector"`
}

type StaticRegistrationOptions struct {
	ID string `json:"id,omitempty"`
}

type SemanticTokensLegend struct {
	TokenTypes     []string `json:"tokenTypes"`
	TokenModifiers []string `json:"tokenModifiers"`
}

type SemanticTokensFullDelta struct {
	Delta bool `json:"delta,omitempty"`
}

type SemanticTokensOptions struct {
	Legend SemanticTokensLegend `json:"legend"`
	// Range is a bool or an empty object; nil leaves it out.
	Range any `json:"range,omitempty"`
	// Full is a bool or SemanticTokensFullDelta.
	Full any `json:"full,omitempty"`
	WorkDoneProgressOptions
}

type SemanticTokensRegistrationOptions struct {
	TextDocumentRegistrationOptions
	SemanticTokensOptions
	StaticRegistrationOptions
}

// ---------------------------------------------------------------------------
// text synchronization

type DidOpenTextDocumentParams struct {
	TextDocument TextDocumentItem `json:"textDocument"`
}

// TextDocumentContentChangeEvent replaces Range with Text, or the whole
// document when Range is nil.
type TextDocumentContentChangeEvent struct {
	Range       *Range `json:"range,omitempty"`
	RangeLength uint32 `json:"rangeLength,omitempty"`
	Text        string `json:"text"`
}

type DidChangeTextDocumentParams struct {
	TextDocument   VersionedTextDocumentIdentifier  `json:"textDocument"`
	ContentChanges []TextDocumentContentChangeEvent `json:"contentChanges"`
}

type DidCloseTextDocumentParams struct {
	TextDocument TextDocumentIdentifier `json:"textDocument"`
}

type DidSaveTextDocumentParams struct {
	TextDocument TextDocumentIdentifier `json:"textDocument"`
	Text         *string                `json:"text,omitempty"`
}

// ---------------------------------------------------------------------------
// semantic tokens

type SemanticTokensParams struct {
	TextDocument TextDocumentIdentifier `json:"textDocument"`
	WorkDoneProgressParams
	PartialResultParams
}

type SemanticTokensDeltaParams struct {
	TextDocument     TextDocumentIdentifier `json:"textDocument"`
	PreviousResultID string                 `json:"previousResultId"`
	WorkDoneProgressParams
	PartialResultParams
}

type SemanticTokens struct {
	ResultID string   `json:"resultId,omitempty"`
	Data     []uint32 `json:"data"`
}

type SemanticTokensEdit struct {
	Start       uint32   `json:"start"`
	DeleteCount uint32   `json:"deleteCount"`
	Data        []uint32 `json:"data,omitempty"`
}

type SemanticTokensDelta struct {
	ResultID string               `json:"resultId,omitempty"`
	Edits    []SemanticTokensEdit `json:"edits"`
}

// Or_Result_textDocument_semanticTokens_full_delta is SemanticTokens or
// SemanticTokensDelta.
type Or_Result_textDocument_semanticTokens_full_delta struct {
	Value any `json:"value"`
}

func (t Or_Result_textDocument_semanticTokens_full_delta) MarshalJSON() ([]byte, error) {
	switch x := t.Value.(type) {
	case SemanticTokens, SemanticTokensDelta, *SemanticTokens, *SemanticTokensDelta:
		return json.Marshal(x)
	case nil:
		return []byte("null"), nil
	}
	return nil, errors.Errorf("type %T not one of [SemanticTokens SemanticTokensDelta]", t.Value)
}

func (t *Or_Result_textDocument_semanticTokens_full_delta) UnmarshalJSON(x []byte) error {
	if string(x) == "null" {
		t.Value = nil
		return nil
	}
	var probe map[string]json.RawMessage
	if err := json.Unmarshal(x, &probe); err != nil {
		return errors.Errorf("unmarshal semantic tokens delta result: %w", err)
	}
	if _, ok := probe["edits"]; ok {
		var delta SemanticTokensDelta
		if err := json.Unmarshal(x, &delta); err != nil {
			return errors.Errorf("unmarshal SemanticTokensDelta: %w", err)
		}
		t.Value = delta
		return nil
	}
	var full SemanticTokens
	if err := json.Unmarshal(x, &full); err != nil {
		return errors.Errorf("unmarshal SemanticTokens: %w", err)
	}
	t.Value = full
	return nil
}

// ---------------------------------------------------------------------------
// window

type MessageType uint32

const (
	Error   MessageType = 1
	Warning MessageType = 2
	Info    MessageType = 3
	Log     MessageType = 4
	Debug   MessageType = 5
)

type LogMessageParams struct {
	Type    MessageType `json:"type"`
	Message string      `json:"message"`
}

type ShowMessageParams struct {
	Type    MessageType `json:"type"`
	Message string      `json:"message"`
}

type LogTraceParams struct {
	Message string `json:"message"`
	Verbose string `json:"verbose,omitempty"`
}

func strictUnmarshal(data []byte, v any) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	return dec.Decode(v)
}
