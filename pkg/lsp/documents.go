package lsp

import (
	"slices"
	"sort"
	"sync"

	"github.com/walteh/knotls/pkg/lsp/protocol"
	"github.com/walteh/knotls/pkg/position"
	"gitlab.com/tozd/go/errors"
)

// Document is an open editor buffer. Values handed out by the store are
// copies.
type Document struct {
	URI        protocol.DocumentURI
	LanguageID string
	Version    int32
	Text       string
}

// TokenResult is the last semantic tokens answer sent for a document, kept so
// delta requests can be answered with edits.
type TokenResult struct {
	ResultID string
	Data     []uint32
}

var ErrDocumentNotFound = errors.Base("document not open")

type documentEntry struct {
	doc    Document
	tokens *TokenResult
}

// DocumentStore tracks open documents by URI. Every update replaces a
// document wholesale under the lock, so readers never see half of a change.
type DocumentStore struct {
	mu   sync.RWMutex
	docs map[protocol.DocumentURI]*documentEntry
}

func NewDocumentStore() *DocumentStore {
	return &DocumentStore{
		docs: make(map[protocol.DocumentURI]*documentEntry),
	}
}

// Open starts tracking uri. Reopening replaces the text and forgets any
// cached tokens.
func (m *DocumentStore) Open(uri protocol.DocumentURI, languageID string, version int32, text string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.docs[uri] = &documentEntry{
		doc: Document{
			URI:        uri,
			LanguageID: languageID,
			Version:    version,
			Text:       text,
		},
	}
}

// Change applies changes in order. Either all of them apply or the document
// is left untouched.
func (m *DocumentStore) Change(uri protocol.DocumentURI, version int32, changes []protocol.TextDocumentContentChangeEvent) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	entry, ok := m.docs[uri]
	if !ok {
		return errors.Errorf("changing %s: %w", uri, ErrDocumentNotFound)
	}

	text := entry.doc.Text
	for i, change := range changes {
		if change.Range == nil {
			text = change.Text
			continue
		}

		next, err := position.Apply(text, fromProtocolRange(*change.Range), change.Text)
		if err != nil {
			return errors.Errorf("applying change %d to %s: %w", i, uri, err)
		}
		text = next
	}

	entry.doc.Text = text
	entry.doc.Version = version
	return nil
}

// Replace sets the full text, as sent with a save.
func (m *DocumentStore) Replace(uri protocol.DocumentURI, text string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	entry, ok := m.docs[uri]
	if !ok {
		return errors.Errorf("replacing %s: %w", uri, ErrDocumentNotFound)
	}
	entry.doc.Text = text
	return nil
}

// Close stops tracking uri and drops its cached tokens. Closing an unknown
// document is a no-op.
func (m *DocumentStore) Close(uri protocol.DocumentURI) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.docs, uri)
}

// CloseAll forgets every document, as when the editor disconnects.
func (m *DocumentStore) CloseAll() {
	m.mu.Lock()
	defer m.mu.Unlock()
	clear(m.docs)
}

func (m *DocumentStore) Get(uri protocol.DocumentURI) (*Document, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	entry, ok := m.docs[uri]
	if !ok {
		return nil, false
	}
	doc := entry.doc
	return &doc, true
}

// URIs lists the open documents in sorted order.
func (m *DocumentStore) URIs() []protocol.DocumentURI {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]protocol.DocumentURI, 0, len(m.docs))
	for uri := range m.docs {
		out = append(out, uri)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// Remember caches result for uri. It is dropped if the document was closed
// in the meantime.
func (m *DocumentStore) Remember(uri protocol.DocumentURI, result TokenResult) {
	m.mu.Lock()
	defer m.mu.Unlock()

	entry, ok := m.docs[uri]
	if !ok {
		return
	}
	result.Data = slices.Clone(result.Data)
	entry.tokens = &result
}

// Previous returns the cached token result for uri.
func (m *DocumentStore) Previous(uri protocol.DocumentURI) (TokenResult, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	entry, ok := m.docs[uri]
	if !ok || entry.tokens == nil {
		return TokenResult{}, false
	}
	return *entry.tokens, true
}

func fromProtocolRange(r protocol.Range) position.Range {
	return position.Range{
		Start: position.Place{Line: r.Start.Line, Character: r.Start.Character},
		End:   position.Place{Line: r.End.Line, Character: r.End.Character},
	}
}
