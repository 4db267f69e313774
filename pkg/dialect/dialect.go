// Package dialect holds the fixed per-language configuration the server is
// instantiated with: the legend, the kind table and the tokenizer options.
//
// Both dialects share one server implementation; only this data differs.
package dialect

import (
	"slices"
	"sort"
	"strings"

	"github.com/walteh/knotls/pkg/semtok"
	"github.com/walteh/knotls/pkg/tokenizer"
	"gitlab.com/tozd/go/errors"
)

type Dialect struct {
	// LanguageID is both the dialect name and the document selector language.
	LanguageID string
	Legend     *semtok.Legend
	Kinds      *semtok.KindTable

	parseOptions tokenizer.ParseOptions
}

// ParseOptions returns a private copy of the options sent to the tokenizer.
func (d *Dialect) ParseOptions() *tokenizer.ParseOptions {
	return d.parseOptions.Clone()
}

var ErrUnknownDialect = errors.Base("unknown dialect")

// kind names a legend type and the legend modifiers a token kind maps to.
type kind struct {
	tokenType string
	modifiers []string
}

type definition struct {
	languageID     string
	tokenTypes     []string
	tokenModifiers []string
	kinds          map[string]kind
	parseOptions   tokenizer.ParseOptions
}

// build resolves kinds by name so the kind table cannot drift from the
// legend order.
func build(def definition) (*Dialect, error) {
	legend := semtok.NewLegend(def.tokenTypes, def.tokenModifiers)

	entries := make(map[string]semtok.Classification, len(def.kinds))
	for name, k := range def.kinds {
		typ, ok := legend.TypeIndex(k.tokenType)
		if !ok {
			return nil, errors.Errorf("dialect %s: kind %q: token type %q not in legend", def.languageID, name, k.tokenType)
		}
		var mods uint32
		for _, m := range k.modifiers {
			bit, ok := legend.ModifierBit(m)
			if !ok {
				return nil, errors.Errorf("dialect %s: kind %q: modifier %q not in legend", def.languageID, name, m)
			}
			mods |= bit
		}
		entries[name] = semtok.Classification{Type: typ, Modifiers: mods}
	}

	table, err := semtok.NewKindTable(legend, entries)
	if err != nil {
		return nil, errors.Errorf("dialect %s: %w", def.languageID, err)
	}

	return &Dialect{
		LanguageID:   def.languageID,
		Legend:       legend,
		Kinds:        table,
		parseOptions: *def.parseOptions.Clone(),
	}, nil
}

func mustBuild(def definition) *Dialect {
	d, err := build(def)
	if err != nil {
		panic(err)
	}
	return d
}

var registry = map[string]*Dialect{}

func register(d *Dialect) *Dialect {
	registry[d.LanguageID] = d
	return d
}

// Lookup returns the built-in dialect called name.
func Lookup(name string) (*Dialect, error) {
	d, ok := registry[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return nil, errors.Errorf("%w %q, want one of: %s", ErrUnknownDialect, name, strings.Join(Names(), ", "))
	}
	return d, nil
}

func Names() []string {
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func withDeclaration(tokenType string) kind {
	return kind{tokenType: tokenType, modifiers: []string{"declaration"}}
}

func plain(tokenType string) kind {
	return kind{tokenType: tokenType}
}

func extend(base []string, more ...string) []string {
	return append(slices.Clone(base), more...)
}
