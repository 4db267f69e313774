package semtok

import (
	"slices"

	"github.com/hashicorp/go-multierror"
	"gitlab.com/tozd/go/errors"
)

// Legend is the ordered vocabulary a server commits to during initialization.
// It is immutable once built; accessors hand out copies.
type Legend struct {
	tokenTypes     []string
	tokenModifiers []string
}

func NewLegend(tokenTypes, tokenModifiers []string) *Legend {
	return &Legend{
		tokenTypes:     slices.Clone(tokenTypes),
		tokenModifiers: slices.Clone(tokenModifiers),
	}
}

func (l *Legend) TokenTypes() []string {
	return slices.Clone(l.tokenTypes)
}

func (l *Legend) TokenModifiers() []string {
	return slices.Clone(l.tokenModifiers)
}

// TypeIndex returns the legend position of a token type name.
func (l *Legend) TypeIndex(name string) (uint32, bool) {
	idx := slices.Index(l.tokenTypes, name)
	if idx < 0 {
		return 0, false
	}
	return uint32(idx), true
}

// ModifierBit returns the bitmask value of a modifier name.
func (l *Legend) ModifierBit(name string) (uint32, bool) {
	idx := slices.Index(l.tokenModifiers, name)
	if idx < 0 {
		return 0, false
	}
	return 1 << uint32(idx), true
}

// Classification is what a tokenizer kind encodes to.
type Classification struct {
	Type      uint32
	Modifiers uint32
}

// KindTable maps tokenizer kinds onto a legend.
type KindTable struct {
	legend  *Legend
	entries map[string]Classification
}

var ErrKindOutOfLegend = errors.Base("kind does not fit legend")

// NewKindTable checks every entry against the legend so the table can never
// point past the declared token types or modifiers.
func NewKindTable(legend *Legend, entries map[string]Classification) (*KindTable, error) {
	var merr *multierror.Error

	maxMods := uint64(1) << uint64(len(legend.tokenModifiers))

	kinds := make([]string, 0, len(entries))
	for kind := range entries {
		kinds = append(kinds, kind)
	}
	slices.Sort(kinds)

	for _, kind := range kinds {
		c := entries[kind]
		if int(c.Type) >= len(legend.tokenTypes) {
			merr = multierror.Append(merr, errors.Errorf("kind %q: type index %d with %d legend types: %w", kind, c.Type, len(legend.tokenTypes), ErrKindOutOfLegend))
		}
		if uint64(c.Modifiers) >= maxMods {
			merr = multierror.Append(merr, errors.Errorf("kind %q: modifier bits %b with %d legend modifiers: %w", kind, c.Modifiers, len(legend.tokenModifiers), ErrKindOutOfLegend))
		}
	}

	if err := merr.ErrorOrNil(); err != nil {
		return nil, errors.Errorf("validating kind table: %w", err)
	}

	cp := make(map[string]Classification, len(entries))
	for k, v := range entries {
		cp[k] = v
	}

	return &KindTable{legend: legend, entries: cp}, nil
}

func (t *KindTable) Legend() *Legend {
	return t.legend
}

// Lookup reports the classification for kind, if the table knows it.
func (t *KindTable) Lookup(kind string) (Classification, bool) {
	c, ok := t.entries[kind]
	return c, ok
}

// Kinds lists the mapped kinds, sorted.
func (t *KindTable) Kinds() []string {
	kinds := make([]string, 0, len(t.entries))
	for k := range t.entries {
		kinds = append(kinds, k)
	}
	slices.Sort(kinds)
	return kinds
}
