package semtok

import (
	"context"
	"strings"

	"github.com/rs/zerolog"
	"gitlab.com/tozd/go/errors"
)

// Span is one classified token as the tokenizer reports it. Line and
// InlineIndex are zero based; Length is in the editor's character units.
type Span struct {
	Kind        string `json:"type"`
	Line        uint32 `json:"line"`
	InlineIndex uint32 `json:"inlineIndex"`
	Length      uint32 `json:"length"`
}

// UnknownKindPolicy decides what happens to kinds missing from a KindTable.
type UnknownKindPolicy string

const (
	// UnknownKindDefault encodes unknown kinds as type 0 with no modifiers.
	UnknownKindDefault UnknownKindPolicy = "default"
	// UnknownKindWarn encodes like UnknownKindDefault and logs each kind once per request.
	UnknownKindWarn UnknownKindPolicy = "warn"
	// UnknownKindError fails the encoding.
	UnknownKindError UnknownKindPolicy = "error"
)

var ErrUnknownKind = errors.Base("unknown token kind")

func ParseUnknownKindPolicy(s string) (UnknownKindPolicy, error) {
	switch p := UnknownKindPolicy(strings.ToLower(strings.TrimSpace(s))); p {
	case UnknownKindDefault, UnknownKindWarn, UnknownKindError:
		return p, nil
	case "":
		return UnknownKindWarn, nil
	default:
		return "", errors.Errorf("invalid unknown kind policy %q, want one of default, warn, error", s)
	}
}

// Encoder produces the flat LSP integer array for one dialect.
type Encoder struct {
	Table  *KindTable
	Policy UnknownKindPolicy

	// OnUnknown, when set, is called for every span whose kind is not in Table.
	OnUnknown func(ctx context.Context, kind string)
}

// Encode is shorthand for an Encoder without an OnUnknown hook.
func Encode(ctx context.Context, spans []Span, table *KindTable, policy UnknownKindPolicy) ([]uint32, error) {
	enc := &Encoder{Table: table, Policy: policy}
	return enc.Encode(ctx, spans)
}

// Encode walks spans in the order given. Spans must already be sorted by line
// and then inline index; out of order input wraps the unsigned deltas.
func (e *Encoder) Encode(ctx context.Context, spans []Span) ([]uint32, error) {
	data := make([]uint32, 0, len(spans)*5)

	var prevLine, prevInlineIndex uint32
	var warned map[string]struct{}

	for _, span := range spans {
		class, ok := e.Table.Lookup(span.Kind)
		if !ok {
			if e.OnUnknown != nil {
				e.OnUnknown(ctx, span.Kind)
			}
			switch e.Policy {
			case UnknownKindError:
				return nil, errors.Errorf("encoding %q at %d:%d: %w", span.Kind, span.Line, span.InlineIndex, ErrUnknownKind)
			case UnknownKindWarn:
				if warned == nil {
					warned = make(map[string]struct{})
				}
				if _, seen := warned[span.Kind]; !seen {
					warned[span.Kind] = struct{}{}
					zerolog.Ctx(ctx).Warn().
						Str("kind", span.Kind).
						Uint32("line", span.Line).
						Uint32("inline_index", span.InlineIndex).
						Msg("unmapped token kind, encoding as legend entry 0")
				}
			}
		}

		deltaStart := span.InlineIndex
		if prevLine == span.Line {
			deltaStart = span.InlineIndex - prevInlineIndex
		}

		data = append(data,
			span.Line-prevLine,
			deltaStart,
			span.Length,
			class.Type,
			class.Modifiers,
		)

		prevLine = span.Line
		prevInlineIndex = span.InlineIndex
	}

	return data, nil
}

// Token is an absolute position rebuilt from encoded data.
type Token struct {
	Line        uint32
	InlineIndex uint32
	Length      uint32
	Type        uint32
	Modifiers   uint32
}

var ErrMalformedData = errors.Base("semantic token data length is not a multiple of 5")

// Decode reverses Encode by cumulative sums over each group of five.
func Decode(data []uint32) ([]Token, error) {
	if len(data)%5 != 0 {
		return nil, errors.Errorf("decoding %d integers: %w", len(data), ErrMalformedData)
	}

	tokens := make([]Token, 0, len(data)/5)

	var line, inline uint32
	for i := 0; i < len(data); i += 5 {
		if data[i] > 0 {
			inline = 0
		}
		line += data[i]
		inline += data[i+1]
		tokens = append(tokens, Token{
			Line:        line,
			InlineIndex: inline,
			Length:      data[i+2],
			Type:        data[i+3],
			Modifiers:   data[i+4],
		})
	}

	return tokens, nil
}

// TypeName resolves the token's type against legend, "" when out of range.
func (t Token) TypeName(legend *Legend) string {
	if int(t.Type) >= len(legend.tokenTypes) {
		return ""
	}
	return legend.tokenTypes[t.Type]
}

// ModifierNames lists the legend modifiers set in the token's bitmask.
func (t Token) ModifierNames(legend *Legend) []string {
	var names []string
	for i, name := range legend.tokenModifiers {
		if t.Modifiers&(1<<uint32(i)) != 0 {
			names = append(names, name)
		}
	}
	return names
}
