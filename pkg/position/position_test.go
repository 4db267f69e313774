package position_test

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/walteh/knotls/pkg/position"
)

func TestOffset(t *testing.T) {
	tests := []struct {
		name     string
		text     string
		place    position.Place
		expected int
	}{
		{name: "empty_text", text: "", place: position.Place{}, expected: 0},
		{name: "first_line", text: "model Foo {}", place: position.Place{Line: 0, Character: 6}, expected: 6},
		{name: "second_line", text: "model Foo {\n  bar: string\n}", place: position.Place{Line: 1, Character: 2}, expected: 14},
		{name: "clamps_to_line_end", text: "ab\ncd", place: position.Place{Line: 0, Character: 99}, expected: 2},
		{name: "crlf_excluded_from_line", text: "ab\r\ncd", place: position.Place{Line: 0, Character: 99}, expected: 2},
		{name: "after_crlf", text: "ab\r\ncd", place: position.Place{Line: 1, Character: 1}, expected: 5},
		{name: "two_byte_rune", text: "é = 1", place: position.Place{Line: 0, Character: 1}, expected: 2},
		{name: "three_byte_rune", text: "世界", place: position.Place{Line: 0, Character: 1}, expected: 3},
		{name: "surrogate_pair", text: "😀x", place: position.Place{Line: 0, Character: 2}, expected: 4},
		{name: "inside_surrogate_pair", text: "😀x", place: position.Place{Line: 0, Character: 1}, expected: 4},
		{name: "trailing_empty_line", text: "a\n", place: position.Place{Line: 1, Character: 0}, expected: 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tt.place.Offset(tt.text)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, got)
		})
	}
}

func TestOffsetOutOfRange(t *testing.T) {
	_, err := position.Place{Line: 3}.Offset("a\nb")
	require.ErrorIs(t, err, position.ErrOutOfRange)

	_, err = position.PlaceOf("abc", 4)
	require.ErrorIs(t, err, position.ErrOutOfRange)
}

func TestApply(t *testing.T) {
	tests := []struct {
		name     string
		text     string
		rng      position.Range
		newText  string
		expected string
	}{
		{
			name:     "insert",
			text:     "model Foo {}",
			rng:      position.Range{Start: position.Place{Character: 11}, End: position.Place{Character: 11}},
			newText:  " a: string ",
			expected: "model Foo { a: string }",
		},
		{
			name:     "replace_across_lines",
			text:     "model Foo {\n  a: string\n}",
			rng:      position.Range{Start: position.Place{Line: 0, Character: 6}, End: position.Place{Line: 1, Character: 3}},
			newText:  "Bar {\n  b",
			expected: "model Bar {\n  b: string\n}",
		},
		{
			name:     "delete_utf16",
			text:     "a😀b",
			rng:      position.Range{Start: position.Place{Character: 1}, End: position.Place{Character: 3}},
			newText:  "",
			expected: "ab",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := position.Apply(tt.text, tt.rng, tt.newText)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, got)
		})
	}

	_, err := position.Apply("abc", position.Range{Start: position.Place{Character: 2}, End: position.Place{Character: 1}}, "")
	require.ErrorIs(t, err, position.ErrOutOfRange)
}

var alphabet = []string{"a", "Z", " ", "\n", "é", "世", "😀", "{", ":"}

func genText() gopter.Gen {
	return gen.SliceOf(gen.IntRange(0, len(alphabet)-1)).Map(func(idx []int) string {
		var sb strings.Builder
		for _, i := range idx {
			sb.WriteString(alphabet[i])
		}
		return sb.String()
	})
}

func runeBoundaries(s string) []int {
	out := make([]int, 0, utf8.RuneCountInString(s)+1)
	for i := range s {
		out = append(out, i)
	}
	return append(out, len(s))
}

func TestPlaceOffsetRoundTrip(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200

	properties := gopter.NewProperties(parameters)

	properties.Property("offset survives a trip through place", prop.ForAll(
		func(text string, pick int) bool {
			bounds := runeBoundaries(text)
			offset := bounds[pick%len(bounds)]

			place, err := position.PlaceOf(text, offset)
			if err != nil {
				return false
			}
			back, err := place.Offset(text)
			return err == nil && back == offset
		},
		genText(),
		gen.IntRange(0, 1<<16),
	))

	properties.Property("utf16 length matches the encoder", prop.ForAll(
		func(text string) bool {
			var n uint32
			for _, r := range text {
				if r >= 0x10000 {
					n += 2
				} else {
					n++
				}
			}
			return position.UTF16Len(text) == n
		},
		genText(),
	))

	properties.TestingRun(t)
}
