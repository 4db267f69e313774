// Package position converts between LSP positions and byte offsets.
//
// LSP counts characters in UTF-16 code units; Go strings are UTF-8 bytes.
// Lines end at "\n", and a "\r" directly before it is not part of the line.
package position

import (
	"fmt"
	"strings"
	"unicode/utf16"
	"unicode/utf8"

	"gitlab.com/tozd/go/errors"
)

// Place is a zero based line and UTF-16 character.
type Place struct {
	Line      uint32
	Character uint32
}

type Range struct {
	Start Place
	End   Place
}

func (p Place) String() string {
	return fmt.Sprintf("%d:%d", p.Line, p.Character)
}

func (r Range) String() string {
	return fmt.Sprintf("%s-%s", r.Start, r.End)
}

var ErrOutOfRange = errors.Base("position out of range")

// Offset returns the byte offset of p in text. A character past the end of
// its line clamps to the line end. A character that splits a surrogate pair
// resolves to the end of that rune.
func (p Place) Offset(text string) (int, error) {
	lineStart := 0
	for l := uint32(0); l < p.Line; l++ {
		i := strings.IndexByte(text[lineStart:], '\n')
		if i < 0 {
			return 0, errors.Errorf("line %d with %d lines: %w", p.Line, l+1, ErrOutOfRange)
		}
		lineStart += i + 1
	}

	lineEnd := len(text)
	if i := strings.IndexByte(text[lineStart:], '\n'); i >= 0 {
		lineEnd = lineStart + i
		if lineEnd > lineStart && text[lineEnd-1] == '\r' {
			lineEnd--
		}
	}

	off := lineStart
	var units uint32
	for off < lineEnd && units < p.Character {
		r, size := utf8.DecodeRuneInString(text[off:])
		units += runeUnits(r)
		off += size
	}

	return off, nil
}

// PlaceOf is the inverse of Place.Offset for offsets on rune boundaries.
func PlaceOf(text string, offset int) (Place, error) {
	if offset < 0 || offset > len(text) {
		return Place{}, errors.Errorf("offset %d in %d bytes: %w", offset, len(text), ErrOutOfRange)
	}

	prefix := text[:offset]
	line := strings.Count(prefix, "\n")
	lineStart := strings.LastIndexByte(prefix, '\n') + 1

	return Place{
		Line:      uint32(line),
		Character: UTF16Len(prefix[lineStart:]),
	}, nil
}

// UTF16Len counts the UTF-16 code units needed to encode s.
func UTF16Len(s string) uint32 {
	var n uint32
	for _, r := range s {
		n += runeUnits(r)
	}
	return n
}

func runeUnits(r rune) uint32 {
	if n := utf16.RuneLen(r); n > 0 {
		return uint32(n)
	}
	return 1
}

// Apply replaces the text covered by r with newText.
func Apply(text string, r Range, newText string) (string, error) {
	start, err := r.Start.Offset(text)
	if err != nil {
		return "", errors.Errorf("resolving start %s: %w", r.Start, err)
	}
	end, err := r.End.Offset(text)
	if err != nil {
		return "", errors.Errorf("resolving end %s: %w", r.End, err)
	}
	if end < start {
		return "", errors.Errorf("range %s ends before it starts: %w", r, ErrOutOfRange)
	}

	var sb strings.Builder
	sb.Grow(len(text) - (end - start) + len(newText))
	sb.WriteString(text[:start])
	sb.WriteString(newText)
	sb.WriteString(text[end:])
	return sb.String(), nil
}
