// Package diff renders readable test failure output for token comparisons.
package diff

import (
	"strconv"
	"strings"

	"github.com/k0kubun/pp/v3"
	"github.com/kylelemons/godebug/diff"
)

// Exported pretty prints both values (exported fields only, no color) and
// returns a line diff, or "" when they print the same.
func Exported[T any](want T, got T) string {
	printer := pp.New()
	printer.SetExportedOnly(true)
	printer.SetColoringEnabled(false)

	d := diff.Diff(printer.Sprint(got), printer.Sprint(want))
	if d == "" {
		return ""
	}

	var sb strings.Builder
	sb.WriteString("\n\nto convert ACTUAL ⏩️ EXPECTED:\n\n")
	sb.WriteString("add:    ➕\n")
	sb.WriteString("remove: ➖\n\n")
	sb.WriteString(strings.ReplaceAll(strings.ReplaceAll(d, "\n-", "\n➖"), "\n+", "\n➕"))
	return sb.String()
}

// Quintuples formats LSP semantic token data one token per line so a diff
// points at the token that changed instead of a single long line.
func Quintuples(data []uint32) []string {
	lines := make([]string, 0, len(data)/5+1)
	for i := 0; i < len(data); i += 5 {
		end := min(i+5, len(data))
		parts := make([]string, 0, 5)
		for _, v := range data[i:end] {
			parts = append(parts, strconv.FormatUint(uint64(v), 10))
		}
		lines = append(lines, strings.Join(parts, ","))
	}
	return lines
}

// Data diffs two semantic token arrays by token.
func Data(want, got []uint32) string {
	return Exported(Quintuples(want), Quintuples(got))
}
