package semtok

import "gitlab.com/tozd/go/errors"

var ErrBadEdit = errors.Base("edit does not fit the previous data")

// Edit replaces DeleteCount integers starting at Start with Data.
type Edit struct {
	Start       uint32
	DeleteCount uint32
	Data        []uint32
}

// Diff returns the edits that turn prev into next. It trims the common prefix
// and suffix and reports the remainder as at most one edit; identical inputs
// yield no edits.
func Diff(prev, next []uint32) []Edit {
	prefix := 0
	for prefix < len(prev) && prefix < len(next) && prev[prefix] == next[prefix] {
		prefix++
	}

	if prefix == len(prev) && prefix == len(next) {
		return []Edit{}
	}

	suffix := 0
	for suffix < len(prev)-prefix && suffix < len(next)-prefix &&
		prev[len(prev)-1-suffix] == next[len(next)-1-suffix] {
		suffix++
	}

	data := make([]uint32, len(next)-prefix-suffix)
	copy(data, next[prefix:len(next)-suffix])

	return []Edit{{
		Start:       uint32(prefix),
		DeleteCount: uint32(len(prev) - prefix - suffix),
		Data:        data,
	}}
}

// Apply runs edits against prev the way an editor does. Edits must be sorted
// by Start, must not overlap and must stay inside prev.
func Apply(prev []uint32, edits []Edit) ([]uint32, error) {
	out := make([]uint32, 0, len(prev))
	cursor := uint64(0)
	for i, e := range edits {
		start, end := uint64(e.Start), uint64(e.Start)+uint64(e.DeleteCount)
		if start < cursor {
			return nil, errors.Errorf("%w: edit %d starts at %d before the end of the previous edit at %d", ErrBadEdit, i, start, cursor)
		}
		if end > uint64(len(prev)) {
			return nil, errors.Errorf("%w: edit %d ends at %d past %d integers", ErrBadEdit, i, end, len(prev))
		}
		out = append(out, prev[cursor:start]...)
		out = append(out, e.Data...)
		cursor = end
	}
	return append(out, prev[cursor:]...), nil
}
