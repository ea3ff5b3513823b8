package container

import (
	"slices"
	"strconv"
)

// ParseTags decodes a tags payload, a sequence of
// "<len>:<name>=<len>:<value>," entries with decimal lengths, into tags.
// Later duplicates overwrite earlier ones.
//
// The scan is lenient. A length whose digits run to the end of the
// payload, or a payload ending right after a name, ends this payload
// quietly and ParseTags reports true. Any other framing problem stops
// at the entry it occurs in and ParseTags reports false, telling the
// caller not to look at further chunks. Entries already parsed are kept
// either way.
func ParseTags(p []byte, tags map[string]string) bool {
	i := 0
	for i < len(p) {
		nameLen, next, ok := scanLength(p, i)
		if !ok {
			return true
		}
		i = next
		if p[i] != ':' {
			return false
		}
		i++
		if nameLen > len(p)-i {
			return false
		}
		name := p[i : i+nameLen]
		i += nameLen
		if i >= len(p) {
			return true
		}
		if p[i] != '=' {
			return false
		}
		i++
		if i >= len(p) {
			return false
		}

		valueLen, next, ok := scanLength(p, i)
		if !ok {
			return true
		}
		i = next
		if p[i] != ':' {
			return false
		}
		i++
		if valueLen > len(p)-i {
			return false
		}
		value := p[i : i+valueLen]
		i += valueLen
		if i >= len(p) || p[i] != ',' {
			return false
		}
		i++
		tags[string(name)] = string(value)
	}
	return true
}

// scanLength accumulates the decimal digits starting at p[i]. It returns
// the value and the index of the first non-digit, or ok == false when the
// digits reach the end of p.
func scanLength(p []byte, i int) (n, next int, ok bool) {
	for c := p[i]; '0' <= c && c <= '9'; c = p[i] {
		if n <= len(p) {
			n = n*10 + int(c-'0')
		}
		i++
		if i >= len(p) {
			return 0, i, false
		}
	}
	return n, i, true
}

// AppendTags appends the tags payload for tags to dst, entries sorted by
// name.
func AppendTags(dst []byte, tags map[string]string) []byte {
	keys := make([]string, 0, len(tags))
	for k := range tags {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	for _, k := range keys {
		v := tags[k]
		dst = strconv.AppendInt(dst, int64(len(k)), 10)
		dst = append(dst, ':')
		dst = append(dst, k...)
		dst = append(dst, '=')
		dst = strconv.AppendInt(dst, int64(len(v)), 10)
		dst = append(dst, ':')
		dst = append(dst, v...)
		dst = append(dst, ',')
	}
	return dst
}
