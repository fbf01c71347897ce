// Package keys builds the Redis keys used for cell geometry and ingested points.
package keys

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/cespare/xxhash/v2"

	"github.com/x5geo/x5-index/pkg/codec"
	"github.com/x5geo/x5-index/pkg/grid"
)

const prefix = "x5"

// GridFingerprint hashes the grid parameters so caches written under one grid
// are never read under another.
func GridFingerprint(g grid.Grid) uint64 {
	return xxhash.Sum64String(fmt.Sprintf("maxlat=%g;step=%g;offset=%d", g.MaxLat, g.Step, g.Offset))
}

// VocabFingerprint is 0 for an index without a vocabulary.
func VocabFingerprint(v *codec.Vocabulary) uint64 {
	if v == nil {
		return 0
	}
	return v.Fingerprint()
}

// CellKey addresses a cached geometry for token. kind is "hex" or a region
// label such as "r62". Rendered features carry the cell name, so the
// vocabulary fingerprint is part of the key.
func CellKey(gridFP, vocabFP uint64, kind, token string) string {
	return fmt.Sprintf("%s:cell:%016x:%016x:%s:%s", prefix, gridFP, vocabFP, sanitizeForKey(kind), sanitizeForKey(token))
}

// PointKey addresses a stored point event. Ids that needed rewriting or
// truncation carry a hash of the raw id.
func PointKey(id string) string {
	raw := strings.TrimSpace(id)
	safe := sanitizeForKey(raw)

	const maxIDLen = 96
	rewritten := safe != raw
	if len(safe) > maxIDLen {
		safe = safe[:maxIDLen]
		rewritten = true
	}
	if rewritten {
		return fmt.Sprintf("%s:pt:%s:h=%016x", prefix, safe, xxhash.Sum64String(raw))
	}
	return prefix + ":pt:" + safe
}

func sanitizeForKey(s string) string {
	if s == "" {
		return ""
	}
	var b strings.Builder
	b.Grow(len(s))

	var prev rune
	for _, r := range s {
		out := rune(0)
		switch {
		case r == ' ' || r == '\t' || r == '\n' || r == '\r' || r == '\v' || r == '\f':
			out = '_'
		case isAlphaNum(r) || r == '_' || r == '-' || r == '.':
			out = r
		default:
			// Any other rune (including ':' and non-ASCII) becomes '-'
			out = '-'
		}
		if (out == '_' || out == '-') && out == prev {
			continue
		}
		b.WriteRune(out)
		prev = out
	}
	return b.String()
}

func isAlphaNum(r rune) bool {
	return (r >= 'a' && r <= 'z') ||
		(r >= 'A' && r <= 'Z') ||
		(r < unicode.MaxASCII && unicode.IsDigit(r))
}
