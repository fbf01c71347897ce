package codec

import (
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/cespare/xxhash/v2"
)

const (
	Separator     = "-"
	MinNouns      = 1 << ABits
	MinAdjectives = 1 << BBits
)

var (
	ErrVocabulary    = errors.New("invalid vocabulary")
	ErrMalformedName = errors.New("malformed name")
)

// Vocabulary renders fields as "<noun a>-<adjective b>-<noun c>" and parses
// them back. The reverse maps are built once, on the first parse, and are
// read-only afterwards. Word uniqueness is the caller's responsibility.
type Vocabulary struct {
	nouns      []string
	adjectives []string

	once    sync.Once
	nounIdx map[string]uint32
	adjIdx  map[string]uint32
}

func NewVocabulary(nouns, adjectives []string) (*Vocabulary, error) {
	if len(nouns) < MinNouns {
		return nil, fmt.Errorf("%w: %d nouns, need at least %d", ErrVocabulary, len(nouns), MinNouns)
	}
	if len(adjectives) < MinAdjectives {
		return nil, fmt.Errorf("%w: %d adjectives, need at least %d", ErrVocabulary, len(adjectives), MinAdjectives)
	}
	for kind, words := range map[string][]string{"noun": nouns, "adjective": adjectives} {
		for i, w := range words {
			if w == "" {
				return nil, fmt.Errorf("%w: empty %s at %d", ErrVocabulary, kind, i)
			}
			if strings.Contains(w, Separator) {
				return nil, fmt.Errorf("%w: %s %q contains %q", ErrVocabulary, kind, w, Separator)
			}
		}
	}
	return &Vocabulary{
		nouns:      append([]string(nil), nouns...),
		adjectives: append([]string(nil), adjectives...),
	}, nil
}

func (v *Vocabulary) Nouns() int      { return len(v.nouns) }
func (v *Vocabulary) Adjectives() int { return len(v.adjectives) }

// Fingerprint identifies the word lists, for cache keys.
func (v *Vocabulary) Fingerprint() uint64 {
	d := xxhash.New()
	for _, w := range v.nouns {
		_, _ = d.WriteString(w)
		_, _ = d.WriteString("\n")
	}
	_, _ = d.WriteString("\x00")
	for _, w := range v.adjectives {
		_, _ = d.WriteString(w)
		_, _ = d.WriteString("\n")
	}
	return d.Sum64()
}

func (v *Vocabulary) FieldsToName(f Fields) (string, error) {
	if err := f.Validate(); err != nil {
		return "", err
	}
	if int(f.A) >= len(v.nouns) || int(f.C) >= len(v.nouns) {
		return "", fmt.Errorf("%w: noun index beyond %d words", ErrRange, len(v.nouns))
	}
	if int(f.B) >= len(v.adjectives) {
		return "", fmt.Errorf("%w: adjective index beyond %d words", ErrRange, len(v.adjectives))
	}
	return v.nouns[f.A] + Separator + v.adjectives[f.B] + Separator + v.nouns[f.C], nil
}

func (v *Vocabulary) build() {
	v.nounIdx = index(v.nouns)
	v.adjIdx = index(v.adjectives)
}

func index(words []string) map[string]uint32 {
	m := make(map[string]uint32, len(words))
	for i, w := range words {
		if _, dup := m[w]; !dup {
			m[w] = uint32(i)
		}
	}
	return m
}

// NameToFields parses a name. A string that is not three non-empty words
// fails with ErrMalformedName; a well-formed name using unknown words (or
// words whose position does not fit a field) returns ok == false.
func (v *Vocabulary) NameToFields(name string) (f Fields, ok bool, err error) {
	parts := strings.Split(name, Separator)
	if len(parts) != 3 {
		return Fields{}, false, fmt.Errorf("%w: %q has %d words, want 3", ErrMalformedName, name, len(parts))
	}
	for _, p := range parts {
		if p == "" {
			return Fields{}, false, fmt.Errorf("%w: %q has an empty word", ErrMalformedName, name)
		}
	}

	v.once.Do(v.build)

	a, okA := v.nounIdx[parts[0]]
	b, okB := v.adjIdx[parts[1]]
	c, okC := v.nounIdx[parts[2]]
	if !okA || !okB || !okC {
		return Fields{}, false, nil
	}
	f = Fields{A: a, B: b, C: c}
	if f.Validate() != nil {
		return Fields{}, false, nil
	}
	return f, true, nil
}
