package vocab

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"gopkg.in/yaml.v3"

	"github.com/x5geo/x5-index/pkg/codec"
)

func words(prefix string, n int) []string {
	out := make([]string, n)
	for i := range out {
		out[i] = fmt.Sprintf("%s%04d", prefix, i)
	}
	return out
}

func writeFile(t *testing.T, name string, data []byte) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(p, data, 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	return p
}

func TestLoad_YAML(t *testing.T) {
	raw, err := yaml.Marshal(File{Nouns: words("noun", codec.MinNouns), Adjectives: words("adj", codec.MinAdjectives)})
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	v, err := Load(writeFile(t, "words.yaml", raw))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if v.Nouns() != codec.MinNouns || v.Adjectives() != codec.MinAdjectives {
		t.Fatalf("sizes %d/%d", v.Nouns(), v.Adjectives())
	}
	name, err := v.FieldsToName(codec.Fields{A: 1, B: 2, C: 3})
	if err != nil || name != "noun0001-adj0002-noun0003" {
		t.Fatalf("name=%q err=%v", name, err)
	}
}

func TestLoad_Text(t *testing.T) {
	var b strings.Builder
	b.WriteString("# nouns\n")
	for _, w := range words("noun", codec.MinNouns) {
		b.WriteString(w + "\n")
	}
	b.WriteString("\n---\n")
	for _, w := range words("adj", codec.MinAdjectives) {
		b.WriteString("  " + w + "\n")
	}
	v, err := Load(writeFile(t, "words.txt", []byte(b.String())))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if v.Nouns() != codec.MinNouns || v.Adjectives() != codec.MinAdjectives {
		t.Fatalf("sizes %d/%d", v.Nouns(), v.Adjectives())
	}
}

func TestLoad_Errors(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Fatalf("expected error for missing file")
	}

	small, _ := yaml.Marshal(File{Nouns: words("n", 10), Adjectives: words("a", 10)})
	if _, err := Load(writeFile(t, "small.yaml", small)); !errors.Is(err, codec.ErrVocabulary) {
		t.Fatalf("undersized: err=%v", err)
	}

	if _, err := Load(writeFile(t, "bad.yaml", []byte("nouns: [a\n"))); !errors.Is(err, codec.ErrVocabulary) {
		t.Fatalf("bad yaml: err=%v", err)
	}
	if _, err := Load(writeFile(t, "extra.yaml", []byte("nouns: []\nverbs: []\n"))); !errors.Is(err, codec.ErrVocabulary) {
		t.Fatalf("unknown field: err=%v", err)
	}
}

func TestParseText_Sections(t *testing.T) {
	if _, err := ParseText([]byte("a\nb\n")); !errors.Is(err, codec.ErrVocabulary) {
		t.Fatalf("missing separator: err=%v", err)
	}
	if _, err := ParseText([]byte("a\n---\nb\n---\nc\n")); !errors.Is(err, codec.ErrVocabulary) {
		t.Fatalf("three sections: err=%v", err)
	}
	f, err := ParseText([]byte("a\nb\n---\nc\n"))
	if err != nil {
		t.Fatalf("ParseText: %v", err)
	}
	if len(f.Nouns) != 2 || len(f.Adjectives) != 1 {
		t.Fatalf("got %+v", f)
	}
}
