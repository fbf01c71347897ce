// Package vocab loads the word lists used for three-word names.
package vocab

import (
	"bufio"
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/x5geo/x5-index/pkg/codec"
)

// File is the YAML form: two lists of words.
type File struct {
	Nouns      []string `yaml:"nouns"`
	Adjectives []string `yaml:"adjectives"`
}

// Load reads path and validates it into a vocabulary. Files ending in .txt
// hold one noun per line, a line "---", then one adjective per line; anything
// else is parsed as YAML.
func Load(path string) (*codec.Vocabulary, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read vocabulary: %w", err)
	}
	var f File
	if strings.EqualFold(filepath.Ext(path), ".txt") {
		f, err = ParseText(raw)
	} else {
		f, err = ParseYAML(raw)
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	v, err := codec.NewVocabulary(f.Nouns, f.Adjectives)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return v, nil
}

func ParseYAML(raw []byte) (File, error) {
	var f File
	dec := yaml.NewDecoder(bytes.NewReader(raw))
	dec.KnownFields(true)
	if err := dec.Decode(&f); err != nil {
		return File{}, fmt.Errorf("%w: yaml: %v", codec.ErrVocabulary, err)
	}
	f.Nouns = trimAll(f.Nouns)
	f.Adjectives = trimAll(f.Adjectives)
	return f, nil
}

// ParseText reads the two-section text form. Blank lines and lines starting
// with '#' are skipped.
func ParseText(raw []byte) (File, error) {
	var f File
	section := 0
	sc := bufio.NewScanner(bytes.NewReader(raw))
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		switch {
		case line == "" || strings.HasPrefix(line, "#"):
			continue
		case line == "---":
			section++
			if section > 1 {
				return File{}, fmt.Errorf("%w: more than two sections", codec.ErrVocabulary)
			}
		case section == 0:
			f.Nouns = append(f.Nouns, line)
		default:
			f.Adjectives = append(f.Adjectives, line)
		}
	}
	if err := sc.Err(); err != nil {
		return File{}, fmt.Errorf("%w: %v", codec.ErrVocabulary, err)
	}
	if section == 0 {
		return File{}, fmt.Errorf("%w: missing --- separator", codec.ErrVocabulary)
	}
	return f, nil
}

func trimAll(ws []string) []string {
	out := make([]string, len(ws))
	for i, w := range ws {
		out[i] = strings.TrimSpace(w)
	}
	return out
}
