// internal/words/dict.go
package words

import (
	"bufio"
	"fmt"
	"os"
	"strings"
)

// Dictionary is an immutable, case-insensitive membership set of valid words.
// It is built once at startup and injected into games as a read-only lookup.
type Dictionary struct {
	words map[string]struct{}
}

// NewDictionary builds a dictionary from a word slice. Entries are
// lower-cased; empty entries are skipped.
func NewDictionary(entries []string) *Dictionary {
	d := &Dictionary{words: make(map[string]struct{}, len(entries))}
	for _, w := range entries {
		w = strings.ToLower(strings.TrimSpace(w))
		if w == "" {
			continue
		}
		d.words[w] = struct{}{}
	}
	return d
}

// LoadDictionary reads a newline-delimited word list from path.
func LoadDictionary(path string) (*Dictionary, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open word list %s: %w", path, err)
	}
	defer f.Close()

	d := &Dictionary{words: make(map[string]struct{})}
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		w := strings.ToLower(strings.TrimSpace(scanner.Text()))
		if w == "" {
			continue
		}
		d.words[w] = struct{}{}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read word list %s: %w", path, err)
	}
	return d, nil
}

// Contains reports whether w is a dictionary word. Lookup is case-insensitive.
func (d *Dictionary) Contains(w string) bool {
	_, ok := d.words[strings.ToLower(strings.TrimSpace(w))]
	return ok
}

// Len returns the number of entries.
func (d *Dictionary) Len() int {
	return len(d.words)
}
