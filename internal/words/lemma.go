// internal/words/lemma.go
package words

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// Equivalence decides whether two words share a baseline form ("run" vs
// "runs"). The game uses it to reject claiming a trivial inflection of an
// already-claimed word. Implementations must treat lookup failures as "not
// equivalent" so a degraded checker never blocks play.
type Equivalence interface {
	SameLemma(a, b string) bool
}

// SuffixEquivalence is a deterministic, dependency-free checker that strips
// common English suffixes and compares the stems. It is the default when no
// external lemma service is configured, and the stub used by tests.
type SuffixEquivalence struct{}

func NewSuffixEquivalence() *SuffixEquivalence {
	return &SuffixEquivalence{}
}

// suffixes are tried longest-first so "running" loses "ing" before "g".
var suffixes = []string{"ing", "est", "ed", "er", "es", "s"}

func stem(w string) string {
	w = strings.ToLower(strings.TrimSpace(w))
	for _, s := range suffixes {
		if strings.HasSuffix(w, s) && len(w)-len(s) >= 3 {
			return w[:len(w)-len(s)]
		}
	}
	return w
}

func (e SuffixEquivalence) SameLemma(a, b string) bool {
	return stem(a) == stem(b)
}

// LemmaClient queries an external linguistic service for morphological
// equivalence. The service exposes GET {base}/lemma?word1=..&word2=.. and
// responds with {"equal": bool}.
type LemmaClient struct {
	baseURL string
	client  *http.Client
}

func NewLemmaClient(baseURL string) *LemmaClient {
	return &LemmaClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{Timeout: 2 * time.Second},
	}
}

func (c *LemmaClient) SameLemma(a, b string) bool {
	q := url.Values{}
	q.Set("word1", strings.ToLower(a))
	q.Set("word2", strings.ToLower(b))

	resp, err := c.client.Get(fmt.Sprintf("%s/lemma?%s", c.baseURL, q.Encode()))
	if err != nil {
		return false
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return false
	}

	var body struct {
		Equal bool `json:"equal"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return false
	}
	return body.Equal
}
