package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/bytedance/sonic"
	"github.com/tailscale/hujson"
)

// WordlistFileName is the optional JSONC file extending the scam keyword lists.
const WordlistFileName = "scam_wordlist.jsonc"

var ErrWordlistNotFound = errors.New("scam wordlist not found")

// WordlistEntry represents a single term in the wordlist with its variations.
type WordlistEntry struct {
	Term         string   `json:"term"`         // Primary keyword pattern
	RelatedTerms []string `json:"relatedTerms"` // Variations and misspellings of the term
}

// Wordlist represents the full wordlist file.
type Wordlist struct {
	Keywords      []WordlistEntry `json:"keywords"`      // Keyword patterns matched against message tokens
	HostKeywords  []string        `json:"hostKeywords"`  // Brand names URL hosts are compared against
	HostBlacklist []string        `json:"hostBlacklist"` // Known scam domains
}

// Terms flattens the keyword entries into patterns.
func (w *Wordlist) Terms() []string {
	terms := make([]string, 0, len(w.Keywords))
	for _, entry := range w.Keywords {
		terms = append(terms, entry.Term)
		terms = append(terms, entry.RelatedTerms...)
	}

	return terms
}

// LoadWordlist loads the wordlist from the config directory.
// Returns ErrWordlistNotFound when the directory has no wordlist.
func LoadWordlist(configDir string) (*Wordlist, error) {
	wordlistPath := filepath.Join(configDir, WordlistFileName)

	data, err := os.ReadFile(wordlistPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, ErrWordlistNotFound
		}

		return nil, fmt.Errorf("failed to read wordlist file: %w", err)
	}

	// Parse JSONC
	standardJSON, err := hujson.Standardize(data)
	if err != nil {
		return nil, fmt.Errorf("failed to standardize JSONC: %w", err)
	}

	var wordlist Wordlist
	if err := sonic.Unmarshal(standardJSON, &wordlist); err != nil {
		return nil, fmt.Errorf("failed to parse wordlist JSON: %w", err)
	}

	return &wordlist, nil
}

// MergeWordlist appends the wordlist terms to the scam blocker lists.
func (s *ScamBlocker) MergeWordlist(wordlist *Wordlist) {
	s.SuspiciousKeywords = append(s.SuspiciousKeywords, wordlist.Terms()...)
	s.SuspiciousHostKeywords = append(s.SuspiciousHostKeywords, wordlist.HostKeywords...)
	s.HostBlacklist = append(s.HostBlacklist, wordlist.HostBlacklist...)
}
