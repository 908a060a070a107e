package analyzer

import (
	"strings"

	"golang.org/x/net/publicsuffix"
)

// hostSet is a lowercase set of hosts that also matches on the registrable domain.
type hostSet map[string]struct{}

func newHostSet(hosts []string) hostSet {
	set := make(hostSet, len(hosts))
	for _, host := range hosts {
		if host = normalizeHost(host); host != "" {
			set[host] = struct{}{}
		}
	}

	return set
}

// contains checks the host itself and then its eTLD+1.
func (s hostSet) contains(host string) bool {
	if _, ok := s[host]; ok {
		return true
	}

	domain, err := publicsuffix.EffectiveTLDPlusOne(host)
	if err != nil || domain == host {
		return false
	}

	_, ok := s[domain]

	return ok
}

// normalizeHost lowercases the host and strips a leading "www.".
func normalizeHost(host string) string {
	host = strings.ToLower(strings.TrimSpace(host))
	host = strings.TrimSuffix(host, ".")

	return strings.TrimPrefix(host, "www.")
}

// IsSuspiciousHost decides whether a URL host looks like a scam domain.
// The whitelist takes precedence over the blacklist and similarity checks.
func (a *Analyzer) IsSuspiciousHost(host string) bool {
	host = normalizeHost(host)
	if host == "" {
		return false
	}

	if a.hostWhitelist.contains(host) {
		return false
	}

	if a.hostBlacklist.contains(host) {
		return true
	}

	for _, keyword := range a.hostKeywords {
		if IsHostSimilarToKeyword(host, keyword, a.similarityThreshold) {
			return true
		}
	}

	return false
}

// IsHostSimilarToKeyword slides a window of the keyword's length across the host
// and reports whether any window is within threshold edits of the keyword.
// Hosts shorter than the keyword are compared as a whole.
func IsHostSimilarToKeyword(host, keyword string, threshold int) bool {
	hostRunes := []rune(strings.ToLower(host))
	keywordRunes := []rune(strings.ToLower(keyword))

	if len(keywordRunes) == 0 {
		return false
	}

	if len(hostRunes) < len(keywordRunes) {
		return editDistance(hostRunes, keywordRunes) <= threshold
	}

	for start := 0; start+len(keywordRunes) <= len(hostRunes); start++ {
		window := hostRunes[start : start+len(keywordRunes)]
		if editDistance(keywordRunes, window) <= threshold {
			return true
		}
	}

	return false
}

// EditDistance calculates the Levenshtein distance between two strings.
func EditDistance(s1, s2 string) int {
	return editDistance([]rune(s1), []rune(s2))
}

// editDistance fills the full distance matrix. Inputs are short host fragments
// so the quadratic table is fine.
func editDistance(runes1, runes2 []rune) int {
	rows, cols := len(runes1)+1, len(runes2)+1

	dist := make([][]int, rows)
	for i := range dist {
		dist[i] = make([]int, cols)
		dist[i][0] = i
	}

	for j := 1; j < cols; j++ {
		dist[0][j] = j
	}

	for i := 1; i < rows; i++ {
		for j := 1; j < cols; j++ {
			cost := 1
			if runes1[i-1] == runes2[j-1] {
				cost = 0
			}

			dist[i][j] = min(
				dist[i-1][j]+1,      // deletion
				dist[i][j-1]+1,      // insertion
				dist[i-1][j-1]+cost, // substitution
			)
		}
	}

	return dist[rows-1][cols-1]
}
