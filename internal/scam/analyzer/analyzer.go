package analyzer

import (
	"net/url"
	"path"
	"strings"
	"unicode"

	"github.com/robalyx/scamguard/internal/scam/types"
	"github.com/robalyx/scamguard/pkg/utils"
)

// attachmentPathPrefix marks URLs that point to an uploaded attachment on the CDN.
const attachmentPathPrefix = "/attachments/"

// Config holds the immutable classifier settings.
type Config struct {
	// Patterns matched against every token, see keywordPattern.
	SuspiciousKeywords []string
	// Keywords that URL hosts are fuzzily compared against.
	SuspiciousHostKeywords []string
	// Hosts that are never suspicious.
	HostWhitelist []string
	// Hosts that are always suspicious.
	HostBlacklist []string
	// Maximum edit distance for a host window to count as similar.
	HostSimilarityThreshold int
	// Minimum number of image attachment links in a URL-only message to flag it, 0 disables.
	SuspiciousAttachmentsThreshold int
}

// Analyzer classifies message content. It is safe for concurrent use.
type Analyzer struct {
	keywords             []keywordPattern
	hostKeywords         []string
	hostWhitelist        hostSet
	hostBlacklist        hostSet
	similarityThreshold  int
	attachmentsThreshold int
}

// New creates an analyzer from the given configuration.
func New(cfg Config) *Analyzer {
	normalizer := utils.NewTextNormalizer()

	hostKeywords := make([]string, 0, len(cfg.SuspiciousHostKeywords))
	for _, keyword := range cfg.SuspiciousHostKeywords {
		if keyword = strings.ToLower(strings.TrimSpace(keyword)); keyword != "" {
			hostKeywords = append(hostKeywords, keyword)
		}
	}

	return &Analyzer{
		keywords:             parseKeywordPatterns(cfg.SuspiciousKeywords, normalizer),
		hostKeywords:         hostKeywords,
		hostWhitelist:        newHostSet(cfg.HostWhitelist),
		hostBlacklist:        newHostSet(cfg.HostBlacklist),
		similarityThreshold:  cfg.HostSimilarityThreshold,
		attachmentsThreshold: cfg.SuspiciousAttachmentsThreshold,
	}
}

// Analyze splits the content into whitespace or comma delimited tokens and
// runs every token through the analyzer.
func (a *Analyzer) Analyze(content string) *AnalysisResult {
	result := NewAnalysisResult()
	normalizer := utils.NewTextNormalizer()

	tokens := strings.FieldsFunc(content, func(r rune) bool {
		return unicode.IsSpace(r) || r == ','
	})
	for _, token := range tokens {
		a.analyzeToken(token, result, normalizer)
	}

	return result
}

// AnalyzeToken updates the result with the signals found in a single token.
func (a *Analyzer) AnalyzeToken(token string, result *AnalysisResult) {
	a.analyzeToken(token, result, utils.NewTextNormalizer())
}

func (a *Analyzer) analyzeToken(token string, result *AnalysisResult, normalizer *utils.TextNormalizer) {
	if strings.TrimSpace(token) == "" {
		return
	}

	if !result.PingsEveryone && isEveryonePing(token) {
		result.PingsEveryone = true
	}

	if !result.ContainsSuspiciousKeyword && a.containsSuspiciousKeyword(normalizer.Normalize(token)) {
		result.ContainsSuspiciousKeyword = true
	}

	if !result.ContainsDollarSign && containsCurrency(token) {
		result.ContainsDollarSign = true
	}

	if strings.HasPrefix(strings.ToLower(token), "http") {
		a.analyzeURL(token, result)
		return
	}

	result.OnlyContainsURLs = false
}

// analyzeURL records a URL finding. Tokens that fail to parse are ignored.
func (a *Analyzer) analyzeURL(token string, result *AnalysisResult) {
	parsed, err := url.Parse(token)
	if err != nil || parsed.Hostname() == "" {
		return
	}

	urlResult := URLResult{
		IsSuspicious: a.IsSuspiciousHost(parsed.Hostname()),
	}

	if strings.HasPrefix(parsed.Path, attachmentPathPrefix) {
		if name := path.Base(parsed.Path); name != "" && name != "/" && name != "." {
			urlResult.ContainedAttachment = &types.Attachment{FileName: name}
		}
	}

	result.URLResults = append(result.URLResults, urlResult)
}

func (a *Analyzer) containsSuspiciousKeyword(normalizedToken string) bool {
	for _, keyword := range a.keywords {
		if keyword.matches(normalizedToken) {
			return true
		}
	}

	return false
}

func isEveryonePing(token string) bool {
	return strings.EqualFold(token, "@everyone") || strings.EqualFold(token, "@here")
}

// containsCurrency checks for any currency symbol or the literal "usd".
func containsCurrency(token string) bool {
	if strings.EqualFold(token, "usd") {
		return true
	}

	return strings.ContainsFunc(token, func(r rune) bool {
		return unicode.Is(unicode.Sc, r)
	})
}
