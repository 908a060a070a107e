package analyzer

import "github.com/robalyx/scamguard/internal/scam/types"

// URLResult holds the findings for one URL token.
type URLResult struct {
	IsSuspicious        bool
	ContainedAttachment *types.Attachment
}

// AnalysisResult accumulates suspicion signals while the tokens of one message
// are analyzed. Flags only ever flip from false to true during a pass.
type AnalysisResult struct {
	PingsEveryone             bool
	ContainsSuspiciousKeyword bool
	ContainsDollarSign        bool
	OnlyContainsURLs          bool
	URLResults                []URLResult
}

// NewAnalysisResult returns an empty result ready for a new analysis pass.
func NewAnalysisResult() *AnalysisResult {
	return &AnalysisResult{OnlyContainsURLs: true}
}

// HasURL reports whether at least one URL was found.
func (r *AnalysisResult) HasURL() bool {
	return len(r.URLResults) > 0
}

// HasSuspiciousURL reports whether any URL points to a suspicious host.
func (r *AnalysisResult) HasSuspiciousURL() bool {
	for _, result := range r.URLResults {
		if result.IsSuspicious {
			return true
		}
	}

	return false
}

// ImageAttachmentCount counts the URLs that reference an image attachment.
func (r *AnalysisResult) ImageAttachmentCount() int {
	count := 0

	for _, result := range r.URLResults {
		if result.ContainedAttachment != nil && result.ContainedAttachment.IsImage() {
			count++
		}
	}

	return count
}
