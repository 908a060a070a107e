package analyzer

// minimumSignals is the number of independent signals needed without an everyone ping.
const minimumSignals = 2

// IsScam applies the decision rule to an aggregated result.
// An everyone ping combined with any other signal or URL is a scam, otherwise at
// least two of suspicious keyword, suspicious URL and currency mention are required.
func IsScam(result *AnalysisResult) bool {
	if result.PingsEveryone &&
		(result.ContainsSuspiciousKeyword || result.HasURL() || result.ContainsDollarSign) {
		return true
	}

	signals := 0
	for _, signal := range []bool{
		result.ContainsSuspiciousKeyword,
		result.HasSuspiciousURL(),
		result.ContainsDollarSign,
	} {
		if signal {
			signals++
		}
	}

	return signals >= minimumSignals
}

// IsScam applies the decision rule and additionally flags messages made up only of
// links to several image attachments, a common pattern for re-hosted scam images.
func (a *Analyzer) IsScam(result *AnalysisResult) bool {
	if IsScam(result) {
		return true
	}

	return a.attachmentsThreshold > 0 &&
		result.OnlyContainsURLs &&
		result.ImageAttachmentCount() >= a.attachmentsThreshold
}
