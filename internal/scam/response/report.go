package response

import (
	"github.com/robalyx/scamguard/internal/scam/types"
)

// Source names the detector that flagged a message.
type Source string

const (
	SourceAnalyzer Source = "analyzer"
	SourceFlood    Source = "flood"
)

// Report describes a detected scam for moderators.
type Report struct {
	Mode        types.ResponseMode
	Source      Source
	Message     *types.Message
	Deleted     bool
	Quarantined bool
	// ConfirmID and DenyID are the control identifiers, empty for informational reports.
	ConfirmID string
	DenyID    string
}

// Interactive reports whether moderators are asked to confirm the detection.
func (r *Report) Interactive() bool {
	return r.ConfirmID != "" && r.DenyID != ""
}

// Title returns a short headline for the report.
func (r *Report) Title() string {
	switch {
	case r.Quarantined:
		return "Scam removed and author quarantined"
	case r.Deleted && r.Interactive():
		return "Scam removed, quarantine author?"
	case r.Interactive():
		return "Possible scam, remove and quarantine?"
	default:
		return "Possible scam detected"
	}
}
