package types

import (
	"errors"
	"fmt"
	"strings"
)

// ErrUnknownMode indicates a response mode outside the closed set below.
var ErrUnknownMode = errors.New("unknown response mode")

// ResponseMode selects how the scam blocker reacts to a detected scam.
// The mode is fixed for the lifetime of the process.
type ResponseMode int

const (
	// ResponseModeOff disables detection entirely.
	ResponseModeOff ResponseMode = iota
	// ResponseModeOnlyLog records and logs detections without acting on them.
	ResponseModeOnlyLog
	// ResponseModeApproveFirst asks moderators before taking any action.
	ResponseModeApproveFirst
	// ResponseModeAutoDeleteButApproveQuarantine deletes immediately and asks before quarantining.
	ResponseModeAutoDeleteButApproveQuarantine
	// ResponseModeAutoDeleteAndQuarantine deletes and quarantines without asking.
	ResponseModeAutoDeleteAndQuarantine
)

var responseModeNames = map[ResponseMode]string{
	ResponseModeOff:                            "OFF",
	ResponseModeOnlyLog:                        "ONLY_LOG",
	ResponseModeApproveFirst:                   "APPROVE_FIRST",
	ResponseModeAutoDeleteButApproveQuarantine: "AUTO_DELETE_BUT_APPROVE_QUARANTINE",
	ResponseModeAutoDeleteAndQuarantine:        "AUTO_DELETE_AND_QUARANTINE",
}

// String returns the configuration name of the mode.
func (m ResponseMode) String() string {
	if name, ok := responseModeNames[m]; ok {
		return name
	}

	return fmt.Sprintf("ResponseMode(%d)", int(m))
}

// IsValid reports whether the mode is one of the known modes.
func (m ResponseMode) IsValid() bool {
	_, ok := responseModeNames[m]
	return ok
}

// DeletesImmediately reports whether the mode removes scam messages without approval.
func (m ResponseMode) DeletesImmediately() bool {
	return m == ResponseModeAutoDeleteButApproveQuarantine || m == ResponseModeAutoDeleteAndQuarantine
}

// ParseResponseMode parses a mode name such as "APPROVE_FIRST". Matching is case-insensitive.
func ParseResponseMode(s string) (ResponseMode, error) {
	normalized := strings.ToUpper(strings.TrimSpace(s))
	for mode, name := range responseModeNames {
		if name == normalized {
			return mode, nil
		}
	}

	return ResponseModeOff, fmt.Errorf("%w: %q", ErrUnknownMode, s)
}
