package response

import (
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/robalyx/scamguard/internal/scam/types"
)

// MaxCustomIDLength is the platform limit for component identifiers.
const MaxCustomIDLength = 100

const (
	customIDPrefix  = "sb"
	customIDParts   = 7
	customIDApprove = "y"
	customIDDeny    = "n"
)

// ErrInvalidCustomID is returned for identifiers that were not produced by EncodeCustomID.
var ErrInvalidCustomID = errors.New("invalid scam decision custom id")

// EncodeCustomID encodes the decision arguments of a report control as
// "sb:<y|n>:<mode>:<channel>:<message>:<author>:<hash>". The guild is taken
// from the interaction so it is not part of the identifier.
func EncodeCustomID(approve bool, mode types.ResponseMode, channelID, messageID, authorID uint64, contentHash string) (string, error) {
	hash, err := hex.DecodeString(contentHash)
	if err != nil {
		return "", fmt.Errorf("%w: content hash is not hex: %w", ErrInvalidCustomID, err)
	}

	answer := customIDDeny
	if approve {
		answer = customIDApprove
	}

	id := strings.Join([]string{
		customIDPrefix,
		answer,
		strconv.Itoa(int(mode)),
		strconv.FormatUint(channelID, 36),
		strconv.FormatUint(messageID, 36),
		strconv.FormatUint(authorID, 36),
		base64.RawURLEncoding.EncodeToString(hash),
	}, ":")

	if len(id) > MaxCustomIDLength {
		return "", fmt.Errorf("%w: %d characters", ErrInvalidCustomID, len(id))
	}

	return id, nil
}

// IsDecisionCustomID reports whether the identifier belongs to a report control.
func IsDecisionCustomID(customID string) bool {
	return strings.HasPrefix(customID, customIDPrefix+":")
}

// DecodeCustomID parses an identifier produced by EncodeCustomID. Guild,
// moderator and report message are left for the caller to fill.
func DecodeCustomID(customID string) (Decision, error) {
	parts := strings.Split(customID, ":")
	if len(parts) != customIDParts || parts[0] != customIDPrefix {
		return Decision{}, fmt.Errorf("%w: %q", ErrInvalidCustomID, customID)
	}

	var decision Decision

	switch parts[1] {
	case customIDApprove:
		decision.Approve = true
	case customIDDeny:
	default:
		return Decision{}, fmt.Errorf("%w: answer %q", ErrInvalidCustomID, parts[1])
	}

	mode, err := strconv.Atoi(parts[2])
	if err != nil || !types.ResponseMode(mode).IsValid() {
		return Decision{}, fmt.Errorf("%w: mode %q", ErrInvalidCustomID, parts[2])
	}
	decision.Mode = types.ResponseMode(mode)

	ids := []*uint64{&decision.ChannelID, &decision.MessageID, &decision.AuthorID}
	for i, target := range ids {
		value, err := strconv.ParseUint(parts[3+i], 36, 64)
		if err != nil {
			return Decision{}, fmt.Errorf("%w: id %q", ErrInvalidCustomID, parts[3+i])
		}
		*target = value
	}

	hash, err := base64.RawURLEncoding.DecodeString(parts[6])
	if err != nil || len(hash) == 0 {
		return Decision{}, fmt.Errorf("%w: hash %q", ErrInvalidCustomID, parts[6])
	}
	decision.ContentHash = hex.EncodeToString(hash)

	return decision, nil
}
