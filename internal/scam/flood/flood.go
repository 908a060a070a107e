// Package flood detects users posting the same message across many channels.
package flood

import (
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/robalyx/scamguard/internal/metrics"
	"github.com/robalyx/scamguard/internal/scam/types"
	"go.uber.org/zap"
	"golang.org/x/crypto/blake2b"
)

// Config holds the flood detection thresholds.
type Config struct {
	// Messages without attachments at or below this many characters are ignored.
	IgnoreLength int
	// Number of live identical messages allowed before the author is flagged.
	MaxSimilarMessages int
	// How long a message is remembered.
	Window time.Duration
	// Messages matching one of these case-insensitively are never counted.
	Whitelist []string
	// Now defaults to time.Now.
	Now func() time.Time
}

type fingerprintKey struct {
	userID    uint64
	channelID uint64
}

type fingerprint struct {
	hash     [blake2b.Size256]byte
	postedAt time.Time
}

// Detector tracks recent message fingerprints per user and channel.
// It is safe for concurrent use.
type Detector struct {
	mu           sync.Mutex
	fingerprints map[fingerprintKey]fingerprint
	flagged      map[uint64]struct{}
	whitelist    []string
	ignoreLength int
	maxSimilar   int
	window       time.Duration
	now          func() time.Time
	logger       *zap.Logger
}

// New creates a detector with the given thresholds.
func New(cfg Config, logger *zap.Logger) *Detector {
	if cfg.Now == nil {
		cfg.Now = time.Now
	}

	whitelist := make([]string, 0, len(cfg.Whitelist))
	for _, entry := range cfg.Whitelist {
		if entry != "" {
			whitelist = append(whitelist, entry)
		}
	}

	return &Detector{
		fingerprints: make(map[fingerprintKey]fingerprint),
		flagged:      make(map[uint64]struct{}),
		whitelist:    whitelist,
		ignoreLength: cfg.IgnoreLength,
		maxSimilar:   cfg.MaxSimilarMessages,
		window:       cfg.Window,
		now:          cfg.Now,
		logger:       logger.Named("flood_detector"),
	}
}

// Check records the message and reports whether its author is flooding.
// Once a user is flagged every later message of theirs is reported as flooding.
func (d *Detector) Check(msg *types.Message) bool {
	d.mu.Lock()
	defer d.mu.Unlock()

	if _, ok := d.flagged[msg.AuthorID]; ok {
		return true
	}

	if d.shouldIgnore(msg) {
		return false
	}

	now := d.now()
	hash := fingerprintHash(msg)

	d.fingerprints[fingerprintKey{userID: msg.AuthorID, channelID: msg.ChannelID}] = fingerprint{
		hash:     hash,
		postedAt: now,
	}

	similar := 0
	for key, fp := range d.fingerprints {
		if key.userID == msg.AuthorID && fp.hash == hash && !d.expired(fp, now) {
			similar++
		}
	}

	if similar <= d.maxSimilar {
		return false
	}

	d.flagged[msg.AuthorID] = struct{}{}
	metrics.FloodFlags.Inc()
	d.logger.Info("Flagged user for message flooding",
		zap.Uint64("userID", msg.AuthorID),
		zap.Uint64("guildID", msg.GuildID),
		zap.Int("similarMessages", similar))

	return true
}

// Sweep removes expired fingerprints and returns how many were removed.
// Flagged users are kept.
func (d *Detector) Sweep() int {
	d.mu.Lock()
	defer d.mu.Unlock()

	now := d.now()
	removed := 0

	for key, fp := range d.fingerprints {
		if d.expired(fp, now) {
			delete(d.fingerprints, key)
			removed++
		}
	}

	return removed
}

// IsFlagged reports whether the user has been flagged.
func (d *Detector) IsFlagged(userID uint64) bool {
	d.mu.Lock()
	defer d.mu.Unlock()

	_, ok := d.flagged[userID]

	return ok
}

// Stats returns the number of tracked fingerprints and flagged users.
func (d *Detector) Stats() (fingerprints, flagged int) {
	d.mu.Lock()
	defer d.mu.Unlock()

	return len(d.fingerprints), len(d.flagged)
}

func (d *Detector) shouldIgnore(msg *types.Message) bool {
	if len(msg.Attachments) == 0 && utf8.RuneCountInString(msg.Content) <= d.ignoreLength {
		return true
	}

	for _, entry := range d.whitelist {
		if strings.EqualFold(msg.Content, entry) {
			return true
		}
	}

	return false
}

func (d *Detector) expired(fp fingerprint, now time.Time) bool {
	return now.After(fp.postedAt.Add(d.window))
}

// fingerprintHash digests the text together with the attachment file names.
func fingerprintHash(msg *types.Message) [blake2b.Size256]byte {
	var b strings.Builder

	b.WriteString(msg.Content)
	for _, attachment := range msg.Attachments {
		b.WriteString(attachment.FileName)
	}

	return blake2b.Sum256([]byte(b.String()))
}
