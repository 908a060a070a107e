package response_test

import (
	"context"
	"errors"
	"slices"
	"sync"
	"testing"
	"time"

	"github.com/robalyx/scamguard/internal/scam/history"
	"github.com/robalyx/scamguard/internal/scam/history/sqlite"
	"github.com/robalyx/scamguard/internal/scam/response"
	"github.com/robalyx/scamguard/internal/scam/types"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const (
	guildID          = uint64(100)
	moderatorRoleID  = uint64(900)
	quarantineRoleID = uint64(901)
	moderatorID      = uint64(500)
	reportChannelID  = uint64(700)
	reportMessageID  = uint64(701)
)

var errPlatform = errors.New("platform unavailable")

type deletedMessage struct {
	channelID uint64
	messageID uint64
}

type addedRole struct {
	guildID uint64
	userID  uint64
	roleID  uint64
	reason  string
}

// fakePlatform records every side effect.
type fakePlatform struct {
	mu sync.Mutex

	deleted  []deletedMessage
	roles    []addedRole
	dms      []uint64
	reports  []*response.Report
	disabled []deletedMessage

	members         map[uint64]*response.Member
	missingChannels map[uint64]bool
	failDelete      bool
	failRole        bool
	failDM          bool
	failReport      bool
}

func newFakePlatform() *fakePlatform {
	return &fakePlatform{
		members: map[uint64]*response.Member{
			moderatorID: {UserID: moderatorID, Roles: []uint64{moderatorRoleID}},
		},
		missingChannels: make(map[uint64]bool),
	}
}

func (f *fakePlatform) DeleteMessage(_ context.Context, channelID, messageID uint64, _ string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.failDelete {
		return errPlatform
	}

	f.deleted = append(f.deleted, deletedMessage{channelID: channelID, messageID: messageID})

	return nil
}

func (f *fakePlatform) AddRole(_ context.Context, guildID, userID, roleID uint64, reason string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.failRole {
		return errPlatform
	}

	f.roles = append(f.roles, addedRole{guildID: guildID, userID: userID, roleID: roleID, reason: reason})

	return nil
}

func (f *fakePlatform) SendDirectMessage(_ context.Context, userID uint64, _ string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.dms = append(f.dms, userID)
	if f.failDM {
		return errPlatform
	}

	return nil
}

func (f *fakePlatform) SendReport(_ context.Context, _ uint64, report *response.Report) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.failReport {
		return errPlatform
	}

	f.reports = append(f.reports, report)

	return nil
}

func (f *fakePlatform) DisableControls(_ context.Context, channelID, messageID uint64) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.disabled = append(f.disabled, deletedMessage{channelID: channelID, messageID: messageID})

	return nil
}

func (f *fakePlatform) LookupMember(_ context.Context, _, userID uint64) (*response.Member, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	member, ok := f.members[userID]
	if !ok {
		return nil, response.ErrNotFound
	}

	return member, nil
}

func (f *fakePlatform) LookupChannel(_ context.Context, channelID uint64) (*response.Channel, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.missingChannels[channelID] {
		return nil, response.ErrNotFound
	}

	return &response.Channel{ID: channelID, GuildID: guildID}, nil
}

func (f *fakePlatform) deletedIDs() []uint64 {
	f.mu.Lock()
	defer f.mu.Unlock()

	ids := make([]uint64, 0, len(f.deleted))
	for _, d := range f.deleted {
		ids = append(ids, d.messageID)
	}
	slices.Sort(ids)

	return ids
}

// failingStore fails every history call.
type failingStore struct{}

func (failingStore) AddScam(context.Context, *types.Message, bool) error {
	return errPlatform
}

func (failingStore) HasRecentDuplicate(context.Context, *types.Message) (bool, error) {
	return false, errPlatform
}

func (failingStore) MarkDuplicatesDeleted(context.Context, uint64, uint64, string) ([]history.Identification, error) {
	return nil, errPlatform
}

func (failingStore) PurgeOlderThan(context.Context, time.Time) (int, error) {
	return 0, errPlatform
}

func newStore(t *testing.T) *sqlite.Store {
	t.Helper()

	store, err := sqlite.New(sqlite.MemoryPath, history.Options{}, zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	return store
}

func newOrchestrator(mode types.ResponseMode, store history.Store, platform response.Platform) *response.Orchestrator {
	return response.New(mode, store, platform, response.Config{
		ModeratorRoleID:  moderatorRoleID,
		QuarantineRoleID: quarantineRoleID,
		RequestTimeout:   time.Second,
	}, zap.NewNop())
}

func scamMessage(id, channelID uint64) *types.Message {
	return &types.Message{
		ID:         id,
		GuildID:    guildID,
		ChannelID:  channelID,
		AuthorID:   42,
		AuthorName: "scammer",
		Content:    "@everyone free nitro http://paypa1-gift.com",
		CreatedAt:  time.Now(),
	}
}
