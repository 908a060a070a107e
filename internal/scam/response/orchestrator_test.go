package response_test

import (
	"context"
	"testing"

	"github.com/robalyx/scamguard/internal/scam/response"
	"github.com/robalyx/scamguard/internal/scam/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOrchestrator_Handle(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name            string
		mode            types.ResponseMode
		wantRecorded    int
		wantDeleted     bool
		wantQuarantined bool
		wantReport      bool
		wantInteractive bool
	}{
		{
			name: "off",
			mode: types.ResponseModeOff,
		},
		{
			name:         "only log",
			mode:         types.ResponseModeOnlyLog,
			wantRecorded: 1,
		},
		{
			name:            "approve first",
			mode:            types.ResponseModeApproveFirst,
			wantRecorded:    1,
			wantReport:      true,
			wantInteractive: true,
		},
		{
			name:            "auto delete but approve quarantine",
			mode:            types.ResponseModeAutoDeleteButApproveQuarantine,
			wantRecorded:    1,
			wantDeleted:     true,
			wantReport:      true,
			wantInteractive: true,
		},
		{
			name:            "auto delete and quarantine",
			mode:            types.ResponseModeAutoDeleteAndQuarantine,
			wantRecorded:    1,
			wantDeleted:     true,
			wantQuarantined: true,
			wantReport:      true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			ctx := context.Background()
			store := newStore(t)
			platform := newFakePlatform()
			o := newOrchestrator(tt.mode, store, platform)

			msg := scamMessage(1, 10)
			require.NoError(t, o.Handle(ctx, msg, response.SourceAnalyzer))

			count, err := store.Count(ctx)
			require.NoError(t, err)
			assert.Equal(t, tt.wantRecorded, count)

			if tt.wantRecorded > 0 {
				deleted, err := store.IsDeleted(ctx, guildID, msg.ID)
				require.NoError(t, err)
				assert.Equal(t, tt.wantDeleted, deleted)
			}

			if tt.wantDeleted {
				assert.Equal(t, []uint64{1}, platform.deletedIDs())
			} else {
				assert.Empty(t, platform.deleted)
			}

			if tt.wantQuarantined {
				require.Len(t, platform.roles, 1)
				assert.Equal(t, guildID, platform.roles[0].guildID)
				assert.Equal(t, msg.AuthorID, platform.roles[0].userID)
				assert.Equal(t, quarantineRoleID, platform.roles[0].roleID)
				assert.NotEmpty(t, platform.roles[0].reason)
				assert.Equal(t, []uint64{msg.AuthorID}, platform.dms)
			} else {
				assert.Empty(t, platform.roles)
				assert.Empty(t, platform.dms)
			}

			if !tt.wantReport {
				assert.Empty(t, platform.reports)
				return
			}

			require.Len(t, platform.reports, 1)
			report := platform.reports[0]
			assert.Equal(t, tt.mode, report.Mode)
			assert.Equal(t, response.SourceAnalyzer, report.Source)
			assert.Equal(t, tt.wantInteractive, report.Interactive())
			assert.Equal(t, tt.wantDeleted, report.Deleted)
			assert.Equal(t, tt.wantQuarantined, report.Quarantined)
			assert.Same(t, msg, report.Message)
		})
	}
}

func TestOrchestrator_DuplicateAutoDeleteAndQuarantine(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := newStore(t)
	platform := newFakePlatform()
	o := newOrchestrator(types.ResponseModeAutoDeleteAndQuarantine, store, platform)

	require.NoError(t, o.Handle(ctx, scamMessage(1, 10), response.SourceAnalyzer))
	require.NoError(t, o.Handle(ctx, scamMessage(2, 11), response.SourceAnalyzer))

	assert.Equal(t, []uint64{1, 2}, platform.deletedIDs())
	assert.Len(t, platform.roles, 1)
	assert.Len(t, platform.dms, 1)
	assert.Len(t, platform.reports, 1)

	count, err := store.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, count)

	deleted, err := store.IsDeleted(ctx, guildID, 2)
	require.NoError(t, err)
	assert.True(t, deleted)
}

func TestOrchestrator_DuplicateApproveFirst(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := newStore(t)
	platform := newFakePlatform()
	o := newOrchestrator(types.ResponseModeApproveFirst, store, platform)

	require.NoError(t, o.Handle(ctx, scamMessage(1, 10), response.SourceAnalyzer))
	require.NoError(t, o.Handle(ctx, scamMessage(2, 11), response.SourceAnalyzer))

	assert.Empty(t, platform.deleted)
	assert.Len(t, platform.reports, 1)

	count, err := store.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, count)

	deleted, err := store.IsDeleted(ctx, guildID, 2)
	require.NoError(t, err)
	assert.False(t, deleted)
}

func TestOrchestrator_UnknownMode(t *testing.T) {
	t.Parallel()

	o := newOrchestrator(types.ResponseMode(42), newStore(t), newFakePlatform())

	err := o.Handle(context.Background(), scamMessage(1, 10), response.SourceAnalyzer)
	require.ErrorIs(t, err, types.ErrUnknownMode)
}

func TestOrchestrator_HistoryFailure(t *testing.T) {
	t.Parallel()

	platform := newFakePlatform()
	o := newOrchestrator(types.ResponseModeAutoDeleteAndQuarantine, failingStore{}, platform)

	err := o.Handle(context.Background(), scamMessage(1, 10), response.SourceAnalyzer)
	require.ErrorIs(t, err, errPlatform)

	assert.Empty(t, platform.deleted)
	assert.Empty(t, platform.roles)
	assert.Empty(t, platform.reports)
}

func TestOrchestrator_SideEffectFailuresContinue(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	platform := newFakePlatform()
	platform.failDelete = true
	platform.failDM = true
	o := newOrchestrator(types.ResponseModeAutoDeleteAndQuarantine, newStore(t), platform)

	require.NoError(t, o.Handle(ctx, scamMessage(1, 10), response.SourceFlood))

	assert.Empty(t, platform.deleted)
	assert.Len(t, platform.roles, 1)
	assert.Len(t, platform.dms, 1)
	require.Len(t, platform.reports, 1)
	assert.Equal(t, response.SourceFlood, platform.reports[0].Source)
}

func TestOrchestrator_QuarantineFailureSkipsNotice(t *testing.T) {
	t.Parallel()

	platform := newFakePlatform()
	platform.failRole = true
	o := newOrchestrator(types.ResponseModeAutoDeleteAndQuarantine, newStore(t), platform)

	require.NoError(t, o.Handle(context.Background(), scamMessage(1, 10), response.SourceAnalyzer))

	assert.Len(t, platform.deleted, 1)
	assert.Empty(t, platform.roles)
	assert.Empty(t, platform.dms)
	require.Len(t, platform.reports, 1)
	assert.True(t, platform.reports[0].Deleted)
	assert.False(t, platform.reports[0].Quarantined)
}

func TestOrchestrator_ReportFailureIsNotFatal(t *testing.T) {
	t.Parallel()

	platform := newFakePlatform()
	platform.failReport = true
	o := newOrchestrator(types.ResponseModeApproveFirst, newStore(t), platform)

	require.NoError(t, o.Handle(context.Background(), scamMessage(1, 10), response.SourceAnalyzer))
	assert.Empty(t, platform.reports)
}
