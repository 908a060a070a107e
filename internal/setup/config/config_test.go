package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/robalyx/scamguard/internal/scam/types"
	"github.com/robalyx/scamguard/internal/setup/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const commonTOML = `
version = 1

[debug]
log_level = "debug"

[storage]
driver = "sqlite"
sqlite_path = "/tmp/history.db"

[postgresql]
host = "db"
password = "from-file"
`

const botTOML = `
version = 1
request_timeout = 2500

[discord]
token = "file-token"

[scam_blocker]
mode = "auto_delete_and_quarantine"
moderator_role_id = 111
quarantine_role_id = 222
trusted_role_ids = [333, 444]
host_whitelist = ["discord.com"]
suspicious_keywords = ["nitro", "^free"]
suspicious_host_keywords = ["discord"]
suspicious_attachments_threshold = 0

[scam_blocker.flood]
max_similar_messages = 5
whitelist = ["gm"]
`

func writeFiles(t *testing.T, files map[string]string) string {
	t.Helper()

	dir := t.TempDir()
	for name, content := range files {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o600))
	}

	return dir
}

func TestLoadConfigFrom(t *testing.T) {
	dir := writeFiles(t, map[string]string{
		"common.toml": commonTOML,
		"bot.toml":    botTOML,
	})

	cfg, usedDir, err := config.LoadConfigFrom([]string{filepath.Join(dir, "missing"), dir})
	require.NoError(t, err)
	assert.Equal(t, dir, usedDir)

	assert.Equal(t, "debug", cfg.Common.Debug.LogLevel)
	assert.Equal(t, 10, cfg.Common.Debug.MaxLogsToKeep)
	assert.Equal(t, config.StorageDriverSQLite, cfg.Common.Storage.Driver)
	assert.Equal(t, "/tmp/history.db", cfg.Common.Storage.SQLitePath)
	assert.Equal(t, "db", cfg.Common.PostgreSQL.Host)
	assert.Equal(t, 5432, cfg.Common.PostgreSQL.Port)

	sb := cfg.Bot.ScamBlocker
	mode, err := sb.ResponseMode()
	require.NoError(t, err)
	assert.Equal(t, types.ResponseModeAutoDeleteAndQuarantine, mode)
	assert.Equal(t, uint64(111), sb.ModeratorRoleID)
	assert.Equal(t, uint64(222), sb.QuarantineRoleID)
	assert.Equal(t, []uint64{333, 444}, sb.TrustedRoleIDs)
	assert.Equal(t, []string{"nitro", "^free"}, sb.SuspiciousKeywords)
	assert.Subset(t, sb.HostWhitelist, config.PlatformHostWhitelist)
	assert.Len(t, sb.HostWhitelist, len(config.PlatformHostWhitelist))
	assert.Equal(t, 0, sb.SuspiciousAttachmentsThreshold)
	assert.Equal(t, 2, sb.HostSimilarityThreshold)
	assert.Equal(t, 5, sb.Flood.MaxSimilarMessages)
	assert.Equal(t, 10, sb.Flood.IgnoreLength)
	assert.Equal(t, []string{"gm"}, sb.Flood.Whitelist)
	assert.Equal(t, 14, sb.RetentionDays)
	assert.Equal(t, 15, sb.DuplicateWindowMinutes)
	assert.Equal(t, 24, sb.PurgeIntervalHours)
	assert.Equal(t, 2500, cfg.Bot.RequestTimeout)
}

func TestLoadConfigFrom_EnvOverrides(t *testing.T) {
	t.Setenv(config.EnvDiscordToken, "env-token")
	t.Setenv(config.EnvPostgresPassword, "env-password")

	dir := writeFiles(t, map[string]string{
		"common.toml": commonTOML,
		"bot.toml":    botTOML,
	})

	cfg, _, err := config.LoadConfigFrom([]string{dir})
	require.NoError(t, err)
	assert.Equal(t, "env-token", cfg.Bot.Discord.Token)
	assert.Equal(t, "env-password", cfg.Common.PostgreSQL.Password)
}

func TestLoadConfigFrom_Wordlist(t *testing.T) {
	t.Parallel()

	dir := writeFiles(t, map[string]string{
		"common.toml": commonTOML,
		"bot.toml":    botTOML,
		config.WordlistFileName: `{
			// brand impersonation
			"keywords": [
				{"term": "giveaway", "relatedTerms": ["give-away", "g1veaway"]},
			],
			"hostKeywords": ["steam"],
			"hostBlacklist": ["steamcommunnity.ru"],
		}`,
	})

	cfg, _, err := config.LoadConfigFrom([]string{dir})
	require.NoError(t, err)

	sb := cfg.Bot.ScamBlocker
	assert.Equal(t, []string{"nitro", "^free", "giveaway", "give-away", "g1veaway"}, sb.SuspiciousKeywords)
	assert.Equal(t, []string{"discord", "steam"}, sb.SuspiciousHostKeywords)
	assert.Equal(t, []string{"steamcommunnity.ru"}, sb.HostBlacklist)
}

func TestLoadConfigFrom_Errors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		files   map[string]string
		wantErr error
	}{
		{
			name:    "missing bot file",
			files:   map[string]string{"common.toml": commonTOML},
			wantErr: config.ErrConfigFileNotFound,
		},
		{
			name: "missing version",
			files: map[string]string{
				"common.toml": "[debug]\nlog_level = \"info\"\n",
				"bot.toml":    botTOML,
			},
			wantErr: config.ErrConfigVersionMissing,
		},
		{
			name: "version mismatch",
			files: map[string]string{
				"common.toml": commonTOML,
				"bot.toml":    "version = 99\n",
			},
			wantErr: config.ErrConfigVersionMismatch,
		},
		{
			name: "unknown mode",
			files: map[string]string{
				"common.toml": commonTOML,
				"bot.toml":    "version = 1\n[scam_blocker]\nmode = \"ban_everyone\"\n",
			},
			wantErr: config.ErrInvalidConfig,
		},
		{
			name: "unknown storage driver",
			files: map[string]string{
				"common.toml": "version = 1\n[storage]\ndriver = \"mongo\"\n",
				"bot.toml":    botTOML,
			},
			wantErr: config.ErrInvalidConfig,
		},
		{
			name: "quarantine mode without quarantine role",
			files: map[string]string{
				"common.toml": commonTOML,
				"bot.toml":    "version = 1\n[scam_blocker]\nmode = \"AUTO_DELETE_AND_QUARANTINE\"\nmoderator_role_id = 111\n",
			},
			wantErr: config.ErrInvalidConfig,
		},
		{
			name: "negative threshold",
			files: map[string]string{
				"common.toml": commonTOML,
				"bot.toml":    "version = 1\n[scam_blocker]\nhost_similarity_threshold = -1\n",
			},
			wantErr: config.ErrInvalidConfig,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			dir := writeFiles(t, tt.files)
			_, _, err := config.LoadConfigFrom([]string{dir})
			require.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestValidate_RolesPerMode(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name         string
		mode         types.ResponseMode
		moderatorID  uint64
		quarantineID uint64
		wantErr      bool
	}{
		{name: "off needs no roles", mode: types.ResponseModeOff},
		{name: "only log needs no roles", mode: types.ResponseModeOnlyLog},
		{name: "approve first without moderator role", mode: types.ResponseModeApproveFirst, quarantineID: 222, wantErr: true},
		{name: "approve first without quarantine role", mode: types.ResponseModeApproveFirst, moderatorID: 111, wantErr: true},
		{name: "approve first with both roles", mode: types.ResponseModeApproveFirst, moderatorID: 111, quarantineID: 222},
		{
			name:         "approve quarantine without moderator role",
			mode:         types.ResponseModeAutoDeleteButApproveQuarantine,
			quarantineID: 222,
			wantErr:      true,
		},
		{
			name:        "approve quarantine without quarantine role",
			mode:        types.ResponseModeAutoDeleteButApproveQuarantine,
			moderatorID: 111,
			wantErr:     true,
		},
		{name: "auto quarantine without quarantine role", mode: types.ResponseModeAutoDeleteAndQuarantine, moderatorID: 111, wantErr: true},
		{name: "auto quarantine without moderator role", mode: types.ResponseModeAutoDeleteAndQuarantine, quarantineID: 222},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			cfg := config.DefaultConfig()
			cfg.Bot.ScamBlocker.Mode = tt.mode.String()
			cfg.Bot.ScamBlocker.ModeratorRoleID = tt.moderatorID
			cfg.Bot.ScamBlocker.QuarantineRoleID = tt.quarantineID

			err := cfg.Validate()
			if tt.wantErr {
				require.ErrorIs(t, err, config.ErrInvalidConfig)
				return
			}
			require.NoError(t, err)
		})
	}
}
