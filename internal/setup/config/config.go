package config

import (
	"errors"
	"fmt"
	"os"
	"slices"
	"time"

	"github.com/joho/godotenv"
	"github.com/knadh/koanf/parsers/toml/v2"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
	"github.com/robalyx/scamguard/internal/scam/types"
)

var (
	ErrConfigFileNotFound    = errors.New("could not find config file in any config path")
	ErrConfigVersionMissing  = errors.New("config file is missing version field")
	ErrConfigVersionMismatch = errors.New("config file version mismatch")
	ErrInvalidConfig         = errors.New("invalid config")
)

// Current version of the config file.
const (
	CurrentCommonVersion = 1
	CurrentBotVersion    = 1
)

// Environment variables that override secrets from the config files.
const (
	EnvDiscordToken     = "SCAMGUARD_DISCORD_TOKEN"
	EnvPostgresPassword = "SCAMGUARD_POSTGRES_PASSWORD"
)

// Storage drivers.
const (
	StorageDriverPostgres = "postgres"
	StorageDriverSQLite   = "sqlite"
)

// PlatformHostWhitelist lists the chat and game platforms' own domains. They
// are always whitelisted so links to them never count as lookalike hosts.
var PlatformHostWhitelist = []string{
	"discord.com",
	"discord.gg",
	"discord.media",
	"discordapp.com",
	"discordapp.net",
	"steampowered.com",
	"steamcommunity.com",
}

// Config represents the entire application configuration.
type Config struct {
	Common CommonConfig
	Bot    BotConfig
}

// CommonConfig contains configuration shared between the bot and the tools.
type CommonConfig struct {
	// Version of the common config.
	Version    int        `koanf:"version"`
	Debug      Debug      `koanf:"debug"`
	Storage    Storage    `koanf:"storage"`
	PostgreSQL PostgreSQL `koanf:"postgresql"`
	Metrics    Metrics    `koanf:"metrics"`
}

// BotConfig contains Discord bot specific configuration.
type BotConfig struct {
	// Version of the bot config.
	Version int `koanf:"version"`
	// Request timeout in milliseconds.
	RequestTimeout int `koanf:"request_timeout"`
	// Discord configuration.
	Discord Discord `koanf:"discord"`
	// Scam blocker configuration.
	ScamBlocker ScamBlocker `koanf:"scam_blocker"`
}

// Debug contains debug-related configuration.
type Debug struct {
	// Log level (debug, info, warn, error).
	LogLevel string `koanf:"log_level"`
	// Maximum log sessions to keep.
	MaxLogsToKeep int `koanf:"max_logs_to_keep"`
	// Maximum size of a log file in megabytes before it is rotated.
	MaxLogSize int `koanf:"max_log_size"`
	// Maximum rotated files kept per log.
	MaxLogBackups int `koanf:"max_log_backups"`
	// Enable pprof debugging.
	EnablePprof bool `koanf:"enable_pprof"`
	// pprof server port.
	PprofPort int `koanf:"pprof_port"`
}

// Storage selects the scam history backend.
type Storage struct {
	// Either "postgres" or "sqlite".
	Driver string `koanf:"driver"`
	// Database file used by the sqlite driver.
	SQLitePath string `koanf:"sqlite_path"`
}

// PostgreSQL contains database connection configuration.
type PostgreSQL struct {
	// Database hostname.
	Host string `koanf:"host"`
	// Database port.
	Port int `koanf:"port"`
	// Database username.
	User string `koanf:"user"`
	// Database password.
	Password string `koanf:"password"`
	// Database name.
	DBName string `koanf:"db_name"`
	// Maximum open connections.
	MaxOpenConns int `koanf:"max_open_conns"`
	// Maximum idle connections.
	MaxIdleConns int `koanf:"max_idle_conns"`
	// Connection lifetime in minutes.
	MaxLifetime int `koanf:"max_lifetime"`
	// Idle timeout in minutes.
	MaxIdleTime int `koanf:"max_idle_time"`
}

// Metrics contains the Prometheus endpoint configuration.
type Metrics struct {
	Enabled bool   `koanf:"enabled"`
	Address string `koanf:"address"`
}

// Discord contains Discord bot configuration.
type Discord struct {
	// Discord bot token for authentication.
	Token string `koanf:"token"`
}

// ScamBlocker configures scam detection and the response to detected scams.
type ScamBlocker struct {
	// Response mode, see types.ResponseMode.
	Mode string `koanf:"mode"`
	// Channel name substring used to find the moderator report channel of a guild.
	ReportChannelPattern string `koanf:"report_channel_pattern"`
	// Role required to answer scam reports.
	ModeratorRoleID uint64 `koanf:"moderator_role_id"`
	// Role given to quarantined users.
	QuarantineRoleID uint64 `koanf:"quarantine_role_id"`
	// Members holding any of these roles are never checked.
	TrustedRoleIDs []uint64 `koanf:"trusted_role_ids"`
	// Hosts that are never suspicious.
	HostWhitelist []string `koanf:"host_whitelist"`
	// Hosts that are always suspicious.
	HostBlacklist []string `koanf:"host_blacklist"`
	// Keyword patterns matched against every token.
	SuspiciousKeywords []string `koanf:"suspicious_keywords"`
	// Keywords URL hosts are fuzzily compared against.
	SuspiciousHostKeywords []string `koanf:"suspicious_host_keywords"`
	// Maximum edit distance for host similarity.
	HostSimilarityThreshold int `koanf:"host_similarity_threshold"`
	// Image attachment links in a URL-only message needed to flag it, 0 disables.
	SuspiciousAttachmentsThreshold int `koanf:"suspicious_attachments_threshold"`
	// Similar-message flood detection.
	Flood Flood `koanf:"flood"`
	// Days scam history is kept.
	RetentionDays int `koanf:"retention_days"`
	// Minutes in which a repost counts as a duplicate.
	DuplicateWindowMinutes int `koanf:"duplicate_window_minutes"`
	// Hours between history purges.
	PurgeIntervalHours int `koanf:"purge_interval_hours"`
}

// Flood configures the similar-message flood detector.
type Flood struct {
	// Messages without attachments at or below this length are ignored.
	IgnoreLength int `koanf:"ignore_length"`
	// Identical messages allowed across channels before the author is flagged.
	MaxSimilarMessages int `koanf:"max_similar_messages"`
	// Minutes a message is remembered.
	WindowMinutes int `koanf:"window_minutes"`
	// Messages that are never counted, compared case-insensitively.
	Whitelist []string `koanf:"whitelist"`
	// Seconds between sweeps of expired fingerprints.
	SweepIntervalSeconds int `koanf:"sweep_interval_seconds"`
}

// ResponseMode parses the configured response mode.
func (s *ScamBlocker) ResponseMode() (types.ResponseMode, error) {
	return types.ParseResponseMode(s.Mode)
}

// Retention returns the history retention period.
func (s *ScamBlocker) Retention() time.Duration {
	return time.Duration(s.RetentionDays) * 24 * time.Hour
}

// DuplicateWindow returns the duplicate detection window.
func (s *ScamBlocker) DuplicateWindow() time.Duration {
	return time.Duration(s.DuplicateWindowMinutes) * time.Minute
}

// PurgeInterval returns the time between history purges.
func (s *ScamBlocker) PurgeInterval() time.Duration {
	return time.Duration(s.PurgeIntervalHours) * time.Hour
}

// RequestTimeoutDuration returns the platform request timeout.
func (b *BotConfig) RequestTimeoutDuration() time.Duration {
	return time.Duration(b.RequestTimeout) * time.Millisecond
}

// LoadConfig loads the configuration from the default search paths.
// Returns the config along with the used config directory.
func LoadConfig() (*Config, string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return nil, "", fmt.Errorf("failed to get home directory: %w", err)
	}

	return LoadConfigFrom([]string{
		".scamguard",
		homeDir + "/.scamguard/config",
		"/etc/scamguard/config",
		"/app/config",
		"config",
		".",
	})
}

// LoadConfigFrom loads the configuration from the first search path holding each file.
func LoadConfigFrom(configPaths []string) (*Config, string, error) {
	config := DefaultConfig()
	usedConfigPath := ""

	files := []struct {
		name   string
		target any
	}{
		{"common", &config.Common},
		{"bot", &config.Bot},
	}

	for _, f := range files {
		path, err := loadFile(configPaths, f.name, f.target)
		if err != nil {
			return nil, "", err
		}

		if usedConfigPath == "" {
			usedConfigPath = path
		}
	}

	// Check versions for each config file
	if err := checkConfigVersion("common", config.Common.Version, CurrentCommonVersion); err != nil {
		return nil, "", err
	}

	if err := checkConfigVersion("bot", config.Bot.Version, CurrentBotVersion); err != nil {
		return nil, "", err
	}

	applyEnvOverrides(&config, usedConfigPath)
	config.Bot.ScamBlocker.HostWhitelist = mergeHosts(PlatformHostWhitelist, config.Bot.ScamBlocker.HostWhitelist)

	wordlist, err := LoadWordlist(usedConfigPath)
	switch {
	case err == nil:
		config.Bot.ScamBlocker.MergeWordlist(wordlist)
	case !errors.Is(err, ErrWordlistNotFound):
		return nil, "", err
	}

	if err := config.Validate(); err != nil {
		return nil, "", err
	}

	return &config, usedConfigPath, nil
}

// loadFile loads <name>.toml from the first path that has it into target.
// Keys missing from the file keep the value already in target.
func loadFile(configPaths []string, name string, target any) (string, error) {
	for _, path := range configPaths {
		k := koanf.New(".")

		configPath := fmt.Sprintf("%s/%s.toml", path, name)
		if err := k.Load(file.Provider(configPath), toml.Parser()); err != nil {
			continue
		}

		if err := k.Unmarshal("", target); err != nil {
			return "", fmt.Errorf("error unmarshaling %s.toml: %w", name, err)
		}

		return path, nil
	}

	return "", fmt.Errorf("%w: %s.toml", ErrConfigFileNotFound, name)
}

// applyEnvOverrides reads an optional .env file and lets the environment
// override secrets. Variables already set in the process win over the file.
func applyEnvOverrides(config *Config, configDir string) {
	_ = godotenv.Load(configDir + "/.env")

	if token := os.Getenv(EnvDiscordToken); token != "" {
		config.Bot.Discord.Token = token
	}

	if password := os.Getenv(EnvPostgresPassword); password != "" {
		config.Common.PostgreSQL.Password = password
	}
}

// DefaultConfig returns the configuration used for keys missing from the files.
func DefaultConfig() Config {
	return Config{
		Common: CommonConfig{
			Debug: Debug{
				LogLevel:      "info",
				MaxLogsToKeep: 10,
				MaxLogSize:    100,
				MaxLogBackups: 3,
				PprofPort:     6060,
			},
			Storage: Storage{
				Driver:     StorageDriverPostgres,
				SQLitePath: "scamguard.db",
			},
			PostgreSQL: PostgreSQL{
				Host:         "localhost",
				Port:         5432,
				MaxOpenConns: 10,
				MaxIdleConns: 5,
				MaxLifetime:  60,
				MaxIdleTime:  10,
			},
			Metrics: Metrics{
				Address: ":9090",
			},
		},
		Bot: BotConfig{
			RequestTimeout: 5000,
			ScamBlocker: ScamBlocker{
				Mode:                           types.ResponseModeOnlyLog.String(),
				HostWhitelist:                  slices.Clone(PlatformHostWhitelist),
				ReportChannelPattern:           "scam-reports",
				HostSimilarityThreshold:        2,
				SuspiciousAttachmentsThreshold: 3,
				Flood: Flood{
					IgnoreLength:         10,
					MaxSimilarMessages:   3,
					WindowMinutes:        2,
					SweepIntervalSeconds: 10,
				},
				RetentionDays:          14,
				DuplicateWindowMinutes: 15,
				PurgeIntervalHours:     24,
			},
		},
	}
}

// Validate checks values that would break the pipeline at runtime.
func (c *Config) Validate() error {
	sb := &c.Bot.ScamBlocker

	mode, err := sb.ResponseMode()
	if err != nil {
		return fmt.Errorf("%w: scam_blocker.mode: %w", ErrInvalidConfig, err)
	}

	if err := sb.validateRoles(mode); err != nil {
		return err
	}

	switch c.Common.Storage.Driver {
	case StorageDriverPostgres, StorageDriverSQLite:
	default:
		return fmt.Errorf("%w: storage.driver %q", ErrInvalidConfig, c.Common.Storage.Driver)
	}

	checks := []struct {
		name  string
		value int
	}{
		{"scam_blocker.host_similarity_threshold", sb.HostSimilarityThreshold},
		{"scam_blocker.suspicious_attachments_threshold", sb.SuspiciousAttachmentsThreshold},
		{"scam_blocker.flood.ignore_length", sb.Flood.IgnoreLength},
		{"scam_blocker.flood.max_similar_messages", sb.Flood.MaxSimilarMessages},
		{"scam_blocker.flood.window_minutes", sb.Flood.WindowMinutes},
		{"scam_blocker.flood.sweep_interval_seconds", sb.Flood.SweepIntervalSeconds},
		{"scam_blocker.retention_days", sb.RetentionDays},
		{"scam_blocker.duplicate_window_minutes", sb.DuplicateWindowMinutes},
		{"scam_blocker.purge_interval_hours", sb.PurgeIntervalHours},
	}
	for _, check := range checks {
		if check.value < 0 {
			return fmt.Errorf("%w: %s must not be negative", ErrInvalidConfig, check.name)
		}
	}

	return nil
}

// validateRoles rejects modes whose actions need a role that is not configured.
func (s *ScamBlocker) validateRoles(mode types.ResponseMode) error {
	switch mode {
	case types.ResponseModeApproveFirst, types.ResponseModeAutoDeleteButApproveQuarantine:
		if s.ModeratorRoleID == 0 {
			return fmt.Errorf("%w: scam_blocker.moderator_role_id is required in %s mode", ErrInvalidConfig, mode)
		}
		if s.QuarantineRoleID == 0 {
			return fmt.Errorf("%w: scam_blocker.quarantine_role_id is required in %s mode", ErrInvalidConfig, mode)
		}
	case types.ResponseModeAutoDeleteAndQuarantine:
		if s.QuarantineRoleID == 0 {
			return fmt.Errorf("%w: scam_blocker.quarantine_role_id is required in %s mode", ErrInvalidConfig, mode)
		}
	case types.ResponseModeOff, types.ResponseModeOnlyLog:
	}

	return nil
}

// mergeHosts returns base followed by the hosts of extra not already in it.
func mergeHosts(base, extra []string) []string {
	merged := slices.Clone(base)
	for _, host := range extra {
		if !slices.Contains(merged, host) {
			merged = append(merged, host)
		}
	}

	return merged
}

// checkConfigVersion checks if the config file version is correct.
func checkConfigVersion(name string, current, expected int) error {
	if current == 0 {
		return fmt.Errorf("%w: %s.toml", ErrConfigVersionMissing, name)
	}

	if current != expected {
		return fmt.Errorf(
			"%w: %s.toml (got: %d, expected: %d)",
			ErrConfigVersionMismatch,
			name,
			current,
			expected,
		)
	}

	return nil
}
