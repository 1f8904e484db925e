package config

import (
	"time"

	"github.com/spf13/viper"
)

type (
	Config struct {
		HTTP
		Database
		Sandbox
		Remote
		Reading
		Sync
		Tasks
		Global
	}

	HTTP struct {
		Port int32
		Host string
	}
	Database struct {
		Path string
	}
	Sandbox struct {
		Dir string // Private directory for all locally cached content
	}
	Remote struct {
		BaseURL string // Vendor backend base URL
		Token   string // API token
		UserID  string // Owner id used to scope catalog queries
	}
	Reading struct {
		DebounceWindow time.Duration // Quiescence window for position writes
	}
	Sync struct {
		Enabled  bool
		Schedule string // Cron format: "*/15 * * * *" = every 15 minutes
	}
	Tasks struct {
		Enabled         bool
		Workers         int
		ReleaseAfter    time.Duration
		CleanupInterval time.Duration
	}
	Global struct {
		ShutdownTimeoutInSeconds int
	}
)

func NewConfig() *Config {
	v := viper.New()
	v.AutomaticEnv()
	v.SetDefault("port", 8288)
	v.SetDefault("host", "0.0.0.0")
	v.SetDefault("shutdown_timeout_in_seconds", 2)
	v.SetDefault("database_path", DefaultDatabasePath)
	v.SetDefault("sandbox_dir", DefaultSandboxDir)
	v.SetDefault("remote_base_url", "")
	v.SetDefault("remote_token", "")
	v.SetDefault("remote_user_id", "")
	v.SetDefault("reading_debounce_window", "300ms")
	v.SetDefault("sync_enabled", true)
	v.SetDefault("sync_schedule", "*/15 * * * *") // Every 15 minutes
	v.SetDefault("tasks_enabled", true)
	v.SetDefault("task_workers", 2)
	v.SetDefault("task_release_after", "15m")
	v.SetDefault("task_cleanup_interval", "1h")

	return &Config{
		HTTP: HTTP{
			Port: v.GetInt32("PORT"),
			Host: v.GetString("HOST"),
		},
		Database: Database{
			Path: v.GetString("DATABASE_PATH"),
		},
		Sandbox: Sandbox{
			Dir: v.GetString("SANDBOX_DIR"),
		},
		Remote: Remote{
			BaseURL: v.GetString("REMOTE_BASE_URL"),
			Token:   v.GetString("REMOTE_TOKEN"),
			UserID:  v.GetString("REMOTE_USER_ID"),
		},
		Reading: Reading{
			DebounceWindow: v.GetDuration("READING_DEBOUNCE_WINDOW"),
		},
		Sync: Sync{
			Enabled:  v.GetBool("SYNC_ENABLED"),
			Schedule: v.GetString("SYNC_SCHEDULE"),
		},
		Tasks: Tasks{
			Enabled:         v.GetBool("TASKS_ENABLED"),
			Workers:         v.GetInt("TASK_WORKERS"),
			ReleaseAfter:    v.GetDuration("TASK_RELEASE_AFTER"),
			CleanupInterval: v.GetDuration("TASK_CLEANUP_INTERVAL"),
		},
		Global: Global{
			ShutdownTimeoutInSeconds: v.GetInt("SHUTDOWN_TIMEOUT_IN_SECONDS"),
		},
	}
}
