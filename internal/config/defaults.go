package config

// DefaultConfig returns a Config populated with all default values.
func DefaultConfig() *Config {
	return &Config{
		Storage: StorageConfig{
			Path:              "~/.config/readlater",
			SQLiteFile:        "readlater.db",
			SQLiteJournalMode: "wal",
		},
		Source: SourceConfig{
			Kind:                SourceSQLite,
			PostgresDSN:         "",
			Table:               "articles",
			OwnerColumn:         "",
			FetchTimeoutSeconds: 10,
		},
		Server: ServerConfig{
			Host:                     "127.0.0.1",
			Port:                     8722,
			ReadHeaderTimeoutSeconds: 10,
			ShutdownTimeoutSeconds:   10,
		},
		Auth: AuthConfig{
			JWTSecret:  "",
			CookieName: "readlater_session",
		},
		Ingest: IngestConfig{
			TimeoutSeconds: 30,
			MaxBodyBytes:   5 << 20,
			UserAgent:      "readlater/1.0 (+https://github.com/runnerr0/readlater)",
		},
		Display: DisplayConfig{
			Timezone: "Local",
		},
		Retention: RetentionConfig{
			Days: 90,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "console",
		},
	}
}
