package constants

const (
	AppName              = "lifeplan"
	EnvPrefix            = "LIFEPLAN"
	DefaultKeyringUser   = "database-connection"
	JWTSecretKeyringUser = "server-jwt-secret"
	DefaultOwner         = "local"
	DefaultConfigDir     = "~/.config/lifeplan"
	DefaultDBName        = "lifeplan.db"
	ConfigFileName       = "config.yaml"
	LogFileName          = "lifeplan.log"
	Version              = "v0.3.0"

	// DateFormat is the canonical calendar date format (YYYY-MM-DD)
	DateFormat = "2006-01-02"

	// TimeFormat is the advisory time-of-day format (HH:MM)
	TimeFormat = "15:04"

	// Server defaults
	DefaultServerAddr     = "127.0.0.1:8080"
	DefaultServerBasePath = "/v1"

	// DefaultViewMode is the view the TUI opens in
	DefaultViewMode = "day"
)
