package config

const (
	defaultConfigPath              = "~/.config/gamearr/config.toml"
	defaultDataDir                 = "~/.local/share/gamearr"
	defaultLogDir                  = "~/.local/share/gamearr/logs"
	defaultAPIBind                 = "127.0.0.1:7878"
	defaultQBittorrentTimeout      = 30
	defaultDownloadCategory        = "games"
	defaultDownloadTag             = "gamearr"
	defaultNotifyRequestTimeout    = 10
	defaultWorkflowReconcileSecond = 60
	defaultLogFormat               = "console"
	defaultLogLevel                = "info"
)

var defaultDiscoveryDelays = []int{2, 3, 5, 8, 10}

// Default returns a Config populated with repository defaults.
func Default() Config {
	delays := make([]int, len(defaultDiscoveryDelays))
	copy(delays, defaultDiscoveryDelays)
	return Config{
		Paths: Paths{
			DataDir: defaultDataDir,
			LogDir:  defaultLogDir,
			APIBind: defaultAPIBind,
		},
		QBittorrent: QBittorrent{
			TimeoutSeconds: defaultQBittorrentTimeout,
		},
		Downloads: Downloads{
			Category: defaultDownloadCategory,
			Tag:      defaultDownloadTag,
		},
		Notifications: Notifications{
			RequestTimeout: defaultNotifyRequestTimeout,
			Downloads:      true,
			Errors:         true,
		},
		Workflow: Workflow{
			ReconcileInterval: defaultWorkflowReconcileSecond,
			DiscoveryDelays:   delays,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
