package models

// MConfig Structure
type MConfig struct {
	Name     string         `yaml:"name"`
	LogLevel string         `yaml:"log_level"`
	API      MAPIConfig     `yaml:"api"`
	Realtime MRealtimeConfig `yaml:"realtime"`
	Server   MServerConfig  `yaml:"server"`
	Storage  MStorageConfig `yaml:"storage"`
	Views    MViewsConfig   `yaml:"views"`
}

type MAPIConfig struct {
	BaseURL          string `yaml:"base_url"`
	RequestTimeout   int    `yaml:"timeout"`           // seconds
	TokenWaitSeconds int    `yaml:"token_wait_seconds"` // bounded wait for session restore
	ProxyURL         string `yaml:"proxy_url"`          // optional outbound proxy
}

type MRealtimeConfig struct {
	ReconnectBaseSeconds int `yaml:"reconnect_base_seconds"`
	ReconnectMaxSeconds  int `yaml:"reconnect_max_seconds"`
	KeepAliveSeconds     int `yaml:"keepalive_seconds"`
}

// MServerConfig configures the dev/simulation server (cmd/devserver).
type MServerConfig struct {
	Host                   string `yaml:"host"`
	Port                   int    `yaml:"port"`
	SimulateIntervalSecond int    `yaml:"simulate_interval_seconds"`
	RecentReadingsCapacity int    `yaml:"recent_readings_capacity"`
}

type MStorageConfig struct {
	DBType             string `yaml:"db_type"`
	DBPath             string `yaml:"db_path"`
	DBConnectionString string `yaml:"db_connection_string"`
}

type MViewsConfig struct {
	DefaultTimeRange string `yaml:"default_time_range"` // 1h, 12h, 24h, 7d, 30d
	MaxChartPoints   int    `yaml:"max_chart_points"`
}
