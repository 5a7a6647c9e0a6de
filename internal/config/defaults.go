package config

var defaults = map[string]any{
	"secret":    "",
	"log_level": "info",

	"listen": "127.0.0.1:8137",

	"station_name":    "",
	"admin_token_ttl": 30, // minutes
	"roster_file":     "",

	"cloud.base_url":      "",
	"cloud.api_key":       "",
	"cloud.timeout":       15,
	"cloud.dashboard_url": "",

	"sync.batch_size":   50,
	"sync.max_attempts": 3,
	"sync.base_delay":   2,
	"sync.interval":     60,
	"sync.idle_after":   10,
	"sync.max_batches":  0,

	"heartbeat.interval": 120,

	"email.host":         "",
	"email.port":         25,
	"email.username":     "",
	"email.password":     "",
	"email.from":         "noreply@example.com",
	"email.to":           "",
	"email.min_interval": 900,

	"storage.local.path": "./data/kiosk.db",
}

func Defaults() map[string]any {
	values := make(map[string]any)
	for k, v := range defaults {
		values[k] = v
	}
	return values
}
