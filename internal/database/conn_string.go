package database

import (
	"fmt"
	"net/url"

	"github.com/rickgao/tapsync/internal/config"
)

// ApplicationName identifies this client in pg_stat_activity.
const ApplicationName = "tapsync"

// BuildConnString builds a PostgreSQL connection string from config.
func BuildConnString(cfg config.DBConfig) string {
	sslMode := cfg.SSLMode
	if sslMode == "" {
		sslMode = config.DefaultDBSSLMode
	}

	params := url.Values{}
	params.Set("sslmode", sslMode)
	params.Set("application_name", ApplicationName)

	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?%s",
		url.QueryEscape(cfg.User),
		url.QueryEscape(cfg.Password),
		cfg.Host,
		cfg.Port,
		cfg.Name,
		params.Encode(),
	)
}
