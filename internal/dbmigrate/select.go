package dbmigrate

import (
	"fmt"

	"github.com/fdg312/coach-hub/internal/config"
)

// Selection is the database URL chosen for a migration run.
type Selection struct {
	URL     string
	Source  string // env var the URL came from
	Warning string
}

// SelectDatabaseURL picks the URL for DDL.
// Priority: DATABASE_URL_DIRECT > DATABASE_URL > DATABASE_URL_POOLED (with warning).
// With requireDirect only DATABASE_URL_DIRECT is accepted.
func SelectDatabaseURL(cfg *config.Config, requireDirect bool) (Selection, error) {
	if requireDirect {
		if cfg.DatabaseURLDirect == "" {
			return Selection{}, fmt.Errorf("DATABASE_URL_DIRECT is required for DDL/migrations")
		}
		return Selection{URL: cfg.DatabaseURLDirect, Source: "DATABASE_URL_DIRECT"}, nil
	}

	switch {
	case cfg.DatabaseURLDirect != "":
		return Selection{URL: cfg.DatabaseURLDirect, Source: "DATABASE_URL_DIRECT"}, nil
	case cfg.DatabaseURLRaw != "":
		return Selection{URL: cfg.DatabaseURLRaw, Source: "DATABASE_URL"}, nil
	case cfg.DatabaseURLPooled != "":
		return Selection{
			URL:     cfg.DatabaseURLPooled,
			Source:  "DATABASE_URL_POOLED",
			Warning: "using pooled connection for DDL is not recommended; set DATABASE_URL_DIRECT",
		}, nil
	}

	return Selection{}, fmt.Errorf("no database URL configured (set DATABASE_URL_DIRECT or DATABASE_URL)")
}
