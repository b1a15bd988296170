package app

import (
	"net/url"
	"strings"
)

// normalizeDBURL appends the lib/pq option that turns prepared binary
// results off; pooled connections in front of the archive database reject
// them. An explicit setting in the URL wins.
func normalizeDBURL(raw string, disablePreparedBinaryResult bool) string {
	if !disablePreparedBinaryResult {
		return raw
	}

	parsed, err := url.Parse(raw)
	if err != nil || parsed == nil {
		return raw
	}

	query := parsed.Query()
	if query.Has("disable_prepared_binary_result") && query.Get("disable_prepared_binary_result") != "" {
		return raw
	}
	query.Set("disable_prepared_binary_result", "yes")
	parsed.RawQuery = query.Encode()

	return parsed.String()
}

// dbNameFromURL extracts the database name for span attributes. Both URL
// and key=value DSN styles show up in deployments.
func dbNameFromURL(raw string) string {
	raw = strings.TrimSpace(raw)

	if parsed, err := url.Parse(raw); err == nil && parsed != nil && parsed.Scheme != "" {
		if name := strings.Trim(parsed.Path, "/ "); name != "" {
			return name
		}
	}

	for _, field := range strings.Fields(raw) {
		value, ok := strings.CutPrefix(field, "dbname=")
		if !ok {
			continue
		}
		if name := strings.Trim(value, `"' `); name != "" {
			return name
		}
	}

	return ""
}
