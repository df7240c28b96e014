package database

import (
	"fmt"
	"strings"
)

// ConstructDatabaseURL appends databaseName to baseURL, keeping any query
// string and defaulting sslmode to disable. An empty name returns baseURL.
func ConstructDatabaseURL(baseURL, databaseName string) string {
	if databaseName == "" {
		return baseURL
	}

	baseURL = strings.TrimRight(baseURL, "/")
	path, query, hasQuery := strings.Cut(baseURL, "?")

	databaseURL := path + "/" + databaseName
	if hasQuery {
		databaseURL += "?" + query
	}

	if !strings.Contains(databaseURL, "sslmode=") {
		separator := "&"
		if !hasQuery {
			separator = "?"
		}
		databaseURL = fmt.Sprintf("%s%ssslmode=disable", databaseURL, separator)
	}

	return databaseURL
}
