package cache

import (
	"fmt"
	"net/url"
	"sort"
	"strings"
)

// Key identifies a cached page response.
type Key struct {
	// URL is the data source URL without the paging parameters
	URL string

	// Method is the HTTP method (GET requests are the only ones cached by the fetch engine)
	Method string

	// Params are the request parameters (page number, page size and extras)
	Params url.Values
}

// String generates a deterministic cache key string.
// Format: pagination:METHOD:url:param1=val1:param2=val2
//
// Example:
//
//	pagination:GET:https://api.example.com/items:pageNumber=2:pageSize=10
func (k Key) String() string {
	method := strings.ToUpper(k.Method)
	if method == "" {
		method = "GET"
	}
	parts := []string{"pagination", method, strings.TrimRight(k.URL, "/")}

	if len(k.Params) > 0 {
		keys := make([]string, 0, len(k.Params))
		for key := range k.Params {
			keys = append(keys, key)
		}
		sort.Strings(keys)

		for _, key := range keys {
			values := append([]string(nil), k.Params[key]...)
			sort.Strings(values)
			parts = append(parts, fmt.Sprintf("%s=%s", key, strings.Join(values, ",")))
		}
	}

	return strings.Join(parts, ":")
}
