package fetch

import (
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"dario.cat/mergo"
)

// AjaxConfig holds the per-request settings of the remote transports.
type AjaxConfig struct {
	// Method is the HTTP method of the standard transport (default GET).
	Method string

	// Headers are sent with standard transport requests.
	Headers map[string]string

	// Data holds extra parameters merged over the paging parameters.
	Data map[string]any

	// Body replaces the JSON encoded parameters of non-GET requests.
	// Strings and byte slices are sent as they are, anything else is JSON encoded.
	Body any

	// DataType "jsonp" selects the JSONP transport.
	DataType string

	// JSONP is the name of the callback parameter (default "callback").
	JSONP string

	// Timeout bounds a request. JSONP requests default to the engine's JSONP timeout.
	Timeout time.Duration

	// PageNumberStartWithZero sends the page number zero based.
	PageNumberStartWithZero bool

	// BeforeSend runs before a request is issued; returning false aborts it.
	BeforeSend func(Request) bool

	// CacheTTL enables the engine's response cache for GET requests.
	CacheTTL time.Duration
}

// DefaultAjax returns the settings every request starts from.
func DefaultAjax() AjaxConfig {
	return AjaxConfig{
		Method:  http.MethodGet,
		Headers: map[string]string{"Content-Type": "application/json"},
	}
}

// MergeAjax merges user over DefaultAjax. Set fields of user win; header
// maps are merged key by key.
func MergeAjax(user AjaxConfig) (AjaxConfig, error) {
	settings := DefaultAjax()
	if err := mergo.Merge(&settings, user, mergo.WithOverride); err != nil {
		return AjaxConfig{}, fmt.Errorf("merge ajax settings: %w", err)
	}
	settings.Method = strings.ToUpper(settings.Method)
	return settings, nil
}

// Alias renames the paging parameters sent to the remote endpoint.
type Alias struct {
	PageSize   string
	PageNumber string
}

func (a Alias) pageSize() string {
	if a.PageSize == "" {
		return "pageSize"
	}
	return a.PageSize
}

func (a Alias) pageNumber() string {
	if a.PageNumber == "" {
		return "pageNumber"
	}
	return a.PageNumber
}

// Request is a single remote page request.
type Request struct {
	URL        string
	PageNumber int
	PageSize   int
	Alias      Alias
	Ajax       AjaxConfig
}

// Params returns the paging parameters with Ajax.Data merged over them.
func (r Request) Params() map[string]any {
	number := r.PageNumber
	if r.Ajax.PageNumberStartWithZero {
		number--
	}
	params := map[string]any{
		r.Alias.pageSize():   r.PageSize,
		r.Alias.pageNumber(): number,
	}
	for k, v := range r.Ajax.Data {
		params[k] = v
	}
	return params
}

// Query returns Params as url.Values.
func (r Request) Query() url.Values {
	q := url.Values{}
	for k, v := range r.Params() {
		q.Set(k, fmt.Sprint(v))
	}
	return q
}

// IsJSONP reports whether the request goes through the JSONP transport.
func (r Request) IsJSONP() bool {
	return r.Ajax.DataType == "jsonp" || strings.Contains(r.URL, "=?")
}

// Allowed runs BeforeSend and reports whether the request may proceed.
func (r Request) Allowed() bool {
	if r.Ajax.BeforeSend == nil {
		return true
	}
	return r.Ajax.BeforeSend(r)
}

func (r Request) method() string {
	if r.Ajax.Method == "" {
		return http.MethodGet
	}
	return strings.ToUpper(r.Ajax.Method)
}
