// Package config loads pagination settings from a file and the environment.
//
// Settings come from, in increasing priority: built-in defaults, an
// optional config file (any format viper reads), and PAGINATION_*
// environment variables (PAGINATION_PAGE_SIZE, PAGINATION_AJAX_METHOD, ...).
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/spf13/viper"

	"github.com/Sternrassler/pagination-go/pkg/cache"
	"github.com/Sternrassler/pagination-go/pkg/datasource"
	"github.com/Sternrassler/pagination-go/pkg/fetch"
	"github.com/Sternrassler/pagination-go/pkg/logging"
	"github.com/Sternrassler/pagination-go/pkg/locator"
	"github.com/Sternrassler/pagination-go/pkg/pagination"
)

// EnvPrefix prefixes every environment override.
const EnvPrefix = "PAGINATION"

// AjaxFile holds the remote request settings.
type AjaxFile struct {
	Method   string            `mapstructure:"method"`
	DataType string            `mapstructure:"data_type"`
	JSONP    string            `mapstructure:"jsonp"`
	Timeout  time.Duration     `mapstructure:"timeout"`
	Zero     bool              `mapstructure:"page_number_start_with_zero"`
	Headers  map[string]string `mapstructure:"headers"`
	CacheTTL time.Duration     `mapstructure:"cache_ttl"`
}

// AliasFile renames the paging parameters.
type AliasFile struct {
	PageNumber string `mapstructure:"page_number"`
	PageSize   string `mapstructure:"page_size"`
}

// CacheFile configures the response cache. An empty RedisAddr with
// L1Size 0 disables caching.
type CacheFile struct {
	RedisAddr string `mapstructure:"redis_addr"`
	L1Size    int    `mapstructure:"l1_size"`
}

// LogFile configures logging.
type LogFile struct {
	Level  string `mapstructure:"level"`
	Pretty bool   `mapstructure:"pretty"`
}

// File is the complete configuration.
type File struct {
	// Source is a URL, "@path" to a JSON file of records or a bag, or empty.
	Source string `mapstructure:"source"`

	Locator      string `mapstructure:"locator"`
	TotalNumber  int    `mapstructure:"total_number"`
	TotalLocator string `mapstructure:"total_locator"`

	PageNumber int `mapstructure:"page_number"`
	PageSize   int `mapstructure:"page_size"`
	// PageRange < 0 lists every page.
	PageRange int `mapstructure:"page_range"`

	ShowPrevious       bool  `mapstructure:"show_previous"`
	ShowNext           bool  `mapstructure:"show_next"`
	ShowPageNumbers    bool  `mapstructure:"show_page_numbers"`
	ShowNavigator      bool  `mapstructure:"show_navigator"`
	ShowGoInput        bool  `mapstructure:"show_go_input"`
	ShowGoButton       bool  `mapstructure:"show_go_button"`
	ShowSizeChanger    bool  `mapstructure:"show_size_changer"`
	SizeChangerOptions []int `mapstructure:"size_changer_options"`
	HideOnlyOnePage    bool  `mapstructure:"hide_only_one_page"`

	PageLink  string `mapstructure:"page_link"`
	ClassName string `mapstructure:"class_name"`
	Position  string `mapstructure:"position"`

	FormatNavigator string `mapstructure:"format_navigator"`

	Alias AliasFile `mapstructure:"alias"`
	Ajax  AjaxFile  `mapstructure:"ajax"`
	Cache CacheFile `mapstructure:"cache"`
	Log   LogFile   `mapstructure:"log"`
}

// setDefaults mirrors pagination.DefaultOptions.
func setDefaults(v *viper.Viper) {
	d := pagination.DefaultOptions()

	v.SetDefault("locator", "data")
	v.SetDefault("total_number", 0)
	v.SetDefault("page_number", d.PageNumber)
	v.SetDefault("page_size", d.PageSize)
	v.SetDefault("page_range", *d.PageRange)
	v.SetDefault("show_previous", d.ShowPrevious)
	v.SetDefault("show_next", d.ShowNext)
	v.SetDefault("show_page_numbers", d.ShowPageNumbers)
	v.SetDefault("show_navigator", d.ShowNavigator)
	v.SetDefault("show_go_input", d.ShowGoInput)
	v.SetDefault("show_go_button", d.ShowGoButton)
	v.SetDefault("show_size_changer", d.ShowSizeChanger)
	v.SetDefault("size_changer_options", d.SizeChangerOptions)
	v.SetDefault("position", d.Position)
	v.SetDefault("format_navigator", d.FormatNavigator)

	v.SetDefault("alias.page_number", "pageNumber")
	v.SetDefault("alias.page_size", "pageSize")

	v.SetDefault("ajax.method", "GET")
	v.SetDefault("ajax.timeout", 0)
	v.SetDefault("ajax.cache_ttl", 0)

	v.SetDefault("cache.redis_addr", "")
	v.SetDefault("cache.l1_size", 0)

	v.SetDefault("log.level", string(logging.LevelInfo))
	v.SetDefault("log.pretty", false)
}

// Load reads path (optional; "" skips the file) and the environment.
func Load(path string) (*File, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	_ = v.BindEnv("cache.redis_addr", "REDIS_ADDR")

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	var f File
	if err := v.Unmarshal(&f); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}
	return &f, nil
}

// DataSource converts Source. "@path" reads a JSON file.
func (f *File) DataSource() (datasource.Source, error) {
	switch {
	case f.Source == "":
		return datasource.Source{}, errors.New("no source configured")
	case strings.HasPrefix(f.Source, "@"):
		raw, err := os.ReadFile(f.Source[1:])
		if err != nil {
			return datasource.Source{}, fmt.Errorf("failed to read source: %w", err)
		}
		var v any
		if err := json.Unmarshal(raw, &v); err != nil {
			return datasource.Source{}, fmt.Errorf("failed to decode source %s: %w", f.Source[1:], err)
		}
		return datasource.FromValue(v)
	default:
		return datasource.Remote(f.Source), nil
	}
}

// AjaxConfig returns the remote request settings.
func (f *File) AjaxConfig() fetch.AjaxConfig {
	return fetch.AjaxConfig{
		Method:                  f.Ajax.Method,
		Headers:                 f.Ajax.Headers,
		DataType:                f.Ajax.DataType,
		JSONP:                   f.Ajax.JSONP,
		Timeout:                 f.Ajax.Timeout,
		PageNumberStartWithZero: f.Ajax.Zero,
		CacheTTL:                f.Ajax.CacheTTL,
	}
}

// Options maps the file onto pagination.DefaultOptions. Callbacks and
// hooks are left for the caller.
func (f *File) Options() (pagination.Options, error) {
	src, err := f.DataSource()
	if err != nil {
		return pagination.Options{}, err
	}

	opts := pagination.DefaultOptions()
	opts.DataSource = src
	opts.Locator = locator.Path(f.Locator)
	opts.TotalNumber = pagination.Int(f.TotalNumber)
	if f.TotalLocator != "" {
		opts.TotalNumberLocator = NumberAt(f.TotalLocator)
	}
	opts.PageNumber = f.PageNumber
	opts.PageSize = f.PageSize
	opts.PageRange = nil
	if f.PageRange >= 0 {
		opts.PageRange = pagination.Int(f.PageRange)
	}

	opts.ShowPrevious = f.ShowPrevious
	opts.ShowNext = f.ShowNext
	opts.ShowPageNumbers = f.ShowPageNumbers
	opts.ShowNavigator = f.ShowNavigator
	opts.ShowGoInput = f.ShowGoInput
	opts.ShowGoButton = f.ShowGoButton
	opts.ShowSizeChanger = f.ShowSizeChanger
	opts.SizeChangerOptions = f.SizeChangerOptions
	opts.HideOnlyOnePage = f.HideOnlyOnePage
	opts.PageLink = f.PageLink
	opts.ClassName = f.ClassName
	opts.Position = f.Position
	opts.FormatNavigator = f.FormatNavigator

	opts.Alias = fetch.Alias{PageNumber: f.Alias.PageNumber, PageSize: f.Alias.PageSize}
	opts.Ajax = f.AjaxConfig()
	return opts, nil
}

// LoggingConfig returns the logging settings.
func (f *File) LoggingConfig() logging.Config {
	cfg := logging.DefaultConfig()
	cfg.Level = logging.LogLevel(f.Log.Level)
	cfg.Pretty = f.Log.Pretty
	return cfg
}

// OpenCache builds the configured response cache: redis behind an
// optional in-memory L1. It returns a nil cache when caching is off.
// closeFn releases the redis connection.
func (c CacheFile) OpenCache() (cc cache.Cache, closeFn func() error, err error) {
	closeFn = func() error { return nil }

	var l1 cache.Cache
	if c.L1Size > 0 {
		mem, err := cache.NewMemoryCache(c.L1Size)
		if err != nil {
			return nil, closeFn, err
		}
		l1 = mem
	}
	if c.RedisAddr == "" {
		return l1, closeFn, nil
	}

	client := redis.NewClient(&redis.Options{Addr: c.RedisAddr})
	closeFn = client.Close
	var l2 cache.Cache = cache.NewRedisCache(client)
	if l1 == nil {
		return l2, closeFn, nil
	}
	return cache.NewLayered(l1, l2), closeFn, nil
}

// NumberAt returns a total locator reading the number at a dotted path.
// Missing or non-numeric values read as 0.
func NumberAt(path string) func(response any) int {
	steps := strings.Split(path, ".")
	return func(response any) int {
		cur := response
		for _, step := range steps {
			m, ok := cur.(map[string]any)
			if !ok {
				return 0
			}
			cur = m[step]
		}
		switch n := cur.(type) {
		case float64:
			return int(n)
		case int:
			return n
		case json.Number:
			i, _ := n.Int64()
			return int(i)
		}
		return 0
	}
}
