package config

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Sternrassler/pagination-go/pkg/cache"
	"github.com/Sternrassler/pagination-go/pkg/datasource"
	"github.com/Sternrassler/pagination-go/pkg/logging"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestSetDefaults(t *testing.T) {
	v := viper.New()
	setDefaults(v)

	assert.Equal(t, 1, v.GetInt("page_number"))
	assert.Equal(t, 10, v.GetInt("page_size"))
	assert.Equal(t, 2, v.GetInt("page_range"))
	assert.True(t, v.GetBool("show_previous"))
	assert.False(t, v.GetBool("show_navigator"))
	assert.Equal(t, "data", v.GetString("locator"))
	assert.Equal(t, "bottom", v.GetString("position"))
	assert.Equal(t, "GET", v.GetString("ajax.method"))
	assert.Equal(t, "info", v.GetString("log.level"))
}

func TestLoad_Defaults(t *testing.T) {
	f, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, 10, f.PageSize)
	assert.Equal(t, "pageNumber", f.Alias.PageNumber)
	assert.Equal(t, []int{10, 20, 50, 100}, f.SizeChangerOptions)

	_, err = f.Options()
	assert.Error(t, err, "a source is required")
}

func TestLoad_File(t *testing.T) {
	path := writeFile(t, "pagination.yaml", `
source: "https://api.example.com/items?callback=?"
total_locator: "meta.total"
page_size: 25
page_range: -1
show_navigator: true
ajax:
  method: post
  timeout: 3s
  jsonp: cb
  page_number_start_with_zero: true
  headers:
    X-Token: abc
alias:
  page_number: page
cache:
  l1_size: 64
log:
  level: debug
  pretty: true
`)

	f, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 25, f.PageSize)
	assert.Equal(t, 3*time.Second, f.Ajax.Timeout)
	assert.Equal(t, "abc", f.Ajax.Headers["x-token"], "viper lower-cases keys")
	assert.Equal(t, "pageSize", f.Alias.PageSize, "unset keys keep their defaults")

	opts, err := f.Options()
	require.NoError(t, err)
	assert.Equal(t, datasource.KindRemote, opts.DataSource.Kind())
	assert.Nil(t, opts.PageRange, "negative range lists every page")
	assert.True(t, opts.ShowNavigator)
	assert.Equal(t, "page", opts.Alias.PageNumber)
	assert.True(t, opts.Ajax.PageNumberStartWithZero)
	assert.Equal(t, "cb", opts.Ajax.JSONP)
	require.NotNil(t, opts.TotalNumberLocator)
	assert.Equal(t, 42, opts.TotalNumberLocator(map[string]any{"meta": map[string]any{"total": float64(42)}}))

	logCfg := f.LoggingConfig()
	assert.Equal(t, logging.LevelDebug, logCfg.Level)
	assert.True(t, logCfg.Pretty)
}

func TestLoad_EnvOverrides(t *testing.T) {
	path := writeFile(t, "pagination.yaml", "page_size: 25\n")
	t.Setenv("PAGINATION_PAGE_SIZE", "40")
	t.Setenv("PAGINATION_AJAX_METHOD", "PUT")
	t.Setenv("REDIS_ADDR", "cache:6379")

	f, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 40, f.PageSize)
	assert.Equal(t, "PUT", f.Ajax.Method)
	assert.Equal(t, "cache:6379", f.Cache.RedisAddr)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestDataSource_File(t *testing.T) {
	t.Run("records", func(t *testing.T) {
		path := writeFile(t, "records.json", `[{"id":1},{"id":2},{"id":3}]`)
		f := &File{Source: "@" + path}

		src, err := f.DataSource()
		require.NoError(t, err)
		assert.Equal(t, datasource.KindRecords, src.Kind())
		assert.Len(t, src.Items(), 3)
	})

	t.Run("bag", func(t *testing.T) {
		path := writeFile(t, "bag.json", `{"data":{"rows":[1,2]}}`)
		f := &File{Source: "@" + path, Locator: "data.rows", PageSize: 1, PageNumber: 1}

		opts, err := f.Options()
		require.NoError(t, err)
		assert.Equal(t, datasource.KindBag, opts.DataSource.Kind())

		var got []any
		datasource.Resolve(opts.DataSource, opts.Locator, func(r datasource.Resolved) { got = r.Records }, func(err error) { t.Fatal(err) })
		assert.Equal(t, []any{float64(1), float64(2)}, got)
	})

	t.Run("bad json", func(t *testing.T) {
		path := writeFile(t, "bad.json", `{`)
		_, err := (&File{Source: "@" + path}).DataSource()
		assert.Error(t, err)
	})

	t.Run("missing file", func(t *testing.T) {
		_, err := (&File{Source: "@/does/not/exist.json"}).DataSource()
		assert.Error(t, err)
	})
}

func TestNumberAt(t *testing.T) {
	at := NumberAt("meta.total")

	assert.Equal(t, 7, at(map[string]any{"meta": map[string]any{"total": float64(7)}}))
	assert.Equal(t, 0, at(map[string]any{"meta": "x"}))
	assert.Equal(t, 0, at(nil))
	assert.Equal(t, 3, NumberAt("total")(map[string]any{"total": 3}))
}

func TestOpenCache(t *testing.T) {
	ctx := context.Background()
	key := cache.Key{URL: "https://api.example.com/items", Method: "GET"}

	t.Run("disabled", func(t *testing.T) {
		c, closeFn, err := CacheFile{}.OpenCache()
		require.NoError(t, err)
		assert.Nil(t, c)
		assert.NoError(t, closeFn())
	})

	t.Run("memory only", func(t *testing.T) {
		c, _, err := CacheFile{L1Size: 8}.OpenCache()
		require.NoError(t, err)
		assert.IsType(t, &cache.MemoryCache{}, c)
	})

	t.Run("layered", func(t *testing.T) {
		mr := miniredis.RunT(t)
		c, closeFn, err := CacheFile{RedisAddr: mr.Addr(), L1Size: 8}.OpenCache()
		require.NoError(t, err)
		defer closeFn()
		assert.IsType(t, &cache.Layered{}, c)

		require.NoError(t, c.Set(ctx, key, cache.NewEntry([]byte(`{"data":[]}`), 200, time.Minute)))
		got, err := c.Get(ctx, key)
		require.NoError(t, err)
		assert.Equal(t, 200, got.StatusCode)
		assert.NotEmpty(t, mr.Keys(), "written through to redis")
	})

	t.Run("redis only", func(t *testing.T) {
		mr := miniredis.RunT(t)
		c, closeFn, err := CacheFile{RedisAddr: mr.Addr()}.OpenCache()
		require.NoError(t, err)
		defer closeFn()
		assert.IsType(t, &cache.RedisCache{}, c)
	})
}
