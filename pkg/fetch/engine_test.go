package fetch

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Sternrassler/pagination-go/internal/testutil"
	"github.com/Sternrassler/pagination-go/pkg/cache"
	"github.com/Sternrassler/pagination-go/pkg/errs"
)

func newTestEngine(t *testing.T, mock *testutil.MockAPI, c cache.Cache) *Engine {
	t.Helper()
	cfg := DefaultConfig()
	cfg.HTTPClient = mock.Client()
	cfg.Cache = c
	e, err := NewEngine(cfg)
	require.NoError(t, err)
	return e
}

func TestNewEngine_Validation(t *testing.T) {
	cfg := DefaultConfig()
	cfg.HTTPClient = nil
	_, err := NewEngine(cfg)
	assert.Error(t, err)

	cfg = DefaultConfig()
	cfg.JSONPTimeout = 0
	_, err = NewEngine(cfg)
	assert.Error(t, err)

	_, err = NewEngine(DefaultConfig())
	assert.NoError(t, err)
}

func TestEngine_StandardGET(t *testing.T) {
	mock := testutil.NewMockAPI(testutil.Records(25))
	defer mock.Close()
	e := newTestEngine(t, mock, nil)

	resp, err := e.Do(context.Background(), Request{
		URL:        mock.URL() + "/items?q=x",
		PageNumber: 3,
		PageSize:   10,
	})
	require.NoError(t, err)

	body := resp.(map[string]any)
	assert.Equal(t, float64(25), body["total"])
	assert.Len(t, body["data"], 5)

	q := mock.GetLastQuery()
	assert.Equal(t, "x", q.Get("q"))
	assert.Equal(t, "3", q.Get("pageNumber"))
	assert.Equal(t, "10", q.Get("pageSize"))
}

func TestEngine_StandardPOST(t *testing.T) {
	mock := testutil.NewMockAPI(testutil.Records(25))
	defer mock.Close()
	e := newTestEngine(t, mock, nil)

	ajax, err := MergeAjax(AjaxConfig{Method: "POST"})
	require.NoError(t, err)
	_, err = e.Do(context.Background(), Request{URL: mock.URL() + "/items", PageNumber: 2, PageSize: 10, Ajax: ajax})
	require.NoError(t, err)

	var sent map[string]any
	require.NoError(t, json.Unmarshal(mock.GetLastBody(), &sent))
	assert.Equal(t, float64(2), sent["pageNumber"])
	assert.Empty(t, mock.GetLastQuery())

	ajax.Body = `{"custom":true}`
	_, err = e.Do(context.Background(), Request{URL: mock.URL() + "/items", PageNumber: 2, PageSize: 10, Ajax: ajax})
	require.NoError(t, err)
	assert.Equal(t, `{"custom":true}`, string(mock.GetLastBody()))
}

func TestEngine_StandardErrors(t *testing.T) {
	mock := testutil.NewMockAPI(nil)
	defer mock.Close()
	mock.SetResponse("/broken", testutil.NewServerErrorResponse())
	mock.SetResponse("/garbage", testutil.NewJSONResponse("not json"))
	e := newTestEngine(t, mock, nil)

	tests := []struct {
		path   string
		status int
	}{
		{"/broken", http.StatusInternalServerError},
		{"/garbage", 0},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			_, err := e.Do(context.Background(), Request{URL: mock.URL() + tt.path, PageNumber: 1, PageSize: 10})
			require.Error(t, err)

			var fe *Error
			require.True(t, errors.As(err, &fe))
			assert.Equal(t, TagFetch, fe.Tag)
			assert.Equal(t, tt.status, fe.StatusCode)
			assert.True(t, errors.Is(err, errs.ErrFetch))
			assert.Equal(t, errs.KindFetch, errs.KindOf(err))
			assert.Equal(t, TagFetch, TagOf(err))
		})
	}
}

func TestEngine_Cancelled(t *testing.T) {
	mock := testutil.NewMockAPI(testutil.Records(5))
	defer mock.Close()
	mock.SetPageDelay(1, 500*time.Millisecond)
	e := newTestEngine(t, mock, nil)

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(20 * time.Millisecond)
		cancel()
	}()
	_, err := e.Do(ctx, Request{URL: mock.URL() + "/items", PageNumber: 1, PageSize: 5})
	assert.True(t, errors.Is(err, context.Canceled), "got %v", err)
}

func TestEngine_Timeout(t *testing.T) {
	mock := testutil.NewMockAPI(testutil.Records(5))
	defer mock.Close()
	mock.SetPageDelay(1, 500*time.Millisecond)
	e := newTestEngine(t, mock, nil)

	_, err := e.Do(context.Background(), Request{
		URL:        mock.URL() + "/items",
		PageNumber: 1,
		PageSize:   5,
		Ajax:       AjaxConfig{Timeout: 20 * time.Millisecond},
	})
	assert.True(t, errors.Is(err, errs.ErrFetch), "got %v", err)
}

func TestEngine_CachesGET(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	l1, err := cache.NewMemoryCache(16)
	require.NoError(t, err)
	layered := cache.NewLayered(l1, cache.NewRedisCache(client))

	mock := testutil.NewMockAPI(testutil.Records(12))
	defer mock.Close()
	e := newTestEngine(t, mock, layered)

	req := Request{URL: mock.URL() + "/items", PageNumber: 2, PageSize: 5, Ajax: AjaxConfig{CacheTTL: time.Minute}}
	first, err := e.Do(context.Background(), req)
	require.NoError(t, err)
	second, err := e.Do(context.Background(), req)
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, 1, mock.GetRequestCount(), "second request should be served from cache")
	assert.Equal(t, 1, l1.Len())

	req.PageNumber = 3
	_, err = e.Do(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, 2, mock.GetRequestCount(), "other pages are cached under their own key")

	req.Ajax.CacheTTL = 0
	_, err = e.Do(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, 3, mock.GetRequestCount(), "requests without a TTL bypass the cache")
}
