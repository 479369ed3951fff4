package registry

import (
	"runtime"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Sternrassler/pagination-go/pkg/dom"
)

func TestRegistry_UpdateAndGet(t *testing.T) {
	doc := dom.NewDocument()
	a := doc.CreateElement("div")
	b := doc.CreateElement("div")
	r := New[string]()

	_, ok := r.Get(a)
	assert.False(t, ok)

	r.Update(a, func(e *Entry[string]) {
		e.Initialized = true
		e.Instance = "first"
	})
	r.Update(b, func(e *Entry[string]) { e.Instance = "other" })

	got, ok := r.Get(a)
	require.True(t, ok)
	assert.True(t, got.Initialized)
	assert.Equal(t, "first", got.Instance)

	got.Instance = "mutated copy"
	again, _ := r.Get(a)
	assert.Equal(t, "first", again.Instance, "Get returns a copy")

	r.Update(a, func(e *Entry[string]) {
		e.Destroyed = true
		e.Initialized = false
		e.CurrentPageData = []any{1, 2}
	})
	got, _ = r.Get(a)
	assert.True(t, got.Destroyed)
	assert.Equal(t, []any{1, 2}, got.CurrentPageData)
	assert.Equal(t, 2, r.Len())
}

func TestRegistry_DropsCollectedContainers(t *testing.T) {
	r := New[int]()
	func() {
		el := dom.NewDocument().CreateElement("div")
		r.Update(el, func(e *Entry[int]) { e.Instance = 1 })
	}()
	require.Equal(t, 1, r.Len())

	deadline := time.Now().Add(5 * time.Second)
	for r.Len() > 0 && time.Now().Before(deadline) {
		runtime.GC()
		time.Sleep(10 * time.Millisecond)
	}
	assert.Equal(t, 0, r.Len())
}
