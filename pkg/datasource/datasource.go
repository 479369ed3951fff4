// Package datasource models the shapes a pagination data source can take
// and resolves them into either local records or a remote URL.
package datasource

import (
	"reflect"

	"github.com/Sternrassler/pagination-go/pkg/errs"
	"github.com/Sternrassler/pagination-go/pkg/locator"
)

// Kind tags the variant held by a Source.
type Kind int

const (
	// KindInvalid is the zero Source.
	KindInvalid Kind = iota

	// KindRecords is an in-memory sequence of records.
	KindRecords

	// KindBag is an object holding the records under a locator path.
	KindBag

	// KindProducer is a function that hands the data to a callback, possibly later.
	KindProducer

	// KindRemote is a URL fetched page by page.
	KindRemote
)

// String returns the kind name.
func (k Kind) String() string {
	switch k {
	case KindRecords:
		return "records"
	case KindBag:
		return "bag"
	case KindProducer:
		return "producer"
	case KindRemote:
		return "remote"
	default:
		return "invalid"
	}
}

// ProducerFunc hands its data to done. done may be called from any goroutine.
type ProducerFunc func(done func(any))

// Source is a tagged data source. Build one with Records, Slice, Bag,
// Producer, Remote or FromValue.
type Source struct {
	kind     Kind
	records  []any
	bag      any
	producer ProducerFunc
	url      string
}

// Records returns a Source over an in-memory sequence.
func Records(records []any) Source {
	if records == nil {
		records = []any{}
	}
	return Source{kind: KindRecords, records: records}
}

// Slice returns a Source over a typed slice.
func Slice[T any](items []T) Source {
	records := make([]any, len(items))
	for i, it := range items {
		records[i] = it
	}
	return Source{kind: KindRecords, records: records}
}

// Bag returns a Source whose records live under the instance locator.
func Bag(bag map[string]any) Source {
	return Source{kind: KindBag, bag: bag}
}

// Producer returns a Source that calls fn to obtain its data.
func Producer(fn ProducerFunc) Source {
	return Source{kind: KindProducer, producer: fn}
}

// Remote returns a Source fetched from url on every page request.
func Remote(url string) Source {
	return Source{kind: KindRemote, url: url}
}

// FromValue classifies an untyped value: slices become records, string-keyed
// maps become bags, strings become remote URLs and functions become producers.
func FromValue(v any) (Source, error) {
	switch val := v.(type) {
	case Source:
		return val, nil
	case []any:
		return Records(val), nil
	case map[string]any:
		return Bag(val), nil
	case string:
		return Remote(val), nil
	case ProducerFunc:
		return Producer(val), nil
	case func(done func(any)):
		return Producer(val), nil
	}

	if v != nil {
		rv := reflect.ValueOf(v)
		switch {
		case rv.Kind() == reflect.Slice || rv.Kind() == reflect.Array:
			records, _ := locator.AsSlice(v)
			return Records(records), nil
		case rv.Kind() == reflect.Map && rv.Type().Key().Kind() == reflect.String:
			return Source{kind: KindBag, bag: v}, nil
		}
	}
	return Source{}, errs.DataSource("unexpected type")
}

// Kind returns the variant tag.
func (s Source) Kind() Kind {
	return s.kind
}

// IsZero reports whether the Source was never set.
func (s Source) IsZero() bool {
	return s.kind == KindInvalid
}

// URL returns the remote URL for KindRemote sources.
func (s Source) URL() string {
	return s.url
}

// Items returns the records of a KindRecords source.
func (s Source) Items() []any {
	return s.records
}

// Resolved is the outcome of resolving a Source once at initialization.
type Resolved struct {
	Records []any
	URL     string
	remote  bool
}

// IsRemote reports whether pages must be fetched from URL.
func (r Resolved) IsRemote() bool {
	return r.remote
}

// Resolve materializes src. onReady is called exactly once on success;
// onError is called on failure. Producer sources may call back later, from
// another goroutine, in which case Resolve returns before either is called.
func Resolve(src Source, loc locator.Spec, onReady func(Resolved), onError func(error)) {
	switch src.kind {
	case KindBag:
		records, err := locator.Resolve(src.bag, loc)
		if err != nil {
			onError(err)
			return
		}
		onReady(Resolved{Records: records})
	case KindRecords:
		onReady(Resolved{Records: src.records})
	case KindProducer:
		src.producer(func(v any) {
			next, err := FromValue(v)
			if err != nil {
				onError(err)
				return
			}
			if next.kind == KindProducer || next.kind == KindRemote {
				onError(errs.DataSource("the data passed to the dataSource callback must be an array"))
				return
			}
			Resolve(next, loc, onReady, onError)
		})
	case KindRemote:
		onReady(Resolved{URL: src.url, remote: true})
	default:
		onError(errs.DataSource("unexpected type"))
	}
}
