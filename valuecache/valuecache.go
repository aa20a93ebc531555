// Package valuecache deduplicates decoded JSON values into shared, cheap
// to copy handles. The engine exposes one cache to keywords through
// CompileContext.Values and EvaluateContext.Values; the built-in keywords
// keep their enum/const literals as decoded values and do not use it.
package valuecache

import (
	"fmt"
	"sort"
	"sync"

	"github.com/schemagraph/jsonschema/internal/bignum"
	"github.com/schemagraph/jsonschema/jsonvalue"
)

// Handle is an opaque, dense, copyable reference to a cached value.
type Handle int32

// Invalid is returned when a lookup fails.
const Invalid Handle = -1

type kind uint8

const (
	kindNull kind = iota
	kindTrue
	kindFalse
	kindString
	kindNumber
	kindArray
	kindObject
)

type entry struct {
	kind kind
	text string // string text, or a number's canonical decimal/rational text
	arr  []Handle
	keys []string
	vals []Handle
}

// Cache is the engine-owned value deduplication table. Mutation is
// confined to the currently active compile or evaluation, per the
// engine's single-threaded-per-call concurrency model; the mutex here
// only protects against accidental concurrent misuse, not a designed
// concurrent access pattern.
type Cache struct {
	mu      sync.Mutex
	entries []entry

	stringIdx []int // indices into entries, sorted by text, kind==kindString
	numberIdx []int // indices into entries, sorted by canonical text, kind==kindNumber

	objectsByLen map[int][]int
	arraysByLen  map[int][]int

	nullHandle  Handle
	trueHandle  Handle
	falseHandle Handle
}

// New creates an empty value cache.
func New() *Cache {
	return &Cache{
		objectsByLen: make(map[int][]int),
		arraysByLen:  make(map[int][]int),
		nullHandle:   Invalid,
		trueHandle:   Invalid,
		falseHandle:  Invalid,
	}
}

// GetOrInsert returns the handle for v, inserting it if this is the first
// time an equal value has been seen. Equal values always return the same
// handle (P5: get_or_insert(v) == get_or_insert(w) iff v and w are
// JSON-equal).
func (c *Cache) GetOrInsert(v any) (Handle, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.insert(v)
}

func (c *Cache) insert(v any) (Handle, error) {
	switch val := v.(type) {
	case nil:
		if c.nullHandle == Invalid {
			c.nullHandle = c.push(entry{kind: kindNull})
		}
		return c.nullHandle, nil

	case bool:
		if val {
			if c.trueHandle == Invalid {
				c.trueHandle = c.push(entry{kind: kindTrue})
			}
			return c.trueHandle, nil
		}
		if c.falseHandle == Invalid {
			c.falseHandle = c.push(entry{kind: kindFalse})
		}
		return c.falseHandle, nil

	case string:
		return c.insertScalar(kindString, val, &c.stringIdx)

	case jsonvalue.Number:
		rat, err := bignum.Parse(string(val))
		if err != nil {
			return Invalid, fmt.Errorf("valuecache: %w", err)
		}
		return c.insertScalar(kindNumber, rat.RatString(), &c.numberIdx)

	case []any:
		children := make([]Handle, len(val))
		for i, item := range val {
			h, err := c.insert(item)
			if err != nil {
				return Invalid, err
			}
			children[i] = h
		}
		return c.insertArray(children), nil

	case map[string]any:
		keys := make([]string, 0, len(val))
		for k := range val {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		vals := make([]Handle, len(keys))
		for i, k := range keys {
			h, err := c.insert(val[k])
			if err != nil {
				return Invalid, err
			}
			vals[i] = h
		}
		return c.insertObject(keys, vals), nil

	default:
		return Invalid, fmt.Errorf("valuecache: unsupported value type %T", v)
	}
}

func (c *Cache) insertScalar(k kind, text string, idx *[]int) (Handle, error) {
	i := sort.Search(len(*idx), func(i int) bool {
		return c.entries[(*idx)[i]].text >= text
	})
	if i < len(*idx) && c.entries[(*idx)[i]].text == text {
		return Handle((*idx)[i]), nil
	}
	h := c.push(entry{kind: k, text: text})
	*idx = append(*idx, 0)
	copy((*idx)[i+1:], (*idx)[i:])
	(*idx)[i] = int(h)
	return h, nil
}

func (c *Cache) insertArray(children []Handle) Handle {
	bucket := c.arraysByLen[len(children)]
	for _, idx := range bucket {
		if handlesEqual(c.entries[idx].arr, children) {
			return Handle(idx)
		}
	}
	h := c.push(entry{kind: kindArray, arr: children})
	c.arraysByLen[len(children)] = append(bucket, int(h))
	return h
}

func (c *Cache) insertObject(keys []string, vals []Handle) Handle {
	bucket := c.objectsByLen[len(keys)]
	for _, idx := range bucket {
		e := c.entries[idx]
		if stringsEqual(e.keys, keys) && handlesEqual(e.vals, vals) {
			return Handle(idx)
		}
	}
	h := c.push(entry{kind: kindObject, keys: keys, vals: vals})
	c.objectsByLen[len(keys)] = append(bucket, int(h))
	return h
}

func (c *Cache) push(e entry) Handle {
	c.entries = append(c.entries, e)
	return Handle(len(c.entries) - 1)
}

// Value reconstructs the decoded value a handle refers to.
func (c *Cache) Value(h Handle) (any, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if h < 0 || int(h) >= len(c.entries) {
		return nil, false
	}
	return c.reconstruct(c.entries[h]), true
}

func (c *Cache) reconstruct(e entry) any {
	switch e.kind {
	case kindNull:
		return nil
	case kindTrue:
		return true
	case kindFalse:
		return false
	case kindString:
		return e.text
	case kindNumber:
		return jsonvalue.Number(e.text)
	case kindArray:
		out := make([]any, len(e.arr))
		for i, h := range e.arr {
			out[i] = c.reconstruct(c.entries[h])
		}
		return out
	case kindObject:
		out := make(map[string]any, len(e.keys))
		for i, k := range e.keys {
			out[k] = c.reconstruct(c.entries[e.vals[i]])
		}
		return out
	default:
		return nil
	}
}

// Len reports the number of distinct values stored.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

func handlesEqual(a, b []Handle) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func stringsEqual(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
