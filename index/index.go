// Package index builds value lookup indexes over mmappet columns.
// Columns are immutable once a dataset is open, so every index here is
// built by one full scan and read-only afterward, which makes lookups
// safe to share across goroutines without locking.
package index

import (
	"encoding/binary"
	"fmt"
	"math"
	"sort"
	"sync"

	roaring "github.com/RoaringBitmap/roaring"
	bloom "github.com/bits-and-blooms/bloom/v3"
	murmur3 "github.com/spaolacci/murmur3"

	"github.com/TFMV/mmappet/column"
	"github.com/TFMV/mmappet/dtype"
)

// ---------------------------------------------------------------------
// Strategy: Defines which indexing strategy to use
// ---------------------------------------------------------------------

type Strategy int

const (
	RoaringBitmap Strategy = iota
	HashIndex
	Bloom
	SortedColumn
)

// ---------------------------------------------------------------------
// Index: The universal interface for all index implementations
// ---------------------------------------------------------------------

// Index resolves a value key (raw element bit pattern, see keyAt) to
// the rows holding that value.
type Index interface {
	// Search returns all row IDs whose element matches key.
	Search(key uint64) ([]uint32, error)
	// Cardinality returns the number of distinct values indexed.
	Cardinality() int
}

// Settings tunes index construction.
type Settings struct {
	// BloomFilterFPRate is the desired false-positive rate for the Bloom filter.
	BloomFilterFPRate float64
}

// ---------------------------------------------------------------------
// Manager: one set of indexes per column name
// ---------------------------------------------------------------------

type Manager struct {
	mu       sync.RWMutex
	indexes  map[string]map[Strategy]builtIndex
	settings Settings
}

type builtIndex struct {
	idx Index
	dt  dtype.DType
}

// NewManager creates an index manager with the given settings.
func NewManager(settings Settings) *Manager {
	if settings.BloomFilterFPRate <= 0 {
		settings.BloomFilterFPRate = 0.01
	}
	return &Manager{
		indexes:  make(map[string]map[Strategy]builtIndex),
		settings: settings,
	}
}

// Build scans col once and registers an index of the given strategy
// under name.
func (m *Manager) Build(name string, col *column.Column, strategy Strategy) error {
	ta := col.Typed()

	var idx Index
	switch strategy {
	case RoaringBitmap:
		idx = buildRoaring(ta)
	case HashIndex:
		idx = buildHash(ta)
	case Bloom:
		idx = buildBloom(ta, m.settings.BloomFilterFPRate)
	case SortedColumn:
		idx = buildSorted(ta)
	default:
		return fmt.Errorf("unsupported index strategy: %v", strategy)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.indexes[name] == nil {
		m.indexes[name] = make(map[Strategy]builtIndex)
	}
	m.indexes[name][strategy] = builtIndex{idx: idx, dt: col.DType()}
	return nil
}

// Get retrieves an existing index for a column name and strategy.
func (m *Manager) Get(name string, strategy Strategy) (Index, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	strats, ok := m.indexes[name]
	if !ok {
		return nil, false
	}
	b, exists := strats[strategy]
	return b.idx, exists
}

// Search looks up value (given as float64, converted exactly to the
// column's dtype) in the named index.
func (m *Manager) Search(name string, strategy Strategy, value float64) ([]uint32, error) {
	m.mu.RLock()
	strats, ok := m.indexes[name]
	var b builtIndex
	if ok {
		b, ok = strats[strategy]
	}
	m.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("no index with strategy %v for column %q", strategy, name)
	}
	return b.idx.Search(keyFor(b.dt, value))
}

// SearchRange returns the rows whose value lies in [lo, hi]. Only
// SortedColumn indexes support range lookups.
func (m *Manager) SearchRange(name string, lo, hi float64) ([]uint32, error) {
	m.mu.RLock()
	strats, ok := m.indexes[name]
	var b builtIndex
	if ok {
		b, ok = strats[SortedColumn]
	}
	m.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("no sorted index for column %q", name)
	}
	return b.idx.(*sortedIndex).searchRange(lo, hi), nil
}

// ---------------------------------------------------------------------
// Value keys
//
//    Elements are keyed by their raw bit pattern widened to uint64,
//    so lookups stay exact for every kind including 64-bit integers.
// ---------------------------------------------------------------------

func keyAt(ta column.TypedArray, i int) uint64 {
	switch ta.DType() {
	case dtype.UInt8:
		return uint64(ta.Uint8s()[i])
	case dtype.Int8:
		return uint64(uint8(ta.Int8s()[i]))
	case dtype.UInt16:
		return uint64(ta.Uint16s()[i])
	case dtype.Int16:
		return uint64(uint16(ta.Int16s()[i]))
	case dtype.UInt32:
		return uint64(ta.Uint32s()[i])
	case dtype.Int32:
		return uint64(uint32(ta.Int32s()[i]))
	case dtype.UInt64:
		return ta.Uint64s()[i]
	case dtype.Int64:
		return uint64(ta.Int64s()[i])
	case dtype.Float32:
		return uint64(math.Float32bits(ta.Float32s()[i]))
	case dtype.Float64:
		return math.Float64bits(ta.Float64s()[i])
	default:
		return uint64(ta.Bools()[i])
	}
}

func keyFor(dt dtype.DType, value float64) uint64 {
	switch dt {
	case dtype.UInt8, dtype.UInt16, dtype.UInt32, dtype.UInt64:
		return uint64(value)
	case dtype.Int8:
		return uint64(uint8(int8(value)))
	case dtype.Int16:
		return uint64(uint16(int16(value)))
	case dtype.Int32:
		return uint64(uint32(int32(value)))
	case dtype.Int64:
		return uint64(int64(value))
	case dtype.Float32:
		return uint64(math.Float32bits(float32(value)))
	case dtype.Float64:
		return math.Float64bits(value)
	default:
		if value != 0 {
			return 1
		}
		return 0
	}
}

// ---------------------------------------------------------------------
// 1) Roaring Bitmap Index
//
//    Maps each distinct value key -> roaring.Bitmap of row IDs.
// ---------------------------------------------------------------------

type roaringIndex struct {
	values map[uint64]*roaring.Bitmap
}

func buildRoaring(ta column.TypedArray) Index {
	r := &roaringIndex{values: make(map[uint64]*roaring.Bitmap)}
	for i := 0; i < ta.Len(); i++ {
		key := keyAt(ta, i)
		bm, ok := r.values[key]
		if !ok {
			bm = roaring.New()
			r.values[key] = bm
		}
		bm.Add(uint32(i))
	}
	return r
}

func (r *roaringIndex) Search(key uint64) ([]uint32, error) {
	bm, ok := r.values[key]
	if !ok {
		return nil, nil
	}
	return bm.ToArray(), nil
}

func (r *roaringIndex) Cardinality() int {
	return len(r.values)
}

// ---------------------------------------------------------------------
// 2) Hash Index
//
//    Murmur3-hashes each value key into a bucket; within each bucket
//    stores key -> roaring bitmap of row IDs.
// ---------------------------------------------------------------------

type hashIndex struct {
	buckets     map[uint64]map[uint64]*roaring.Bitmap
	cardinality int
}

func buildHash(ta column.TypedArray) Index {
	h := &hashIndex{buckets: make(map[uint64]map[uint64]*roaring.Bitmap)}
	for i := 0; i < ta.Len(); i++ {
		key := keyAt(ta, i)
		hk := murmurKey(key)
		submap, ok := h.buckets[hk]
		if !ok {
			submap = make(map[uint64]*roaring.Bitmap)
			h.buckets[hk] = submap
		}
		bm, ok := submap[key]
		if !ok {
			bm = roaring.New()
			submap[key] = bm
			h.cardinality++
		}
		bm.Add(uint32(i))
	}
	return h
}

func (h *hashIndex) Search(key uint64) ([]uint32, error) {
	submap, ok := h.buckets[murmurKey(key)]
	if !ok {
		return nil, nil
	}
	bm, ok := submap[key]
	if !ok {
		return nil, nil
	}
	return bm.ToArray(), nil
}

func (h *hashIndex) Cardinality() int {
	return h.cardinality
}

// murmurKey hashes a value key to a 64-bit bucket key.
func murmurKey(key uint64) uint64 {
	var buf [8]byte
	binary.LittleEndian.PutUint64(buf[:], key)
	return murmur3.Sum64(buf[:])
}

// ---------------------------------------------------------------------
// 3) Bloom Filter Index
//
//    The bloom filter answers "definitely absent" without touching the
//    value map; possible hits fall through to an exact map lookup.
// ---------------------------------------------------------------------

type bloomIndex struct {
	filter *bloom.BloomFilter
	values map[uint64]*roaring.Bitmap
}

func buildBloom(ta column.TypedArray, fpRate float64) Index {
	n := ta.Len()
	if n == 0 {
		n = 1
	}
	b := &bloomIndex{
		filter: bloom.NewWithEstimates(uint(n), fpRate),
		values: make(map[uint64]*roaring.Bitmap),
	}
	var buf [8]byte
	for i := 0; i < ta.Len(); i++ {
		key := keyAt(ta, i)
		binary.LittleEndian.PutUint64(buf[:], key)
		b.filter.Add(buf[:])

		bm, ok := b.values[key]
		if !ok {
			bm = roaring.New()
			b.values[key] = bm
		}
		bm.Add(uint32(i))
	}
	return b
}

func (b *bloomIndex) Search(key uint64) ([]uint32, error) {
	var buf [8]byte
	binary.LittleEndian.PutUint64(buf[:], key)
	if !b.filter.Test(buf[:]) {
		// Definitely not present
		return nil, nil
	}
	bm, ok := b.values[key]
	if !ok {
		return nil, nil
	}
	return bm.ToArray(), nil
}

func (b *bloomIndex) Cardinality() int {
	return len(b.values)
}

// ---------------------------------------------------------------------
// 4) Sorted Column Index
//
//    Stores (value, rowID) entries sorted by the value widened to
//    float64. Equality and range lookups find the left boundary by
//    binary search and walk adjacent matches.
// ---------------------------------------------------------------------

type sortedIndex struct {
	entries     []sortedEntry
	cardinality int
}

type sortedEntry struct {
	value float64
	key   uint64
	rowID uint32
}

func buildSorted(ta column.TypedArray) Index {
	s := &sortedIndex{entries: make([]sortedEntry, ta.Len())}
	for i := 0; i < ta.Len(); i++ {
		s.entries[i] = sortedEntry{
			value: ta.Float64At(i),
			key:   keyAt(ta, i),
			rowID: uint32(i),
		}
	}
	sort.Slice(s.entries, func(i, j int) bool {
		if s.entries[i].value != s.entries[j].value {
			return s.entries[i].value < s.entries[j].value
		}
		return s.entries[i].rowID < s.entries[j].rowID
	})
	seen := make(map[uint64]struct{}, len(s.entries))
	for _, e := range s.entries {
		seen[e.key] = struct{}{}
	}
	s.cardinality = len(seen)
	return s
}

func (s *sortedIndex) Search(key uint64) ([]uint32, error) {
	var result []uint32
	for _, e := range s.entries {
		if e.key == key {
			result = append(result, e.rowID)
		}
	}
	return result, nil
}

func (s *sortedIndex) searchRange(lo, hi float64) []uint32 {
	n := len(s.entries)
	left := sort.Search(n, func(i int) bool {
		return s.entries[i].value >= lo
	})

	var result []uint32
	for i := left; i < n && s.entries[i].value <= hi; i++ {
		result = append(result, s.entries[i].rowID)
	}
	return result
}

func (s *sortedIndex) Cardinality() int {
	return s.cardinality
}
