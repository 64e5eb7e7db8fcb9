// Package spatialhash provides multi-bucket hash tables for broad phase collision culling. A key may address
// several buckets; an item stored under it is placed in each of them and reported once per query.
package spatialhash

import (
	"github.com/samber/lo"
)

// HashFunc maps a key to every bucket index it addresses. Indices may repeat.
type HashFunc[K any] func(key K) []int

// Table is the surface shared by the dense and sparse tables.
type Table[K any, V comparable] interface {
	Insert(key K, item V) error
	Query(key K) []V
	Remove(key K, item V)
	Clear()
}

// SimpleHashTable is a dense table over a fixed number of buckets. Indices are reduced modulo the table size,
// which must be set with Init before use.
type SimpleHashTable[K any, V comparable] struct {
	hash    HashFunc[K]
	buckets [][]V
}

// NewSimpleHashTable returns an uninitialized dense table.
func NewSimpleHashTable[K any, V comparable](hash HashFunc[K]) *SimpleHashTable[K, V] {
	return &SimpleHashTable[K, V]{hash: hash}
}

// Init allocates size empty buckets, discarding any contents.
func (t *SimpleHashTable[K, V]) Init(size int) error {
	if size <= 0 {
		return ErrZeroTableSize
	}
	t.buckets = make([][]V, size)
	return nil
}

// Size returns the number of buckets.
func (t *SimpleHashTable[K, V]) Size() int { return len(t.buckets) }

func (t *SimpleHashTable[K, V]) slots(key K) []int {
	n := len(t.buckets)
	return lo.Uniq(lo.Map(t.hash(key), func(i, _ int) int {
		return ((i % n) + n) % n
	}))
}

// Insert adds item to every bucket addressed by key.
func (t *SimpleHashTable[K, V]) Insert(key K, item V) error {
	if len(t.buckets) == 0 {
		return ErrZeroTableSize
	}
	for _, s := range t.slots(key) {
		t.buckets[s] = append(t.buckets[s], item)
	}
	return nil
}

// Query returns the items of every bucket addressed by key, each at most once.
func (t *SimpleHashTable[K, V]) Query(key K) []V {
	if len(t.buckets) == 0 {
		return nil
	}
	var found []V
	for _, s := range t.slots(key) {
		found = append(found, t.buckets[s]...)
	}
	return lo.Uniq(found)
}

// Remove deletes item from every bucket addressed by key.
func (t *SimpleHashTable[K, V]) Remove(key K, item V) {
	if len(t.buckets) == 0 {
		return
	}
	for _, s := range t.slots(key) {
		t.buckets[s] = lo.Without(t.buckets[s], item)
	}
}

// Clear empties every bucket and keeps the size.
func (t *SimpleHashTable[K, V]) Clear() {
	for i := range t.buckets {
		t.buckets[i] = nil
	}
}

// SparseHashTable keeps only the buckets that hold items, so indices may span a huge range. No size is
// needed.
type SparseHashTable[K any, V comparable] struct {
	hash    HashFunc[K]
	buckets map[int][]V
}

// NewSparseHashTable returns an empty sparse table.
func NewSparseHashTable[K any, V comparable](hash HashFunc[K]) *SparseHashTable[K, V] {
	return &SparseHashTable[K, V]{hash: hash, buckets: map[int][]V{}}
}

// Init clears the table. The size is ignored.
func (t *SparseHashTable[K, V]) Init(int) error {
	t.Clear()
	return nil
}

// Insert adds item to every bucket addressed by key.
func (t *SparseHashTable[K, V]) Insert(key K, item V) error {
	for _, s := range lo.Uniq(t.hash(key)) {
		t.buckets[s] = append(t.buckets[s], item)
	}
	return nil
}

// Query returns the items of every bucket addressed by key, each at most once.
func (t *SparseHashTable[K, V]) Query(key K) []V {
	var found []V
	for _, s := range lo.Uniq(t.hash(key)) {
		found = append(found, t.buckets[s]...)
	}
	return lo.Uniq(found)
}

// Remove deletes item from every bucket addressed by key. Buckets left empty are dropped.
func (t *SparseHashTable[K, V]) Remove(key K, item V) {
	for _, s := range lo.Uniq(t.hash(key)) {
		bucket, ok := t.buckets[s]
		if !ok {
			continue
		}
		if bucket = lo.Without(bucket, item); len(bucket) == 0 {
			delete(t.buckets, s)
		} else {
			t.buckets[s] = bucket
		}
	}
}

// Clear drops every bucket.
func (t *SparseHashTable[K, V]) Clear() {
	t.buckets = map[int][]V{}
}

// NumBuckets returns the number of non-empty buckets.
func (t *SparseHashTable[K, V]) NumBuckets() int { return len(t.buckets) }
