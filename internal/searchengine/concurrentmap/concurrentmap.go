// Package concurrentmap implements a bucketed, mutex-protected integer-keyed
// map used as the parallel relevance accumulator for ranked retrieval. A
// single shared map serialised under one lock would eliminate the benefit
// of the parallel retrieval path; splitting into independently locked
// buckets bounds contention to roughly 1/B of a single global lock.
package concurrentmap

import "sync"

// DefaultBuckets is the bucket count used when no value is supplied. It must
// exceed the expected parallel width; a small prime is adequate.
const DefaultBuckets = 101

type bucket struct {
	mu sync.Mutex
	m  map[int]float64
}

// ShardedMap is a bucketed accumulator from integer document id to
// float64 relevance score. No two concurrent callers ever observe
// inconsistent state for the same key: all access to a key is serialised
// through that key's bucket mutex.
type ShardedMap struct {
	buckets []bucket
}

// New creates a ShardedMap with the given number of buckets. A
// non-positive count falls back to DefaultBuckets.
func New(buckets int) *ShardedMap {
	if buckets <= 0 {
		buckets = DefaultBuckets
	}
	s := &ShardedMap{buckets: make([]bucket, buckets)}
	for i := range s.buckets {
		s.buckets[i].m = make(map[int]float64)
	}
	return s
}

func (s *ShardedMap) bucketFor(key int) *bucket {
	idx := key % len(s.buckets)
	if idx < 0 {
		idx += len(s.buckets)
	}
	return &s.buckets[idx]
}

// Access locks key's bucket for the duration of fn, giving fn mutable
// access to the value slot (zero-valued if previously absent). The lock is
// released when fn returns.
func (s *ShardedMap) Access(key int, fn func(value *float64)) {
	b := s.bucketFor(key)
	b.mu.Lock()
	defer b.mu.Unlock()
	v := b.m[key]
	fn(&v)
	b.m[key] = v
}

// Add adds delta to the value stored at key, creating a zero-valued slot
// first if key is absent.
func (s *ShardedMap) Add(key int, delta float64) {
	s.Access(key, func(v *float64) { *v += delta })
}

// Erase removes key from its bucket, if present.
func (s *ShardedMap) Erase(key int) {
	b := s.bucketFor(key)
	b.mu.Lock()
	delete(b.m, key)
	b.mu.Unlock()
}

// BuildOrdered locks each bucket in turn and merges the contents into a
// single map snapshot.
func (s *ShardedMap) BuildOrdered() map[int]float64 {
	result := make(map[int]float64)
	for i := range s.buckets {
		b := &s.buckets[i]
		b.mu.Lock()
		for k, v := range b.m {
			result[k] = v
		}
		b.mu.Unlock()
	}
	return result
}
