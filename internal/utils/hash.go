package utils

import "hash/fnv"

// StableHash is FNV-1a over s. It is stable across runs and platforms.
func StableHash(s string) uint64 {
	h := fnv.New64a()
	_, _ = h.Write([]byte(s))
	return h.Sum64()
}

// Bucket maps s onto [0, n). n must be positive.
func Bucket(s string, n int) int {
	return int(StableHash(s) % uint64(n))
}

// SignedBucket is Bucket plus a sign taken from the top bit of the hash,
// as used by feature hashing.
func SignedBucket(s string, n int) (int, float64) {
	h := StableHash(s)
	sign := 1.0
	if h>>63 == 1 {
		sign = -1.0
	}
	return int(h % uint64(n)), sign
}
