package engine

import (
	"hash/fnv"
	"math/rand"
)

// StableToken returns the `\r` value for a node identified by path (its
// ancestry as pathKey renders it, e.g. "D:TABS/S/D:CODE/") and id (its own
// props["id"], or "" if it has none). Seeding math/rand with a hash of that key
// rather than calling it unseeded makes the token reproducible across runs
// on identical input, per spec §5 ("`\r` uses a seeded PRNG keyed by node
// path so it is stable across runs") and §9's determinism note.
func StableToken(path, id string) string {
	h := fnv.New64a()
	h.Write([]byte(path))
	h.Write([]byte{0})
	h.Write([]byte(id))
	rng := rand.New(rand.NewSource(int64(h.Sum64())))
	const alphabet = "abcdefghijklmnopqrstuvwxyz0123456789"
	buf := make([]byte, 6)
	for i := range buf {
		buf[i] = alphabet[rng.Intn(len(alphabet))]
	}
	return string(buf)
}
