// Package pbprio maintains the byte-guessing order shared by all decryption
// workers. Bytes that have already appeared in the recovered plaintext get
// promoted, so that guessing the next byte of skewed plaintext (e.g. English
// text) takes far fewer oracle round-trips than a blind 0..255 scan.
package pbprio

import (
	"math"
	"sort"
	"sync"
)

// _hitReward is added to a byte's score every time that byte is confirmed as
// a plaintext byte.
const _hitReward = 5

// Queue is a score table over all 256 byte values, shared by concurrent
// workers. The zero value is not usable; create one with New.
type Queue struct {
	mu     sync.Mutex
	scores [256]int

	// perm is the initial permutation. It never changes after New and fixes
	// the relative order of equally scored bytes.
	perm [256]byte
}

// New builds a Queue from a permutation of all 256 byte values, ordered most
// likely first. The byte at position i of the permutation starts with score
// 255-i, so that the most likely byte is tried first.
// New does not check that perm is a permutation; that is the charset loader's
// job.
func New(perm [256]byte) *Queue {
	q := Queue{perm: perm}
	for i, b := range perm {
		q.scores[b] = 255 - i
	}
	return &q
}

// Hit rewards the given byte for having appeared as a plaintext byte,
// moving it towards the front of the guessing order. The score saturates
// instead of overflowing.
// Hit is safe for concurrent use.
func (q *Queue) Hit(b byte) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.scores[b] > math.MaxInt-_hitReward {
		q.scores[b] = math.MaxInt
		return
	}
	q.scores[b] += _hitReward
}

// Ordered returns all 256 byte values sorted by descending score. Equal
// scores keep the order of the initial permutation.
// The returned array is a snapshot taken under the lock: a concurrent Hit
// does not perturb an iteration already handed out.
// Ordered is safe for concurrent use.
func (q *Queue) Ordered() [256]byte {
	q.mu.Lock()
	defer q.mu.Unlock()

	out := q.perm
	sort.SliceStable(out[:], func(i, j int) bool {
		return q.scores[out[i]] > q.scores[out[j]]
	})

	return out
}
