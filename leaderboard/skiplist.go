package leaderboard

import (
	cryptorand "crypto/rand"
	"encoding/binary"
	"math/rand"
	"sync"

	"questkit/core"
)

// Skip list holding board entries ordered by rankBefore, giving O(log n)
// score updates. The ordering function doubles as the board's tie-break
// rule.

const (
	maxHeight   = 16
	promoteOdds = 4 // 1-in-4 chance of a node growing one level
)

type slNode struct {
	entry Entry
	next  []*slNode
}

type SkipList struct {
	mu     sync.RWMutex
	head   *slNode
	height int
	nodes  map[core.UserID]*slNode
	rng    *rand.Rand
}

// rankBefore reports whether a sorts ahead of b on the board: score
// descending, ties broken by ascending user ID.
func rankBefore(a, b Entry) bool {
	if a.Score != b.Score {
		return a.Score > b.Score
	}
	return a.User < b.User
}

func NewSkipList() *SkipList {
	var seed [16]byte
	_, _ = cryptorand.Read(seed[:])
	return &SkipList{
		head:   &slNode{next: make([]*slNode, maxHeight)},
		height: 1,
		nodes:  map[core.UserID]*slNode{},
		rng: rand.New(rand.NewSource(
			int64(binary.LittleEndian.Uint64(seed[:8])))),
	}
}

func (s *SkipList) randomHeight() int {
	h := 1
	for h < maxHeight && s.rng.Intn(promoteOdds) == 0 {
		h++
	}
	return h
}

// predecessors returns the last node strictly ahead of e at every level.
func (s *SkipList) predecessors(e Entry) [maxHeight]*slNode {
	var prev [maxHeight]*slNode
	cur := s.head
	for lvl := s.height - 1; lvl >= 0; lvl-- {
		for cur.next[lvl] != nil && rankBefore(cur.next[lvl].entry, e) {
			cur = cur.next[lvl]
		}
		prev[lvl] = cur
	}
	for lvl := s.height; lvl < maxHeight; lvl++ {
		prev[lvl] = s.head
	}
	return prev
}

// Update inserts user or moves it to the position of its new score.
func (s *SkipList) Update(user core.UserID, score int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if n, ok := s.nodes[user]; ok {
		s.unlink(n)
	}
	e := Entry{User: user, Score: score}
	prev := s.predecessors(e)
	h := s.randomHeight()
	if h > s.height {
		s.height = h
	}
	n := &slNode{entry: e, next: make([]*slNode, h)}
	for lvl := 0; lvl < h; lvl++ {
		n.next[lvl] = prev[lvl].next[lvl]
		prev[lvl].next[lvl] = n
	}
	s.nodes[user] = n
}

func (s *SkipList) unlink(n *slNode) {
	prev := s.predecessors(n.entry)
	for lvl := 0; lvl < len(n.next); lvl++ {
		if prev[lvl].next[lvl] == n {
			prev[lvl].next[lvl] = n.next[lvl]
		}
	}
	delete(s.nodes, n.entry.User)
	for s.height > 1 && s.head.next[s.height-1] == nil {
		s.height--
	}
}

func (s *SkipList) Remove(user core.UserID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if n, ok := s.nodes[user]; ok {
		s.unlink(n)
	}
}

// TopN walks the base level, which is already in board order.
func (s *SkipList) TopN(n int) []Entry {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if n <= 0 {
		return nil
	}
	out := make([]Entry, 0, n)
	for cur := s.head.next[0]; cur != nil && len(out) < n; cur = cur.next[0] {
		out = append(out, cur.entry)
	}
	return out
}

func (s *SkipList) Get(user core.UserID) (Entry, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if n, ok := s.nodes[user]; ok {
		return n.entry, true
	}
	return Entry{}, false
}

// Len reports the number of ranked users.
func (s *SkipList) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.nodes)
}

var _ Board = (*SkipList)(nil)
