package memory

import (
	"context"
	"sync"

	"questkit/core"
)

// SocialGraph is a settable in-memory stand-in for the identity/content
// collaborator; tests and demos register users and counts directly.
type SocialGraph struct {
	mu         sync.Mutex
	users      map[core.UserID]bool
	posts      map[core.UserID]int
	mediaPosts map[core.UserID]int
	comments   map[core.UserID]int
	followers  map[core.UserID]int
	following  map[core.UserID]int
}

func NewSocialGraph() *SocialGraph {
	return &SocialGraph{
		users:      map[core.UserID]bool{},
		posts:      map[core.UserID]int{},
		mediaPosts: map[core.UserID]int{},
		comments:   map[core.UserID]int{},
		followers:  map[core.UserID]int{},
		following:  map[core.UserID]int{},
	}
}

// AddUser registers a user as existing in the identity store.
func (g *SocialGraph) AddUser(user core.UserID) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.users[user] = true
}

// SetCounts sets the aggregate counts badge predicates read.
func (g *SocialGraph) SetCounts(user core.UserID, posts, mediaPosts, comments, followers, following int) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.posts[user] = posts
	g.mediaPosts[user] = mediaPosts
	g.comments[user] = comments
	g.followers[user] = followers
	g.following[user] = following
}

func (g *SocialGraph) UserExists(_ context.Context, user core.UserID) (bool, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.users[user], nil
}

func (g *SocialGraph) PostCount(_ context.Context, user core.UserID) (int, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.posts[user], nil
}

func (g *SocialGraph) MediaPostCount(_ context.Context, user core.UserID) (int, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.mediaPosts[user], nil
}

func (g *SocialGraph) CommentCount(_ context.Context, user core.UserID) (int, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.comments[user], nil
}

func (g *SocialGraph) FollowerCount(_ context.Context, user core.UserID) (int, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.followers[user], nil
}

func (g *SocialGraph) FollowingCount(_ context.Context, user core.UserID) (int, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.following[user], nil
}
