// Package progression is the embedding facade: one constructor that wires
// storage, collaborators, event dispatch, and delivery into a ready
// engine.Service.
package progression

import (
	"context"
	"log/slog"

	mem "questkit/adapters/memory"
	"questkit/core"
	"questkit/engine"
	"questkit/integrations/webhook"
	"questkit/notify"
)

// Option configures the service builder.
type Option func(*builder)

type builder struct {
	store    engine.Store
	social   engine.SocialGraph
	rewards  engine.RewardCatalog
	index    engine.LeaderboardIndex
	mode     engine.DispatchMode
	hub      *notify.Hub
	recorder notify.Recorder
	sink     *webhook.Sink
	levels   core.LevelTable
	criteria *engine.CriteriaRegistry
	filters  *engine.FilterRegistry
	log      *slog.Logger
}

// WithStore sets the persistence adapter.
func WithStore(s engine.Store) Option { return func(b *builder) { b.store = s } }

// WithSocialGraph sets the identity and counts collaborator.
func WithSocialGraph(g engine.SocialGraph) Option { return func(b *builder) { b.social = g } }

// WithRewardCatalog sets the cosmetic rewards collaborator.
func WithRewardCatalog(rc engine.RewardCatalog) Option { return func(b *builder) { b.rewards = rc } }

// WithLeaderboardIndex wires a windowed score index.
func WithLeaderboardIndex(idx engine.LeaderboardIndex) Option {
	return func(b *builder) { b.index = idx }
}

// WithDispatchMode selects sync or async event dispatch.
func WithDispatchMode(m engine.DispatchMode) Option { return func(b *builder) { b.mode = m } }

// WithNotifications wires a hub to receive user-facing notifications.
func WithNotifications(h *notify.Hub) Option { return func(b *builder) { b.hub = h } }

// WithNotificationRecorder persists notifications for inbox views.
func WithNotificationRecorder(r notify.Recorder) Option { return func(b *builder) { b.recorder = r } }

// WithWebhooks attaches an outbound event sink.
func WithWebhooks(s *webhook.Sink) Option { return func(b *builder) { b.sink = s } }

// WithLevelTable overrides the level threshold curve.
func WithLevelTable(t core.LevelTable) Option { return func(b *builder) { b.levels = t } }

// WithCriteria overrides the badge predicate registry.
func WithCriteria(r *engine.CriteriaRegistry) Option { return func(b *builder) { b.criteria = r } }

// WithFilters overrides the quest eligibility filter registry.
func WithFilters(r *engine.FilterRegistry) Option { return func(b *builder) { b.filters = r } }

// WithLogger sets the structured logger.
func WithLogger(l *slog.Logger) Option { return func(b *builder) { b.log = l } }

// New builds a configured engine.Service. If not provided, defaults are
// used:
//   - store: in-memory
//   - social graph: permit-all with zero counts
//   - dispatch: async
func New(opts ...Option) *engine.Service {
	b := &builder{mode: engine.DispatchAsync}
	for _, o := range opts {
		o(b)
	}
	if b.store == nil {
		store := mem.New()
		b.store = store
		if b.rewards == nil {
			b.rewards = store
		}
	}
	if b.social == nil {
		b.social = permitAllGraph{}
	}

	bus := engine.NewEventBus(b.mode)

	svcOpts := []engine.ServiceOption{}
	if b.rewards != nil {
		svcOpts = append(svcOpts, engine.WithRewardCatalog(b.rewards))
	}
	if b.index != nil {
		svcOpts = append(svcOpts, engine.WithLeaderboardIndex(b.index))
	}
	if b.levels != nil {
		svcOpts = append(svcOpts, engine.WithLevelTable(b.levels))
	}
	if b.criteria != nil {
		svcOpts = append(svcOpts, engine.WithCriteria(b.criteria))
	}
	if b.filters != nil {
		svcOpts = append(svcOpts, engine.WithFilters(b.filters))
	}
	if b.log != nil {
		svcOpts = append(svcOpts, engine.WithLogger(b.log))
	}
	svc := engine.NewService(b.store, b.social, bus, svcOpts...)

	if b.hub != nil {
		var nopts []notify.NotifierOption
		if b.recorder != nil {
			nopts = append(nopts, notify.WithRecorder(b.recorder))
		}
		if b.log != nil {
			nopts = append(nopts, notify.WithLogger(b.log))
		}
		notify.NewNotifier(b.hub, nopts...).Attach(bus)
	}
	if b.sink != nil {
		b.sink.Attach(bus)
	}
	return svc
}

// permitAllGraph keeps New() usable without an identity collaborator:
// every user exists and all counts are zero. Pass a real graph in prod.
type permitAllGraph struct{}

func (permitAllGraph) UserExists(context.Context, core.UserID) (bool, error)    { return true, nil }
func (permitAllGraph) PostCount(context.Context, core.UserID) (int, error)      { return 0, nil }
func (permitAllGraph) MediaPostCount(context.Context, core.UserID) (int, error) { return 0, nil }
func (permitAllGraph) CommentCount(context.Context, core.UserID) (int, error)   { return 0, nil }
func (permitAllGraph) FollowerCount(context.Context, core.UserID) (int, error)  { return 0, nil }
func (permitAllGraph) FollowingCount(context.Context, core.UserID) (int, error) { return 0, nil }
