// Package catalog holds the seeded badge and quest configuration and the
// idempotent seeding helpers that install it into a store.
package catalog

import (
	"context"
	"fmt"
	"log/slog"

	"questkit/core"
	"questkit/engine"
)

// Badges returns the stock badge catalog. IDs are assigned by the store on
// seeding.
func Badges() []core.Badge {
	return []core.Badge{
		{Name: "First Steps", Description: "Shared your first post with the community.", IconRef: "badges/first_steps.png", CriteriaKey: core.CriteriaFirstSteps},
		{Name: "Photographer", Description: "Shared a post containing at least one image or video.", IconRef: "badges/photographer.png", CriteriaKey: core.CriteriaPhotographer},
		{Name: "Engager", Description: "Made 10 or more comments on posts.", IconRef: "badges/engager.png", CriteriaKey: core.CriteriaEngager},
		{Name: "Influencer", Description: "Gained 10 or more followers.", IconRef: "badges/influencer.png", CriteriaKey: core.CriteriaInfluencer},
		{Name: "Social Butterfly", Description: "Followed 5 or more users.", IconRef: "badges/social_butterfly.png", CriteriaKey: core.CriteriaSocialButterfly},
		{Name: "Dedicated Member", Description: "Logged in on 7 distinct days.", IconRef: "badges/dedicated_member.png", CriteriaKey: core.CriteriaDedicatedMember},
		{Name: "Point Collector", Description: "Earned 100 points.", IconRef: "badges/point_collector.png", CriteriaKey: core.CriteriaPointCollector},
		{Name: "Point Hoarder", Description: "Earned 500 points.", IconRef: "badges/point_hoarder.png", CriteriaKey: core.CriteriaPointHoarder},
		{Name: "Rising Star", Description: "Reached level 5.", IconRef: "badges/rising_star.png", CriteriaKey: core.CriteriaRisingStar},
		{Name: "Weekly Contender", Description: "Placed in the weekly top 10.", IconRef: "badges/weekly_contender.png", CriteriaKey: core.CriteriaWeeklyContender},
		{Name: "Podium Finisher", Description: "Placed in the monthly top 3.", IconRef: "badges/podium_finisher.png", CriteriaKey: core.CriteriaPodiumFinisher},
	}
}

// FirstStepsTitleName is the cosmetic title granted alongside the
// first-achievement badge and by the weekly engagement quest.
const FirstStepsTitleName = "First Steps Title"

func hours(h int) *int { return &h }

// Seed installs the badge and quest catalogs if the store holds none yet.
// Calling it again is a no-op, so process startup can always run it.
// Reward links that cannot be resolved (badge or cosmetic missing) are
// left unset with a warning rather than failing the seed.
func Seed(ctx context.Context, store engine.Store, rewards engine.RewardCatalog, log *slog.Logger) error {
	if log == nil {
		log = slog.Default()
	}

	existing, err := store.ListBadges(ctx)
	if err != nil {
		return fmt.Errorf("listing badges before seed: %w", err)
	}
	badgeByCriteria := map[core.CriteriaKey]int64{}
	if len(existing) == 0 {
		for _, b := range Badges() {
			badge := b
			if err := store.CreateBadge(ctx, &badge); err != nil {
				return fmt.Errorf("seeding badge %q: %w", badge.Name, err)
			}
			badgeByCriteria[badge.CriteriaKey] = badge.ID
		}
		log.Info("badge catalog seeded", "count", len(Badges()))
	} else {
		for _, b := range existing {
			badgeByCriteria[b.CriteriaKey] = b.ID
		}
	}

	quests, err := store.ListQuests(ctx)
	if err != nil {
		return fmt.Errorf("listing quests before seed: %w", err)
	}
	if len(quests) > 0 {
		return nil
	}

	var photographerBadge *int64
	if id, ok := badgeByCriteria[core.CriteriaPhotographer]; ok {
		photographerBadge = &id
	} else {
		log.Warn("photographer badge missing, first-photo quest seeds without badge reward")
	}

	var firstStepsTitle *int64
	if rewards != nil {
		good, err := rewards.FindVirtualGood(ctx, FirstStepsTitleName, "title")
		if err != nil {
			return fmt.Errorf("resolving cosmetic reward for quest seed: %w", err)
		}
		if good != nil {
			firstStepsTitle = &good.ID
		} else {
			log.Warn("cosmetic title missing, weekly quest seeds without virtual good reward", "title", FirstStepsTitleName)
		}
	}

	seed := []core.Quest{
		{
			Title:         "Daily Login: Day 1",
			Description:   "Log in to the platform. The first step to a great day!",
			Kind:          core.QuestDaily,
			CriteriaKey:   core.CriteriaDailyLogin,
			TargetCount:   1,
			RewardPoints:  5,
			IsActive:      true,
			CooldownHours: hours(24),
		},
		{
			Title:         "First Photo Shared",
			Description:   "Share your first post containing at least one image or video.",
			Kind:          core.QuestAchievement,
			CriteriaKey:   core.CriteriaPostWithMedia,
			TargetCount:   1,
			RewardPoints:  20,
			RewardBadgeID: photographerBadge,
			IsActive:      true,
		},
		{
			Title:        "Active Commentator",
			Description:  "Make 5 comments on any posts.",
			Kind:         core.QuestAchievement,
			CriteriaKey:  core.CriteriaCreateComment,
			TargetCount:  5,
			RewardPoints: 15,
			IsActive:     true,
		},
		{
			Title:               "Weekly Engagement Challenge",
			Description:         "Make at least 10 posts or comments in a week.",
			Kind:                core.QuestWeekly,
			CriteriaKey:         core.CriteriaWeeklyEngagement,
			TargetCount:         10,
			RewardPoints:        50,
			RewardVirtualGoodID: firstStepsTitle,
			IsActive:            true,
			CooldownHours:       hours(24 * 7),
		},
		{
			Title:        "Profile Completionist",
			Description:  "Complete your profile by adding a bio and a profile picture.",
			Kind:         core.QuestAchievement,
			CriteriaKey:  core.CriteriaCompleteProfile,
			TargetCount:  1,
			RewardPoints: 25,
			IsActive:     true,
		},
	}
	for i := range seed {
		if err := store.CreateQuest(ctx, &seed[i]); err != nil {
			return fmt.Errorf("seeding quest %q: %w", seed[i].Title, err)
		}
	}
	log.Info("quest catalog seeded", "count", len(seed))
	return nil
}
