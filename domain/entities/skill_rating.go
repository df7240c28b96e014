package entities

import "time"

// SkillTier is a skill bracket derived from a rating
type SkillTier string

const (
	SkillTierNovice       SkillTier = "novice"
	SkillTierAmateur      SkillTier = "amateur"
	SkillTierIntermediate SkillTier = "intermediate"
	SkillTierAdvanced     SkillTier = "advanced"
	SkillTierExpert       SkillTier = "expert"
	SkillTierPro          SkillTier = "pro"
)

// DefaultRating is assigned to users without a rating for a game
const DefaultRating = 1200

var tierFloors = []struct {
	tier  SkillTier
	floor int
}{
	{SkillTierPro, 1900},
	{SkillTierExpert, 1750},
	{SkillTierAdvanced, 1600},
	{SkillTierIntermediate, 1450},
	{SkillTierAmateur, 1300},
}

// TierForRating maps a rating onto its tier
func TierForRating(rating int) SkillTier {
	for _, tf := range tierFloors {
		if rating >= tf.floor {
			return tf.tier
		}
	}
	return SkillTierNovice
}

// IsValid reports whether t is a known tier
func (t SkillTier) IsValid() bool {
	switch t {
	case SkillTierNovice, SkillTierAmateur, SkillTierIntermediate,
		SkillTierAdvanced, SkillTierExpert, SkillTierPro:
		return true
	}
	return false
}

// SkillRating is a user's rating for one game
type SkillRating struct {
	UserID        int64     `db:"user_id"`
	Game          string    `db:"game"`
	Rating        int       `db:"rating"`
	MatchesPlayed int       `db:"matches_played"`
	Wins          int       `db:"wins"`
	Losses        int       `db:"losses"`
	UpdatedAt     time.Time `db:"updated_at"`
}

// NewSkillRating returns the starting rating for a user and game
func NewSkillRating(userID int64, game string) *SkillRating {
	return &SkillRating{UserID: userID, Game: game, Rating: DefaultRating}
}

// Tier returns the bracket for the current rating
func (r *SkillRating) Tier() SkillTier {
	return TierForRating(r.Rating)
}
