package items

import (
	"strconv"
	"strings"
	"unicode"
)

// Player variables shared between items and NPC scripts.
const (
	VarPaintingURL         = "PAINTING_URL"
	VarPaintingTitle       = "PAINTING_TITLE"
	VarPaintingDescription = "PAINTING_DESCRIPTION"

	VarPhotoURL         = "PLAYER_PHOTO_URL"
	VarPhotoTitle       = "PLAYER_PHOTO_TITLE"
	VarPhotoDescription = "PLAYER_PHOTO_DESCRIPTION"

	VarQuestTitle       = "QUEST_TITLE"
	VarQuestDescription = "QUEST_DESCRIPTION"
	VarQuestTheme       = "QUEST_THEME"
	VarQuestReward      = "QUEST_REWARD"
	VarActiveQuest      = "ACTIVE_QUEST"
	VarQuestCompleted   = "QUEST_COMPLETED"

	VarCommissionCompleted = "COMMISSION_COMPLETED"
	VarCompletedArtworkURL = "COMPLETED_ARTWORK_URL"

	VarFragmentID          = "current_fragment_id"
	VarFragmentName        = "current_fragment_name"
	VarFragmentType        = "current_fragment_type"
	VarFragmentMediaURL    = "current_fragment_mediaUrl"
	VarFragmentDescription = "current_fragment_description"
	varFragmentRevelation  = "current_fragment_revelation_"
)

// Defaults used until a player's variables say otherwise.
const (
	DefaultPaintingTitle       = "Village at Sunset"
	DefaultPaintingDescription = "A beautiful painting capturing the village bathed in the golden light of sunset. Created by Aria, the village artist."
	DefaultPhotoTitle          = "Portrait of an Adventurer"
	DefaultPhotoDescription    = "A striking portrait that captures your adventurous spirit. Taken by Luna, the village photographer."
	DefaultQuestTitle          = "Quest Scroll"
	DefaultQuestDescription    = "A quest from the Quest Master"
	DefaultQuestTheme          = "village landscape"
	DefaultQuestReward         = "50 gold"
	DefaultRewardGold          = 50
)

// FragmentRevelationVar names the n-th revelation of the current fragment.
func FragmentRevelationVar(n int) string {
	return varFragmentRevelation + strconv.Itoa(n)
}

// RewardGold reads the leading integer of a reward such as "75 gold".
// Anything without a positive leading integer pays DefaultRewardGold.
func RewardGold(reward string) int {
	s := strings.TrimLeftFunc(reward, unicode.IsSpace)
	end := 0
	for end < len(s) && s[end] >= '0' && s[end] <= '9' {
		end++
	}
	n, err := strconv.Atoi(s[:end])
	if err != nil || n <= 0 {
		return DefaultRewardGold
	}
	return n
}

func orDefault(v, def string) string {
	if v == "" {
		return def
	}
	return v
}
