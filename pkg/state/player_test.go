package state

import (
	"encoding/json"
	"testing"

	"github.com/jwebster45206/artel-village/pkg/chat"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewPlayer(t *testing.T) {
	p := NewPlayer("Mira")

	assert.NotEmpty(t, p.ID.String())
	assert.Equal(t, "Mira", p.Name)
	assert.Equal(t, StartingGold, p.Gold)
	assert.Equal(t, DefaultHP, p.HP)
	assert.Equal(t, DefaultHP, p.MaxHP)
	assert.False(t, p.CreatedAt.IsZero())
}

func TestVariables(t *testing.T) {
	p := NewPlayer("Mira")

	require.NoError(t, p.SetVariable("ACTIVE_QUEST", "The Lost Brush"))
	require.NoError(t, p.SetVariable("PHOTO_READY", true))
	require.NoError(t, p.SetVariable("VISITS", 3))

	assert.Equal(t, "The Lost Brush", p.StringVar("ACTIVE_QUEST"))
	assert.True(t, p.BoolVar("PHOTO_READY"))
	assert.Equal(t, 3, p.IntVar("VISITS"))

	// unset and wrong-typed reads fall back to zero values
	assert.Equal(t, "", p.StringVar("MISSING"))
	assert.Equal(t, "", p.StringVar("PHOTO_READY"))
	assert.False(t, p.BoolVar("ACTIVE_QUEST"))

	require.NoError(t, p.SetVariable("ACTIVE_QUEST", nil))
	assert.False(t, p.HasVariable("ACTIVE_QUEST"))

	p.DeleteVariable("VISITS")
	assert.Equal(t, 0, p.IntVar("VISITS"))
}

func TestHistory(t *testing.T) {
	p := NewPlayer("Mira")
	assert.Empty(t, p.History("MENTOR_HISTORY"))

	var history []chat.ChatMessage
	for i := 0; i < 12; i++ {
		history = append(history, chat.User(string(rune('a'+i))))
	}
	require.NoError(t, p.SetHistory("MENTOR_HISTORY", history, 10))

	got := p.History("MENTOR_HISTORY")
	require.Len(t, got, 10)
	assert.Equal(t, "c", got[0].Content)
	assert.Equal(t, "l", got[9].Content)

	p.Variables["MENTOR_HISTORY"] = json.RawMessage(`"corrupt"`)
	assert.Empty(t, p.History("MENTOR_HISTORY"))
}

func TestInventory(t *testing.T) {
	p := NewPlayer("Mira")

	p.AddItem("healing-potion", 2)
	p.AddItem("antidote", 1)
	p.AddItem("antidote", 0)

	assert.True(t, p.HasItem("healing-potion"))
	assert.Equal(t, 2, p.ItemCount("healing-potion"))
	assert.Equal(t, []string{"antidote", "healing-potion"}, p.ItemIDs())

	require.NoError(t, p.RemoveItem("healing-potion", 2))
	assert.False(t, p.HasItem("healing-potion"))
	assert.ErrorIs(t, p.RemoveItem("healing-potion", 1), ErrItemNotOwned)
}

func TestGold(t *testing.T) {
	p := NewPlayer("Mira")

	require.NoError(t, p.SpendGold(4))
	assert.Equal(t, 6, p.Gold)

	err := p.SpendGold(7)
	assert.ErrorIs(t, err, ErrInsufficientGold)
	assert.Equal(t, 6, p.Gold)

	p.AddGold(50)
	assert.Equal(t, 56, p.Gold)
}

func TestHeal(t *testing.T) {
	tests := []struct {
		name     string
		hp       int
		amount   int
		expected int
		restored int
	}{
		{"partial", 40, 50, 90, 50},
		{"clamped to max", 80, 50, 100, 20},
		{"already full", 100, 50, 100, 0},
		{"non-positive amount", 40, 0, 40, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := NewPlayer("Mira")
			p.HP = tt.hp

			restored, err := p.Heal(tt.amount)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, p.HP)
			assert.Equal(t, tt.restored, restored)
		})
	}
}

func TestHeal_UsesActorMaxHP(t *testing.T) {
	p := NewPlayer("Mira")
	p.MaxHP = 60
	p.HP = 50

	actor, err := p.Actor()
	require.NoError(t, err)
	assert.Equal(t, 60, actor.MaxHP())
	assert.Equal(t, 50, actor.HP())

	restored, err := p.Heal(50)
	require.NoError(t, err)
	assert.Equal(t, 60, p.HP)
	assert.Equal(t, 10, restored)
}

func TestStates(t *testing.T) {
	p := NewPlayer("Mira")
	p.AddState("poison")
	p.AddState("poison")
	p.AddState("weak")

	assert.Equal(t, []string{"poison", "weak"}, p.States)
	assert.Equal(t, 1, p.RemoveStates("poison", "burn"))
	assert.False(t, p.HasState("poison"))
	assert.True(t, p.HasState("weak"))
}
