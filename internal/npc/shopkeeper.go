package npc

import (
	"context"
	"errors"
	"fmt"

	"github.com/jwebster45206/artel-village/internal/items"
	"github.com/jwebster45206/artel-village/pkg/emotion"
	"github.com/jwebster45206/artel-village/pkg/host"
	"github.com/jwebster45206/artel-village/pkg/state"
)

const shopkeeperName = "village-shopkeeper"

// shopPrice is what Eliza charges for anything on the shelf.
const shopPrice = 1

type shopItem struct {
	id    string
	name  string
	pitch string
}

var shopShelf = []shopItem{
	{items.HealingPotion, "Healing Potion", "An excellent choice! This potion will restore your health when you need it most."},
	{items.Antidote, "Antidote", "A wise purchase! This will cure any poison you might encounter on your journey."},
	{items.PowerFruit, "Power Fruit", "A rare find! This fruit will enhance your strength temporarily."},
}

func newShopkeeper() *Event {
	return &Event{
		Name:     shopkeeperName,
		Label:    "Shop",
		Graphic:  "female",
		OnAction: shopkeeper,
	}
}

func shopkeeper(ctx context.Context, p host.Player) error {
	t := newTalk(shopkeeperName, p)
	ps := t.state()

	for {
		if err := t.say(ctx, emotion.None, "Welcome to my shop! I'm Eliza, the village shopkeeper."); err != nil {
			return err
		}
		if ps.Gold < shopPrice {
			return t.say(ctx, emotion.None, "I see you don't have any gold. Come back when you have some money to spend.")
		}

		menu := make([]host.Choice, 0, len(shopShelf)+1)
		for _, it := range shopShelf {
			menu = append(menu, choice(it.name, it.id))
		}
		menu = append(menu, choice("Nothing today", "nothing"))

		picked, err := t.ask(ctx, fmt.Sprintf("All items are just %d gold each! What would you like to buy?", shopPrice), menu...)
		if err != nil {
			return err
		}

		bought := false
		for _, it := range shopShelf {
			if it.id != picked {
				continue
			}
			if err := t.say(ctx, emotion.None, it.pitch); err != nil {
				return err
			}
			if err := ps.SpendGold(shopPrice); err != nil {
				if errors.Is(err, state.ErrInsufficientGold) {
					return t.say(ctx, emotion.None, "I see you don't have any gold. Come back when you have some money to spend.")
				}
				return err
			}
			ps.AddItem(it.id, 1)
			t.notify(ctx, fmt.Sprintf("Purchased %s for %d gold!", it.name, shopPrice))
			bought = true
		}
		if !bought {
			if err := t.say(ctx, emotion.None, "No problem! Feel free to browse. My inventory changes regularly."); err != nil {
				return err
			}
		}

		if picked != "" && picked != "nothing" && ps.Gold >= shopPrice {
			more, err := t.ask(ctx, "Would you like to buy anything else?", yesNo("Yes", "No, thanks")...)
			if err != nil {
				return err
			}
			if more == "yes" {
				continue
			}
		}
		return t.say(ctx, emotion.None, "Thank you for visiting my shop! Come back soon!")
	}
}
