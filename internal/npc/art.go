package npc

import (
	"context"
	"fmt"

	"github.com/jwebster45206/artel-village/internal/config"
	"github.com/jwebster45206/artel-village/pkg/webhook"
)

// generateArt asks the art generation webhook for an image, falling back to
// the default painting when the answer carries no URL.
func generateArt(ctx context.Context, deps Deps, payload any) (string, error) {
	resp, err := deps.Hooks.PostJSON(ctx, deps.url(config.WebhookArtGeneration), payload, nil)
	if err != nil {
		return "", fmt.Errorf("generate art: %w", err)
	}
	if u := webhook.ImageURL(resp.Body); u != "" {
		return u, nil
	}
	deps.Logger.Warn("Art webhook returned no image URL", "sample", webhook.Sample(resp.Body, 200))
	return deps.DefaultPaintingURL, nil
}
