// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package publisher

import (
	"context"
	"log/slog"

	"github.com/olegiv/wpautoblog/internal/imaging"
	"github.com/olegiv/wpautoblog/internal/metrics"
	"github.com/olegiv/wpautoblog/internal/model"
	"github.com/olegiv/wpautoblog/internal/util"
	"github.com/olegiv/wpautoblog/internal/wordpress"
)

// attachFeaturedImage generates, re-encodes and uploads a featured image.
// It returns the WordPress media ID, or 0 when any step fails: a missing
// image never blocks the post.
func (o *Orchestrator) attachFeaturedImage(ctx context.Context, logger *slog.Logger, creds wordpress.Credentials, title string) int64 {
	gen := o.deps.Images
	if gen == nil || !gen.ImagesEnabled() {
		return 0
	}

	img, err := gen.GenerateFeaturedImage(ctx, title)
	if err != nil {
		o.imageFailed(logger, "generate", err)
		return 0
	}

	featured, err := imaging.PrepareFeatured(img.Data, o.cfg.Image)
	if err != nil {
		o.imageFailed(logger, "prepare", err)
		return 0
	}

	media, err := o.deps.Target.UploadMedia(ctx, creds, util.MediaFilename(title, featured.Ext), featured.MimeType, featured.Data)
	if err != nil {
		o.imageFailed(logger, "upload", err)
		return 0
	}

	logger.Debug("featured image uploaded",
		"media_id", media.ID,
		"width", featured.Width,
		"height", featured.Height,
		"model", img.Model)
	return media.ID
}

func (o *Orchestrator) imageFailed(logger *slog.Logger, step string, err error) {
	metrics.ImageFailures.Inc()
	logger.Warn("featured image skipped",
		"category", model.EventCategoryAI,
		"step", step,
		"error", err)
}
