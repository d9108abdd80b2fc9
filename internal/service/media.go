package service

import (
	"context"
	"log/slog"

	apperrors "github.com/target/lab-portal/internal/errors"
	"github.com/target/lab-portal/internal/ports"
)

var errMediaUnavailable = apperrors.Validation("image uploads are not configured")

// discardMedia deletes an orphaned asset. Failures only leave an unused file
// on the media host, so they are logged.
func discardMedia(ctx context.Context, media ports.MediaUploader, logger *slog.Logger, publicID string) {
	if media == nil || publicID == "" {
		return
	}
	if err := media.Delete(ctx, publicID); err != nil {
		logger.WarnContext(ctx, "failed to delete media", "public_id", publicID, "error", err)
	}
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
