package tasks

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"image"
	"image/jpeg"
	_ "image/png"
	"strings"

	"github.com/hibiken/asynq"
	"github.com/nfnt/resize"
	"github.com/rs/zerolog/log"
	"go.mongodb.org/mongo-driver/mongo"

	"communitycart/market/internal/storage"
)

// HandleImageProcessTask downsizes an uploaded image if needed, stores the
// processed copy and records its key on the listing.
func (p *TaskProcessor) HandleImageProcessTask(ctx context.Context, t *asynq.Task) error {
	var payload ImageTaskPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return fmt.Errorf("failed to unmarshal image task payload: %v: %w", err, asynq.SkipRetry)
	}
	if payload.ListingID == "" || !strings.HasPrefix(payload.S3Key, "uploads/") {
		return fmt.Errorf("invalid image task payload: %w", asynq.SkipRetry)
	}

	logger := log.With().Str("key", payload.S3Key).Str("group_buy", payload.ListingID).Logger()
	logger.Info().Msg("processing image")

	maxSizeBytes := int64(p.cfg.ImageMaxSizeMB) * 1024 * 1024
	imgData, contentType, err := p.storage.GetObject(ctx, payload.S3Key, maxSizeBytes)
	switch {
	case errors.Is(err, storage.ErrObjectNotFound):
		return fmt.Errorf("s3 object not found: %w", asynq.SkipRetry)
	case errors.Is(err, storage.ErrObjectTooLarge):
		return fmt.Errorf("image exceeds max size: %w", asynq.SkipRetry)
	case err != nil:
		return fmt.Errorf("failed to download image from S3: %w", err)
	}

	img, format, err := image.Decode(bytes.NewReader(imgData))
	if err != nil {
		return fmt.Errorf("unsupported image format or corrupt image: %w", asynq.SkipRetry)
	}
	logger.Debug().Str("format", format).Int("width", img.Bounds().Dx()).Int("height", img.Bounds().Dy()).Msg("decoded image")

	maxDim := uint(p.cfg.ImageMaxDimension)
	processed := imgData
	if uint(img.Bounds().Dx()) > maxDim || uint(img.Bounds().Dy()) > maxDim {
		resized := resize.Thumbnail(maxDim, maxDim, img, resize.Lanczos3)
		var buf bytes.Buffer
		if err := jpeg.Encode(&buf, resized, &jpeg.Options{Quality: 85}); err != nil {
			return fmt.Errorf("failed to re-encode resized image: %w", err)
		}
		processed = buf.Bytes()
		contentType = "image/jpeg"
		logger.Info().Int("width", resized.Bounds().Dx()).Int("height", resized.Bounds().Dy()).Msg("resized image")

		if int64(len(processed)) > maxSizeBytes {
			return fmt.Errorf("resized image still exceeds max size: %w", asynq.SkipRetry)
		}
	}
	if contentType == "" {
		contentType = "image/" + format
	}

	processedKey := storage.ProcessedKey(payload.S3Key)
	if err := p.storage.PutObject(ctx, processedKey, processed, contentType); err != nil {
		return fmt.Errorf("failed to upload processed image: %w", err)
	}

	if err := p.groupBuys.AddImageToGroupBuy(ctx, payload.ListingID, processedKey); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return fmt.Errorf("group buy %s no longer exists: %w", payload.ListingID, asynq.SkipRetry)
		}
		return fmt.Errorf("failed to update group buy with processed image: %w", err)
	}

	logger.Info().Str("processed_key", processedKey).Msg("image task processed")
	return nil
}
