package storage

import (
	"context"
	"errors"
	"fmt"

	"ai-mediagen-be/internal/pkg/logger"
)

// Materializer persists generated media with a three-tier fallback: primary
// store, secondary store when the primary target is missing, and as a last
// resort the provider-hosted source URL. Object-storage misconfiguration must
// not turn a successful generation into a lost one.
type Materializer struct {
	primary   ObjectStore
	secondary ObjectStore
	logger    logger.ILogger
}

func NewMaterializer(primary, secondary ObjectStore, log logger.ILogger) *Materializer {
	return &Materializer{
		primary:   primary,
		secondary: secondary,
		logger:    log,
	}
}

// Persist writes data durably and reports where it landed. sourceURL may be
// empty for providers that return bytes inline; in that case a full storage
// outage is a hard failure because there is nothing to degrade to.
func (m *Materializer) Persist(ctx context.Context, data []byte, contentType, path, sourceURL string) (*MaterializedAsset, error) {
	url, err := m.primary.Put(ctx, path, data, contentType)
	if err == nil {
		return &MaterializedAsset{
			SourceURL:   sourceURL,
			DurableURL:  url,
			ContentType: contentType,
			SizeBytes:   int64(len(data)),
		}, nil
	}

	if errors.Is(err, ErrBucketNotFound) && m.secondary != nil {
		m.logger.Warn("storage", "primary store target missing, trying secondary", map[string]interface{}{
			"primary":   m.primary.Name(),
			"secondary": m.secondary.Name(),
			"path":      path,
		})

		url, secErr := m.secondary.Put(ctx, path, data, contentType)
		if secErr == nil {
			return &MaterializedAsset{
				SourceURL:   sourceURL,
				DurableURL:  url,
				ContentType: contentType,
				SizeBytes:   int64(len(data)),
			}, nil
		}
		err = secErr
	}

	if sourceURL != "" {
		m.logger.Error("storage", "all stores failed, degrading to provider URL", map[string]interface{}{
			"error":      err.Error(),
			"source_url": sourceURL,
			"path":       path,
		})
		return &MaterializedAsset{
			SourceURL:   sourceURL,
			DurableURL:  sourceURL,
			ContentType: contentType,
			SizeBytes:   int64(len(data)),
			Degraded:    true,
		}, nil
	}

	return nil, fmt.Errorf("materialize %s: %w", path, err)
}
