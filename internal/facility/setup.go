package facility

import (
	"context"
	"fmt"
	"io"

	"github.com/soyeahso/agentchat/internal/cache"
	"github.com/soyeahso/agentchat/internal/config"
	"github.com/soyeahso/agentchat/internal/logging"
	"github.com/soyeahso/agentchat/internal/metrics"
	"github.com/soyeahso/agentchat/internal/store"
)

// Open builds a Service from configuration. db backs the "sqlite" cache
// store and the lookup history; it may be nil. The returned closer
// releases the cache but never db.
func Open(ctx context.Context, cfg config.FacilityConfig, db *store.DB, log *logging.Logger, m *metrics.Metrics, opts ...Option) (*Service, io.Closer, error) {
	c, err := cache.Open(ctx, cfg.Cache, db)
	if err != nil {
		return nil, nil, fmt.Errorf("opening facility cache: %w", err)
	}

	dataset := NewHospitalDataset(cfg.CMSDataURL, c, cfg.Cache.TTL, log, m)
	opts = append([]Option{WithMetrics(m)}, opts...)
	if db != nil {
		opts = append(opts, WithRecorder(db))
	}

	log.Debug().Str("cache", cfg.Cache.Store).Str("nppes", cfg.NPPESURL).Msg("facility service ready")
	return NewService(NewNPPESClient(cfg.NPPESURL, cfg.Timeout), dataset, log, opts...), c, nil
}
