package facility

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/soyeahso/agentchat/internal/cache"
	"github.com/soyeahso/agentchat/internal/logging"
	"github.com/soyeahso/agentchat/internal/metrics"
	"github.com/soyeahso/agentchat/internal/version"
)

const (
	datasetCacheKey = "facility:cms-hospital-general-information"
	datasetTimeout  = 60 * time.Second
)

// Hospital is one row of the CMS Hospital General Information file.
type Hospital struct {
	CCN          string
	Name         string
	Address      string
	City         string
	State        string
	ZIP          string
	HospitalType string
}

// HospitalDataset downloads and caches the CMS hospital list.
type HospitalDataset struct {
	url     string
	http    *http.Client
	cache   cache.Cache
	ttl     time.Duration
	log     *logging.Logger
	metrics *metrics.Metrics

	mu       sync.Mutex
	rows     []Hospital
	loadedAt time.Time
	now      func() time.Time
}

// NewHospitalDataset returns a dataset sourced from url. c may be nil, in
// which case only the parsed in-process copy is kept.
func NewHospitalDataset(url string, c cache.Cache, ttl time.Duration, log *logging.Logger, m *metrics.Metrics) *HospitalDataset {
	return &HospitalDataset{
		url:     url,
		http:    &http.Client{Timeout: datasetTimeout},
		cache:   c,
		ttl:     ttl,
		log:     log.Sub("dataset"),
		metrics: m,
		now:     time.Now,
	}
}

// Hospitals returns the dataset, downloading it if neither the in-process
// copy nor the cache holds a fresh one. A failed or empty download is logged
// and never cached; rows already loaded keep being served, otherwise the
// result is empty.
func (d *HospitalDataset) Hospitals(ctx context.Context) []Hospital {
	d.mu.Lock()
	defer d.mu.Unlock()

	if len(d.rows) > 0 && (d.ttl <= 0 || d.now().Sub(d.loadedAt) < d.ttl) {
		return d.rows
	}

	if d.cache != nil {
		raw, ok, err := d.cache.Get(ctx, datasetCacheKey)
		if err != nil {
			d.log.Warn().Err(err).Msg("dataset cache read failed")
		}
		d.metrics.RecordCache(ok)
		if ok {
			if rows, err := ParseHospitals(bytes.NewReader(raw)); err == nil && len(rows) > 0 {
				d.rows, d.loadedAt = rows, d.now()
				return d.rows
			}
		}
	}

	rows, raw, err := d.fetch(ctx)
	if err != nil || len(rows) == 0 {
		ev := d.log.Error()
		if len(d.rows) > 0 {
			ev = d.log.Warn().Int("stale_hospitals", len(d.rows)).Time("loaded_at", d.loadedAt)
		}
		if err == nil {
			err = errEmptyDataset
		}
		ev.Err(err).Str("url", d.url).Msg("refreshing CMS hospital data failed")
		return d.rows
	}

	d.rows, d.loadedAt = rows, d.now()
	if d.cache != nil {
		if err := d.cache.Set(ctx, datasetCacheKey, raw, d.ttl); err != nil {
			d.log.Warn().Err(err).Msg("dataset cache write failed")
		}
	}
	d.log.Info().Int("hospitals", len(rows)).Msg("CMS hospital data loaded")
	return d.rows
}

var errEmptyDataset = errors.New("dataset has no rows")

// fetch downloads and parses the dataset, returning the raw bytes for caching.
func (d *HospitalDataset) fetch(ctx context.Context) ([]Hospital, []byte, error) {
	raw, err := d.download(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("download: %w", err)
	}
	rows, err := ParseHospitals(bytes.NewReader(raw))
	if err != nil {
		return nil, nil, fmt.Errorf("parse: %w", err)
	}
	return rows, raw, nil
}

// Loaded reports whether a non-empty dataset is held in process.
func (d *HospitalDataset) Loaded() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.rows) > 0
}

func (d *HospitalDataset) download(ctx context.Context) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, d.url, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", version.UserAgent())

	resp, err := d.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("status %d", resp.StatusCode)
	}
	return io.ReadAll(resp.Body)
}

// ParseHospitals reads the CMS CSV by header name. Unknown columns are
// ignored and missing ones are left blank.
func ParseHospitals(r io.Reader) ([]Hospital, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true

	header, err := cr.Read()
	if err == io.EOF {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading header: %w", err)
	}
	col := make(map[string]int, len(header))
	for i, h := range header {
		col[strings.TrimSpace(strings.TrimPrefix(h, "\ufeff"))] = i
	}
	field := func(rec []string, name string) string {
		i, ok := col[name]
		if !ok || i >= len(rec) {
			return ""
		}
		return strings.TrimSpace(rec[i])
	}

	var out []Hospital
	for {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("reading row %d: %w", len(out)+2, err)
		}
		out = append(out, Hospital{
			CCN:          field(rec, "Facility ID"),
			Name:         field(rec, "Facility Name"),
			Address:      field(rec, "Address"),
			City:         field(rec, "City/Town"),
			State:        field(rec, "State"),
			ZIP:          field(rec, "ZIP Code"),
			HospitalType: field(rec, "Hospital Type"),
		})
	}
	return out, nil
}
