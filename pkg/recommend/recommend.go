// Package recommend ranks active opportunities by geodesic distance from a
// client's resolved location.
package recommend

import (
	"context"
	"sort"

	"github.com/citsci/scirec/internal/utils"
	"github.com/citsci/scirec/pkg/catalog"
	"github.com/citsci/scirec/pkg/geo"
)

// RecordSource supplies the materialized record set. *cache.Cache satisfies
// it.
type RecordSource interface {
	Loaded() bool
	Sync(ctx context.Context, incremental bool) (int, error)
	Records() []catalog.Opportunity
}

// Resolver turns a network address into an approximate location, or nil on a
// miss. *geoip.Client satisfies it.
type Resolver interface {
	Lookup(ctx context.Context, addr string) (*geo.Point, error)
}

type Engine struct {
	source   RecordSource
	resolver Resolver
}

func New(source RecordSource, resolver Resolver) *Engine {
	return &Engine{source: source, resolver: resolver}
}

type ranked struct {
	uid      string
	distance float64
}

// Recommend returns the uids of the count nearest active opportunities to
// the resolved location of address, nearest first. maxDistanceKm <= 0 means
// unbounded. A failed address resolution degrades to an empty result rather
// than an error; only a failed lazy sync is fatal.
func (e *Engine) Recommend(ctx context.Context, address string, count int, maxDistanceKm float64) ([]string, error) {
	if count <= 0 {
		return []string{}, nil
	}
	if !e.source.Loaded() {
		utils.Log.Info("No record set in memory, syncing before recommending")
		if _, err := e.source.Sync(ctx, true); err != nil {
			return nil, err
		}
	}

	location, err := e.resolver.Lookup(ctx, address)
	if err != nil {
		utils.Log.Debugf("Location resolution for %s failed: %v", address, err)
		return []string{}, nil
	}
	if location == nil {
		return []string{}, nil
	}

	var candidates []ranked
	for _, rec := range e.source.Records() {
		if rec.HasEnd() {
			continue
		}
		point, ok := geo.ParsePair(rec[catalog.FieldCoords])
		if !ok {
			// No usable coordinates, never a candidate.
			continue
		}
		d := geo.DistanceKm(point, *location)
		if maxDistanceKm > 0 && d > maxDistanceKm {
			continue
		}
		candidates = append(candidates, ranked{uid: rec.UID(), distance: d})
	}

	// Stable sort: ties keep original row order so results are deterministic.
	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].distance < candidates[j].distance
	})
	if len(candidates) > count {
		candidates = candidates[:count]
	}

	uids := make([]string, 0, len(candidates))
	for _, c := range candidates {
		uids = append(uids, c.uid)
	}
	return uids, nil
}
