// Package cache owns the durable opportunity record set: a flat CSV file
// reconciled against the remote catalog either by full rebuild or by an
// incremental append-only merge of missing uids.
package cache

import (
	"context"
	"fmt"
	"os"
	"sort"

	"github.com/citsci/scirec/internal/utils"
	"github.com/citsci/scirec/pkg/catalog"
	"github.com/citsci/scirec/pkg/geo"
)

// DefaultPath is where the record set lives when the caller doesn't say.
const DefaultPath = "opportunities.csv"

type Config struct {
	// Path of the CSV record set.
	Path string
	// Fields filters the per-opportunity detail fetch. Defaults to
	// catalog.DefaultDetailFields.
	Fields []string
}

// Cache reconciles the persisted record set with the remote catalog and
// holds the in-memory materialization the recommendation engine reads.
// Single-writer: one Cache instance per path, one sync in flight at a time.
type Cache struct {
	client *catalog.Client
	cfg    Config

	snapshot []catalog.Opportunity
	records  []catalog.Opportunity
	columns  []string
}

func New(client *catalog.Client, cfg Config) *Cache {
	if cfg.Path == "" {
		cfg.Path = DefaultPath
	}
	if len(cfg.Fields) == 0 {
		cfg.Fields = catalog.DefaultDetailFields
	}
	return &Cache{client: client, cfg: cfg}
}

// Sync is the primary entry point. It fetches a fresh catalog snapshot and
// reconciles the record set against it: a full rebuild when no record set
// exists yet (or incremental is false), an append-only merge of missing uids
// otherwise. Returns the number of rows added this cycle.
func (c *Cache) Sync(ctx context.Context, incremental bool) (int, error) {
	snapshot, err := c.client.ListOpportunities(ctx)
	if err != nil {
		return 0, fmt.Errorf("cache: cannot sync without a snapshot: %w", err)
	}
	c.snapshot = snapshot

	if _, err := os.Stat(c.cfg.Path); err != nil {
		// No record set on disk: incremental has no base to merge into.
		incremental = false
	}
	if !incremental {
		return c.rebuild(ctx, snapshot)
	}
	return c.merge(ctx, snapshot)
}

// Rebuild discards any persisted record set and recomputes it from scratch.
// Expensive: one detail fetch per opportunity in the snapshot.
func (c *Cache) Rebuild(ctx context.Context) (int, error) {
	snapshot, err := c.client.ListOpportunities(ctx)
	if err != nil {
		return 0, fmt.Errorf("cache: cannot rebuild without a snapshot: %w", err)
	}
	c.snapshot = snapshot
	return c.rebuild(ctx, snapshot)
}

func (c *Cache) rebuild(ctx context.Context, snapshot []catalog.Opportunity) (int, error) {
	records := make([]catalog.Opportunity, 0, len(snapshot))
	for _, partial := range snapshot {
		records = append(records, c.enrich(ctx, partial))
	}
	columns := buildColumns(records)
	if err := writeRecordSet(c.cfg.Path, columns, records); err != nil {
		return 0, err
	}
	c.records, c.columns = records, columns
	utils.Log.Infof("Rebuilt record set with %d rows at %s", len(records), c.cfg.Path)
	return len(records), nil
}

func (c *Cache) merge(ctx context.Context, snapshot []catalog.Opportunity) (int, error) {
	records, columns, err := readRecordSet(c.cfg.Path)
	if err != nil {
		// The previous record set stays untouched on disk.
		return 0, err
	}

	cached := make(map[string]bool, len(records))
	for _, rec := range records {
		cached[rec.UID()] = true
	}
	byUID := make(map[string]catalog.Opportunity, len(snapshot))
	var missing []string
	for _, partial := range snapshot {
		uid := partial.UID()
		byUID[uid] = partial
		if uid != "" && !cached[uid] {
			cached[uid] = true
			missing = append(missing, uid)
		}
	}
	// Sorted so re-runs fetch and append in a reproducible order.
	sort.Strings(missing)

	for _, uid := range missing {
		rec := c.enrich(ctx, byUID[uid])
		records = append(records, rec)
		columns = appendColumns(columns, rec)
	}
	// Rows whose uid has vanished from the snapshot are kept: the record set
	// is append-only by policy, stale rows are never swept.
	if err := writeRecordSet(c.cfg.Path, columns, records); err != nil {
		return 0, err
	}
	c.records, c.columns = records, columns
	utils.Log.Infof("Sync added %d rows, %d total", len(missing), len(records))
	return len(missing), nil
}

// enrich merges the per-uid detail fields into a partial snapshot record and
// derives the coords column. A failed detail fetch keeps the partial row;
// one broken item must not abort the whole cycle.
func (c *Cache) enrich(ctx context.Context, partial catalog.Opportunity) catalog.Opportunity {
	rec := partial.Clone()
	uid := rec.UID()
	if detail := c.client.OpportunityDetail(ctx, uid, c.cfg.Fields); detail != nil {
		for k, v := range detail {
			rec[k] = v
		}
	} else {
		utils.Log.Warnf("No detail for %s this cycle, recording partial row", uid)
	}
	if point, ok := geo.ParseLocationPoint(rec[catalog.FieldLocationPoint]); ok {
		rec[catalog.FieldCoords] = geo.FormatPair(point)
	}
	return rec
}

// Opportunities lists the remote catalog and refreshes the in-memory
// snapshot. Thin pass-through to the catalog client.
func (c *Cache) Opportunities(ctx context.Context) ([]catalog.Opportunity, error) {
	opps, err := c.client.ListOpportunities(ctx)
	if err != nil {
		return nil, err
	}
	c.snapshot = opps
	return opps, nil
}

// Opportunity fetches detail fields for one uid. Nil means the remote had
// nothing usable this cycle.
func (c *Cache) Opportunity(ctx context.Context, uid string, fields []string) catalog.Opportunity {
	return c.client.OpportunityDetail(ctx, uid, fields)
}

// Snapshot returns the partial listing from the most recent list call or
// sync, nil if none has happened yet.
func (c *Cache) Snapshot() []catalog.Opportunity {
	return c.snapshot
}

// Loaded reports whether a record set has been materialized in memory.
func (c *Cache) Loaded() bool {
	return c.records != nil
}

// Records returns the in-memory record set in persisted row order.
func (c *Cache) Records() []catalog.Opportunity {
	return c.records
}

func (c *Cache) Len() int {
	return len(c.records)
}

func (c *Cache) Path() string {
	return c.cfg.Path
}
