package catalog

import (
	"context"
	"errors"
	"fmt"
	"io"
	stdlog "log"
	"time"

	"github.com/citsci/scirec/internal/utils"
	"github.com/hashicorp/go-retryablehttp"
	"github.com/tidwall/gjson"
)

// ErrBadConfig is returned when the client is constructed without the
// remote service coordinates it needs.
var ErrBadConfig = errors.New("catalog: base URL and opportunities endpoint must be configured")

const defaultEnvelopeKey = "matches"

// Config holds the remote catalog coordinates. OpportunitiesKey names the
// array field inside the list-response envelope; it is configuration rather
// than a hardcoded key so the client stays agnostic of the exact remote
// schema.
type Config struct {
	BaseURL          string
	Endpoint         string
	OpportunitiesKey string
	Timeout          time.Duration
}

// Client talks to the remote opportunity catalog. It issues two kinds of
// calls: a full listing with partial per-record info, and a per-uid detail
// fetch.
type Client struct {
	cfg  Config
	http *retryablehttp.Client
}

func NewClient(cfg Config) (*Client, error) {
	if cfg.BaseURL == "" || cfg.Endpoint == "" {
		return nil, ErrBadConfig
	}
	if cfg.OpportunitiesKey == "" {
		cfg.OpportunitiesKey = defaultEnvelopeKey
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}

	retryClient := retryablehttp.NewClient()
	retryClient.Logger = stdlog.New(io.Discard, "", 0)
	retryClient.RetryMax = 2
	retryClient.HTTPClient.Timeout = cfg.Timeout

	return &Client{cfg: cfg, http: retryClient}, nil
}

func (c *Client) listURL() string {
	return c.cfg.BaseURL + c.cfg.Endpoint
}

func (c *Client) detailURL(uid string) string {
	return c.listURL() + uid
}

// ListOpportunities fetches the full catalog snapshot: every opportunity the
// remote service knows about, with partial per-record information. Any
// failure here is a hard one; there is nothing to sync without a snapshot.
func (c *Client) ListOpportunities(ctx context.Context) ([]Opportunity, error) {
	body, status, err := c.get(ctx, c.listURL())
	if err != nil {
		return nil, fmt.Errorf("catalog: list request failed: %w", err)
	}
	if status != 200 {
		return nil, fmt.Errorf("catalog: list returned status %d", status)
	}
	if !gjson.ValidBytes(body) {
		return nil, errors.New("catalog: list response is not valid JSON")
	}
	arr := gjson.GetBytes(body, c.cfg.OpportunitiesKey)
	if !arr.IsArray() {
		return nil, fmt.Errorf("catalog: list envelope has no %q array, check opportunities_json_key", c.cfg.OpportunitiesKey)
	}

	var opps []Opportunity
	for _, item := range arr.Array() {
		opps = append(opps, flatten(item))
	}
	utils.Log.Infof("Loaded %d opportunities from catalog", len(opps))
	return opps, nil
}

// OpportunityDetail fetches the full field mapping for one opportunity,
// filtered to fields when non-empty. A failed or empty response yields nil
// rather than an error: detail misses are per-item and the caller skips the
// item for this cycle.
func (c *Client) OpportunityDetail(ctx context.Context, uid string, fields []string) Opportunity {
	body, status, err := c.get(ctx, c.detailURL(uid))
	if err != nil {
		utils.Log.Debugf("Detail fetch for %s failed: %v", uid, err)
		return nil
	}
	if status != 200 || len(body) == 0 {
		utils.Log.Debugf("Detail fetch for %s returned status %d", uid, status)
		return nil
	}
	parsed := gjson.ParseBytes(body)
	if !parsed.IsObject() {
		utils.Log.Debugf("Detail response for %s is not a JSON object", uid)
		return nil
	}

	detail := flatten(parsed)
	if len(fields) == 0 {
		return detail
	}
	keep := make(map[string]bool, len(fields))
	for _, f := range fields {
		keep[f] = true
	}
	for k := range detail {
		if !keep[k] {
			delete(detail, k)
		}
	}
	return detail
}

func (c *Client) get(ctx context.Context, url string) ([]byte, int, error) {
	req, err := retryablehttp.NewRequestWithContext(ctx, "GET", url, nil)
	if err != nil {
		return nil, 0, err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, 0, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, resp.StatusCode, err
	}
	return body, resp.StatusCode, nil
}

// flatten turns a JSON object into a sparse string map. Scalars keep their
// text form, nested arrays/objects keep their raw JSON so unknown fields
// survive a round trip through the cache file untouched.
func flatten(obj gjson.Result) Opportunity {
	opp := Opportunity{}
	obj.ForEach(func(key, value gjson.Result) bool {
		switch value.Type {
		case gjson.String:
			opp[key.String()] = value.String()
		case gjson.Null:
			// Dropped: a null field is an absent field.
		default:
			opp[key.String()] = value.Raw
		}
		return true
	})
	return opp
}
