package geoip

import (
	"context"
	"io"
	stdlog "log"
	"net/url"
	"time"

	"github.com/citsci/scirec/internal/utils"
	"github.com/citsci/scirec/pkg/geo"
	"github.com/hashicorp/go-retryablehttp"
	"github.com/tidwall/gjson"
)

const defaultBaseURL = "https://ipinfo.io/"

// Config for the IP geolocation service. Token is optional; when set it is
// forwarded as a query parameter the way ipinfo.io expects.
type Config struct {
	BaseURL string
	Token   string
	Timeout time.Duration
}

// Client resolves a network address to an approximate coordinate pair. The
// service is an external collaborator: the rest of the system treats Lookup
// as an opaque function that either yields a point or doesn't.
type Client struct {
	cfg  Config
	http *retryablehttp.Client
}

func NewClient(cfg Config) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = defaultBaseURL
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}

	retryClient := retryablehttp.NewClient()
	retryClient.Logger = stdlog.New(io.Discard, "", 0)
	retryClient.RetryMax = 2
	retryClient.HTTPClient.Timeout = cfg.Timeout

	return &Client{cfg: cfg, http: retryClient}
}

// Lookup resolves addr to a coordinate pair. A miss (unknown address,
// unparsable body) returns (nil, nil); only transport-level failures return
// an error. Callers degrade both to "no location".
func (c *Client) Lookup(ctx context.Context, addr string) (*geo.Point, error) {
	lookupURL := c.cfg.BaseURL + addr
	if c.cfg.Token != "" {
		lookupURL += "?token=" + url.QueryEscape(c.cfg.Token)
	}

	req, err := retryablehttp.NewRequestWithContext(ctx, "GET", lookupURL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != 200 {
		utils.Log.Debugf("Location lookup for %s returned status %d", addr, resp.StatusCode)
		return nil, nil
	}
	// Some deployments report misses inside a 200 body.
	if gjson.GetBytes(body, "status").Int() == 404 {
		return nil, nil
	}
	loc := gjson.GetBytes(body, "loc").String()
	point, ok := geo.ParsePair(loc)
	if !ok {
		utils.Log.Debugf("Location lookup for %s returned unparsable loc %q", addr, loc)
		return nil, nil
	}
	return &point, nil
}
