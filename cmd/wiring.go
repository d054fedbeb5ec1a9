package cmd

import (
	"github.com/spf13/viper"

	"github.com/citsci/scirec/pkg/cache"
	"github.com/citsci/scirec/pkg/catalog"
	"github.com/citsci/scirec/pkg/geoip"
	"github.com/citsci/scirec/pkg/journal"
	"github.com/citsci/scirec/pkg/recommend"
)

func newCache() (*cache.Cache, error) {
	client, err := catalog.NewClient(catalog.Config{
		BaseURL:          viper.GetString("catalog.base_url"),
		Endpoint:         viper.GetString("catalog.opportunities_endpoint"),
		OpportunitiesKey: viper.GetString("catalog.opportunities_json_key"),
	})
	if err != nil {
		return nil, err
	}
	return cache.New(client, cache.Config{
		Path:   viper.GetString("cache.path"),
		Fields: viper.GetStringSlice("cache.fields"),
	}), nil
}

func newEngine(c *cache.Cache) *recommend.Engine {
	resolver := geoip.NewClient(geoip.Config{
		BaseURL: viper.GetString("ipinfo.base_url"),
		Token:   viper.GetString("ipinfo.token"),
	})
	return recommend.New(c, resolver)
}

// openJournal returns (nil, nil) when no journal path is configured.
func openJournal() (*journal.DB, error) {
	path := viper.GetString("journal.path")
	if path == "" {
		return nil, nil
	}
	return journal.Open(path)
}
