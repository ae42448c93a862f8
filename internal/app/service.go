// Package app assembles the lookup pipeline from configuration.
package app

import (
	"log"
	"net/http"

	"grouporder-workers/config"
	"grouporder-workers/internal/credential"
	"grouporder-workers/internal/geocode"
	"grouporder-workers/internal/ubereats"
)

// NewLookupService builds the credential store, provider client and geocoder,
// with the Redis cache in front of the geocoder when REDIS_URL is set.
func NewLookupService(cfg *config.Config) (*ubereats.Service, *credential.Store) {
	httpClient := &http.Client{Timeout: cfg.UberEats.RequestTimeout}

	creds := credential.New(credential.Options{
		Path:       cfg.UberEats.CredentialFile,
		EnvToken:   cfg.UberEats.SID,
		LoginURL:   cfg.UberEats.LoginURL,
		ProbeURLs:  ubereats.ProbeURLs(cfg.UberEats.BaseURL),
		HTTPClient: httpClient,
	})
	creds.Load()

	var geocoder geocode.Reverser = geocode.NewNominatim(cfg.Geocoder.BaseURL, cfg.Geocoder.UserAgent,
		cfg.Geocoder.RequestsPerSecond, httpClient)
	if cfg.Redis.URL != "" {
		rdb, err := geocode.NewRedisClient(cfg.Redis.URL)
		if err != nil {
			log.Printf("✗ Geocode cache disabled: %v", err)
		} else {
			geocoder = geocode.NewCache(geocoder, rdb, cfg.Geocoder.CacheTTL)
			log.Println("✓ Geocode cache enabled")
		}
	}

	client := ubereats.NewClient(cfg.UberEats.BaseURL, cfg.UberEats.RequestTimeout, httpClient)
	return ubereats.NewService(client, creds, geocoder), creds
}
