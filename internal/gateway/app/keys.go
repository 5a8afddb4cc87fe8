package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/clearhaven/idgate/pkg/jwtx"
)

// InitVerifierKeys loads the provider's public keys and builds the token
// verifier. Keys come from the JWKS endpoint when a URL is configured,
// otherwise from a local JWKS file.
func InitVerifierKeys(ctx context.Context, cfg Config, logger *slog.Logger) (*jwtx.KeySet, jwtx.Verifier, error) {
	var (
		jwks jwtx.JWKS
		err  error
	)

	switch {
	case cfg.JWKSURL != "":
		jwks, err = jwtx.FetchJWKS(ctx, cfg.JWKSURL)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to fetch provider JWKS: %w", err)
		}
		logger.Info("provider JWKS fetched", "url", cfg.JWKSURL, "keys", len(jwks.Keys))
	case cfg.JWKSFile != "":
		jwks, err = jwtx.LoadJWKSFile(cfg.JWKSFile)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to load provider JWKS file: %w", err)
		}
		logger.Info("provider JWKS loaded", "file", cfg.JWKSFile, "keys", len(jwks.Keys))
	default:
		return nil, nil, errors.New("no provider key source configured (set GATEWAY_JWKS_URL or GATEWAY_JWKS_FILE)")
	}

	keys := jwtx.NewKeySet()
	if err := keys.ResetFromJWKS(jwks); err != nil {
		return nil, nil, fmt.Errorf("failed to load provider keys: %w", err)
	}

	verifier, err := jwtx.NewVerifier(cfg.Algorithm, keys, cfg.Issuer, cfg.Audience)
	if err != nil {
		return nil, nil, err
	}

	return keys, verifier, nil
}

// jwksRefresher periodically re-fetches the provider's JWKS so key rotations
// on the provider side are picked up without a restart. Only active when a
// JWKS URL is configured.
type jwksRefresher struct {
	url      string
	interval time.Duration
	keys     *jwtx.KeySet
	logger   *slog.Logger

	stop chan struct{}
	done chan struct{}
}

func newJWKSRefresher(url string, interval time.Duration, keys *jwtx.KeySet, logger *slog.Logger) *jwksRefresher {
	return &jwksRefresher{
		url:      url,
		interval: interval,
		keys:     keys,
		logger:   logger,
		stop:     make(chan struct{}),
		done:     make(chan struct{}),
	}
}

func (r *jwksRefresher) Start() {
	go func() {
		defer close(r.done)

		ticker := time.NewTicker(r.interval)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				r.refresh()
			case <-r.stop:
				return
			}
		}
	}()
}

func (r *jwksRefresher) Stop() {
	close(r.stop)
	<-r.done
}

func (r *jwksRefresher) refresh() {
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	jwks, err := jwtx.FetchJWKS(ctx, r.url)
	if err != nil {
		// Keep serving with the keys we have.
		r.logger.Warn("JWKS refresh failed", "url", r.url, "err", err)
		return
	}

	if err := r.keys.ResetFromJWKS(jwks); err != nil {
		r.logger.Warn("JWKS refresh produced unusable keys", "url", r.url, "err", err)
		return
	}

	r.logger.Debug("provider JWKS refreshed", "keys", len(jwks.Keys))
}
