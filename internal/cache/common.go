package cache

import (
	"context"
	"crypto/tls"
	"encoding/json"
	"fmt"
	"time"

	"authgate/internal/configuration"
	"authgate/internal/models"

	"github.com/redis/rueidis"
)

type RueidisCache struct {
	client rueidis.Client
}

func newRueidisCache(
	hosts []string,
	password string,
	tlsEnabled bool,
	tlsServerName,
	errorContext string,
) (*RueidisCache, error) {
	clientOption := rueidis.ClientOption{
		InitAddress: hosts,
		Password:    password,
	}

	if tlsEnabled {
		clientOption.TLSConfig = &tls.Config{
			ServerName: tlsServerName,
			MinVersion: tls.VersionTLS12,
		}
	}

	client, err := rueidis.NewClient(clientOption)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to %s: %w", errorContext, err)
	}
	return &RueidisCache{client: client}, nil
}

func NewRedisCache(config models.RedisCacheConfiguration) (*RueidisCache, error) {
	return newRueidisCache(config.Hosts, config.Password, config.TLSEnabled, config.TLSServerName, "redis")
}

func NewValkeyCache(config models.ValkeyCacheConfiguration) (*RueidisCache, error) {
	return newRueidisCache(config.Hosts, config.Password, config.TLSEnabled, config.TLSServerName, "valkey")
}

func (r *RueidisCache) GetSession(ctx context.Context, browserID string) (*models.Session, error) {
	key := fmt.Sprintf(configuration.CacheSessionKey, browserID)

	raw, err := r.client.Do(ctx, r.client.B().Get().Key(key).Build()).AsBytes()
	if err != nil {
		if rueidis.IsRedisNil(err) {
			return nil, nil
		}
		return nil, err
	}

	var session models.Session
	if err = json.Unmarshal(raw, &session); err != nil {
		return nil, fmt.Errorf("corrupt session for browser %s: %w", browserID, err)
	}
	return &session, nil
}

func (r *RueidisCache) SetSession(ctx context.Context, browserID string, session *models.Session) error {
	key := fmt.Sprintf(configuration.CacheSessionKey, browserID)

	raw, err := json.Marshal(session)
	if err != nil {
		return err
	}

	return r.client.Do(ctx,
		r.client.B().Set().Key(key).Value(rueidis.BinaryString(raw)).ExSeconds(configuration.CacheSessionTTL).Build(),
	).Error()
}

func (r *RueidisCache) DeleteSession(ctx context.Context, browserID string) error {
	key := fmt.Sprintf(configuration.CacheSessionKey, browserID)
	return r.client.Do(ctx, r.client.B().Del().Key(key).Build()).Error()
}

func (r *RueidisCache) SetVerifier(ctx context.Context, browserID string, verifier string) error {
	key := fmt.Sprintf(configuration.CacheVerifierKey, browserID)
	return r.client.Do(ctx,
		r.client.B().Set().Key(key).Value(verifier).ExSeconds(configuration.CacheVerifierTTL).Build(),
	).Error()
}

func (r *RueidisCache) PopVerifier(ctx context.Context, browserID string) (string, error) {
	key := fmt.Sprintf(configuration.CacheVerifierKey, browserID)

	verifier, err := r.client.Do(ctx, r.client.B().Getdel().Key(key).Build()).ToString()
	if err != nil {
		if rueidis.IsRedisNil(err) {
			return "", nil
		}
		return "", err
	}
	return verifier, nil
}

func (r *RueidisCache) GetRateLimit(ctx context.Context, identifier string, requestsPerMinute int) (int, error) {
	key := fmt.Sprintf(configuration.CacheRateLimitKey, identifier)
	count, err := r.client.Do(ctx, r.client.B().Incr().Key(key).Build()).AsInt64()
	if err != nil {
		return 0, err
	}

	if count == 1 {
		expireErr := r.client.Do(ctx, r.client.B().Expire().Key(key).Seconds(int64(1*time.Minute.Seconds())).Build()).
			Error()
		if expireErr != nil {
			return 0, expireErr
		}
	}

	if int(count) > requestsPerMinute {
		retryAfter, ttlErr := r.client.Do(ctx, r.client.B().Ttl().Key(key).Build()).AsInt64()
		if ttlErr != nil {
			return 0, ttlErr
		}

		return int(retryAfter), nil
	}

	return 0, nil
}

func (r *RueidisCache) Close() error {
	r.client.Close()
	return nil
}
