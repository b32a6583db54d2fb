package cache

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/emrgen/linktrace/internal/compress"
	"github.com/emrgen/linktrace/internal/model"
	redis "github.com/redis/go-redis/v9"
)

const (
	linkTTL = time.Hour
	metaTTL = 6 * time.Hour
)

func linkKey(id string) string {
	return "link:" + id
}

func metaKey(url string) string {
	return "link:meta:" + url
}

// Redis caches hot link records and scraped page metadata. Payloads go
// through the compress encoder before hitting the wire; a cache miss is
// (nil, nil), never an error the caller has to branch on.
type Redis struct {
	client  *redis.Client
	encoder compress.Compress
}

func NewRedis(addr string, encoder compress.Compress) *Redis {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: "", // No password set
		DB:       0,  // Use default DB
		Protocol: 2,  // Connection protocol
	})

	if encoder == nil {
		encoder = compress.NewGZip()
	}

	return &Redis{client: client, encoder: encoder}
}

// Ping reports whether the cache is reachable. The service degrades to
// store-only reads when it is not.
func (r *Redis) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}

func (r *Redis) GetLink(ctx context.Context, id string) (*model.Link, error) {
	res := r.client.Get(ctx, linkKey(id))
	if res.Err() != nil {
		if errors.Is(res.Err(), redis.Nil) {
			return nil, nil
		}
		return nil, res.Err()
	}

	buf, err := res.Bytes()
	if err != nil {
		return nil, err
	}

	data, err := r.encoder.Decode(buf)
	if err != nil {
		return nil, err
	}

	link := &model.Link{}
	if err := json.Unmarshal(data, link); err != nil {
		return nil, err
	}

	return link, nil
}

func (r *Redis) SetLink(ctx context.Context, link *model.Link) error {
	marshal, err := json.Marshal(link)
	if err != nil {
		return err
	}

	data, err := r.encoder.Encode(marshal)
	if err != nil {
		return err
	}

	return r.client.Set(ctx, linkKey(link.ID), data, linkTTL).Err()
}

func (r *Redis) DeleteLink(ctx context.Context, id string) error {
	return r.client.Del(ctx, linkKey(id)).Err()
}

// GetMeta returns a cached metadata payload for a destination URL, decoded
// into out. The boolean reports a hit.
func (r *Redis) GetMeta(ctx context.Context, url string, out any) (bool, error) {
	res := r.client.Get(ctx, metaKey(url))
	if res.Err() != nil {
		if errors.Is(res.Err(), redis.Nil) {
			return false, nil
		}
		return false, res.Err()
	}

	buf, err := res.Bytes()
	if err != nil {
		return false, err
	}

	data, err := r.encoder.Decode(buf)
	if err != nil {
		return false, err
	}

	if err := json.Unmarshal(data, out); err != nil {
		return false, err
	}

	return true, nil
}

func (r *Redis) SetMeta(ctx context.Context, url string, meta any) error {
	marshal, err := json.Marshal(meta)
	if err != nil {
		return err
	}

	data, err := r.encoder.Encode(marshal)
	if err != nil {
		return err
	}

	return r.client.Set(ctx, metaKey(url), data, metaTTL).Err()
}
