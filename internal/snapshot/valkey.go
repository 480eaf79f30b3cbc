// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package snapshot

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// keyPrefix namespaces snapshot keys inside a shared Valkey database.
const keyPrefix = "snapshot:"

// Valkey stores the snapshot as a plain string value without expiry.
type Valkey struct {
	client *redis.Client
	key    string
}

// NewValkey returns a backend over the given client.
func NewValkey(client *redis.Client, key string) *Valkey {
	return &Valkey{client: client, key: keyPrefix + key}
}

func (v *Valkey) Load(ctx context.Context) ([]byte, error) {
	val, err := v.client.Get(ctx, v.key).Bytes()
	if err == redis.Nil {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("valkey load %q: %w", v.key, err)
	}
	return val, nil
}

func (v *Valkey) Save(ctx context.Context, data []byte) error {
	if err := v.client.Set(ctx, v.key, data, 0).Err(); err != nil {
		return fmt.Errorf("valkey save %q: %w", v.key, err)
	}
	return nil
}
