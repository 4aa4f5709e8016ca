package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
)

// Redis guarda un contador de versión por namespace y lo incluye en cada
// clave, así Invalidate es un solo INCR y las claves viejas vencen solas.
type Redis struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedis(client *redis.Client, defaultTTL time.Duration) *Redis {
	return &Redis{client: client, ttl: defaultTTL}
}

// DialRedis parsea una URL redis:// y hace ping al servidor.
func DialRedis(ctx context.Context, url string) (*redis.Client, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("invalid REDIS_URL: %w", err)
	}
	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}
	return client, nil
}

// Version devuelve el contador del namespace, creándolo en 1 si no existe.
func (r *Redis) Version(ctx context.Context, namespace string) (int64, error) {
	ver, err := r.client.Get(ctx, versionKey(namespace)).Int64()
	if err == nil {
		return ver, nil
	}
	if !errors.Is(err, redis.Nil) {
		return 0, err
	}
	if err := r.client.SetNX(ctx, versionKey(namespace), 1, 0).Err(); err != nil {
		return 0, err
	}
	return r.client.Get(ctx, versionKey(namespace)).Int64()
}

func (r *Redis) GetJSON(ctx context.Context, namespace string, version int64, key string, target interface{}) (bool, error) {
	data, err := r.client.Get(ctx, dataKey(namespace, version, key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if err := json.Unmarshal(data, target); err != nil {
		return false, err
	}
	return true, nil
}

// SetJSON escribe bajo la versión leída antes de la consulta. Si hubo un
// Invalidate en el medio, la clave queda huérfana y vence sola.
func (r *Redis) SetJSON(ctx context.Context, namespace string, version int64, key string, value interface{}, ttl time.Duration) error {
	if ttl <= 0 {
		ttl = r.ttl
	}
	data, err := json.Marshal(value)
	if err != nil {
		return err
	}
	return r.client.Set(ctx, dataKey(namespace, version, key), data, ttl).Err()
}

func (r *Redis) Invalidate(ctx context.Context, namespace string) error {
	newVersion, err := r.client.Incr(ctx, versionKey(namespace)).Result()
	if err != nil {
		return fmt.Errorf("failed to invalidate cache: %w", err)
	}
	zap.L().Debug("cache invalidated", zap.String("namespace", namespace), zap.Int64("version", newVersion))
	return nil
}

func (r *Redis) Close() error {
	return r.client.Close()
}

func versionKey(namespace string) string {
	return namespace + ":version"
}
