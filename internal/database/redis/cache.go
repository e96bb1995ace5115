package redis

import (
	"context"
	"encoding/json"
	"time"

	"github.com/cuidador-digital/backend/internal/entity"

	"github.com/redis/go-redis/v9"
)

// CacheRepository keeps patient lookups by WhatsApp address warm. Every
// inbound webhook does this lookup, so it sits in front of postgres.
type CacheRepository struct {
	client *redis.Client
	ttl    time.Duration
}

func NewCacheRepository(client *redis.Client, ttl time.Duration) *CacheRepository {
	return &CacheRepository{
		client: client,
		ttl:    ttl,
	}
}

func (r *CacheRepository) SetPatient(ctx context.Context, address string, patient *entity.Patient) error {
	data, err := json.Marshal(patient)
	if err != nil {
		return err
	}

	return r.client.Set(ctx, "patient:whatsapp:"+address, data, r.ttl).Err()
}

func (r *CacheRepository) GetPatient(ctx context.Context, address string) (*entity.Patient, error) {
	data, err := r.client.Get(ctx, "patient:whatsapp:"+address).Result()
	if err != nil {
		return nil, err
	}

	var patient entity.Patient
	err = json.Unmarshal([]byte(data), &patient)
	if err != nil {
		return nil, err
	}

	return &patient, nil
}

func (r *CacheRepository) DeletePatient(ctx context.Context, address string) error {
	return r.client.Del(ctx, "patient:whatsapp:"+address).Err()
}

func (r *CacheRepository) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}
