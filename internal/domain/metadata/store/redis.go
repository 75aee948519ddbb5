package store

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/redis/go-redis/v9"

	"imagemeta-server-go/internal/domain/metadata"
	"imagemeta-server-go/internal/platform/config"
	"imagemeta-server-go/internal/platform/errors"
)

const defaultRedisPrefix = "prompt:rule:"

// RedisStore keeps each rule as a JSON value under a prefixed key. Rules
// never expire.
type RedisStore struct {
	client *redis.Client
	prefix string
}

func NewRedisStore(conf config.RedisStoreConfig) (*RedisStore, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     conf.Addr,
		Username: conf.Username,
		Password: conf.Password,
		DB:       conf.DB,
	})
	if err := client.Ping(context.Background()).Err(); err != nil {
		return nil, errors.Wrap(errors.KindStorage, "store.NewRedisStore", "ping redis", err)
	}

	prefix := conf.Prefix
	if prefix == "" {
		prefix = defaultRedisPrefix
	}
	return &RedisStore{client: client, prefix: prefix}, nil
}

func (s *RedisStore) key(property string) string {
	return s.prefix + property
}

func (s *RedisStore) Put(ctx context.Context, rule metadata.PromptRule) error {
	payload, err := json.Marshal(rule)
	if err != nil {
		return errors.Wrap(errors.KindStorage, "store.Put", "marshal prompt rule", err)
	}
	return errors.Wrap(errors.KindStorage, "store.Put", "set prompt rule",
		s.client.Set(ctx, s.key(rule.Property), payload, 0).Err())
}

func (s *RedisStore) Get(ctx context.Context, property string) (metadata.PromptRule, error) {
	payload, err := s.client.Get(ctx, s.key(property)).Bytes()
	if err == redis.Nil {
		return metadata.PromptRule{}, ErrNotFound
	}
	if err != nil {
		return metadata.PromptRule{}, errors.Wrap(errors.KindStorage, "store.Get", "get prompt rule", err)
	}

	var rule metadata.PromptRule
	if err := json.Unmarshal(payload, &rule); err != nil {
		return metadata.PromptRule{}, errors.Wrap(errors.KindStorage, "store.Get", "decode prompt rule", err)
	}
	return rule, nil
}

func (s *RedisStore) List(ctx context.Context) ([]metadata.PromptRule, error) {
	var rules []metadata.PromptRule
	iter := s.client.Scan(ctx, 0, s.prefix+"*", 0).Iterator()
	for iter.Next(ctx) {
		property := strings.TrimPrefix(iter.Val(), s.prefix)
		rule, err := s.Get(ctx, property)
		if err == ErrNotFound {
			continue
		}
		if err != nil {
			return nil, err
		}
		rules = append(rules, rule)
	}
	if err := iter.Err(); err != nil {
		return nil, errors.Wrap(errors.KindStorage, "store.List", "scan prompt rules", err)
	}
	return rules, nil
}

func (s *RedisStore) Remove(ctx context.Context, property string) error {
	return errors.Wrap(errors.KindStorage, "store.Remove", "delete prompt rule",
		s.client.Del(ctx, s.key(property)).Err())
}

func (s *RedisStore) Close(_ context.Context) error {
	return s.client.Close()
}
