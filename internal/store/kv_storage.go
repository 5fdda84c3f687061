package store

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/storage/memory/v2"
)

// KVStorage namespaces every key of the wrapped storage with a prefix.
type KVStorage struct {
	fiber.Storage
	keyPrefix string
}

func (s *KVStorage) Get(key string) ([]byte, error) {
	return s.Storage.Get(s.keyPrefix + key)
}

func (s *KVStorage) Set(key string, val []byte, exp time.Duration) error {
	return s.Storage.Set(s.keyPrefix+key, val, exp)
}

func (s *KVStorage) Delete(key string) error {
	return s.Storage.Delete(s.keyPrefix + key)
}

func NewKVStorage(storage fiber.Storage, keyPrefix string) fiber.Storage {
	return &KVStorage{
		Storage:   storage,
		keyPrefix: keyPrefix,
	}
}

// NewMemoryStorage returns a process local storage for session data.
func NewMemoryStorage(gcInterval time.Duration) fiber.Storage {
	return memory.New(memory.Config{GCInterval: gcInterval})
}
