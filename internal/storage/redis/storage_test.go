package redis

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/suite"

	"github.com/mcoot/mudaccounts/internal/model"
	"github.com/mcoot/mudaccounts/internal/storage"
)

type StorageSuite struct {
	suite.Suite
	mini    *miniredis.Miniredis
	storage *Storage
	ctx     context.Context
}

func TestStorageSuite(t *testing.T) {
	suite.Run(t, new(StorageSuite))
}

func (s *StorageSuite) SetupTest() {
	s.mini = miniredis.RunT(s.T())

	client := redis.NewClient(&redis.Options{
		Addr: s.mini.Addr(),
	})

	s.storage = NewWithClient(client, DefaultConfig())
	s.ctx = context.Background()
}

func (s *StorageSuite) TearDownTest() {
	if s.storage != nil {
		_ = s.storage.Close()
	}
	if s.mini != nil {
		s.mini.Close()
	}
}

func (s *StorageSuite) TestWriteAndReadFile() {
	err := s.storage.WriteFile(s.ctx, storage.KindAccount, "Alice", []byte("Name: Alice\n"))
	s.Require().NoError(err)

	data, err := s.storage.ReadFile(s.ctx, storage.KindAccount, "alice")
	s.Require().NoError(err)
	s.Equal("Name: Alice\n", string(data))
}

func (s *StorageSuite) TestKeyMirrorsFileLayout() {
	_ = s.storage.WriteFile(s.ctx, storage.KindAccount, "alice", []byte("x"))
	_ = s.storage.WriteFile(s.ctx, storage.KindIndex, "", []byte("~\n"))

	s.True(s.mini.Exists("mudacct:file:A-E/alice.acct"))
	s.True(s.mini.Exists("mudacct:file:index"))
}

func (s *StorageSuite) TestFilesHaveNoTTL() {
	_ = s.storage.WriteFile(s.ctx, storage.KindAccount, "alice", []byte("x"))

	s.Equal(time.Duration(0), s.mini.TTL("mudacct:file:A-E/alice.acct"))
}

func (s *StorageSuite) TestReadFileNotFound() {
	_, err := s.storage.ReadFile(s.ctx, storage.KindAccount, "nobody")
	s.ErrorIs(err, model.ErrFileNotFound)
}

func (s *StorageSuite) TestRemoveFile() {
	_ = s.storage.WriteFile(s.ctx, storage.KindObjects, "bob", []byte("x"))

	s.Require().NoError(s.storage.RemoveFile(s.ctx, storage.KindObjects, "bob"))
	_, err := s.storage.ReadFile(s.ctx, storage.KindObjects, "bob")
	s.ErrorIs(err, model.ErrFileNotFound)

	s.NoError(s.storage.RemoveFile(s.ctx, storage.KindObjects, "bob"))
}

func (s *StorageSuite) TestCustomPrefix() {
	cfg := DefaultConfig()
	cfg.KeyPrefix = "test"
	store := NewWithClient(redis.NewClient(&redis.Options{Addr: s.mini.Addr()}), cfg)
	defer func() { _ = store.Close() }()

	_ = store.WriteFile(s.ctx, storage.KindAccount, "bob", []byte("x"))
	s.True(s.mini.Exists("test:file:A-E/bob.acct"))
}

func (s *StorageSuite) TestInvalidName() {
	err := s.storage.WriteFile(s.ctx, storage.KindAccount, "no/slash", []byte("x"))
	s.ErrorIs(err, model.ErrInvalidName)
}
