package accounts

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"
	"golang.org/x/crypto/bcrypt"

	"github.com/mcoot/mudaccounts/internal/dependencies/mocks"
	"github.com/mcoot/mudaccounts/internal/model"
	"github.com/mcoot/mudaccounts/internal/services/accountfile"
	"github.com/mcoot/mudaccounts/internal/services/cleanup"
	"github.com/mcoot/mudaccounts/internal/services/index"
	"github.com/mcoot/mudaccounts/internal/storage"
	"github.com/mcoot/mudaccounts/internal/storage/memory"
	"github.com/mcoot/mudaccounts/internal/testutil"
)

type ServiceSuite struct {
	suite.Suite
	storage *memory.Storage
	clock   *mocks.MockClock
	service *Service
	ctx     context.Context
}

func TestServiceSuite(t *testing.T) {
	suite.Run(t, new(ServiceSuite))
}

func (s *ServiceSuite) SetupTest() {
	s.storage = memory.New()
	s.clock = mocks.NewMockClock(time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC))
	s.ctx = context.Background()
	s.service = s.newService()
	s.Require().NoError(s.service.Load(s.ctx))
}

func (s *ServiceSuite) newService() *Service {
	logger := testutil.NopLogger()
	idx := index.New(s.storage, logger)
	files := accountfile.New(s.storage, idx, logger)
	sweeper := cleanup.NewService(idx, s.storage, s.clock, model.DefaultRetentionRules(), logger)
	return New(idx, files, sweeper, s.clock, Config{BcryptCost: bcrypt.MinCost}, logger)
}

func (s *ServiceSuite) register(name string) *model.AccountRecord {
	rec, err := s.service.Register(s.ctx, RegisterParams{Name: name, Password: "secret", Host: "127.0.0.1"})
	s.Require().NoError(err)
	return rec
}

// Register tests

func (s *ServiceSuite) TestRegisterFirstAccountIsAdmin() {
	first := s.register("Alice")
	second := s.register("bob")

	s.Equal("alice", first.Name)
	s.Equal(model.LevelAdmin, first.Level)
	s.Equal(model.LevelMortal, second.Level)
	s.Equal(int64(1), first.ID)
	s.Equal(int64(2), second.ID)
}

func (s *ServiceSuite) TestRegisterHashesPassword() {
	rec := s.register("alice")

	s.NotEqual("secret", rec.PasswordHash)
	s.NoError(bcrypt.CompareHashAndPassword([]byte(rec.PasswordHash), []byte("secret")))
}

func (s *ServiceSuite) TestRegisterPersistsFileAndIndex() {
	s.register("alice")

	_, err := s.storage.ReadFile(s.ctx, storage.KindAccount, "alice")
	s.Require().NoError(err)

	reloaded := s.newService()
	s.Require().NoError(reloaded.Load(s.ctx))
	entries := reloaded.List()
	s.Require().Len(entries, 1)
	s.Equal("alice", entries[0].Name)
	s.Equal(model.LevelAdmin, entries[0].Level)
	s.True(entries[0].LastLogin.Equal(s.clock.Now()))
}

func (s *ServiceSuite) TestRegisterDuplicateFails() {
	s.register("alice")

	_, err := s.service.Register(s.ctx, RegisterParams{Name: "ALICE", Password: "secret"})
	s.ErrorIs(err, model.ErrAccountExists)
	s.Len(s.service.List(), 1)
}

func (s *ServiceSuite) TestRegisterValidation() {
	_, err := s.service.Register(s.ctx, RegisterParams{Name: "bad name", Password: "secret"})
	s.ErrorIs(err, model.ErrInvalidName)

	_, err = s.service.Register(s.ctx, RegisterParams{Name: "waytoolongaccountname1", Password: "secret"})
	s.ErrorIs(err, model.ErrInvalidName)

	_, err = s.service.Register(s.ctx, RegisterParams{Name: "alice", Password: "abc"})
	s.ErrorIs(err, model.ErrWeakPassword)

	s.Empty(s.service.List())
}

func (s *ServiceSuite) TestRegisterRejectsBadEmail() {
	tests := []struct {
		name  string
		email string
	}{
		{"injected tag line", "m@x\nFlag: b"},
		{"carriage return", "m@x\rPass: x"},
		{"embedded space", "m @x"},
		{"no at sign", "mallory"},
		{"leading delimiter", ":m@x"},
		{"too long", strings.Repeat("e", 300) + "@x"},
	}
	for _, tt := range tests {
		_, err := s.service.Register(s.ctx, RegisterParams{Name: "mallory", Password: "secret", Email: tt.email})
		s.ErrorIs(err, model.ErrInvalidEmail, tt.name)
	}

	s.Empty(s.service.List())
	_, err := s.storage.ReadFile(s.ctx, storage.KindAccount, "mallory")
	s.ErrorIs(err, model.ErrFileNotFound)
}

func (s *ServiceSuite) TestRegisteredEmailCannotGrantProtection() {
	_, err := s.service.Register(s.ctx, RegisterParams{Name: "mallory", Password: "secret", Email: "m@x"})
	s.Require().NoError(err)

	rec, err := s.service.Get(s.ctx, "mallory")
	s.Require().NoError(err)
	s.Equal("m@x", rec.Email)
	s.Equal(model.AccountFlags(0), rec.Flags)
	s.False(s.service.List()[0].Flags.Has(model.IndexNoDelete))
}

func (s *ServiceSuite) TestEmailLengthClampedToLineLimit() {
	svc := New(nil, nil, nil, s.clock, Config{MaxEmailLength: 10_000}, testutil.NopLogger())
	s.Equal(maxEmailLength, svc.cfg.MaxEmailLength)
}

func (s *ServiceSuite) TestRegisterRollsBackWhenIndexWriteFails() {
	logger := testutil.NopLogger()
	store := indexWriteFailer{Storage: s.storage}
	idx := index.New(store, logger)
	files := accountfile.New(store, idx, logger)
	sweeper := cleanup.NewService(idx, store, s.clock, model.DefaultRetentionRules(), logger)
	svc := New(idx, files, sweeper, s.clock, Config{BcryptCost: bcrypt.MinCost}, logger)
	s.Require().NoError(svc.Load(s.ctx))

	_, err := svc.Register(s.ctx, RegisterParams{Name: "alice", Password: "secret"})
	s.ErrorIs(err, errIndexWrite)

	s.Empty(svc.List())
	_, err = s.storage.ReadFile(s.ctx, storage.KindAccount, "alice")
	s.ErrorIs(err, model.ErrFileNotFound, "record of failed registration must not be left behind")
}

// Login tests

func (s *ServiceSuite) TestLoginSucceeds() {
	s.register("alice")
	s.clock.AdvanceDays(2)

	result, err := s.service.Login(s.ctx, "Alice", "secret", "10.1.1.1")
	s.Require().NoError(err)

	s.Equal("alice", result.Account.Name)
	s.Equal("10.1.1.1", result.Account.Host)
	s.True(result.Account.LastLogon.Equal(s.clock.Now()))
	s.Equal(0, result.FailedAttempts)
}

func (s *ServiceSuite) TestLoginWrongPasswordCountsFailures() {
	s.register("alice")

	for i := 0; i < 2; i++ {
		_, err := s.service.Login(s.ctx, "alice", "wrong", "10.9.9.9")
		s.ErrorIs(err, model.ErrInvalidCredentials)
	}

	rec, err := s.service.Get(s.ctx, "alice")
	s.Require().NoError(err)
	s.Equal(2, rec.BadPasswords)

	result, err := s.service.Login(s.ctx, "alice", "secret", "")
	s.Require().NoError(err)
	s.Equal(2, result.FailedAttempts)
	s.Equal(0, result.Account.BadPasswords)
	s.Equal("127.0.0.1", result.Account.Host)
}

func (s *ServiceSuite) TestLoginUnknownAccount() {
	_, err := s.service.Login(s.ctx, "nobody", "secret", "")
	s.ErrorIs(err, model.ErrInvalidCredentials)
}

func (s *ServiceSuite) TestLoginFrozenAccount() {
	s.register("alice")
	rec, err := s.service.Get(s.ctx, "alice")
	s.Require().NoError(err)
	rec.Flags |= model.AccountFrozen
	s.Require().NoError(s.service.files.Save(s.ctx, rec))

	_, err = s.service.Login(s.ctx, "alice", "secret", "")
	s.ErrorIs(err, model.ErrAccountFrozen)
}

// Lifecycle tests

func (s *ServiceSuite) TestMarkDeletedPurgedOnSweep() {
	s.register("alice")
	s.register("bob")

	s.Require().NoError(s.service.MarkDeleted(s.ctx, "bob"))
	s.Len(s.service.List(), 2)

	result, err := s.service.Sweep(s.ctx)
	s.Require().NoError(err)
	s.Equal([]string{"bob"}, result.Deleted)

	_, err = s.service.Get(s.ctx, "bob")
	s.ErrorIs(err, model.ErrAccountNotFound)
	_, err = s.storage.ReadFile(s.ctx, storage.KindAccount, "bob")
	s.ErrorIs(err, model.ErrFileNotFound)
}

func (s *ServiceSuite) TestDeleteSelfChecksPassword() {
	s.register("alice")
	s.register("bob")

	s.ErrorIs(s.service.DeleteSelf(s.ctx, "bob", "wrong"), model.ErrInvalidCredentials)
	s.ErrorIs(s.service.DeleteSelf(s.ctx, "nobody", "secret"), model.ErrInvalidCredentials)
	s.Require().NoError(s.service.DeleteSelf(s.ctx, "bob", "secret"))

	rec, err := s.service.Get(s.ctx, "bob")
	s.Require().NoError(err)
	s.True(rec.Flags.Has(model.AccountDeleted))
}

func (s *ServiceSuite) TestIdleAccountsSwept() {
	s.register("admin")
	s.register("bob")
	s.clock.AdvanceDays(5)

	result, err := s.service.Sweep(s.ctx)
	s.Require().NoError(err)
	s.Equal([]string{"bob"}, result.Deleted)
	s.Len(s.service.List(), 1)
}

func (s *ServiceSuite) TestSetProtectedExemptsFromSweep() {
	s.register("admin")
	s.register("bob")
	s.Require().NoError(s.service.SetProtected(s.ctx, "bob", true))
	s.clock.AdvanceDays(400)

	result, err := s.service.Sweep(s.ctx)
	s.Require().NoError(err)
	s.Equal([]string{"admin"}, result.Deleted)

	s.Require().NoError(s.service.SetProtected(s.ctx, "bob", false))
	result, err = s.service.Sweep(s.ctx)
	s.Require().NoError(err)
	s.Equal([]string{"bob"}, result.Deleted)
}

func (s *ServiceSuite) TestPurge() {
	s.register("alice")

	s.Require().NoError(s.service.Purge(s.ctx, "alice"))
	s.Empty(s.service.List())
	s.ErrorIs(s.service.Purge(s.ctx, "alice"), model.ErrAccountNotFound)
}

func (s *ServiceSuite) TestModifyUnknownAccount() {
	s.ErrorIs(s.service.MarkDeleted(s.ctx, "nobody"), model.ErrAccountNotFound)
	s.ErrorIs(s.service.SetProtected(s.ctx, "nobody", true), model.ErrAccountNotFound)
}

func (s *ServiceSuite) TestConcurrentRegistrations() {
	var wg sync.WaitGroup
	names := []string{"anna", "bert", "cara", "dora", "emil", "finn", "gail", "hugo"}
	for _, name := range names {
		wg.Add(1)
		go func(name string) {
			defer wg.Done()
			_, err := s.service.Register(s.ctx, RegisterParams{Name: name, Password: "secret"})
			s.NoError(err)
		}(name)
	}
	wg.Wait()

	entries := s.service.List()
	s.Len(entries, len(names))
	seen := map[int64]bool{}
	for _, e := range entries {
		s.False(seen[e.ID], "duplicate id %d", e.ID)
		seen[e.ID] = true
	}
}

func (s *ServiceSuite) TestCloseFlushesIndex() {
	s.register("alice")
	s.Require().NoError(s.service.Close(s.ctx))

	data, err := s.storage.ReadFile(s.ctx, storage.KindIndex, "")
	s.Require().NoError(err)
	s.Contains(string(data), "alice")
}

var errIndexWrite = errors.New("index volume full")

// indexWriteFailer passes everything through except writes of the index file
type indexWriteFailer struct {
	storage.Storage
}

func (f indexWriteFailer) WriteFile(ctx context.Context, kind storage.FileKind, name string, data []byte) error {
	if kind == storage.KindIndex {
		return errIndexWrite
	}
	return f.Storage.WriteFile(ctx, kind, name, data)
}
