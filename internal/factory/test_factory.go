package factory

import (
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/mcoot/mudaccounts/internal/dependencies/mocks"
	"github.com/mcoot/mudaccounts/internal/model"
	"github.com/mcoot/mudaccounts/internal/services/accounts"
	"github.com/mcoot/mudaccounts/internal/storage/memory"
	"github.com/mcoot/mudaccounts/internal/testutil"
)

// TestApp extends App with test-specific helpers
type TestApp struct {
	*App

	// Backing store and mocks for test control
	MemoryStorage *memory.Storage
	MockClock     *mocks.MockClock
}

// NewTestApp creates an App configured for testing with mocked dependencies.
// Passwords are hashed at the minimum bcrypt cost.
func NewTestApp() *TestApp {
	store := memory.New()
	mockClock := mocks.NewMockClock(time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC))

	app := newWithDependencies(
		store,
		mockClock,
		model.DefaultRetentionRules(),
		accounts.Config{BcryptCost: bcrypt.MinCost},
		testutil.NopLogger(),
	)

	return &TestApp{
		App:           app,
		MemoryStorage: store,
		MockClock:     mockClock,
	}
}
