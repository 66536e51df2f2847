package factory

import (
	"time"

	"github.com/mcoot/duoplay/internal/dependencies/mocks"
	"github.com/mcoot/duoplay/internal/services/auth"
	"github.com/mcoot/duoplay/internal/services/room"
	"github.com/mcoot/duoplay/internal/storage/memory"
	"github.com/mcoot/duoplay/internal/testutil"
)

// TestSecret signs tokens in test apps
const TestSecret = "test-secret"

// TestApp extends App with test-specific helpers
type TestApp struct {
	*App

	// Mocks for test control
	MockClock  *mocks.MockClock
	MockRandom *mocks.MockRandom
}

// NewTestApp creates an App configured for testing with mocked dependencies.
// Rooms run inline so timers fire synchronously from MockClock.Advance.
func NewTestApp() *TestApp {
	return NewTestAppWithConfig(Config{})
}

// NewTestAppWithConfig is NewTestApp with room and dispatch settings
func NewTestAppWithConfig(cfg Config) *TestApp {
	store := memory.New()
	mockClock := mocks.NewMockClock(time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC))
	mockRandom := mocks.NewMockRandom()

	authCfg := auth.DefaultConfig()
	authCfg.Secret = TestSecret
	authService, err := auth.New(mockClock, authCfg)
	if err != nil {
		panic(err)
	}

	logger := cfg.Logger
	if logger == nil {
		logger = testutil.NopLogger()
	}
	app := newWithDependencies(cfg, store, mockClock, mockRandom, authService, room.NewInlineExecutor, logger)

	return &TestApp{
		App:        app,
		MockClock:  mockClock,
		MockRandom: mockRandom,
	}
}
