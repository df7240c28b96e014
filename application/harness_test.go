package application_test

import (
	"context"
	"sync"
	"testing"

	"wagerengine/application"
	"wagerengine/domain/entities"
	"wagerengine/domain/events"
	"wagerengine/infrastructure"
	"wagerengine/repository/testutil"

	"github.com/stretchr/testify/require"
)

const (
	testAdminID = int64(999999)
	testHouseID = int64(1)
	testCreator = int64(100)
	testUser2   = int64(200)
	testUser3   = int64(300)
)

type recordingAlertSink struct {
	mu     sync.Mutex
	alerts []string
}

func (s *recordingAlertSink) Alert(ctx context.Context, subject string, err error, fields map[string]any) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.alerts = append(s.alerts, subject)
}

func (s *recordingAlertSink) Count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.alerts)
}

type transitionRecorder struct {
	mu          sync.Mutex
	transitions []events.WagerTransitionEvent
}

func (r *transitionRecorder) handle(ctx context.Context, event events.Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.transitions = append(r.transitions, event.(events.WagerTransitionEvent))
	return nil
}

func (r *transitionRecorder) ForWager(wagerID int64) []entities.TransitionType {
	r.mu.Lock()
	defer r.mu.Unlock()
	var types []entities.TransitionType
	for _, t := range r.transitions {
		if t.WagerID == wagerID {
			types = append(types, t.TransitionType)
		}
	}
	return types
}

type testHarness struct {
	db          *testutil.TestDatabase
	factory     application.UnitOfWorkFactory
	engine      *application.Engine
	queries     *application.QueryService
	alerts      *recordingAlertSink
	transitions *transitionRecorder
}

func newTestHarness(t *testing.T) *testHarness {
	t.Helper()
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	testDB := testutil.SetupTestDatabase(t)

	recorder := &transitionRecorder{}
	bus := infrastructure.NewNATSEventPublisher(nil, infrastructure.NewEventSubjectMapper())
	bus.RegisterLocalHandler(events.EventTypeWagerTransition, recorder.handle)

	factory := infrastructure.NewUnitOfWorkFactory(testDB.DB, bus)
	alerts := &recordingAlertSink{}

	return &testHarness{
		db:          testDB,
		factory:     factory,
		engine:      application.NewEngine(factory, alerts),
		queries:     application.NewQueryService(factory, nil),
		alerts:      alerts,
		transitions: recorder,
	}
}

func (h *testHarness) seed(t *testing.T, userID, balance int64) {
	t.Helper()
	testutil.SeedWallet(t, h.db.DB, userID, balance)
}

func (h *testHarness) balance(t *testing.T, userID int64) int64 {
	t.Helper()
	return testutil.GetBalance(t, h.db.DB, userID)
}

func (h *testHarness) detail(t *testing.T, wagerID int64) *entities.WagerDetail {
	t.Helper()
	detail, err := h.queries.GetWagerDetail(context.Background(), wagerID)
	require.NoError(t, err)
	return detail
}

// startedWager creates a staked two-player wager between creator and user2 and starts it
func (h *testHarness) startedWager(t *testing.T, stake int64) *entities.Wager {
	t.Helper()
	ctx := context.Background()

	req := testutil.CreateTestCreateRequest(testCreator, stake, 2)
	req.CreatorStakes = true
	wager, err := h.engine.CreateWager(ctx, req)
	require.NoError(t, err)

	_, err = h.engine.Join(ctx, wager.ID, testUser2, stake)
	require.NoError(t, err)

	wager, err = h.engine.Start(ctx, wager.ID, testCreator)
	require.NoError(t, err)
	require.Equal(t, entities.WagerStatusInProgress, wager.Status)
	return wager
}

func (h *testHarness) countTransactions(t *testing.T, userID int64, txType entities.TransactionType) int {
	t.Helper()
	transactions, err := h.queries.ListTransactions(context.Background(), userID, 100)
	require.NoError(t, err)
	count := 0
	for _, tx := range transactions {
		if tx.TransactionType == txType {
			count++
		}
	}
	return count
}
