package votesync_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/danielhkuo/pollsync/cliparse"
	"github.com/danielhkuo/pollsync/models"
	"github.com/danielhkuo/pollsync/store"
	"github.com/danielhkuo/pollsync/testutil"
	"github.com/danielhkuo/pollsync/votesync"
)

type engine struct {
	store      *testutil.MemoryStore
	cfg        cliparse.Config
	dispatcher *votesync.Dispatcher
}

func newEngine(t *testing.T) engine {
	t.Helper()
	cfg := testutil.GetTestConfig()
	s := testutil.NewMemoryStore()
	return engine{store: s, cfg: cfg, dispatcher: votesync.New(s, cfg)}
}

func fakeUser() models.User {
	return models.User{
		ID:        int64(gofakeit.IntRange(1, models.MaxUserID)),
		Username:  gofakeit.Username(),
		FirstName: gofakeit.FirstName(),
		LastName:  gofakeit.LastName(),
	}
}

func castEvent(pollID string, u models.User, option int) models.Event {
	return models.Event{
		Kind:   models.EventVoteCast,
		Answer: models.PollAnswer{PollID: pollID, User: u, OptionIDs: []int{option}},
	}
}

func retractEvent(pollID string, u models.User) models.Event {
	return models.Event{
		Kind:   models.EventVoteRetracted,
		Answer: models.PollAnswer{PollID: pollID, User: u, OptionIDs: []int{}},
	}
}

func resultEvent(pollID string, closed bool, counts ...int) models.Event {
	total := 0
	options := make([]models.PollOption, len(counts))
	for i, c := range counts {
		options[i] = models.PollOption{Text: gofakeit.City(), VoterCount: c}
		total += c
	}
	return models.Event{
		Kind:   models.EventPollResult,
		Result: models.PollResult{ID: pollID, Options: options, IsClosed: closed, TotalVoterCount: &total},
	}
}

func (e engine) activeVotes(t *testing.T, pollID string) []store.Record {
	t.Helper()
	recs, err := e.store.Query(context.Background(), e.cfg.VoteLedgerCollection,
		store.Where(store.Equals(models.PropPollID, store.Title(pollID))))
	require.NoError(t, err)
	return recs
}

func TestResultUpdate_Idempotent(t *testing.T) {
	e := newEngine(t)
	summary := testutil.SeedPollSummary(t, e.store, e.cfg, "p1")
	ctx := context.Background()

	ev := resultEvent("p1", false, 4, 1, 0)
	require.NoError(t, e.dispatcher.Dispatch(ctx, ev))
	first, _ := e.store.Get(summary.ID)
	require.Equal(t, 1, e.store.Mutations())

	require.NoError(t, e.dispatcher.Dispatch(ctx, ev))
	second, _ := e.store.Get(summary.ID)

	assert.Equal(t, first.Properties, second.Properties)
	assert.Equal(t, 1, e.store.Mutations(), "second application must not write")
	assert.Equal(t, "Open", second.Properties.Text(models.PropStatus))
}

func TestResultUpdate_MissingSummary(t *testing.T) {
	e := newEngine(t)

	err := e.dispatcher.Dispatch(context.Background(), resultEvent("nope", true, 1, 2, 3))

	assert.ErrorIs(t, err, store.ErrNotFound)
	assert.Equal(t, votesync.CategoryNotFound, votesync.Category(err))
	assert.Zero(t, e.store.Mutations())
}

func TestResultUpdate_DuplicateSummaries(t *testing.T) {
	e := newEngine(t)
	testutil.SeedPollSummary(t, e.store, e.cfg, "p1")
	testutil.SeedPollSummary(t, e.store, e.cfg, "p1")

	err := e.dispatcher.Dispatch(context.Background(), resultEvent("p1", true, 1, 2, 3))

	assert.ErrorIs(t, err, store.ErrDuplicateRecords)
	assert.Zero(t, e.store.Mutations())
}

func TestResultUpdate_ReopenAndRecount(t *testing.T) {
	e := newEngine(t)
	summary := testutil.SeedPollSummary(t, e.store, e.cfg, "p1")
	ctx := context.Background()

	require.NoError(t, e.dispatcher.Dispatch(ctx, resultEvent("p1", true, 3, 5, 2)))
	require.NoError(t, e.dispatcher.Dispatch(ctx, resultEvent("p1", true, 3, 6, 2)))

	rec, _ := e.store.Get(summary.ID)
	n, ok := rec.Properties.Int("Event 2")
	require.True(t, ok)
	assert.Equal(t, 6, n)
	assert.Equal(t, "Closed", rec.Properties.Text(models.PropStatus))
	assert.Equal(t, 2, e.store.Mutations())
}

func TestVote_RecordThenRetract(t *testing.T) {
	e := newEngine(t)
	testutil.SeedOptionMap(t, e.store, e.cfg, "p1", "Sydney", "Melbourne", "Brisbane")
	u := fakeUser()
	ctx := context.Background()

	require.NoError(t, e.dispatcher.Dispatch(ctx, castEvent("p1", u, 2)))

	active := e.activeVotes(t, "p1")
	require.Len(t, active, 1)
	entry := active[0].Properties
	assert.Equal(t, "Brisbane", entry.Text(models.PropChoice))
	assert.Equal(t, u.Username, entry.Text(models.PropUsername))
	assert.Equal(t, u.FirstName, entry.Text(models.PropFirstName))
	assert.Equal(t, u.LastName, entry.Text(models.PropLastName))
	assert.Equal(t, time.Now().UTC().Format(store.DateLayout), entry.Text(models.PropDate))

	require.NoError(t, e.dispatcher.Dispatch(ctx, retractEvent("p1", u)))

	assert.Empty(t, e.activeVotes(t, "p1"))
	all := e.store.All(e.cfg.VoteLedgerCollection)
	require.Len(t, all, 1)
	assert.True(t, all[0].Archived)
}

func TestVote_RedeliveredIsNoop(t *testing.T) {
	e := newEngine(t)
	testutil.SeedOptionMap(t, e.store, e.cfg, "p1", "Sydney", "Melbourne", "Brisbane")
	u := fakeUser()
	ctx := context.Background()

	require.NoError(t, e.dispatcher.Dispatch(ctx, castEvent("p1", u, 0)))
	require.NoError(t, e.dispatcher.Dispatch(ctx, castEvent("p1", u, 0)))

	assert.Equal(t, 1, e.store.Mutations())
	assert.Len(t, e.activeVotes(t, "p1"), 1)
}

func TestVote_ChangedAnswerReplacesEntry(t *testing.T) {
	e := newEngine(t)
	testutil.SeedOptionMap(t, e.store, e.cfg, "p1", "Sydney", "Melbourne", "Brisbane")
	u := fakeUser()
	ctx := context.Background()

	require.NoError(t, e.dispatcher.Dispatch(ctx, castEvent("p1", u, 0)))
	require.NoError(t, e.dispatcher.Dispatch(ctx, castEvent("p1", u, 1)))

	active := e.activeVotes(t, "p1")
	require.Len(t, active, 1)
	assert.Equal(t, "Melbourne", active[0].Properties.Text(models.PropChoice))
	assert.Len(t, e.store.All(e.cfg.VoteLedgerCollection), 1)
	assert.Equal(t, 1, e.store.Creates())
	assert.Equal(t, 2, e.store.Mutations())
}

func TestVote_ChangedAnswerWriteFailureKeepsPreviousVote(t *testing.T) {
	boom := errors.New("connection reset")

	tests := []struct {
		name       string
		fail       func(s *testutil.MemoryStore)
		wantErr    bool
		wantChoice string
	}{
		{
			name:       "patch fails",
			fail:       func(s *testutil.MemoryStore) { s.FailPatches(boom) },
			wantErr:    true,
			wantChoice: "Sydney",
		},
		{
			name:       "create fails",
			fail:       func(s *testutil.MemoryStore) { s.FailCreates(boom) },
			wantChoice: "Melbourne",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := newEngine(t)
			testutil.SeedOptionMap(t, e.store, e.cfg, "p1", "Sydney", "Melbourne", "Brisbane")
			u := fakeUser()
			ctx := context.Background()

			require.NoError(t, e.dispatcher.Dispatch(ctx, castEvent("p1", u, 0)))
			tt.fail(e.store)

			err := e.dispatcher.Dispatch(ctx, castEvent("p1", u, 1))
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, store.IsRetriable(err), "want transport error, got %v", err)
			} else {
				require.NoError(t, err)
			}

			active := e.activeVotes(t, "p1")
			require.Len(t, active, 1)
			assert.Equal(t, tt.wantChoice, active[0].Properties.Text(models.PropChoice))
		})
	}
}

func TestVote_DuplicateEntriesBlockRetract(t *testing.T) {
	e := newEngine(t)
	u := fakeUser()
	testutil.SeedVote(t, e.store, e.cfg, "p1", u.ID, "Sydney")
	testutil.SeedVote(t, e.store, e.cfg, "p1", u.ID, "Sydney")

	err := e.dispatcher.Dispatch(context.Background(), retractEvent("p1", u))

	assert.ErrorIs(t, err, store.ErrDuplicateRecords)
	assert.Zero(t, e.store.Mutations())
	assert.Len(t, e.activeVotes(t, "p1"), 2)
}

func TestVote_DuplicateEntriesBlockRecord(t *testing.T) {
	e := newEngine(t)
	testutil.SeedOptionMap(t, e.store, e.cfg, "p1", "Sydney", "Melbourne", "Brisbane")
	u := fakeUser()
	testutil.SeedVote(t, e.store, e.cfg, "p1", u.ID, "Sydney")
	testutil.SeedVote(t, e.store, e.cfg, "p1", u.ID, "Brisbane")

	err := e.dispatcher.Dispatch(context.Background(), castEvent("p1", u, 1))

	assert.ErrorIs(t, err, store.ErrDuplicateRecords)
	assert.Zero(t, e.store.Mutations())
}

func TestVote_InexactUserIDRejected(t *testing.T) {
	e := newEngine(t)
	testutil.SeedOptionMap(t, e.store, e.cfg, "p1", "Sydney", "Melbourne", "Brisbane")
	u := fakeUser()
	u.ID = models.MaxUserID + 1
	ctx := context.Background()

	assert.ErrorIs(t, e.dispatcher.Dispatch(ctx, castEvent("p1", u, 0)), models.ErrMalformedEvent)
	assert.ErrorIs(t, e.dispatcher.Dispatch(ctx, retractEvent("p1", u)), models.ErrMalformedEvent)
	assert.Zero(t, e.store.Queries())
	assert.Zero(t, e.store.Mutations())
}

func TestVote_RetractWithoutEntry(t *testing.T) {
	e := newEngine(t)

	err := e.dispatcher.Dispatch(context.Background(), retractEvent("p1", fakeUser()))

	assert.ErrorIs(t, err, store.ErrNotFound)
	assert.Zero(t, e.store.Mutations())
}

func TestVote_MappingErrors(t *testing.T) {
	tests := []struct {
		name   string
		seed   bool
		option int
	}{
		{"unknown poll", false, 0},
		{"index past last option", true, 3},
		{"negative index", true, -1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := newEngine(t)
			if tt.seed {
				testutil.SeedOptionMap(t, e.store, e.cfg, "p1", "Sydney", "Melbourne", "Brisbane")
			}

			err := e.dispatcher.Dispatch(context.Background(), castEvent("p1", fakeUser(), tt.option))

			assert.ErrorIs(t, err, votesync.ErrMappingNotFound)
			assert.Equal(t, votesync.CategoryMapping, votesync.Category(err))
			assert.Zero(t, e.store.Mutations())
		})
	}
}

func TestVote_EmptyLabelIsMappingError(t *testing.T) {
	e := newEngine(t)
	e.store.Seed(e.cfg.OptionMapCollection, store.Properties{
		models.PropPollID: store.Title("p1"),
		"Event 1":         store.Text("Sydney"),
	})

	err := e.dispatcher.Dispatch(context.Background(), castEvent("p1", fakeUser(), 1))
	assert.ErrorIs(t, err, votesync.ErrMappingNotFound)
}

func TestTransportFailures(t *testing.T) {
	boom := errors.New("connection refused")

	tests := []struct {
		name  string
		fail  func(s *testutil.MemoryStore)
		event func() models.Event
	}{
		{
			name:  "query fails",
			fail:  func(s *testutil.MemoryStore) { s.FailQueries(boom) },
			event: func() models.Event { return resultEvent("p1", true, 1, 1, 1) },
		},
		{
			name:  "patch fails",
			fail:  func(s *testutil.MemoryStore) { s.FailPatches(boom) },
			event: func() models.Event { return resultEvent("p1", true, 1, 1, 1) },
		},
		{
			name:  "create fails",
			fail:  func(s *testutil.MemoryStore) { s.FailCreates(boom) },
			event: func() models.Event { return castEvent("p1", fakeUser(), 0) },
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := newEngine(t)
			testutil.SeedPollSummary(t, e.store, e.cfg, "p1")
			testutil.SeedOptionMap(t, e.store, e.cfg, "p1", "Sydney", "Melbourne", "Brisbane")
			tt.fail(e.store)

			err := e.dispatcher.Dispatch(context.Background(), tt.event())

			require.Error(t, err)
			assert.True(t, store.IsRetriable(err), "want transport error, got %v", err)
			assert.ErrorIs(t, err, boom)
			assert.Zero(t, e.store.Mutations())
		})
	}
}

func TestStoreTimeout(t *testing.T) {
	e := newEngine(t)
	e.cfg.StoreTimeout = 20 * time.Millisecond
	d := votesync.New(e.store, e.cfg)
	testutil.SeedPollSummary(t, e.store, e.cfg, "p1")
	e.store.SetLatency(time.Second)

	start := time.Now()
	err := d.Dispatch(context.Background(), resultEvent("p1", true, 1, 1, 1))

	assert.True(t, store.IsRetriable(err))
	assert.Less(t, time.Since(start), 500*time.Millisecond)
}

func TestConcurrentCastAndRetract(t *testing.T) {
	e := newEngine(t)
	testutil.SeedOptionMap(t, e.store, e.cfg, "p1", "Sydney", "Melbourne", "Brisbane")
	u := fakeUser()
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			if i%3 == 2 {
				e.dispatcher.Dispatch(ctx, retractEvent("p1", u))
				return
			}
			e.dispatcher.Dispatch(ctx, castEvent("p1", u, i%3))
		}(i)
	}
	wg.Wait()

	assert.LessOrEqual(t, len(e.activeVotes(t, "p1")), 1)
}

func TestConcurrentVotersAreIndependent(t *testing.T) {
	e := newEngine(t)
	testutil.SeedOptionMap(t, e.store, e.cfg, "p1", "Sydney", "Melbourne", "Brisbane")
	ctx := context.Background()

	const voters = 25
	var wg sync.WaitGroup
	errs := make(chan error, voters)
	for i := 0; i < voters; i++ {
		u := fakeUser()
		u.ID = int64(1000 + i)
		wg.Add(1)
		go func() {
			defer wg.Done()
			errs <- e.dispatcher.Dispatch(ctx, castEvent("p1", u, int(u.ID%3)))
		}()
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		assert.NoError(t, err)
	}
	assert.Len(t, e.activeVotes(t, "p1"), voters)
}

func TestDispatch_UnknownKind(t *testing.T) {
	e := newEngine(t)

	err := e.dispatcher.Dispatch(context.Background(), models.Event{})

	assert.ErrorIs(t, err, models.ErrMalformedEvent)
	assert.Zero(t, e.store.Queries())
}
