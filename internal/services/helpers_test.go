package services

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"gatherings/internal/domain"
	"gatherings/internal/repository/memory"
)

var strictnessLevels = []domain.MembershipStrictness{domain.StrictnessLenient, domain.StrictnessStrict}

type testEnv struct {
	svc        domain.GatheringService
	gatherings domain.GatheringRepository
	invites    domain.InviteRepository
	observer   *recordingObserver
}

func newTestEnv(t *testing.T, opts Options) *testEnv {
	t.Helper()
	store := memory.NewStore()
	return newTestEnvWith(t, opts, memory.NewGatheringRepository(store), memory.NewInviteRepository(store))
}

func newTestEnvWith(t *testing.T, opts Options, gatherings domain.GatheringRepository, invites domain.InviteRepository) *testEnv {
	t.Helper()
	obs := &recordingObserver{}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return &testEnv{
		svc:        NewGatheringService(gatherings, invites, opts, obs, logger, 5*time.Second),
		gatherings: gatherings,
		invites:    invites,
		observer:   obs,
	}
}

// mustGathering creates a gathering owned by creator.
func (e *testEnv) mustGathering(t *testing.T, creator, title string) *domain.Gathering {
	t.Helper()
	g, err := e.svc.CreateGathering(context.Background(), creator, title, "")
	require.NoError(t, err)
	return g
}

func (e *testEnv) reload(t *testing.T, id string) *domain.Gathering {
	t.Helper()
	g, err := e.svc.GetGathering(context.Background(), id)
	require.NoError(t, err)
	return g
}

func (e *testEnv) records(t *testing.T, gatheringID, toID string) []*domain.Invite {
	t.Helper()
	list, err := e.svc.ListInvites(context.Background(), domain.InviteFilter{GatheringID: gatheringID, ToID: toID})
	require.NoError(t, err)
	return list
}

func requireCode(t *testing.T, err error, code domain.Code) {
	t.Helper()
	derr, ok := domain.AsError(err)
	require.True(t, ok, "expected %s, got %v", code, err)
	require.Equal(t, code, derr.Code)
}

type recordingObserver struct {
	mu            sync.Mutex
	transitions   []string
	compensations []string
	operations    []string
}

func (o *recordingObserver) ObserveTransition(transition string, err error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.transitions = append(o.transitions, transition+":"+outcome(err))
}

func (o *recordingObserver) ObserveCompensation(transition string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.compensations = append(o.compensations, transition)
}

func (o *recordingObserver) ObserveOperation(operation string, err error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.operations = append(o.operations, operation+":"+outcome(err))
}

func outcome(err error) string {
	if err == nil {
		return "ok"
	}
	if derr, ok := domain.AsError(err); ok {
		return string(derr.Code)
	}
	return "error"
}

// failingInviteRepo fails Create for records of failStatus.
type failingInviteRepo struct {
	domain.InviteRepository
	failStatus domain.InviteStatus
	err        error
}

func (f *failingInviteRepo) Create(ctx context.Context, inv *domain.Invite) error {
	if inv.Status == f.failStatus {
		return f.err
	}
	return f.InviteRepository.Create(ctx, inv)
}

// failingGatheringRepo fails every write to the acceptors set.
type failingGatheringRepo struct {
	domain.GatheringRepository
	err error
}

func (f *failingGatheringRepo) Update(ctx context.Context, id string, u domain.GatheringUpdate) (*domain.Gathering, error) {
	if u.Acceptors != nil {
		return nil, f.err
	}
	return f.GatheringRepository.Update(ctx, id, u)
}

func (f *failingGatheringRepo) AddToSet(ctx context.Context, id string, field domain.GatheringField, values ...string) (*domain.Gathering, error) {
	if field == domain.FieldAcceptors {
		return nil, f.err
	}
	return f.GatheringRepository.AddToSet(ctx, id, field, values...)
}

// lateCommitInviteRepo commits records of failStatus but reports err without the stored ID,
// the way a write that commits after its context expires does.
type lateCommitInviteRepo struct {
	domain.InviteRepository
	failStatus domain.InviteStatus
	err        error
}

func (f *lateCommitInviteRepo) Create(ctx context.Context, inv *domain.Invite) error {
	if err := f.InviteRepository.Create(ctx, inv); err != nil {
		return err
	}
	if inv.Status == f.failStatus {
		inv.ID = ""
		return f.err
	}
	return nil
}

// racingInviteRepo runs race once, just before the first Pop reaches the store.
type racingInviteRepo struct {
	domain.InviteRepository
	race func()
}

func (r *racingInviteRepo) Pop(ctx context.Context, f domain.InviteFilter) (*domain.Invite, error) {
	if race := r.race; race != nil {
		r.race = nil
		race()
	}
	return r.InviteRepository.Pop(ctx, f)
}
