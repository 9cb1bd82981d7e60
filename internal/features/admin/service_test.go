package admin

import (
	"context"
	"errors"
	"sort"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"serotonyl.ru/teamhub-bot/internal/common"
	"serotonyl.ru/teamhub-bot/internal/features/discovery"
	"serotonyl.ru/teamhub-bot/internal/features/drivers"
	"serotonyl.ru/teamhub-bot/internal/features/rating"
)

type fakeDirectory struct {
	drivers map[int64]*drivers.Driver
	listErr error
}

func newFakeDirectory(list ...*drivers.Driver) *fakeDirectory {
	d := &fakeDirectory{drivers: make(map[int64]*drivers.Driver)}
	for _, drv := range list {
		d.drivers[drv.UserID] = drv
	}
	return d
}

func (f *fakeDirectory) Get(_ context.Context, id int64) (*drivers.Driver, error) {
	d, ok := f.drivers[id]
	if !ok {
		return nil, common.ErrDriverNotFound
	}
	return d, nil
}

func (f *fakeDirectory) ListActive(context.Context) ([]*drivers.Driver, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	var out []*drivers.Driver
	for _, d := range f.drivers {
		if d.IsActive() {
			out = append(out, d)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].FullName < out[j].FullName })
	return out, nil
}

func (f *fakeDirectory) setStatus(id int64, st drivers.Status) error {
	d, ok := f.drivers[id]
	if !ok {
		return common.ErrDriverNotFound
	}
	d.Status = st
	return nil
}

func (f *fakeDirectory) Approve(_ context.Context, id int64) error {
	return f.setStatus(id, drivers.StatusActive)
}

func (f *fakeDirectory) Suspend(_ context.Context, id int64) error {
	return f.setStatus(id, drivers.StatusSuspended)
}

type rateCall struct {
	adminID, driverID int64
	passed            bool
	from, to          string
}

type fakeRater struct {
	calls []rateCall
	score rating.Score
	err   error
}

func (f *fakeRater) Record(_ context.Context, adminID, driverID int64, passed bool, from, to string) (rating.Score, error) {
	if f.err != nil {
		return rating.Score{}, f.err
	}
	f.calls = append(f.calls, rateCall{adminID, driverID, passed, from, to})
	return f.score, nil
}

type fakeFinder struct {
	query  discovery.Query
	active int
	result discovery.Result
}

func (f *fakeFinder) Discover(_ context.Context, q discovery.Query, active []*drivers.Driver) discovery.Result {
	f.query = q
	f.active = len(active)
	return f.result
}

type fakeAudit struct {
	entries []AuditEntry
	err     error
}

func (f *fakeAudit) LogAction(_ context.Context, e AuditEntry) error {
	if f.err != nil {
		return f.err
	}
	f.entries = append(f.entries, e)
	return nil
}

func (f *fakeAudit) Recent(_ context.Context, limit int) ([]AuditEntry, error) {
	if len(f.entries) > limit {
		return f.entries[:limit], nil
	}
	return f.entries, nil
}

type fixture struct {
	dir    *fakeDirectory
	rater  *fakeRater
	finder *fakeFinder
	audit  *fakeAudit
	svc    *Service
}

func newFixture(list ...*drivers.Driver) *fixture {
	f := &fixture{
		dir:    newFakeDirectory(list...),
		rater:  &fakeRater{score: rating.Score{Value: 0.8, Confidence: 0.3}},
		finder: &fakeFinder{},
		audit:  &fakeAudit{},
	}
	f.svc = NewService(f.dir, f.rater, f.finder, f.audit)
	return f
}

func activeDriver(id int64, name string) *drivers.Driver {
	return &drivers.Driver{UserID: id, FullName: name, Status: drivers.StatusActive, Rating: rating.NeutralScore()}
}

func TestService_RateRecordsAndAudits(t *testing.T) {
	f := newFixture(activeDriver(7, "Ann"))

	score, err := f.svc.Rate(context.Background(), 100, 7, true, "Chicago", "Buffalo")
	require.NoError(t, err)

	assert.Equal(t, 0.8, score.Value)
	require.Len(t, f.rater.calls, 1)
	assert.Equal(t, rateCall{100, 7, true, "Chicago", "Buffalo"}, f.rater.calls[0])
	require.Len(t, f.audit.entries, 1)
	assert.Equal(t, ActionRate, f.audit.entries[0].Action)
	assert.Equal(t, int64(7), f.audit.entries[0].TargetID)
	assert.Contains(t, f.audit.entries[0].Details, "good")
}

func TestService_RateUnknownDriver(t *testing.T) {
	f := newFixture()

	_, err := f.svc.Rate(context.Background(), 100, 7, false, "", "")
	assert.ErrorIs(t, err, common.ErrDriverNotFound)
	assert.Empty(t, f.rater.calls, "оценка несуществующему водителю не пишется")
	assert.Empty(t, f.audit.entries)
}

func TestService_RateFailureNotAudited(t *testing.T) {
	f := newFixture(activeDriver(7, "Ann"))
	f.rater.err = common.ErrFutureEvaluation

	_, err := f.svc.Rate(context.Background(), 100, 7, true, "", "")
	assert.ErrorIs(t, err, common.ErrFutureEvaluation)
	assert.Empty(t, f.audit.entries)
}

func TestService_AuditFailureDoesNotCancelAction(t *testing.T) {
	f := newFixture(&drivers.Driver{UserID: 3, Status: drivers.StatusPending})
	f.audit.err = errors.New("db down")

	require.NoError(t, f.svc.Approve(context.Background(), 100, 3))
	assert.Equal(t, drivers.StatusActive, f.dir.drivers[3].Status)
}

func TestService_ApproveAndRemove(t *testing.T) {
	f := newFixture(&drivers.Driver{UserID: 3, Status: drivers.StatusPending})
	ctx := context.Background()

	require.NoError(t, f.svc.Approve(ctx, 100, 3))
	require.NoError(t, f.svc.Remove(ctx, 100, 3))
	assert.Equal(t, drivers.StatusSuspended, f.dir.drivers[3].Status)

	actions, err := f.svc.RecentActions(ctx, 10)
	require.NoError(t, err)
	require.Len(t, actions, 2)
	assert.Equal(t, ActionApprove, actions[0].Action)
	assert.Equal(t, ActionSuspend, actions[1].Action)

	assert.ErrorIs(t, f.svc.Remove(ctx, 100, 999), common.ErrDriverNotFound)
}

func TestService_FindUsesActiveSnapshot(t *testing.T) {
	f := newFixture(activeDriver(1, "A"), activeDriver(2, "B"), &drivers.Driver{UserID: 3, Status: drivers.StatusPending})
	f.finder.result = discovery.Result{Outcome: discovery.OutcomeMatched}

	res, err := f.svc.Find(context.Background(), discovery.Query{State: "NY"})
	require.NoError(t, err)

	assert.Equal(t, discovery.OutcomeMatched, res.Outcome)
	assert.Equal(t, "NY", f.finder.query.State)
	assert.Equal(t, 2, f.finder.active, "в поиск попадают только активные")
}

func TestService_FindListError(t *testing.T) {
	f := newFixture()
	f.dir.listErr = errors.New("boom")

	_, err := f.svc.Find(context.Background(), discovery.Query{})
	assert.Error(t, err)
}

func TestService_StateExpires(t *testing.T) {
	f := newFixture()
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	f.svc.now = func() time.Time { return now }

	f.svc.SetState(100, StateConfirmDelete, 7)
	state := f.svc.GetState(100)
	require.NotNil(t, state)
	assert.Equal(t, int64(7), state.TargetID)
	assert.Nil(t, f.svc.GetState(200), "состояние привязано к оператору")

	now = now.Add(stateTTL + time.Second)
	assert.Nil(t, f.svc.GetState(100))

	f.svc.SetState(100, StateConfirmDelete, 7)
	f.svc.ClearState(100)
	assert.Nil(t, f.svc.GetState(100))
}
