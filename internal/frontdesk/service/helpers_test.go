package service_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/zhank48/ultfpeb-sub004/internal/frontdesk/service"
	"github.com/zhank48/ultfpeb-sub004/internal/frontdesk/store"
	"github.com/zhank48/ultfpeb-sub004/internal/frontdesk/store/memory"
	"github.com/zhank48/ultfpeb-sub004/internal/frontdesk/types"
)

var (
	admin    = types.Actor{ID: "admin", Role: types.RoleAdmin}
	operator = types.Actor{ID: "desk-1", Role: types.RoleOperator}
)

// stepClock advances one second per reading so ordering by time is strict.
type stepClock struct {
	mu sync.Mutex
	t  time.Time
}

func newStepClock() *stepClock {
	return &stepClock{t: time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)}
}

func (c *stepClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(time.Second)
	return c.t
}

type fixture struct {
	mem       *memory.Store
	audit     *service.AuditLog
	visitors  *service.VisitorService
	requests  *service.ChangeRequestService
	approvals *service.ApprovalService
	checker   *service.ConsistencyChecker
}

// newFixture wires every service over a fresh in-memory store.
func newFixture(t *testing.T) *fixture {
	t.Helper()
	mem := memory.New()
	return newFixtureOn(t, mem, mem)
}

// newFixtureOn wires the services over st, which may wrap mem.
func newFixtureOn(t *testing.T, st store.Store, mem *memory.Store) *fixture {
	t.Helper()
	opts := service.Options{Now: newStepClock().Now}
	audit := service.NewAuditLog(st, opts)
	visitors := service.NewVisitorService(st, audit, opts)
	return &fixture{
		mem:       mem,
		audit:     audit,
		visitors:  visitors,
		requests:  service.NewChangeRequestService(st, opts),
		approvals: service.NewApprovalService(st, visitors, audit, opts),
		checker:   service.NewConsistencyChecker(st, opts),
	}
}

// seedVisitor inserts a checked-in visitor with a fixed id, bypassing
// check-in so tests can refer to known ids.
func (f *fixture) seedVisitor(t *testing.T, id int64, name string) types.Visitor {
	t.Helper()
	v := types.Visitor{
		ID:          id,
		Name:        name,
		Phone:       "555-0100",
		Institution: "Acme",
		Purpose:     "meeting",
		HostName:    "Dana",
		Status:      types.StatusCheckedIn,
		CheckInTime: time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC),
		UpdatedAt:   time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC),
	}
	err := f.mem.Update(context.Background(), func(ctx context.Context, tx store.Tx) error {
		_, err := tx.InsertVisitor(ctx, v)
		return err
	})
	require.NoError(t, err)
	return v
}

func (f *fixture) checkIn(t *testing.T, name string) types.Visitor {
	t.Helper()
	v, err := f.visitors.CheckIn(context.Background(), types.CheckInRequest{Name: name}, types.CheckInPolicy{}, operator)
	require.NoError(t, err)
	return v
}

func strp(s string) *string { return &s }
