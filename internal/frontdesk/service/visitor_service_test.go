package service_test

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zhank48/ultfpeb-sub004/internal/frontdesk/service"
	"github.com/zhank48/ultfpeb-sub004/internal/frontdesk/types"
)

// ── Check-in ─────────────────────────────────────────────────────────────────

func TestCheckIn_PhotoPolicy(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	req := types.CheckInRequest{Name: "Test User", PhotoRef: ""}

	v, err := f.visitors.CheckIn(ctx, req, types.CheckInPolicy{RequirePhoto: false}, operator)
	require.NoError(t, err)
	assert.Equal(t, types.StatusCheckedIn, v.Status)
	assert.False(t, v.CheckInTime.IsZero())
	assert.Nil(t, v.CheckOutTime)

	_, err = f.visitors.CheckIn(ctx, req, types.CheckInPolicy{RequirePhoto: true}, operator)
	require.ErrorIs(t, err, types.ErrValidation)
	var ve *types.ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, "photo", ve.Field)
}

func TestCheckIn_BlankValuesCountAsMissing(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	cases := []struct {
		name   string
		req    types.CheckInRequest
		policy types.CheckInPolicy
		field  string
	}{
		{"empty name", types.CheckInRequest{}, types.CheckInPolicy{}, "name"},
		{"whitespace name", types.CheckInRequest{Name: "   "}, types.CheckInPolicy{}, "name"},
		{"whitespace photo", types.CheckInRequest{Name: "A", PhotoRef: " \t"}, types.CheckInPolicy{RequirePhoto: true}, "photo"},
		{"missing signature", types.CheckInRequest{Name: "A", PhotoRef: "p.jpg"}, types.CheckInPolicy{RequirePhoto: true, RequireSignature: true}, "signature"},
		{"bad email", types.CheckInRequest{Name: "A", Email: "not-an-email"}, types.CheckInPolicy{}, "email"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := f.visitors.CheckIn(ctx, tc.req, tc.policy, operator)
			var ve *types.ValidationError
			require.ErrorAs(t, err, &ve)
			assert.Equal(t, tc.field, ve.Field)
		})
	}

	active, err := f.visitors.Active(ctx, service.ActiveFilter{})
	require.NoError(t, err)
	assert.Empty(t, active, "failed check-ins must not create rows")
}

func TestCheckIn_AppendsAuditEntry(t *testing.T) {
	f := newFixture(t)
	v := f.checkIn(t, "Ada")

	entries, err := f.audit.FindByVisitor(context.Background(), v.ID)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, types.ActionCheckedIn, entries[0].Action)
	assert.Nil(t, entries[0].RequestID)
	assert.Equal(t, operator.ID, entries[0].PerformedBy)
}

// ── Check-out ────────────────────────────────────────────────────────────────

func TestCheckOut_OnlyOnce(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	v := f.checkIn(t, "Ada")

	out, err := f.visitors.CheckOut(ctx, v.ID, operator)
	require.NoError(t, err)
	assert.Equal(t, types.StatusCheckedOut, out.Status)
	require.NotNil(t, out.CheckOutTime)
	assert.Equal(t, operator.ID, out.CheckoutBy)

	_, err = f.visitors.CheckOut(ctx, v.ID, operator)
	require.ErrorIs(t, err, types.ErrInvalidState)

	entries, err := f.audit.FindByVisitor(ctx, v.ID)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, types.ActionCheckedOut, entries[1].Action)
}

func TestCheckIn_RequiresOperator(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	for _, op := range []types.Actor{{}, {ID: "  ", Role: types.RoleOperator}} {
		_, err := f.visitors.CheckIn(ctx, types.CheckInRequest{Name: "Ada"}, types.CheckInPolicy{}, op)
		var ve *types.ValidationError
		require.ErrorAs(t, err, &ve)
		assert.Equal(t, "operator", ve.Field)
	}

	active, err := f.visitors.Active(ctx, service.ActiveFilter{})
	require.NoError(t, err)
	assert.Empty(t, active)
}

func TestCheckOut_ConcurrentSucceedsOnce(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	v := f.checkIn(t, "Ada")

	const callers = 8
	errs := make([]error, callers)
	var wg sync.WaitGroup
	start := make(chan struct{})
	for i := range callers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-start
			_, errs[i] = f.visitors.CheckOut(ctx, v.ID, operator)
		}()
	}
	close(start)
	wg.Wait()

	var ok int
	for _, err := range errs {
		switch {
		case err == nil:
			ok++
		case errors.Is(err, types.ErrInvalidState):
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	assert.Equal(t, 1, ok)

	entries, err := f.audit.FindByVisitor(ctx, v.ID)
	require.NoError(t, err)
	var checkouts int
	for _, e := range entries {
		if e.Action == types.ActionCheckedOut {
			checkouts++
		}
	}
	assert.Equal(t, 1, checkouts)
}

func TestCheckOut_UnknownVisitor(t *testing.T) {
	f := newFixture(t)
	_, err := f.visitors.CheckOut(context.Background(), 999, operator)
	require.ErrorIs(t, err, types.ErrNotFound)
}

func TestCheckOut_RequiresOperator(t *testing.T) {
	f := newFixture(t)
	v := f.checkIn(t, "Ada")
	_, err := f.visitors.CheckOut(context.Background(), v.ID, types.Actor{})
	var ve *types.ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, "operator", ve.Field)
}

func TestCheckOut_SoftDeletedIsNotFound(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	v := f.checkIn(t, "Ada")

	req, err := f.requests.CreateDeleteRequest(ctx, v.ID, "test entry", operator)
	require.NoError(t, err)
	_, err = f.approvals.Approve(ctx, req.ID, admin)
	require.NoError(t, err)

	_, err = f.visitors.CheckOut(ctx, v.ID, operator)
	require.ErrorIs(t, err, types.ErrNotFound)
}

// ── Queries ──────────────────────────────────────────────────────────────────

func TestActive_FiltersAndPaging(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	a := f.checkIn(t, "Ada Lovelace")
	b := f.checkIn(t, "Grace Hopper")
	f.checkIn(t, "Alan Turing")

	_, err := f.visitors.CheckOut(ctx, b.ID, operator)
	require.NoError(t, err)

	in, err := f.visitors.Active(ctx, service.ActiveFilter{Status: types.StatusCheckedIn})
	require.NoError(t, err)
	assert.Len(t, in, 2)

	q, err := f.visitors.Active(ctx, service.ActiveFilter{Query: "lovelace"})
	require.NoError(t, err)
	require.Len(t, q, 1)
	assert.Equal(t, a.ID, q[0].ID)

	page, err := f.visitors.Active(ctx, service.ActiveFilter{Limit: 2, Offset: 1})
	require.NoError(t, err)
	require.Len(t, page, 2)
	assert.Equal(t, b.ID, page[0].ID)
}

func TestActive_QueryMatchesLiterally(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	pct, err := f.visitors.CheckIn(ctx, types.CheckInRequest{Name: "Ada", Institution: "100% Labs"}, types.CheckInPolicy{}, operator)
	require.NoError(t, err)
	_, err = f.visitors.CheckIn(ctx, types.CheckInRequest{Name: "Grace", Institution: "1000 Labs"}, types.CheckInPolicy{}, operator)
	require.NoError(t, err)

	got, err := f.visitors.Active(ctx, service.ActiveFilter{Query: "0%"})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, pct.ID, got[0].ID)

	got, err = f.visitors.Active(ctx, service.ActiveFilter{Query: "_"})
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestGet_UnknownVisitor(t *testing.T) {
	f := newFixture(t)
	_, err := f.visitors.Get(context.Background(), 7)
	var nf *types.NotFoundError
	require.ErrorAs(t, err, &nf)
	assert.Equal(t, "visitor", nf.Entity)
	assert.EqualValues(t, 7, nf.ID)
}
