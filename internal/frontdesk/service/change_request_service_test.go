package service_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zhank48/ultfpeb-sub004/internal/frontdesk/service"
	"github.com/zhank48/ultfpeb-sub004/internal/frontdesk/types"
)

func TestCreateEditRequest_SnapshotsVisitor(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	v := f.seedVisitor(t, 42, "Ada")

	req, err := f.requests.CreateEditRequest(ctx, 42, types.VisitorPatch{Phone: strp(" 555-0199 ")}, "typo in phone", operator)
	require.NoError(t, err)

	assert.Equal(t, types.RequestPending, req.Status)
	assert.Equal(t, types.RequestEdit, req.Type)
	assert.Equal(t, v, req.OriginalData)
	require.NotNil(t, req.ProposedData)
	assert.Equal(t, "555-0199", *req.ProposedData.Phone)
	assert.Equal(t, operator.ID, req.RequestedBy)
	assert.Equal(t, types.RoleOperator, req.RequestedByRole)

	stored, err := f.requests.Get(ctx, req.ID)
	require.NoError(t, err)
	assert.Equal(t, req, stored)

	// Creating a request does not change the visitor or write audit.
	got, err := f.visitors.Get(ctx, 42)
	require.NoError(t, err)
	assert.Equal(t, v, got)
	entries, err := f.audit.FindByVisitor(ctx, 42)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestCreateRequest_SinglePendingPerType(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.seedVisitor(t, 1, "Ada")

	first, err := f.requests.CreateDeleteRequest(ctx, 1, "duplicate entry", operator)
	require.NoError(t, err)

	_, err = f.requests.CreateDeleteRequest(ctx, 1, "again", operator)
	require.ErrorIs(t, err, types.ErrConflict)
	var ce *types.ConflictError
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, first.ID, ce.ExistingID)

	// A request of the other type is independent.
	_, err = f.requests.CreateEditRequest(ctx, 1, types.VisitorPatch{Unit: strp("B2")}, "moved", operator)
	require.NoError(t, err)
	_, err = f.requests.CreateEditRequest(ctx, 1, types.VisitorPatch{Unit: strp("B3")}, "moved again", operator)
	require.ErrorIs(t, err, types.ErrConflict)
}

func TestCreateRequest_AllowedAgainAfterResolution(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.seedVisitor(t, 1, "Ada")

	req, err := f.requests.CreateEditRequest(ctx, 1, types.VisitorPatch{Unit: strp("B2")}, "moved", operator)
	require.NoError(t, err)
	_, err = f.approvals.Reject(ctx, req.ID, admin, "wrong unit")
	require.NoError(t, err)

	_, err = f.requests.CreateEditRequest(ctx, 1, types.VisitorPatch{Unit: strp("C1")}, "moved", operator)
	require.NoError(t, err)
}

func TestCreateRequest_Validation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.seedVisitor(t, 1, "Ada")

	cases := []struct {
		name  string
		run   func() error
		field string
	}{
		{"empty reason", func() error {
			_, err := f.requests.CreateDeleteRequest(ctx, 1, "  ", operator)
			return err
		}, "reason"},
		{"missing requester", func() error {
			_, err := f.requests.CreateDeleteRequest(ctx, 1, "dup", types.Actor{})
			return err
		}, "requested_by"},
		{"empty patch", func() error {
			_, err := f.requests.CreateEditRequest(ctx, 1, types.VisitorPatch{}, "fix", operator)
			return err
		}, "proposed_data"},
		{"blank name", func() error {
			_, err := f.requests.CreateEditRequest(ctx, 1, types.VisitorPatch{Name: strp(" ")}, "fix", operator)
			return err
		}, "name"},
		{"bad email", func() error {
			_, err := f.requests.CreateEditRequest(ctx, 1, types.VisitorPatch{Email: strp("nope")}, "fix", operator)
			return err
		}, "email"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			var ve *types.ValidationError
			require.ErrorAs(t, tc.run(), &ve)
			assert.Equal(t, tc.field, ve.Field)
		})
	}

	pending, err := f.requests.ListPending(ctx, service.PendingFilter{})
	require.NoError(t, err)
	assert.Empty(t, pending)
}

func TestCreateRequest_UnknownOrDeletedVisitor(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.requests.CreateDeleteRequest(ctx, 404, "dup", operator)
	require.ErrorIs(t, err, types.ErrNotFound)

	f.seedVisitor(t, 5, "Ada")
	req, err := f.requests.CreateDeleteRequest(ctx, 5, "dup", operator)
	require.NoError(t, err)
	_, err = f.approvals.Approve(ctx, req.ID, admin)
	require.NoError(t, err)

	_, err = f.requests.CreateEditRequest(ctx, 5, types.VisitorPatch{Unit: strp("B2")}, "fix", operator)
	require.ErrorIs(t, err, types.ErrNotFound)
}

func TestListPending_OldestFirstWithFilters(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.seedVisitor(t, 1, "Ada")
	f.seedVisitor(t, 2, "Grace")

	r1, err := f.requests.CreateDeleteRequest(ctx, 2, "dup", operator)
	require.NoError(t, err)
	r2, err := f.requests.CreateEditRequest(ctx, 1, types.VisitorPatch{Unit: strp("B2")}, "fix", operator)
	require.NoError(t, err)
	r3, err := f.requests.CreateDeleteRequest(ctx, 1, "dup", operator)
	require.NoError(t, err)
	_, err = f.approvals.Reject(ctx, r3.ID, admin, "keep it")
	require.NoError(t, err)

	all, err := f.requests.ListPending(ctx, service.PendingFilter{})
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, r1.ID, all[0].ID)
	assert.Equal(t, r2.ID, all[1].ID)

	edits, err := f.requests.ListPending(ctx, service.PendingFilter{Type: types.RequestEdit})
	require.NoError(t, err)
	require.Len(t, edits, 1)
	assert.Equal(t, r2.ID, edits[0].ID)

	forTwo, err := f.requests.ListPending(ctx, service.PendingFilter{VisitorID: 2})
	require.NoError(t, err)
	require.Len(t, forTwo, 1)
	assert.Equal(t, r1.ID, forTwo[0].ID)
}

func TestGetRequest_NotFound(t *testing.T) {
	f := newFixture(t)
	_, err := f.requests.Get(context.Background(), 3)
	require.ErrorIs(t, err, types.ErrNotFound)
}
