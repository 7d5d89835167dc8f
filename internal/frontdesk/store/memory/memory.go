package memory

import (
	"context"
	"errors"
	"maps"
	"sync"

	"github.com/zhank48/ultfpeb-sub004/internal/frontdesk/store"
	"github.com/zhank48/ultfpeb-sub004/internal/frontdesk/types"
)

var errReadOnly = errors.New("memory: write in read-only transaction")

// Store keeps all three relations in process memory. Update works on a
// private copy of the data that replaces the committed copy only when the
// transaction function succeeds, so a failed Update leaves nothing behind.
// It is intended for tests and dev environments.
type Store struct {
	mu  sync.RWMutex
	cur *state
}

func New() *Store {
	return &Store{cur: newState()}
}

func (s *Store) View(ctx context.Context, fn store.TxFn) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return fn(ctx, &tx{st: s.cur, readOnly: true})
}

func (s *Store) Update(ctx context.Context, fn store.TxFn) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	work := s.cur.clone()
	if err := fn(ctx, &tx{st: work}); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	s.cur = work
	return nil
}

// HardDeleteVisitor physically removes a visitor row, leaving any requests
// and audit entries that point at it in place. The service never does this;
// it exists so tests can reproduce the effect of an outside process.
func (s *Store) HardDeleteVisitor(id int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	work := s.cur.clone()
	delete(work.visitors, id)
	s.cur = work
}

type state struct {
	visitors map[int64]types.Visitor
	requests map[int64]types.ChangeRequest
	audit    []types.AuditEntry

	nextVisitor int64
	nextRequest int64
	nextAudit   int64
}

func newState() *state {
	return &state{
		visitors:    make(map[int64]types.Visitor),
		requests:    make(map[int64]types.ChangeRequest),
		nextVisitor: 1,
		nextRequest: 1,
		nextAudit:   1,
	}
}

func (st *state) clone() *state {
	c := *st
	c.visitors = maps.Clone(st.visitors)
	c.requests = maps.Clone(st.requests)
	// Appending to a full slice reallocates, so the committed copy never
	// sees entries added by an uncommitted transaction.
	c.audit = st.audit[:len(st.audit):len(st.audit)]
	return &c
}

type tx struct {
	st       *state
	readOnly bool
}

func (t *tx) writable() error {
	if t.readOnly {
		return errReadOnly
	}
	return nil
}
