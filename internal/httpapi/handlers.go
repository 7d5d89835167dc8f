package httpapi

import (
	"net/http"

	"github.com/zhank48/ultfpeb-sub004/internal/frontdesk/service"
	"github.com/zhank48/ultfpeb-sub004/internal/frontdesk/types"
)

const defaultPageSize = 100

func actorOf(r *http.Request) types.Actor {
	a, _ := ActorFrom(r.Context())
	return a
}

func (s *Server) badRequest(w http.ResponseWriter, r *http.Request, err error) {
	writeError(w, r, http.StatusBadRequest, "bad_request", err.Error())
}

// ── Visitors ─────────────────────────────────────────────────────────────────

func (s *Server) handleCheckIn(w http.ResponseWriter, r *http.Request) {
	var req types.CheckInRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, "bad_body", "invalid request body")
		return
	}

	v, err := s.visitors.CheckIn(r.Context(), req, s.policy, actorOf(r))
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	respond(w, r, http.StatusCreated, v)
}

func (s *Server) handleCheckOut(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		s.badRequest(w, r, err)
		return
	}

	v, err := s.visitors.CheckOut(r.Context(), id, actorOf(r))
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	respond(w, r, http.StatusOK, v)
}

func (s *Server) handleListActive(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	visitors, err := s.visitors.Active(r.Context(), service.ActiveFilter{
		Status: types.VisitorStatus(q.Get("status")),
		Query:  q.Get("q"),
		Limit:  queryInt(r, "limit", defaultPageSize),
		Offset: queryInt(r, "offset", 0),
	})
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	respond(w, r, http.StatusOK, list(visitors))
}

func (s *Server) handleGetVisitor(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		s.badRequest(w, r, err)
		return
	}

	v, err := s.visitors.Get(r.Context(), id)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	respond(w, r, http.StatusOK, v)
}

func (s *Server) handleVisitorAudit(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		s.badRequest(w, r, err)
		return
	}

	entries, err := s.audit.FindByVisitor(r.Context(), id)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	respond(w, r, http.StatusOK, list(entries))
}

// ── Change requests ──────────────────────────────────────────────────────────

type editRequestBody struct {
	ProposedData types.VisitorPatch `json:"proposed_data"`
	Reason       string             `json:"reason"`
}

type deleteRequestBody struct {
	Reason string `json:"reason"`
}

func (s *Server) handleCreateEditRequest(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		s.badRequest(w, r, err)
		return
	}
	var body editRequestBody
	if err := decodeBody(r, &body); err != nil {
		writeError(w, r, http.StatusBadRequest, "bad_body", "invalid request body")
		return
	}

	req, err := s.requests.CreateEditRequest(r.Context(), id, body.ProposedData, body.Reason, actorOf(r))
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	respond(w, r, http.StatusCreated, req)
}

func (s *Server) handleCreateDeleteRequest(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		s.badRequest(w, r, err)
		return
	}
	var body deleteRequestBody
	if err := decodeBody(r, &body); err != nil {
		writeError(w, r, http.StatusBadRequest, "bad_body", "invalid request body")
		return
	}

	req, err := s.requests.CreateDeleteRequest(r.Context(), id, body.Reason, actorOf(r))
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	respond(w, r, http.StatusCreated, req)
}

func (s *Server) handleListPending(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	reqs, err := s.requests.ListPending(r.Context(), service.PendingFilter{
		VisitorID: int64(queryInt(r, "visitor_id", 0)),
		Type:      types.RequestType(q.Get("type")),
		Limit:     queryInt(r, "limit", defaultPageSize),
		Offset:    queryInt(r, "offset", 0),
	})
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	respond(w, r, http.StatusOK, list(reqs))
}

func (s *Server) handleGetRequest(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		s.badRequest(w, r, err)
		return
	}

	req, err := s.requests.Get(r.Context(), id)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	respond(w, r, http.StatusOK, req)
}

func (s *Server) handleRequestAudit(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		s.badRequest(w, r, err)
		return
	}

	entries, err := s.audit.FindByRequest(r.Context(), id)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	respond(w, r, http.StatusOK, list(entries))
}

// ── Approval ─────────────────────────────────────────────────────────────────

type rejectBody struct {
	RejectionReason string `json:"rejection_reason"`
}

func (s *Server) handleApprove(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		s.badRequest(w, r, err)
		return
	}

	req, err := s.approvals.Approve(r.Context(), id, actorOf(r))
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	respond(w, r, http.StatusOK, req)
}

func (s *Server) handleReject(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		s.badRequest(w, r, err)
		return
	}
	var body rejectBody
	if err := decodeBody(r, &body); err != nil {
		writeError(w, r, http.StatusBadRequest, "bad_body", "invalid request body")
		return
	}

	req, err := s.approvals.Reject(r.Context(), id, actorOf(r), body.RejectionReason)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	respond(w, r, http.StatusOK, req)
}

func (s *Server) handleConsistency(w http.ResponseWriter, r *http.Request) {
	report, err := s.checker.Report(r.Context())
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	respond(w, r, http.StatusOK, report)
}
