package httpapi

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/sirupsen/logrus"

	"github.com/zhank48/ultfpeb-sub004/internal/frontdesk/types"
)

type errorBody struct {
	Error     string `json:"error"`
	Code      string `json:"code"`
	Field     string `json:"field,omitempty"`
	RequestID string `json:"request_id,omitempty"`
}

// listBody wraps collections so every response is a JSON object.
type listBody[T any] struct {
	Items []T `json:"items"`
	Count int `json:"count"`
}

func list[T any](items []T) listBody[T] {
	if items == nil {
		items = []T{}
	}
	return listBody[T]{Items: items, Count: len(items)}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// respond writes v as protobuf when the client accepts it, JSON otherwise.
func respond(w http.ResponseWriter, r *http.Request, status int, v any) {
	if wantsProtobuf(r) {
		msg, err := toStruct(v)
		if err != nil {
			http.Error(w, "proto encode error", http.StatusInternalServerError)
			return
		}
		writeProto(w, status, msg)
		return
	}
	writeJSON(w, status, v)
}

func writeError(w http.ResponseWriter, r *http.Request, status int, code, msg string) {
	respond(w, r, status, errorBody{Error: msg, Code: code, RequestID: requestIDFrom(r.Context())})
}

// writeServiceError maps the core error taxonomy onto HTTP statuses.
func (s *Server) writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	body := errorBody{Error: err.Error(), RequestID: requestIDFrom(r.Context())}
	var status int

	var verr *types.ValidationError
	switch {
	case errors.As(err, &verr):
		status, body.Code, body.Field = http.StatusBadRequest, "validation_failed", verr.Field
	case errors.Is(err, types.ErrNotFound):
		status, body.Code = http.StatusNotFound, "not_found"
	case errors.Is(err, types.ErrConflict):
		status, body.Code = http.StatusConflict, "conflict"
	case errors.Is(err, types.ErrInvalidState):
		status, body.Code = http.StatusConflict, "invalid_state"
	case errors.Is(err, types.ErrStorage):
		status, body.Code = http.StatusServiceUnavailable, "storage_unavailable"
		body.Error = "storage temporarily unavailable"
	default:
		status, body.Code = http.StatusInternalServerError, "internal_error"
		body.Error = "unexpected server error"
	}

	if status >= http.StatusInternalServerError {
		s.logger.WithFields(logrus.Fields{
			"request_id": body.RequestID,
			"path":       r.URL.Path,
		}).WithError(err).Error("request failed")
	}
	respond(w, r, status, body)
}

// decodeBody reads a JSON or protobuf Struct body into dst. Unknown fields
// are rejected.
func decodeBody(r *http.Request, dst any) error {
	var (
		data []byte
		err  error
	)
	if isProtobuf(r) {
		data, err = structJSON(r)
	} else {
		data, err = io.ReadAll(io.LimitReader(r.Body, maxRequestBody))
	}
	if err != nil {
		return err
	}

	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	return dec.Decode(dst)
}

func pathID(r *http.Request) (int64, error) {
	raw := chi.URLParam(r, "id")
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid id %q", raw)
	}
	return id, nil
}

// queryInt returns def when the parameter is absent or not a non-negative
// integer.
func queryInt(r *http.Request, key string, def int) int {
	v := r.URL.Query().Get(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 {
		return def
	}
	return n
}
