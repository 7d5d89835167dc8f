package httpapi

import (
	"encoding/json"
	"fmt"
	"io"
	"mime"
	"net/http"

	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/known/structpb"
)

// maxRequestBody caps the request body size for both protobuf and JSON
// payloads. Photo and signature travel as references, so bodies stay small.
const maxRequestBody = 64 << 10

const contentTypeProtobuf = "application/x-protobuf"

func isProtobufType(ct string) bool {
	mt, _, err := mime.ParseMediaType(ct)
	if err != nil {
		return false
	}
	return mt == contentTypeProtobuf || mt == "application/protobuf"
}

// isProtobuf reports whether the request body is a protobuf Struct.
func isProtobuf(r *http.Request) bool {
	return isProtobufType(r.Header.Get("Content-Type"))
}

// wantsProtobuf reports whether the client asked for protobuf responses.
func wantsProtobuf(r *http.Request) bool {
	return isProtobufType(r.Header.Get("Accept"))
}

// readProto reads the request body and unmarshals it into msg.
func readProto(r *http.Request, msg proto.Message) error {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxRequestBody))
	if err != nil {
		return err
	}
	return proto.Unmarshal(body, msg)
}

// writeProto marshals msg and writes it with the given HTTP status.
func writeProto(w http.ResponseWriter, status int, msg proto.Message) {
	data, err := proto.Marshal(msg)
	if err != nil {
		// Fall back to a plain-text error if marshalling fails.
		http.Error(w, "proto marshal error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", contentTypeProtobuf)
	w.WriteHeader(status)
	_, _ = w.Write(data)
}

// toStruct converts a JSON-encodable response into a google.protobuf.Struct
// carrying the same field names as the JSON wire.
func toStruct(v any) (*structpb.Struct, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	var m map[string]any
	if err := json.Unmarshal(b, &m); err != nil {
		return nil, fmt.Errorf("response is not an object: %w", err)
	}
	return structpb.NewStruct(m)
}

// structJSON re-encodes a protobuf Struct body as JSON so both wire formats
// share one decoder.
func structJSON(r *http.Request) ([]byte, error) {
	var st structpb.Struct
	if err := readProto(r, &st); err != nil {
		return nil, err
	}
	return json.Marshal(st.AsMap())
}
