package responses

import (
	"context"
	"encoding/json"
	"errors"
	"net/http/httptest"
	"testing"

	pkgerrors "github.com/coldrackhq/coldrack-backend/pkg/errors"
	"github.com/coldrackhq/coldrack-backend/pkg/types"
)

func TestWriteErrorMapsCodedErrors(t *testing.T) {
	resp := httptest.NewRecorder()
	WriteError(context.Background(), nil, resp, pkgerrors.New(pkgerrors.CodeNotFound, "rack not found"))

	if resp.Code != 404 {
		t.Fatalf("expected 404, got %d", resp.Code)
	}
	var envelope types.ErrorEnvelope
	if err := json.Unmarshal(resp.Body.Bytes(), &envelope); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if envelope.Error.Code != "NOT_FOUND" {
		t.Fatalf("expected NOT_FOUND, got %s", envelope.Error.Code)
	}
	if envelope.Error.Message != "rack not found" {
		t.Fatalf("unexpected message %q", envelope.Error.Message)
	}
}

func TestWriteErrorHidesInternalMessages(t *testing.T) {
	resp := httptest.NewRecorder()
	WriteError(context.Background(), nil, resp, pkgerrors.Wrap(pkgerrors.CodeInternal, errors.New("pq: connection refused"), "load racks"))

	if resp.Code != 500 {
		t.Fatalf("expected 500, got %d", resp.Code)
	}
	var envelope types.ErrorEnvelope
	if err := json.Unmarshal(resp.Body.Bytes(), &envelope); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if envelope.Error.Message != "internal error" {
		t.Fatalf("internal detail leaked: %q", envelope.Error.Message)
	}
}

func TestWriteErrorWrapsUncodedErrors(t *testing.T) {
	resp := httptest.NewRecorder()
	WriteError(context.Background(), nil, resp, errors.New("plain failure"))

	if resp.Code != 500 {
		t.Fatalf("expected 500, got %d", resp.Code)
	}
}

func TestWriteSuccessEnvelope(t *testing.T) {
	resp := httptest.NewRecorder()
	WriteSuccess(resp, map[string]string{"hello": "world"})

	if resp.Code != 200 {
		t.Fatalf("expected 200, got %d", resp.Code)
	}
	var envelope map[string]map[string]string
	if err := json.Unmarshal(resp.Body.Bytes(), &envelope); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if envelope["data"]["hello"] != "world" {
		t.Fatalf("unexpected payload %v", envelope)
	}
}
