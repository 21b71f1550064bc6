package errors

import (
	"errors"
	"fmt"
	"net/http"
	"testing"
)

func TestWrapPreservesCause(t *testing.T) {
	cause := errors.New("boom")
	err := Wrap(CodeNoDataFound, cause, "no rows parsed")

	if !errors.Is(err, cause) {
		t.Fatal("expected wrapped cause to be discoverable with errors.Is")
	}
	if err.Code() != CodeNoDataFound {
		t.Fatalf("expected NO_DATA_FOUND, got %s", err.Code())
	}
}

func TestAsThroughWrapping(t *testing.T) {
	err := fmt.Errorf("outer: %w", New(CodeGroupNotFound, "group missing"))

	typed := As(err)
	if typed == nil {
		t.Fatal("expected typed error through fmt wrapping")
	}
	if typed.Code() != CodeGroupNotFound {
		t.Fatalf("expected GROUP_NOT_FOUND, got %s", typed.Code())
	}
	if !IsCode(err, CodeGroupNotFound) {
		t.Fatal("expected IsCode to match")
	}
}

func TestMetadataForDomainCodes(t *testing.T) {
	if got := MetadataFor(CodeNoDataFound).HTTPStatus; got != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422 for NO_DATA_FOUND, got %d", got)
	}
	if got := MetadataFor(CodeLockTimeout).HTTPStatus; got != http.StatusConflict {
		t.Fatalf("expected 409 for LOCK_TIMEOUT, got %d", got)
	}
	if got := MetadataFor(Code("UNKNOWN")).HTTPStatus; got != http.StatusInternalServerError {
		t.Fatalf("expected 500 fallback, got %d", got)
	}
}
