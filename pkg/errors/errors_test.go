package errors

import (
	stdErrors "errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
)

func TestMetadataForKnownCodes(t *testing.T) {
	tests := []struct {
		code      Code
		status    int
		publicMsg string
		retryable bool
		detailsOK bool
	}{
		{code: CodeValidation, status: http.StatusBadRequest, publicMsg: "validation failed", detailsOK: true},
		{code: CodeUnauthorized, status: http.StatusUnauthorized, publicMsg: "authentication required"},
		{code: CodeForbidden, status: http.StatusForbidden, publicMsg: "access denied"},
		{code: CodeNotFound, status: http.StatusNotFound, publicMsg: "resource not found"},
		{code: CodeConflict, status: http.StatusConflict, publicMsg: "conflict detected"},
		{code: CodeStateConflict, status: http.StatusUnprocessableEntity, publicMsg: "state transition disallowed", detailsOK: true},
		{code: CodeInternal, status: http.StatusInternalServerError, publicMsg: "internal server error", retryable: true},
		{code: CodeDependency, status: http.StatusServiceUnavailable, publicMsg: "dependency unavailable", retryable: true, detailsOK: true},
	}

	for _, tt := range tests {
		meta := MetadataFor(tt.code)
		if meta.HTTPStatus != tt.status {
			t.Fatalf("code %s expected status %d got %d", tt.code, tt.status, meta.HTTPStatus)
		}
		if meta.PublicMessage != tt.publicMsg {
			t.Fatalf("code %s expected public message %q got %q", tt.code, tt.publicMsg, meta.PublicMessage)
		}
		if meta.Retryable != tt.retryable {
			t.Fatalf("code %s expected retryable %v got %v", tt.code, tt.retryable, meta.Retryable)
		}
		if meta.DetailsAllowed != tt.detailsOK {
			t.Fatalf("code %s expected details allowed %v got %v", tt.code, tt.detailsOK, meta.DetailsAllowed)
		}
	}
}

func TestMetadataForUnknownCodeDefaultsToInternal(t *testing.T) {
	meta := MetadataFor("SOMETHING_UNKNOWN")
	if meta.HTTPStatus != http.StatusInternalServerError {
		t.Fatalf("expected internal status, got %d", meta.HTTPStatus)
	}
}

func TestErrorConstructors(t *testing.T) {
	base := New(CodeValidation, "missing foo")
	if base.Code() != CodeValidation {
		t.Fatalf("expected validation code, got %s", base.Code())
	}
	if base.Message() != "missing foo" {
		t.Fatalf("unexpected message %q", base.Message())
	}
	if base.Details() != nil {
		t.Fatalf("details should be nil by default")
	}

	detail := map[string]any{"field": "foo"}
	base.WithDetails(detail)
	if base.Details() == nil {
		t.Fatalf("details should be preserved")
	}

	cause := stdErrors.New("boom")
	wrapped := Wrap(CodeConflict, cause, "ctx")
	if !stdErrors.Is(wrapped, cause) {
		t.Fatalf("Wrap did not preserve cause")
	}
	if wrapped.Code() != CodeConflict {
		t.Fatalf("unexpected code %s", wrapped.Code())
	}
}

func TestAsReturnsTypedError(t *testing.T) {
	err := New(CodeForbidden, "no entry")
	if got := As(err); got == nil || got.Code() != CodeForbidden {
		t.Fatalf("As failed to return typed error")
	}
	if As(nil) != nil {
		t.Fatalf("As(nil) should return nil")
	}
}

func TestValidationCarriesFieldDetails(t *testing.T) {
	err := Validation("invalid item", map[string]string{"name": "must be at least 2 characters"})
	fields, ok := err.Details().(map[string]string)
	if !ok || fields["name"] == "" {
		t.Fatalf("expected field details, got %#v", err.Details())
	}
	if Validation("no fields", nil).Details() != nil {
		t.Fatalf("expected nil details when no fields given")
	}
}

func TestIsCodeWalksChain(t *testing.T) {
	err := fmt.Errorf("apply: %w", Newf(CodeStateConflict, "insufficient stock: have %d", 3))
	if !IsCode(err, CodeStateConflict) {
		t.Fatalf("expected state conflict to be detected through wrapping")
	}
	if IsCode(err, CodeNotFound) {
		t.Fatalf("unexpected not found match")
	}
	if IsCode(nil, CodeInternal) {
		t.Fatalf("nil error must not match")
	}
}

func TestDumpExtractsPostgresFields(t *testing.T) {
	pgErr := &pgconn.PgError{Code: "23505", ConstraintName: "items_name_key", TableName: "items", Message: "duplicate key"}
	err := Wrap(CodeConflict, pgErr, "create item")

	d := Dump(err)
	if d.Code != CodeConflict {
		t.Fatalf("expected conflict code, got %s", d.Code)
	}
	if d.PGCode != "23505" || d.PGConstraint != "items_name_key" || d.PGTable != "items" {
		t.Fatalf("unexpected pg fields %#v", d)
	}
	if len(d.Chain) != 2 {
		t.Fatalf("expected two entries in chain, got %d", len(d.Chain))
	}
}

func TestDumpFieldsOmitEmptyDriverValues(t *testing.T) {
	fields := Dump(New(CodeValidation, "bad quantity")).Fields()
	if fields["error_code"] != CodeValidation {
		t.Fatalf("expected error_code, got %#v", fields)
	}
	for _, key := range []string{"pg_code", "sqlite_code", "error_chain"} {
		if _, ok := fields[key]; ok {
			t.Fatalf("unexpected %s in %#v", key, fields)
		}
	}

	pgFields := Dump(Wrap(CodeConflict, &pgconn.PgError{Code: "23514", ConstraintName: "items_quantity_check"}, "update")).Fields()
	if pgFields["pg_code"] != "23514" || pgFields["pg_constraint"] != "items_quantity_check" {
		t.Fatalf("expected pg fields, got %#v", pgFields)
	}
	if _, ok := pgFields["pg_table"]; ok {
		t.Fatalf("empty pg_table should be omitted: %#v", pgFields)
	}
}
