package apperr

import (
	"errors"
	"fmt"
	"net/http"
	"testing"
)

func TestKindSurvivesWrapping(t *testing.T) {
	base := NotFound("Contact not found")
	wrapped := fmt.Errorf("load contact: %w", base)

	if !Is(wrapped, KindNotFound) {
		t.Fatalf("expected wrapped error to keep KindNotFound, got %v", GetKind(wrapped))
	}
	if Is(errors.New("plain"), KindNotFound) {
		t.Fatal("plain errors must report KindUnknown")
	}
}

func TestHTTPStatusMapping(t *testing.T) {
	cases := []struct {
		err  *Error
		want int
	}{
		{NotFound("x"), http.StatusNotFound},
		{Validation("x"), http.StatusBadRequest},
		{BadRequest("x"), http.StatusBadRequest},
		{Conflict("x"), http.StatusConflict},
		{Internal("x"), http.StatusInternalServerError},
	}

	for _, tc := range cases {
		if got := tc.err.HTTPStatus(); got != tc.want {
			t.Errorf("%s: HTTPStatus() = %d, want %d", tc.err.Kind, got, tc.want)
		}
	}
}

func TestErrorIncludesOp(t *testing.T) {
	err := Validation("No RDV to cancel").WithOp("CancelRdv")
	if err.Error() != "CancelRdv: No RDV to cancel" {
		t.Fatalf("unexpected message %q", err.Error())
	}
}
