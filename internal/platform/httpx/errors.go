package httpx

import (
	"errors"
	"net/http"

	"github.com/cotizo-erp/cotizo/internal/shared"
)

// RespondError maps domain errors to HTTP responses using RFC7807.
// Configuration and lookup failures surface as 422 so operators can tell
// misconfiguration apart from caller mistakes.
func RespondError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, shared.ErrNotFound):
		Problem(w, http.StatusNotFound, "Not Found", err.Error())
	case errors.Is(err, shared.ErrValidation):
		Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
	case errors.Is(err, shared.ErrConflict):
		Problem(w, http.StatusConflict, "Conflict", err.Error())
	case errors.Is(err, shared.ErrInvalidTransition):
		Problem(w, http.StatusConflict, "Invalid Transition", err.Error())
	case errors.Is(err, shared.ErrImmutableState):
		Problem(w, http.StatusConflict, "Quotation Locked", err.Error())
	case errors.Is(err, shared.ErrConfiguration):
		Problem(w, http.StatusUnprocessableEntity, "Pricing Configuration Missing", err.Error())
	case errors.Is(err, shared.ErrLookup):
		Problem(w, http.StatusUnprocessableEntity, "Pricing Lookup Failed", err.Error())
	case errors.Is(err, shared.ErrInvalidCredentials):
		Problem(w, http.StatusUnauthorized, "Unauthorized", err.Error())
	default:
		Problem(w, http.StatusInternalServerError, "Internal Error", "")
	}
}
