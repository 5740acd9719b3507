package apicommon

import (
	"context"
	"encoding/json"
	"net/http"

	"go.vocdoni.io/dvote/log"
)

// CustomerEmailFromContext retrieves the authenticated customer email from
// the context provided, expected to be the context of a request handled by
// the authenticator middleware.
func CustomerEmailFromContext(ctx context.Context) (string, bool) {
	email, ok := ctx.Value(CustomerMetadataKey).(string)
	if !ok || email == "" {
		return "", false
	}
	return email, true
}

// HTTPWriteJSON helper function allows to write a JSON response.
func HTTPWriteJSON(w http.ResponseWriter, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}
	if _, err := w.Write([]byte("\n")); err != nil {
		log.Warnw("failed to write on response", "error", err)
	}
}

// HTTPWriteOK helper function allows to write an OK response.
func HTTPWriteOK(w http.ResponseWriter) {
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write([]byte("\n")); err != nil {
		log.Warnw("failed to write on response", "error", err)
	}
}
