package endpoints

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/doodlesbykumbi/fabric-authz-in-go/pkg/errs"
	"github.com/doodlesbykumbi/fabric-authz-in-go/pkg/identity"
)

// actorInfo extracts the caller and client address for audit records.
func actorInfo(r *http.Request) (actorID string, clientIP string) {
	id, ok := identity.Get(r.Context())
	if !ok {
		return "", ""
	}
	if id.RemoteIP != nil {
		clientIP = id.RemoteIP.String()
	}
	return id.Subject.SubjectID, clientIP
}

func respondWithError(w http.ResponseWriter, code int, payload interface{}) {
	respondWithJSON(w, code, map[string]interface{}{"error": payload})
}

func respondWithJSON(w http.ResponseWriter, code int, payload interface{}) {
	response, _ := json.Marshal(payload)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_, _ = w.Write(response)
}

// respondWithServiceError maps error kinds onto HTTP status codes.
func respondWithServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, errs.ErrValidation):
		respondWithError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, errs.ErrNotFound):
		respondWithError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, errs.ErrAlreadyExists):
		respondWithError(w, http.StatusConflict, err.Error())
	default:
		respondWithError(w, http.StatusInternalServerError, "internal server error")
	}
}

func decodeJSONBody(w http.ResponseWriter, r *http.Request, dst interface{}) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		respondWithError(w, http.StatusBadRequest, "malformed request body")
		return false
	}
	return true
}
