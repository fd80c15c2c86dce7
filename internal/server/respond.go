package server

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/yuanying/maktaba/internal/apperr"
)

type successEnvelope struct {
	Data any `json:"data"`
}

type errorEnvelope struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeOK(w http.ResponseWriter, data any) {
	writeJSON(w, http.StatusOK, successEnvelope{Data: data})
}

// writeError renders err as {error, code}. Errors that are not an
// *apperr.AppError become a 500 and are logged with their cause.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	ae := apperr.As(err)
	if ae == nil {
		ae = apperr.Internal(err)
	}

	if ae.HTTPStatus >= http.StatusInternalServerError {
		loggerFrom(r.Context()).ErrorContext(r.Context(), "api_server_error",
			slog.String("code", ae.Code),
			slog.String("request_id", requestIDFrom(r.Context())),
			slog.Any("cause", ae.Cause),
		)
	}

	writeJSON(w, ae.HTTPStatus, errorEnvelope{Error: ae.Message, Code: ae.Code})
}
