package http

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/anchorhub/backoffice/pkg/httputil"
	"github.com/anchorhub/backoffice/pkg/validator"
)

const maxBodyBytes = 1 << 20

// ContentTypeJSON rejects POST/PUT/PATCH requests whose Content-Type is not JSON.
func ContentTypeJSON(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodPost, http.MethodPut, http.MethodPatch:
			if r.ContentLength != 0 && !strings.HasPrefix(r.Header.Get("Content-Type"), "application/json") {
				httputil.WriteJSON(w, http.StatusUnsupportedMediaType, httputil.Response{
					Error: &httputil.ErrorResponse{Code: "UNSUPPORTED_MEDIA_TYPE", Message: "Content-Type must be application/json"},
				})
				return
			}
		}
		next.ServeHTTP(w, r)
	})
}

// decodeBody reads and validates a JSON request body, writing the error
// response itself when it returns false.
func decodeBody(w http.ResponseWriter, r *http.Request, dst any, logger *slog.Logger) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := validator.DecodeAndValidate(r, dst); err != nil {
		httputil.WriteError(w, r, err, logger)
		return false
	}
	return true
}

func writeInvalidParameter(w http.ResponseWriter, message string) {
	httputil.WriteJSON(w, http.StatusBadRequest, httputil.Response{
		Error: &httputil.ErrorResponse{Code: "INVALID_PARAMETER", Message: message},
	})
}

func writeDeleted(w http.ResponseWriter, id string) {
	httputil.WriteData(w, http.StatusOK, map[string]string{"id": id, "status": "deleted"})
}
