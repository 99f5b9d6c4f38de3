package httptransport

import (
	"encoding/json"
	"net/http"

	dErrors "github.com/fbn1986/gerenciador-de-contratos/pkg/domain-errors"
)

type errorBody struct {
	Message string `json:"message"`
	Code    string `json:"code"`
}

type errorResponse struct {
	Error errorBody `json:"error"`
}

// writeError centralizes domain error translation to HTTP responses so every
// handler emits the same JSON error envelope.
func writeError(w http.ResponseWriter, err error) {
	code := dErrors.CodeOf(err)
	writeJSON(w, dErrors.HTTPStatus(code), errorResponse{
		Error: errorBody{
			Message: dErrors.MessageOf(err),
			Code:    string(code),
		},
	})
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
