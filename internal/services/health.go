package services

import (
	"net/http"

	h "authgate/internal/helpers"
)

func Health(w http.ResponseWriter, _ *http.Request) {
	h.RespondWithJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
