package httpapi

import (
	"encoding/json"
	"net/http"
)

// writeError emits the {ok:false, reason, detail} shape used for every
// non-2xx response.
func writeError(w http.ResponseWriter, status int, reason, detail string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]interface{}{
		"ok":     false,
		"reason": reason,
		"detail": detail,
	})
}

func writeOK(w http.ResponseWriter, body map[string]interface{}) {
	if body == nil {
		body = map[string]interface{}{}
	}
	body["ok"] = true
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(body)
}
