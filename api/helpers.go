package api

import (
	"encoding/json"
	"net/http"
	"regexp"

	"github.com/pkg/errors"
)

var slugRegexp = regexp.MustCompile(`^[a-z0-9]+(?:[-_][a-z0-9]+)*$`)

var handleRegexp = regexp.MustCompile(`^[a-z0-9][a-z0-9-_]{2,29}$`)

func sendJSON(w http.ResponseWriter, status int, obj interface{}) error {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(obj); err != nil {
		return errors.Wrap(err, "encoding json response")
	}
	return nil
}

// composePath builds the human-facing path a link is reached under.
func composePath(handle, slug string) string {
	return "/" + handle + "/" + slug
}
