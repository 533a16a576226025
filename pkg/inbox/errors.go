package inbox

import (
	"errors"
	"net/http"
)

var (
	ErrMissingRecipient = errors.New("inbox: recipient not identified")
	ErrStreamingFailed  = errors.New("inbox: streaming failed")
)

// HTTPError carries a status code and a machine readable key.
type HTTPError struct {
	Code int
	Key  string
}

func (e HTTPError) Error() string { return e.Key }

var (
	errUnauthorized = HTTPError{Code: http.StatusUnauthorized, Key: "unauthorized"}
	errNotFound     = HTTPError{Code: http.StatusNotFound, Key: "not_found"}
	errBadRequest   = HTTPError{Code: http.StatusBadRequest, Key: "bad_request"}
)
