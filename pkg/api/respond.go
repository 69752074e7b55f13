package api

import (
	"encoding/json"
	stderrors "errors"
	"net/http"
	"strconv"

	"github.com/WalterStager/thaumcraft-research-solver/pkg/errors"
	"github.com/WalterStager/thaumcraft-research-solver/pkg/history"
)

type errorBody struct {
	Code    errors.Code `json:"code"`
	Message string      `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError answers with the classified code of err.
func writeError(w http.ResponseWriter, err error) {
	if stderrors.Is(err, history.ErrNotFound) {
		err = errors.Wrap(errors.ErrCodeNotFound, err, "run not found")
	}
	code := errors.Classify(err)
	msg := errors.UserMessage(err)
	if code == errors.ErrCodeInternal {
		msg = "internal error"
	}
	writeJSON(w, errors.HTTPStatus(code), errorBody{Code: code, Message: msg})
}

func errNotFound(format string, args ...any) error {
	return errors.New(errors.ErrCodeNotFound, format, args...)
}

func errInvalid(format string, args ...any) error {
	return errors.New(errors.ErrCodeInvalidInput, format, args...)
}

// decode reads a JSON body, rejecting unknown fields and trailing data.
func decode(r *http.Request, v any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidInput, err, "malformed request body")
	}
	if dec.More() {
		return errInvalid("request body has trailing data")
	}
	return nil
}

func queryInt(r *http.Request, name string, def int) (int, error) {
	s := r.URL.Query().Get(name)
	if s == "" {
		return def, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, errInvalid("query parameter %s=%q is not an integer", name, s)
	}
	return n, nil
}
