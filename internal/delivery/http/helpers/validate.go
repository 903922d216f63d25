package helpers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"
)

// MaxBodyBytes caps request bodies decoded by DecodeAndValidate and DecodeJSON.
const MaxBodyBytes = 1 << 20

// Validator is implemented by request DTOs that check their own fields.
type Validator interface {
	Validate() []string
}

// DecodeAndValidate decodes a single JSON object into dest, rejecting unknown fields, and runs
// Validate when dest implements Validator. On failure it writes a 400 and returns false.
func DecodeAndValidate(w http.ResponseWriter, r *http.Request, dest any) bool {
	if err := decode(w, r, dest, true); err != nil {
		WriteJSONError(w, http.StatusBadRequest, ErrCodeBadRequest, err.Error())
		return false
	}
	if v, ok := dest.(Validator); ok {
		if errs := v.Validate(); len(errs) > 0 {
			WriteJSONError(w, http.StatusBadRequest, ErrCodeBadRequest, strings.Join(errs, "; "))
			return false
		}
	}
	return true
}

// DecodeJSON decodes a single JSON value into dest without field checks. On failure it
// writes a 400 and returns false.
func DecodeJSON(w http.ResponseWriter, r *http.Request, dest any) bool {
	if err := decode(w, r, dest, false); err != nil {
		WriteJSONError(w, http.StatusBadRequest, ErrCodeBadRequest, err.Error())
		return false
	}
	return true
}

func decode(w http.ResponseWriter, r *http.Request, dest any, strict bool) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, MaxBodyBytes))
	if strict {
		dec.DisallowUnknownFields()
	}
	if err := dec.Decode(dest); err != nil {
		if errors.Is(err, io.EOF) {
			return errors.New("request body is empty")
		}
		return err
	}
	if dec.More() {
		return errors.New("request body must contain a single JSON value")
	}
	return nil
}
