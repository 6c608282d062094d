package render

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

func init() {
	// Report on 'TagName' json tag instead of struct name
	// Look at documentation of 'RegisterTagNameFunc' for more details
	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		// skip if tag key says it should be ignored
		if name == "-" {
			return ""
		}
		return name
	})
}

type Struct any

// ErrorResponse is the error body every failing route answers with
// Details carries the provider's payload verbatim for upstream failures
type ErrorResponse struct {
	Error   string          `json:"error"`
	Details json.RawMessage `json:"details,omitempty"`
}

func JSON(w http.ResponseWriter, data any) {
	jsonWithStatus(w, data, http.StatusOK)
}

// Render plain error body: {"error": "..."}
func Error(w http.ResponseWriter, error string, code int) {
	jsonWithStatus(w, ErrorResponse{Error: error}, code)
}

// Render error body with upstream details attached
func ErrorWithDetails(w http.ResponseWriter, error string, details json.RawMessage, code int) {
	if !json.Valid(details) {
		// Upstream answered non-JSON, wrap it so the body stays valid JSON
		quoted, _ := json.Marshal(string(details))
		details = quoted
	}

	jsonWithStatus(w, ErrorResponse{Error: error, Details: details}, code)
}

// BindAndValidate decodes JSON request body into type T and validates it using struct tags.
// Returns the decoded value and writes appropriate error responses for decoding or validation failures.
func BindAndValidate[T Struct](w http.ResponseWriter, r *http.Request) (T, error) {
	var value T

	err := json.NewDecoder(r.Body).Decode(&value)
	if err != nil {
		Error(w, fmt.Sprintf("Failed to parse JSON: %s", err.Error()), http.StatusBadRequest)
		return value, err
	}

	err = validate.Struct(value)
	if err != nil {
		// pretty sure cast will be ok cause expecting T is valid struct
		errs := err.(validator.ValidationErrors)
		Error(w, fmt.Sprintf("Request validation failed: %s", errs.Error()), http.StatusBadRequest)
		return value, err
	}

	return value, nil
}

// jsonWithStatus sends data as json and enforces status code
func jsonWithStatus(w http.ResponseWriter, data any, code int) {
	buf := &bytes.Buffer{}
	enc := json.NewEncoder(buf)

	if err := enc.Encode(data); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(code)
	_, _ = w.Write(buf.Bytes())
}
