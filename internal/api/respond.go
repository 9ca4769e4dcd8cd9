package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/kuhu42/solar-back-sub001/pkg/domain"
)

const maxBodyBytes = 1 << 20

type envelope struct {
	Data     any                `json:"data"`
	Warnings []domain.Violation `json:"warnings,omitempty"`
}

type errorBody struct {
	Code    string         `json:"code"`
	Message string         `json:"message"`
	Details map[string]any `json:"details,omitempty"`
}

type errorEnvelope struct {
	Error errorBody `json:"error"`
}

var kindStatus = map[domain.ErrorKind]int{
	domain.KindNotFound:          http.StatusNotFound,
	domain.KindInvalidTransition: http.StatusUnprocessableEntity,
	domain.KindAlreadyAssigned:   http.StatusConflict,
	domain.KindDuplicateCheckIn:  http.StatusConflict,
	domain.KindNoOpenCheckIn:     http.StatusConflict,
	domain.KindValidation:        http.StatusBadRequest,
}

// statusFor maps an error to its HTTP status.
func statusFor(err error) int {
	if status, ok := kindStatus[domain.KindOf(err)]; ok {
		return status
	}
	return http.StatusInternalServerError
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func writeData(w http.ResponseWriter, status int, data any, res domain.Result) {
	writeJSON(w, status, envelope{Data: data, Warnings: res.Violations})
}

func (s *server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	code := string(domain.KindOf(err))
	if code == "" {
		code = "internal"
	}
	msg := err.Error()
	var typed *domain.Error
	if errors.As(err, &typed) && typed.Message != "" {
		msg = typed.Message
	}
	if status == http.StatusInternalServerError {
		s.logger.Error("request failed", "method", r.Method, "path", r.URL.Path, "error", err)
		msg = http.StatusText(status)
	}
	writeJSON(w, status, errorEnvelope{Error: errorBody{Code: code, Message: msg}})
}

func writeBadRequest(w http.ResponseWriter, msg string, details map[string]any) {
	writeJSON(w, http.StatusBadRequest, errorEnvelope{Error: errorBody{
		Code:    string(domain.KindValidation),
		Message: msg,
		Details: details,
	}})
}

// decode reads a JSON body into dst and validates its struct tags. It writes
// the 400 response itself and reports false on failure.
func (s *server) decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil && !errors.Is(err, io.EOF) {
		writeBadRequest(w, fmt.Sprintf("invalid request body: %v", err), nil)
		return false
	}
	if err := s.validate.Struct(dst); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			fields := make(map[string]any, len(verrs))
			for _, fe := range verrs {
				fields[jsonFieldName(fe.Namespace())] = fe.Tag()
			}
			writeBadRequest(w, "request validation failed", map[string]any{"fields": fields})
			return false
		}
		writeBadRequest(w, err.Error(), nil)
		return false
	}
	return true
}

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(field reflect.StructField) string {
		name, _, _ := strings.Cut(field.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// jsonFieldName trims the struct name from a validator namespace.
func jsonFieldName(ns string) string {
	if _, field, ok := strings.Cut(ns, "."); ok {
		return field
	}
	return ns
}
