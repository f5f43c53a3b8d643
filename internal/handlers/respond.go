package handlers

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/shrimpsizemoose/trekker/logger"

	"github.com/shrimpsizemoose/dagbok/internal/journal"
)

type errorBody struct {
	Error *journal.Error `json:"error"`
}

func statusFor(kind journal.Kind) int {
	switch kind {
	case journal.KindValidation, journal.KindOutOfRange:
		return http.StatusBadRequest
	case journal.KindNotFound:
		return http.StatusNotFound
	case journal.KindInvalidTransition, journal.KindLessonNotConducted, journal.KindDuplicateGrade:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Error.Printf("Failed to encode response: %v", err)
	}
}

func writeError(w http.ResponseWriter, err error) {
	var jerr *journal.Error
	if !errors.As(err, &jerr) {
		logger.Error.Printf("Request failed: %v", err)
		jerr = &journal.Error{Kind: "internal_error", Message: "internal error"}
	}
	writeJSON(w, statusFor(jerr.Kind), errorBody{Error: jerr})
}

func badParam(name, message string) *journal.Error {
	return &journal.Error{
		Kind:    journal.KindValidation,
		Message: fmt.Sprintf("%s: %s", name, message),
		Fields:  map[string]string{name: message},
	}
}

// decodeBody reads a JSON body, logging it at debug level.
func decodeBody(r *http.Request, v interface{}) error {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		return badParam("body", "failed to read request body")
	}
	logger.Debug.Printf("Received request body: %s", string(body))

	dec := json.NewDecoder(bytes.NewReader(body))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return badParam("body", "invalid JSON: "+err.Error())
	}
	return nil
}

func pathID(r *http.Request) (int64, error) {
	raw := r.PathValue("id")
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, badParam("id", "must be a positive integer")
	}
	return id, nil
}

// queryID parses an optional positive integer query parameter, 0 when absent.
func queryID(r *http.Request, name string) (int64, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return 0, nil
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, badParam(name, "must be a positive integer")
	}
	return id, nil
}

func queryIDs(r *http.Request, name string) ([]int64, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return nil, nil
	}
	ids := []int64{}
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		id, err := strconv.ParseInt(part, 10, 64)
		if err != nil || id <= 0 {
			return nil, badParam(name, "must be a comma separated list of positive integers")
		}
		ids = append(ids, id)
	}
	return ids, nil
}

// querySubgroup reads a journal selector: absent is nil, "main" or 0 is the
// main journal, anything else a subgroup id.
func querySubgroup(r *http.Request, name string) (*int64, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return nil, nil
	}
	if raw == "main" {
		var main int64
		return &main, nil
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id < 0 {
		return nil, badParam(name, "must be a subgroup id or main")
	}
	return &id, nil
}
