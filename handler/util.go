package handler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/phbpx/frontdesk"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
)

func decode(r *http.Request, into interface{}) error {
	rawJson, err := io.ReadAll(r.Body)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(rawJson, into); err != nil {
		return fmt.Errorf("%w: malformed request body: %v", frontdesk.ErrValidation, err)
	}
	return nil
}

func respond(ctx context.Context, rw http.ResponseWriter, status int, data interface{}) {
	ctx, span := otel.GetTracerProvider().Tracer("").Start(ctx, "handler.respond")
	span.SetAttributes(attribute.Int("http.status", status))
	defer span.End()

	if status == http.StatusNoContent || data == nil {
		rw.WriteHeader(status)
		return
	}

	rawJson, err := json.Marshal(data)
	if err != nil {
		panic("respond-json-marshal:" + err.Error())
	}

	rw.Header().Add("Content-Type", "application/json")
	rw.WriteHeader(status)
	rw.Write(rawJson)
}

func respondErr(ctx context.Context, rw http.ResponseWriter, err error) {
	status, kind := classify(err)
	respond(ctx, rw, status, map[string]string{
		"code":  http.StatusText(status),
		"kind":  kind,
		"error": err.Error(),
	})
}

// classify maps an error kind to its HTTP status.
func classify(err error) (int, string) {
	switch {
	case errors.Is(err, frontdesk.ErrValidation):
		return http.StatusBadRequest, "validation"
	case errors.Is(err, frontdesk.ErrNotFound):
		return http.StatusNotFound, "not_found"
	case errors.Is(err, frontdesk.ErrConflict):
		return http.StatusConflict, "conflict"
	case errors.Is(err, frontdesk.ErrStoreUnavailable):
		return http.StatusServiceUnavailable, "store_unavailable"
	}
	return http.StatusInternalServerError, "internal"
}

// dayParam parses an optional YYYY-MM-DD value. Empty yields the zero time.
func dayParam(s string, loc *time.Location) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	return frontdesk.ParseDay(s, loc)
}

// intParam parses an optional integer value. Empty yields def.
func intParam(name, s string, def int) (int, error) {
	if s == "" {
		return def, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("%w: %s must be an integer", frontdesk.ErrValidation, name)
	}
	return n, nil
}
