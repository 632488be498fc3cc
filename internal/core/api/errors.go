package api

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5/middleware"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/solatis/policykeeper/internal/types"
)

// Error codes carried in the "code" field of error responses.
const (
	CodeInvalidRequest   = "invalid_request"
	CodeNotFound         = "not_found"
	CodeRateLimited      = "rate_limited"
	CodeMalformedOutput  = "malformed_output"
	CodeExtractionFailed = "extraction_failed"
	CodeUpstream         = "upstream_unavailable"
	CodeInternal         = "internal_error"
)

// retryAfterSeconds is advertised on rate-limited responses.
const retryAfterSeconds = "30"

// ErrorResponse is the body of every non-2xx response.
type ErrorResponse struct {
	Error       string `json:"error"`
	Code        string `json:"code"`
	Retryable   bool   `json:"retryable,omitempty"`
	RawResponse string `json:"rawResponse,omitempty"`
}

// classify maps an error to an HTTP status and response body.
// Unrecognized errors become a generic 500 without detail.
func classify(err error) (int, ErrorResponse) {
	var outErr *types.OutputError
	switch {
	case errors.Is(err, types.ErrInvalidInput),
		errors.Is(err, types.ErrInvalidCaseData),
		errors.Is(err, types.ErrInvalidOperator):
		return http.StatusBadRequest, ErrorResponse{Error: err.Error(), Code: CodeInvalidRequest}
	case errors.Is(err, types.ErrPolicyNotFound):
		return http.StatusNotFound, ErrorResponse{Error: types.ErrPolicyNotFound.Error(), Code: CodeNotFound}
	case errors.Is(err, types.ErrRateLimited):
		return http.StatusTooManyRequests, ErrorResponse{
			Error:     "text generation service is rate limited, retry later",
			Code:      CodeRateLimited,
			Retryable: true,
		}
	case errors.As(err, &outErr) && errors.Is(err, types.ErrExtractionFailed):
		return http.StatusUnprocessableEntity, ErrorResponse{
			Error:       types.ErrExtractionFailed.Error(),
			Code:        CodeExtractionFailed,
			RawResponse: outErr.Raw,
		}
	case errors.As(err, &outErr):
		return http.StatusBadGateway, ErrorResponse{
			Error:       outErr.Error(),
			Code:        CodeMalformedOutput,
			RawResponse: outErr.Raw,
		}
	case errors.Is(err, types.ErrUpstream):
		return http.StatusBadGateway, ErrorResponse{
			Error:     types.ErrUpstream.Error(),
			Code:      CodeUpstream,
			Retryable: true,
		}
	default:
		return http.StatusInternalServerError, ErrorResponse{Error: "internal error", Code: CodeInternal}
	}
}

func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	code, body := classify(err)
	if code == http.StatusTooManyRequests {
		w.Header().Set("Retry-After", retryAfterSeconds)
	}

	level := slog.LevelInfo
	if code >= http.StatusInternalServerError {
		level = slog.LevelError
	}
	h.logger.Log(r.Context(), level, "request failed",
		"request_id", middleware.GetReqID(r.Context()),
		"method", r.Method,
		"path", r.URL.Path,
		"status", code,
		"error", err)

	writeJSON(w, code, body)
}

// GRPCError converts a service error into a gRPC status error.
func GRPCError(err error) error {
	if err == nil {
		return nil
	}
	if _, ok := status.FromError(err); ok {
		return err
	}
	switch {
	case errors.Is(err, context.Canceled):
		return status.Error(codes.Canceled, err.Error())
	case errors.Is(err, context.DeadlineExceeded):
		return status.Error(codes.DeadlineExceeded, err.Error())
	}

	httpCode, body := classify(err)
	switch httpCode {
	case http.StatusBadRequest, http.StatusUnprocessableEntity:
		return status.Error(codes.InvalidArgument, body.Error)
	case http.StatusNotFound:
		return status.Error(codes.NotFound, body.Error)
	case http.StatusTooManyRequests:
		return status.Error(codes.ResourceExhausted, body.Error)
	case http.StatusBadGateway:
		return status.Error(codes.Unavailable, body.Error)
	default:
		return status.Error(codes.Internal, body.Error)
	}
}
