package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"syscall"

	"golang.org/x/sys/unix"

	"grimm.is/burrow/internal/netstate"
	"grimm.is/burrow/internal/rtnl"
)

// maxBodyBytes bounds request bodies; every payload here is tiny.
const maxBodyBytes = 1 << 20

// ErrorResponse represents a standard API error response.
type ErrorResponse struct {
	Error string `json:"error"`
	// Errno carries the kernel errno name when the kernel rejected the
	// operation, so callers can correlate with system logs.
	Errno string `json:"errno,omitempty"`
}

// WriteJSON sends a JSON success response.
func WriteJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		json.NewEncoder(w).Encode(data)
	}
}

// WriteError sends a JSON error response.
func WriteError(w http.ResponseWriter, code int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(ErrorResponse{Error: message})
}

// writeManagerError maps a manager error onto its HTTP status.
func writeManagerError(w http.ResponseWriter, err error) {
	resp := ErrorResponse{Error: err.Error()}
	var kerr *rtnl.KernelError
	if errors.As(err, &kerr) {
		resp.Errno = unix.ErrnoName(kerr.Errno)
	}

	code := http.StatusInternalServerError
	switch {
	case errors.Is(err, netstate.ErrNotFound):
		code = http.StatusNotFound
	case errors.Is(err, netstate.ErrExists),
		errors.Is(err, netstate.ErrRuleExists),
		errors.Is(err, netstate.ErrBusy):
		code = http.StatusConflict
	case errors.Is(err, netstate.ErrInvalidIndex):
		code = http.StatusBadRequest
	case errors.Is(err, netstate.ErrPermission):
		code = http.StatusForbidden
	case errors.Is(err, netstate.ErrTimeout):
		code = http.StatusGatewayTimeout
	case kerr != nil:
		// any other kernel rejection
		code = http.StatusBadGateway
	case isValidationError(err):
		code = http.StatusBadRequest
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(resp)
}

// isValidationError reports whether the error came from request
// validation rather than the kernel. Validation errors are plain
// errors; kernel and transport failures always wrap a sentinel or a
// *rtnl.KernelError, both handled above.
func isValidationError(err error) bool {
	var kerr *rtnl.KernelError
	var errno syscall.Errno
	return !errors.As(err, &kerr) && !errors.As(err, &errno)
}

// decodeJSON reads a bounded JSON body into dst.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return fmt.Errorf("invalid request body: %w", err)
	}
	return nil
}

// pathNamespace resolves the {ns} path segment; "default" is the
// namespace the daemon runs in.
func pathNamespace(r *http.Request) string {
	ns := r.PathValue("ns")
	if ns == "default" {
		return ""
	}
	return ns
}
