package api

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v5"

	"github.com/samcharles93/ktxload/internal/transcode"
	"github.com/samcharles93/ktxload/pkg/ktx2"
)

var ErrInvalidRequest = errors.New("invalid_request")

type invalidRequestError struct {
	msg string
}

func (e invalidRequestError) Error() string {
	return e.msg
}

func (e invalidRequestError) Unwrap() error {
	return ErrInvalidRequest
}

func newInvalidRequest(msg string) error {
	return invalidRequestError{msg: msg}
}

// errorKinds maps decode errors to a status and error type, first match
// wins. LevelError matches both ErrTranscodeFailed and its cause, so
// transcode failures are listed before the container errors.
var errorKinds = []struct {
	err    error
	status int
	typ    string
}{
	{ErrInvalidRequest, http.StatusBadRequest, "invalid_request_error"},
	{transcode.ErrTranscodeFailed, http.StatusBadGateway, "transcode_failed"},
	{transcode.ErrNoSupportedTargetFormat, http.StatusConflict, "no_supported_target_format"},
	{transcode.ErrUnimplementedFormatCombination, http.StatusConflict, "unimplemented_format_combination"},
	{ktx2.ErrInvalidIdentifier, http.StatusUnprocessableEntity, "invalid_identifier"},
	{ktx2.ErrUnsupportedDimensionality, http.StatusUnprocessableEntity, "unsupported_dimensionality"},
	{ktx2.ErrUnsupportedSupercompression, http.StatusUnprocessableEntity, "unsupported_supercompression"},
	{ktx2.ErrStructuralOverrun, http.StatusUnprocessableEntity, "structural_overrun"},
}

func writeDecodeError(c *echo.Context, err error) error {
	for _, k := range errorKinds {
		if errors.Is(err, k.err) {
			return writeError(c, k.status, k.typ, err.Error())
		}
	}
	return writeError(c, http.StatusInternalServerError, "server_error", err.Error())
}
