package httpserver

import (
	"net/http"
	"strconv"

	"movietracker/watchlist"

	"github.com/labstack/echo/v4"
)

const successMessage = "OK"

type APIResponse struct {
	Code    string      `json:"code"`
	Message string      `json:"message"`
	Result  interface{} `json:"result,omitempty"`
	Info    string      `json:"info,omitempty"`
}

// MovieListResponse is the envelope of the movie routes. Error is only set on failure.
type MovieListResponse struct {
	Results interface{} `json:"results"`
	Type    string      `json:"type,omitempty"`
	Error   string      `json:"error,omitempty"`
}

func writeSuccess(c echo.Context, status int, result interface{}) error {
	return c.JSON(status, APIResponse{
		Code:    strconv.Itoa(status),
		Message: successMessage,
		Result:  result,
	})
}

// writeReply relays a backend answer byte for byte.
func writeReply(c echo.Context, reply watchlist.Reply) error {
	status := reply.Status
	if status == 0 {
		status = http.StatusOK
	}
	if len(reply.Body) == 0 {
		return c.NoContent(status)
	}
	return c.Blob(status, echo.MIMEApplicationJSONCharsetUTF8, reply.Body)
}
