package handlers

import (
	"regexp"

	"github.com/labstack/echo/v4"
)

// Envelope is the uniform response body: exactly one of error/msg is set on
// any given response, absent halves serialize as JSON null.
type Envelope struct {
	Error    any `json:"error"`
	ErrorMsg any `json:"error_msg"`
	Data     any `json:"data"`
	Msg      any `json:"msg"`
}

func respond(c echo.Context, status int, data any, msg string) error {
	return c.JSON(status, Envelope{Data: data, Msg: msg})
}

var emailPattern = regexp.MustCompile(`^([A-Za-z0-9]+[.\-_])*[A-Za-z0-9]+@[A-Za-z0-9-]+(\.[A-Za-z]{2,})+$`)

func isEmailFormat(s string) bool {
	return emailPattern.MatchString(s)
}
