package http

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/labstack/echo/v4"

	"github.com/Divya4879/Sassy-AI-Debate-Coach/usecase"
	"github.com/Divya4879/Sassy-AI-Debate-Coach/utils/log"
	"go.uber.org/zap"
)

// ErrorHandler renders every failure as {"error": "..."}.
func ErrorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}

	code, msg := classify(err)
	if code >= http.StatusInternalServerError {
		log.WithCtx(c.Request().Context()).Error("Request failed",
			zap.String("path", c.Path()),
			zap.Int("status", code),
			zap.Error(err))
	}

	if c.Request().Method == http.MethodHead {
		err = c.NoContent(code)
	} else {
		err = c.JSON(code, map[string]string{"error": msg})
	}
	if err != nil {
		log.WithCtx(c.Request().Context()).Warn("Writing error response", zap.Error(err))
	}
}

func classify(err error) (int, string) {
	var he *echo.HTTPError
	switch {
	case errors.As(err, &he):
		if he.Internal != nil && he.Message == nil {
			return he.Code, he.Internal.Error()
		}
		return he.Code, fmt.Sprint(he.Message)
	case errors.Is(err, usecase.ErrNoActiveDebate):
		return http.StatusBadRequest, "No active debate"
	case errors.Is(err, usecase.ErrInvalidInput):
		return http.StatusBadRequest, validationMessage(err)
	default:
		return http.StatusInternalServerError, err.Error()
	}
}

// validationMessage turns "invalid input: no topic provided" into
// "No topic provided".
func validationMessage(err error) string {
	msg := strings.TrimPrefix(err.Error(), usecase.ErrInvalidInput.Error()+": ")
	r, size := utf8.DecodeRuneInString(msg)
	if r == utf8.RuneError {
		return msg
	}
	return string(unicode.ToUpper(r)) + msg[size:]
}
