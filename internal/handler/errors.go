package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"

	"github.com/iliyamo/reading-list/internal/apperr"
	"github.com/iliyamo/reading-list/internal/logging"
	"github.com/iliyamo/reading-list/internal/middleware"
)

// MIMEProblemJSON is the RFC 7807 media type.
const MIMEProblemJSON = "application/problem+json"

// Problem is the body of every error response.
type Problem struct {
	Type          string              `json:"type"`
	Title         string              `json:"title"`
	Status        int                 `json:"status"`
	Detail        string              `json:"detail"`
	Code          string              `json:"code"`
	CorrelationID string              `json:"correlation_id,omitempty"`
	Errors        []apperr.FieldError `json:"errors,omitempty"`
}

// ProblemHandler renders errors returned by handlers and middleware as
// problem documents. Server errors are logged and their detail masked.
func ProblemHandler(log *logrus.Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}
		ctx := c.Request().Context()
		ae := toAppError(err)

		if ae.Status >= http.StatusInternalServerError {
			entry := logging.FromContext(ctx)
			if entry.Logger == logrus.StandardLogger() {
				entry = logrus.NewEntry(log)
			}
			entry.WithError(err).Error("request failed")
		}

		cid := logging.CorrelationID(ctx)
		if cid == "" {
			cid = c.Response().Header().Get(middleware.CorrelationHeader)
		}
		p := Problem{
			Type:          "about:blank",
			Title:         http.StatusText(ae.Status),
			Status:        ae.Status,
			Detail:        ae.Detail,
			Code:          ae.Code,
			CorrelationID: cid,
			Errors:        ae.Fields,
		}

		var werr error
		if c.Request().Method == http.MethodHead {
			werr = c.NoContent(p.Status)
		} else {
			body, _ := json.Marshal(p)
			werr = c.Blob(p.Status, MIMEProblemJSON, body)
		}
		if werr != nil {
			log.WithError(werr).Warn("write problem response")
		}
	}
}

// toAppError maps any error onto an *apperr.Error. Echo's own errors (unknown
// route, wrong method, bind failures) keep their status; the detail of any
// server error not raised as an *apperr.Error is masked.
func toAppError(err error) *apperr.Error {
	var ae *apperr.Error
	if errors.As(err, &ae) {
		return ae
	}
	var he *echo.HTTPError
	if errors.As(err, &he) {
		if he.Code >= http.StatusInternalServerError {
			masked := *apperr.ErrInternal
			masked.Status = he.Code
			return &masked
		}
		return &apperr.Error{
			Status: he.Code,
			Code:   codeFor(he.Code),
			Detail: fmt.Sprint(he.Message),
		}
	}
	return apperr.ErrInternal
}

func codeFor(status int) string {
	return strings.ReplaceAll(strings.ToLower(http.StatusText(status)), " ", "_")
}
