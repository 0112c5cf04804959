package middleware

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
)

// oversizedKey is the context key set when an upload was refused unread.
const oversizedKey = "upload_oversized"

// UploadLimit bounds the bodies of requests matched by match to limit bytes
// without failing them. A declared length over the limit is dropped unread
// and flagged for the handler (see Oversized). Bodies of unknown length are
// wrapped so reading past the limit fails with *http.MaxBytesError.
//
// It runs ahead of CSRF so an oversized body is never parsed. Requests that
// carry their token in the form rather than the X-CSRF-Token header are
// then rejected by CSRF instead of reaching the handler.
func UploadLimit(limit int64, match func(echo.Context) bool) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if !match(c) {
				return next(c)
			}
			req := c.Request()
			if req.ContentLength > limit {
				req.Body.Close()
				req.Body = http.NoBody
				req.ContentLength = 0
				c.Set(oversizedKey, true)
				return next(c)
			}
			req.Body = http.MaxBytesReader(c.Response(), req.Body, limit)
			return next(c)
		}
	}
}

// Oversized reports whether the request body was refused by UploadLimit, or
// err shows the limit was hit while reading it.
func Oversized(c echo.Context, err error) bool {
	if flagged, _ := c.Get(oversizedKey).(bool); flagged {
		return true
	}
	var tooBig *http.MaxBytesError
	return errors.As(err, &tooBig)
}
