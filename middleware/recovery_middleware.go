package middleware

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// RecoveryMiddleware is the per-request fault boundary: a panic anywhere in
// request handling is logged and swallowed so the process keeps serving
// other requests.
type RecoveryMiddleware struct {
	next http.Handler
}

func NewRecoveryMiddleware(next http.Handler) *RecoveryMiddleware {
	return &RecoveryMiddleware{
		next: next,
	}
}

func (m *RecoveryMiddleware) ServeHTTP(rw http.ResponseWriter, r *http.Request) {
	defer func() {
		p := recover()
		if p == nil {
			return
		}

		errorID := uuid.NewString()
		logrus.WithFields(logrus.Fields{
			"error_id": errorID,
			"url":      r.URL.String(),
		}).Errorf("recovered from panic while serving request: %v", p)

		// Best effort - the handler may have written the status already,
		// in which case this is a no-op.
		rw.WriteHeader(http.StatusInternalServerError)
	}()

	m.next.ServeHTTP(rw, r)
}
