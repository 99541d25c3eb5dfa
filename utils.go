package main

import (
	"fmt"
	"net/http"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

const issueTrackerURL = "https://github.com/symsrv/symproxy/issues"

// respondWithInternalError reports an unrecoverable per-request failure to
// the client with a freshly generated correlation ID. The ID, the request
// URL and the underlying cause are logged server-side for correlation.
func respondWithInternalError(rw http.ResponseWriter, req *http.Request, err error) {
	errorID := uuid.NewString()
	logrus.WithFields(logrus.Fields{
		"error_id": errorID,
		"url":      req.URL.String(),
	}).Errorf("proxy failed: %s", err)

	rw.WriteHeader(http.StatusInternalServerError)
	fmt.Fprintf(rw, "Internal proxy error (error id: %s). Please report this at %s\n", errorID, issueTrackerURL)
}
