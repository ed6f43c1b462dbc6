package ask

import "errors"

// ErrNoRetrievalService is returned when the retrieval service is not configured.
var ErrNoRetrievalService = errors.New("retrieval service not configured")
