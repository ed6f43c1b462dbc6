package mcp

import (
	"github.com/custodia-labs/partnerdocs/internal/core/ports/driving"
)

// Ports aggregates the driving ports the MCP server exposes.
type Ports struct {
	// Retrieval assembles context and answers questions.
	Retrieval driving.RetrievalService

	// Ingest adds documents. Optional; the ingest tool is only registered
	// when it is set.
	Ingest driving.IngestService
}

// Validate ensures all required ports are set.
func (p *Ports) Validate() error {
	if p.Retrieval == nil {
		return ErrMissingRetrievalService
	}
	return nil
}
