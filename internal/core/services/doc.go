// Package services holds the partner document pipeline.
//
// Ingest runs text through the segmenter, the embedding coordinator and a
// ChunkIndex. Retrieval loads a partner's chunks through PartnerDocumentCache,
// ranks them with the token-overlap scorer and lets ContextAssembler build the
// bounded context passed to an LLM. Adapters are reached only through the
// driven ports.
package services
