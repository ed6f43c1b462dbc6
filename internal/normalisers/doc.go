// Package normalisers extracts readable text from the file formats partner
// documents arrive in. Each sub-package implements driven.Normaliser for a
// set of file extensions.
//
// Normalisers are registered with a Registry at startup; the Registry is the
// driven.TextLoader used by ingestion.
package normalisers
