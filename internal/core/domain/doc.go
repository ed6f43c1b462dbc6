// Package domain holds the partner document model: chunks and their
// document types, per-partner sets, retrieval budgets and the results of
// ingest, embedding and assembly, plus the settings and sentinel errors
// shared by every layer.
//
// It imports only the standard library.
package domain
