package serve

import "github.com/binsift/binsift/pkg/types"

// UploadResponse is the body returned by the upload endpoint.
type UploadResponse struct {
	SourceID types.SourceID  `json:"source_id"`
	Metadata *types.Manifest `json:"metadata"`
}

// ArchiveRequest is the body accepted by the archive endpoint.
type ArchiveRequest struct {
	SourceID string `json:"source_id"`
	Selected []int  `json:"selected_files"`
}

// StatusResponse is the body returned by the liveness endpoint.
type StatusResponse struct {
	Status  string `json:"status"`
	Service string `json:"service"`
	Version string `json:"version"`
}

// ErrorResponse is the body returned for request-level failures.
type ErrorResponse struct {
	Error string `json:"error"`
}
