package httpdto

// CreateUploadRequest is used for POST /projects/:projectId/chat/uploads
type CreateUploadRequest struct {
	Filename    string `json:"filename" binding:"required"`
	ContentType string `json:"content_type" binding:"required"`
	SizeBytes   int64  `json:"size_bytes" binding:"required"`
}

// CreateUploadResponse hands the client a presigned PUT plus the public URL
// to attach once the upload completes.
type CreateUploadResponse struct {
	UploadURL string            `json:"upload_url"`
	FileURL   string            `json:"file_url"`
	Headers   map[string]string `json:"headers"`
	Kind      string            `json:"kind"`
}
