package httpdto

// AttachmentRequest describes one file already uploaded to object storage.
type AttachmentRequest struct {
	URL       string `json:"url" binding:"required"`
	Filename  string `json:"filename" binding:"required"`
	Kind      string `json:"kind" binding:"required"`
	SizeBytes int64  `json:"size_bytes" binding:"required"`
}

// SendMessageRequest is used for POST /projects/:projectId/chat/messages
type SendMessageRequest struct {
	Text        string              `json:"text"`
	Attachments []AttachmentRequest `json:"attachments"`
	ReplyTo     string              `json:"reply_to,omitempty"`
}

// EditMessageRequest is used for PUT /projects/:projectId/chat/messages/:id
type EditMessageRequest struct {
	Text string `json:"text"`
}

// ReactionRequest is used for POST .../messages/:id/reactions
type ReactionRequest struct {
	Emoji string `json:"emoji" binding:"required"`
}

// SyncParticipantsRequest carries the authoritative member snapshot pushed by
// the project service.
type SyncParticipantsRequest struct {
	MemberIDs []string `json:"member_ids" binding:"required"`
}

// ListMessagesRequest holds query parameters for history pages.
type ListMessagesRequest struct {
	Page     int `form:"page"`
	PageSize int `form:"page_size"`
}
