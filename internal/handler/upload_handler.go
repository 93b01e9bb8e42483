package handler

import (
	"net/http"

	"projecthub-chat/internal/service"
	"projecthub-chat/internal/storage"
	"projecthub-chat/internal/transport/httpdto"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// UploadHandler presigns attachment uploads. The room's attachment policy is
// checked here so clients learn about rejections before moving any bytes.
type UploadHandler struct {
	facade  *service.ChatFacade
	rooms   *service.RoomService
	storage *storage.Client
}

func NewUploadHandler(facade *service.ChatFacade, rooms *service.RoomService, storage *storage.Client) *UploadHandler {
	return &UploadHandler{facade: facade, rooms: rooms, storage: storage}
}

func (h *UploadHandler) Create(c *gin.Context) {
	projectID, err := uuid.Parse(c.Param("projectId"))
	if err != nil {
		c.JSON(http.StatusBadRequest, httpdto.NewErrorResponse("invalid project id", "INVALID_REQUEST"))
		return
	}
	userID, found := service.UserIDFromContext(c.Request.Context())
	if !found {
		c.JSON(http.StatusUnauthorized, httpdto.NewErrorResponse("unauthorized", "UNAUTHORIZED"))
		return
	}

	var req httpdto.CreateUploadRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, httpdto.NewErrorResponse("invalid request", "INVALID_REQUEST"))
		return
	}

	if err := h.facade.CanAccess(c.Request.Context(), projectID, userID); err != nil {
		respondError(c, err)
		return
	}

	room, err := h.rooms.GetOrCreate(c.Request.Context(), projectID)
	if err != nil {
		respondError(c, err)
		return
	}

	kind := storage.KindForContentType(req.ContentType)
	if !room.Settings.AllowAttachments || !room.Settings.AllowsKind(kind) {
		c.JSON(http.StatusBadRequest, httpdto.NewErrorResponse("attachment type not allowed in this room", "INVALID_REQUEST"))
		return
	}
	if req.SizeBytes <= 0 || req.SizeBytes > room.Settings.MaxAttachmentBytes {
		c.JSON(http.StatusRequestEntityTooLarge, httpdto.NewErrorResponse("file too large for this room", "TOO_LARGE"))
		return
	}

	uploadURL, fileURL, headers, err := h.storage.PresignUpload(c.Request.Context(), projectID, req.Filename, req.ContentType, req.SizeBytes)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, httpdto.NewSuccessResponse(httpdto.CreateUploadResponse{
		UploadURL: uploadURL,
		FileURL:   fileURL,
		Headers:   headers,
		Kind:      string(kind),
	}))
}
