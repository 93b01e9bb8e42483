package handler

import (
	"net/http"
	"strconv"

	"projecthub-chat/internal/domain"
	"projecthub-chat/internal/service"
	"projecthub-chat/internal/transport/httpdto"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// ChatHandler exposes the project chat API. Every route is nested under a
// project; the facade enforces membership before touching any message.
type ChatHandler struct {
	facade *service.ChatFacade
}

func NewChatHandler(facade *service.ChatFacade) *ChatHandler {
	return &ChatHandler{facade: facade}
}

func (h *ChatHandler) Send(c *gin.Context) {
	projectID, userID, ok := h.ids(c)
	if !ok {
		return
	}

	var req httpdto.SendMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, httpdto.NewErrorResponse("invalid request", "INVALID_REQUEST"))
		return
	}

	input := service.SendInput{Text: req.Text}
	for _, a := range req.Attachments {
		input.Attachments = append(input.Attachments, service.AttachmentInput{
			URL:       a.URL,
			Filename:  a.Filename,
			Kind:      domain.AttachmentKind(a.Kind),
			SizeBytes: a.SizeBytes,
		})
	}
	if req.ReplyTo != "" {
		replyTo, err := uuid.Parse(req.ReplyTo)
		if err != nil {
			c.JSON(http.StatusBadRequest, httpdto.NewErrorResponse("invalid reply_to", "INVALID_REQUEST"))
			return
		}
		input.ReplyTo = &replyTo
	}

	view, err := h.facade.SendMessage(c.Request.Context(), projectID, userID, input)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, httpdto.NewSuccessResponse(view))
}

func (h *ChatHandler) List(c *gin.Context) {
	projectID, userID, ok := h.ids(c)
	if !ok {
		return
	}

	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "0"))

	result, err := h.facade.ListMessages(c.Request.Context(), projectID, userID, page, pageSize)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, httpdto.NewSuccessResponse(result))
}

func (h *ChatHandler) Edit(c *gin.Context) {
	projectID, userID, ok := h.ids(c)
	if !ok {
		return
	}
	messageID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, httpdto.NewErrorResponse("invalid message id", "INVALID_REQUEST"))
		return
	}

	var req httpdto.EditMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, httpdto.NewErrorResponse("invalid request", "INVALID_REQUEST"))
		return
	}

	view, err := h.facade.EditMessage(c.Request.Context(), projectID, userID, messageID, req.Text)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, httpdto.NewSuccessResponse(view))
}

func (h *ChatHandler) Delete(c *gin.Context) {
	projectID, userID, ok := h.ids(c)
	if !ok {
		return
	}
	messageID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, httpdto.NewErrorResponse("invalid message id", "INVALID_REQUEST"))
		return
	}

	view, err := h.facade.DeleteMessage(c.Request.Context(), projectID, userID, messageID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, httpdto.NewSuccessResponse(view))
}

func (h *ChatHandler) React(c *gin.Context) {
	projectID, userID, ok := h.ids(c)
	if !ok {
		return
	}
	messageID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, httpdto.NewErrorResponse("invalid message id", "INVALID_REQUEST"))
		return
	}

	var req httpdto.ReactionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, httpdto.NewErrorResponse("invalid request", "INVALID_REQUEST"))
		return
	}

	reactions, err := h.facade.ToggleReaction(c.Request.Context(), projectID, userID, messageID, req.Emoji)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, httpdto.NewSuccessResponse(gin.H{"reactions": reactions}))
}

func (h *ChatHandler) MarkRead(c *gin.Context) {
	projectID, userID, ok := h.ids(c)
	if !ok {
		return
	}
	messageID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, httpdto.NewErrorResponse("invalid message id", "INVALID_REQUEST"))
		return
	}

	if err := h.facade.MarkMessageRead(c.Request.Context(), projectID, userID, messageID); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, httpdto.NewSuccessResponse[any](nil))
}

func (h *ChatHandler) MarkAllRead(c *gin.Context) {
	projectID, userID, ok := h.ids(c)
	if !ok {
		return
	}

	if err := h.facade.MarkAllRead(c.Request.Context(), projectID, userID); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, httpdto.NewSuccessResponse[any](nil))
}

func (h *ChatHandler) RoomInfo(c *gin.Context) {
	projectID, userID, ok := h.ids(c)
	if !ok {
		return
	}

	info, err := h.facade.GetRoomInfo(c.Request.Context(), projectID, userID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, httpdto.NewSuccessResponse(info))
}

func (h *ChatHandler) Archive(c *gin.Context)   { h.setArchived(c, true) }
func (h *ChatHandler) Unarchive(c *gin.Context) { h.setArchived(c, false) }

func (h *ChatHandler) setArchived(c *gin.Context, archived bool) {
	projectID, userID, ok := h.ids(c)
	if !ok {
		return
	}

	room, err := h.facade.SetArchived(c.Request.Context(), projectID, userID, archived)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, httpdto.NewSuccessResponse(room))
}

func (h *ChatHandler) SyncParticipants(c *gin.Context) {
	projectID, userID, ok := h.ids(c)
	if !ok {
		return
	}

	var req httpdto.SyncParticipantsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, httpdto.NewErrorResponse("invalid request", "INVALID_REQUEST"))
		return
	}
	memberIDs := make([]uuid.UUID, 0, len(req.MemberIDs))
	for _, raw := range req.MemberIDs {
		id, err := uuid.Parse(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, httpdto.NewErrorResponse("invalid member id", "INVALID_REQUEST"))
			return
		}
		memberIDs = append(memberIDs, id)
	}

	if err := h.facade.SyncParticipants(c.Request.Context(), projectID, userID, memberIDs); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, httpdto.NewSuccessResponse[any](nil))
}

func (h *ChatHandler) ids(c *gin.Context) (projectID, userID uuid.UUID, ok bool) {
	projectID, err := uuid.Parse(c.Param("projectId"))
	if err != nil {
		c.JSON(http.StatusBadRequest, httpdto.NewErrorResponse("invalid project id", "INVALID_REQUEST"))
		return uuid.Nil, uuid.Nil, false
	}
	userID, found := service.UserIDFromContext(c.Request.Context())
	if !found {
		c.JSON(http.StatusUnauthorized, httpdto.NewErrorResponse("unauthorized", "UNAUTHORIZED"))
		return uuid.Nil, uuid.Nil, false
	}
	return projectID, userID, true
}
