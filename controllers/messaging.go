package controllers

import (
	"errors"
	"net/http"
	"sync"
	"time"

	"homeserve-backend/services"
	"homeserve-backend/utils"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

type MessagingController struct {
	Messaging *services.MessagingService
	Registry  *services.Registry
}

type SendMessageRequest struct {
	ReceiverID string `json:"receiverId" binding:"required"`
	Content    string `json:"content" binding:"required"`
}

func (mc *MessagingController) SendMessage(c *gin.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}
	var input SendMessageRequest
	if err := c.ShouldBindJSON(&input); err != nil {
		utils.RespondWithError(c, http.StatusBadRequest, "Invalid input: "+err.Error())
		return
	}
	receiverID, err := uuid.Parse(input.ReceiverID)
	if err != nil {
		utils.RespondWithError(c, http.StatusBadRequest, "Invalid receiver ID format")
		return
	}
	msg, err := mc.Messaging.SendMessage(c.Request.Context(), p, receiverID, input.Content)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, msg)
}

func (mc *MessagingController) GetConversations(c *gin.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}
	convs, err := mc.Messaging.Conversations(c.Request.Context(), p)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	out := make([]gin.H, len(convs))
	for i, cv := range convs {
		out[i] = gin.H{
			"id":            cv.ID,
			"with":          participantJSON(cv.Other),
			"lastMessage":   cv.LastMessage,
			"lastMessageAt": cv.LastMessageAt,
			"unread":        cv.Unread,
		}
	}
	c.JSON(http.StatusOK, out)
}

func (mc *MessagingController) GetMessages(c *gin.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}
	convID, ok := idParam(c, "id")
	if !ok {
		return
	}
	msgs, err := mc.Messaging.Messages(c.Request.Context(), p, convID)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	out := make([]gin.H, len(msgs))
	for i, m := range msgs {
		out[i] = gin.H{
			"id":        m.ID,
			"senderId":  m.SenderID,
			"content":   m.Content,
			"isRead":    m.IsRead,
			"createdAt": m.CreatedAt,
			"mine":      m.SenderID == p.ID,
		}
	}
	c.JSON(http.StatusOK, out)
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  4096,
	WriteBufferSize: 4096,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

const wsWriteWait = 10 * time.Second

// wsConn serializes writes; gorilla connections allow one writer at a time.
type wsConn struct {
	id string
	ws *websocket.Conn
	mu sync.Mutex
}

func (w *wsConn) ID() string { return w.id }

func (w *wsConn) Send(ev services.Event) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.ws.SetWriteDeadline(time.Now().Add(wsWriteWait))
	return w.ws.WriteJSON(ev)
}

type wsInbound struct {
	ReceiverID string `json:"receiverId"`
	Content    string `json:"content"`
}

// ServeWS authenticates with ?token=, registers the connection and relays
// chat messages until the client disconnects.
func (mc *MessagingController) ServeWS(c *gin.Context) {
	claims, err := utils.ParseToken(c.Query("token"))
	if err != nil {
		utils.RespondWithError(c, http.StatusUnauthorized, "Invalid token")
		return
	}
	userID, err := uuid.Parse(claims.Subject)
	if err != nil {
		utils.RespondWithError(c, http.StatusUnauthorized, "Invalid token")
		return
	}
	role, err := services.ParseRole(claims.Role)
	if err != nil {
		utils.RespondWithError(c, http.StatusUnauthorized, "Invalid token")
		return
	}
	p := services.Principal{ID: userID, Role: role, Name: claims.Name}

	ws, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		zap.L().Warn("websocket upgrade failed", zap.Error(err))
		return
	}
	defer ws.Close()

	conn := &wsConn{id: uuid.NewString(), ws: ws}
	if err := mc.Registry.Connect(userID, conn); err != nil {
		return
	}
	defer mc.Registry.Disconnect(userID, conn.id)
	zap.L().Debug("websocket connected", zap.String("user", userID.String()), zap.String("conn", conn.id))

	for {
		var in wsInbound
		if err := ws.ReadJSON(&in); err != nil {
			zap.L().Debug("websocket closed", zap.String("conn", conn.id), zap.Error(err))
			return
		}

		receiverID, err := uuid.Parse(in.ReceiverID)
		if err != nil {
			if conn.Send(services.Event{Type: services.EventError, Payload: gin.H{"error": "Invalid receiver ID format"}}) != nil {
				return
			}
			continue
		}

		msg, err := mc.Messaging.SendMessage(c.Request.Context(), p, receiverID, in.Content)
		if err != nil {
			text := "Failed to send message"
			var se *services.Error
			if errors.As(err, &se) {
				text = se.Message
			} else {
				zap.L().Error("websocket send failed", zap.Error(err))
			}
			if conn.Send(services.Event{Type: services.EventError, Payload: gin.H{"error": text}}) != nil {
				return
			}
			continue
		}
		if conn.Send(services.Event{Type: services.EventMessageSent, Payload: msg}) != nil {
			return
		}
	}
}
