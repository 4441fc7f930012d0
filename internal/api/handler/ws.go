package handler

import (
	"net/http"

	"privacyreport/backend/internal/models"
	"privacyreport/backend/internal/reviewhub"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// Review clients live on a separate origin from the API.
	CheckOrigin: func(r *http.Request) bool { return true },
}

// GetReviewReports lists submitted reports for the moderator queue.
func (h *Handler) GetReviewReports(c *gin.Context) {
	reports, err := h.Storage.ReportsByStatus(models.StatusSubmitted)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load submitted reports"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"reports": reports})
}

// GetReviewFeed upgrades the connection and streams newly submitted reports
// to the moderator until the socket closes.
func (h *Handler) GetReviewFeed(c *gin.Context) {
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Failed to upgrade connection"})
		return
	}

	client := reviewhub.NewClient(h.Hub, conn)
	h.Hub.RegisterCh <- client
	client.Run()

	// Drain reads so close frames are processed; the feed is write-only.
	go func() {
		defer func() { h.Hub.UnregisterCh <- client }()
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()
}
