package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/sathvik-zluri/moneytrack/internal/notify"
	"github.com/sathvik-zluri/moneytrack/internal/services/transactions"
)

// PageResponse is the answer to every page action: the page as it now
// stands plus whatever the action queued for the user.
type PageResponse struct {
	State         transactions.State    `json:"state"`
	Notifications []notify.Notification `json:"notifications"`
	Downloads     []notify.Download     `json:"downloads"`
	Extra         gin.H                 `json:"extra,omitempty"`
}

func respond(c *gin.Context, status int, sess *Session, extra gin.H) {
	b := sess.Outbox.Drain()
	c.JSON(status, PageResponse{
		State:         sess.Page.State(),
		Notifications: b.Notifications,
		Downloads:     b.Downloads,
		Extra:         extra,
	})
}
