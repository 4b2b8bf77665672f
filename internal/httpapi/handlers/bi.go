package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/lucashml/medscribe/internal/common"
)

func (h *Handler) BIStats(c *gin.Context) {
	res, err := h.BISvc.Stats(c.Request.Context())
	if err != nil {
		common.Fail(c, http.StatusInternalServerError, 50001, "failed to aggregate stats")
		return
	}

	common.OK(c, gin.H{
		"stats":   res.Stats,
		"records": res.Records,
	})
}
