package api

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/mtobin/pennywise/internal/model"
)

type createDebtRequest struct {
	Amount  string `json:"amount" binding:"required"`
	Source  string `json:"source" binding:"required"`
	DueDate string `json:"dueDate"`
}

type debtResponse struct {
	ID        int64  `json:"id"`
	Amount    string `json:"amount"`
	DueDate   string `json:"dueDate"`
	Source    string `json:"source"`
	IsCleared bool   `json:"isCleared"`
}

func toDebtResponse(debt *model.Debt) debtResponse {
	return debtResponse{
		ID:        debt.ID,
		Amount:    debt.Amount.String(),
		DueDate:   debt.DueDate.UTC().Format(time.RFC3339),
		Source:    debt.Source,
		IsCleared: debt.IsCleared,
	}
}

func (s *Server) handleCreateDebt(c *gin.Context) {
	var req createDebtRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	amount, err := model.ParseCents(req.Amount)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid amount"})
		return
	}

	var dueDate time.Time
	if req.DueDate != "" {
		dueDate, err = time.Parse(time.RFC3339, req.DueDate)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid dueDate"})
			return
		}
	}

	debt, err := s.ledger.CreateDebt(c.Request.Context(), currentUserID(c), amount, dueDate, req.Source)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, toDebtResponse(debt))
}

func (s *Server) handleGetDebt(c *gin.Context) {
	id, err := pathID(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return
	}

	debt, err := s.ledger.GetDebt(c.Request.Context(), currentUserID(c), id)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, toDebtResponse(debt))
}

func (s *Server) handleListDebts(c *gin.Context) {
	includeCleared := c.Query("all") == "true"
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "5"))

	result, err := s.ledger.ListDebts(c.Request.Context(), currentUserID(c), includeCleared, page, limit)
	if err != nil {
		respondError(c, err)
		return
	}

	items := make([]debtResponse, 0, len(result.Debts))
	for i := range result.Debts {
		items = append(items, toDebtResponse(&result.Debts[i]))
	}

	c.JSON(http.StatusOK, gin.H{
		"debts":      items,
		"totalCount": result.TotalCount,
		"totalPages": result.TotalPages,
		"page":       result.Page,
	})
}

func (s *Server) handleDeleteDebt(c *gin.Context) {
	id, err := pathID(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return
	}

	if err := s.ledger.DeleteDebt(c.Request.Context(), currentUserID(c), id); err != nil {
		respondError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}
