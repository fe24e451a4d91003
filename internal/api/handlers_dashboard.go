package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/mtobin/pennywise/internal/model"
)

func (s *Server) handleDashboard(c *gin.Context) {
	summary, err := s.reports.Summary(c.Request.Context(), currentUserID(c))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"inflow":        summary.TotalInflow.String(),
		"outflow":       summary.TotalOutflow.String(),
		"totalDebt":     summary.TotalDebt.String(),
		"clearedDebt":   summary.ClearedDebt.String(),
		"remainingDebt": summary.RemainingDebt.String(),
	})
}

func (s *Server) handleExtremes(c *gin.Context) {
	extremes, err := s.reports.Extremes(c.Request.Context(), currentUserID(c))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"highestInflow":  nullableTransaction(extremes.HighestInflow),
		"lowestInflow":   nullableTransaction(extremes.LowestInflow),
		"highestOutflow": nullableTransaction(extremes.HighestOutflow),
		"lowestOutflow":  nullableTransaction(extremes.LowestOutflow),
		"highestDebt":    nullableTransaction(extremes.HighestDebt),
		"lowestDebt":     nullableTransaction(extremes.LowestDebt),
	})
}

func nullableTransaction(txn *model.Transaction) any {
	if txn == nil {
		return nil
	}
	return toTransactionResponse(txn)
}
