package api

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/mtobin/pennywise/internal/common"
	"github.com/mtobin/pennywise/internal/ledger"
	"github.com/mtobin/pennywise/internal/model"
	"github.com/mtobin/pennywise/internal/service"
)

type postTransactionRequest struct {
	Title   string  `json:"title" binding:"required"`
	Amount  string  `json:"amount" binding:"required"`
	Type    string  `json:"type" binding:"required"`
	Date    string  `json:"date"`
	Notes   string  `json:"notes"`
	Source  string  `json:"source"`
	DueDate string  `json:"dueDate"`
	TagIDs  []int64 `json:"tagIds"`
}

type transactionResponse struct {
	ID     int64    `json:"id"`
	Title  string   `json:"title"`
	Amount string   `json:"amount"`
	Date   string   `json:"date"`
	Type   string   `json:"type"`
	Notes  string   `json:"notes,omitempty"`
	Tags   []string `json:"tags,omitempty"`
}

func toTransactionResponse(txn *model.Transaction) transactionResponse {
	return transactionResponse{
		ID:     txn.ID,
		Title:  txn.Title,
		Amount: txn.Amount.String(),
		Date:   txn.Date.UTC().Format(time.RFC3339),
		Type:   string(txn.Type),
		Notes:  txn.Notes,
		Tags:   txn.Tags,
	}
}

func (s *Server) handlePostTransaction(c *gin.Context) {
	var req postTransactionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	amount, err := model.ParseCents(req.Amount)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid amount"})
		return
	}

	post := ledger.PostRequest{
		Title:  req.Title,
		Amount: amount,
		Type:   model.TransactionType(req.Type),
		Notes:  req.Notes,
		Source: req.Source,
		TagIDs: req.TagIDs,
	}
	if req.Date != "" {
		date, parseErr := time.Parse(time.RFC3339, req.Date)
		if parseErr != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid date"})
			return
		}
		post.Date = date
	}
	if req.DueDate != "" {
		due, parseErr := time.Parse(time.RFC3339, req.DueDate)
		if parseErr != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid dueDate"})
			return
		}
		post.DueDate = due
	}

	userID := currentUserID(c)

	// Conflicting postings for the same user replay the whole unit
	var txn *model.Transaction
	err = common.WithRetry(c.Request.Context(), func() error {
		var postErr error
		txn, postErr = s.ledger.PostTransaction(c.Request.Context(), userID, post)
		return postErr
	}, service.RetryOptions{MaxAttempts: 3})
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, toTransactionResponse(txn))
}

func (s *Server) handleGetTransaction(c *gin.Context) {
	id, err := pathID(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return
	}

	txn, err := s.ledger.GetTransaction(c.Request.Context(), currentUserID(c), id)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, toTransactionResponse(txn))
}

func (s *Server) handleDeleteTransaction(c *gin.Context) {
	id, err := pathID(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return
	}

	if err := s.ledger.DeleteTransaction(c.Request.Context(), currentUserID(c), id); err != nil {
		respondError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

func (s *Server) handleListTransactions(c *gin.Context) {
	filter, err := parseFilter(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	page, err := s.reports.ListTransactions(c.Request.Context(), currentUserID(c), filter)
	if err != nil {
		respondError(c, err)
		return
	}

	items := make([]transactionResponse, 0, len(page.Transactions))
	for i := range page.Transactions {
		items = append(items, toTransactionResponse(&page.Transactions[i]))
	}

	c.JSON(http.StatusOK, gin.H{
		"transactions": items,
		"totalCount":   page.TotalCount,
		"totalPages":   page.TotalPages,
		"page":         page.Page,
	})
}

// parseFilter reads listing query parameters: type (repeatable), tag
// (repeatable, any-match), from/to (RFC 3339), q (title substring), sort
// (title|amount|date), order (asc|desc), page, limit.
func parseFilter(c *gin.Context) (service.TransactionFilter, error) {
	var filter service.TransactionFilter

	for _, typ := range c.QueryArray("type") {
		t := model.TransactionType(strings.ToLower(typ))
		if !t.Valid() {
			return filter, &common.UserError{UserMessage: "unknown transaction type " + typ}
		}
		filter.Types = append(filter.Types, t)
	}

	filter.TagNames = c.QueryArray("tag")
	filter.TitleQuery = c.Query("q")

	if from := c.Query("from"); from != "" {
		t, err := time.Parse(time.RFC3339, from)
		if err != nil {
			return filter, &common.UserError{UserMessage: "invalid from date"}
		}
		filter.StartDate = &t
	}
	if to := c.Query("to"); to != "" {
		t, err := time.Parse(time.RFC3339, to)
		if err != nil {
			return filter, &common.UserError{UserMessage: "invalid to date"}
		}
		filter.EndDate = &t
	}

	switch c.Query("sort") {
	case "title":
		filter.SortBy = service.SortByTitle
	case "amount":
		filter.SortBy = service.SortByAmount
	case "date", "":
		filter.SortBy = service.SortByDate
	default:
		return filter, &common.UserError{UserMessage: "unknown sort field"}
	}
	filter.Ascending = c.Query("order") == "asc"

	filter.Page, _ = strconv.Atoi(c.DefaultQuery("page", "1"))
	filter.Limit, _ = strconv.Atoi(c.DefaultQuery("limit", "10"))

	return filter, nil
}

func pathID(c *gin.Context) (int64, error) {
	return strconv.ParseInt(c.Param("id"), 10, 64)
}
