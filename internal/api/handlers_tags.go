package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

type tagRequest struct {
	Name string `json:"name" binding:"required"`
}

type tagResponse struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

func (s *Server) handleCreateTag(c *gin.Context) {
	var req tagRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	tag, err := s.ledger.CreateTag(c.Request.Context(), currentUserID(c), req.Name)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, tagResponse{ID: tag.ID, Name: tag.Name})
}

func (s *Server) handleListTags(c *gin.Context) {
	tags, err := s.ledger.ListTags(c.Request.Context(), currentUserID(c))
	if err != nil {
		respondError(c, err)
		return
	}

	items := make([]tagResponse, 0, len(tags))
	for _, tag := range tags {
		items = append(items, tagResponse{ID: tag.ID, Name: tag.Name})
	}

	c.JSON(http.StatusOK, gin.H{"tags": items})
}

func (s *Server) handleRenameTag(c *gin.Context) {
	id, err := pathID(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return
	}

	var req tagRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := s.ledger.RenameTag(c.Request.Context(), currentUserID(c), id, req.Name); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, tagResponse{ID: id, Name: req.Name})
}

func (s *Server) handleDeleteTag(c *gin.Context) {
	id, err := pathID(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return
	}

	if err := s.ledger.DeleteTag(c.Request.Context(), currentUserID(c), id); err != nil {
		respondError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}
