package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"school_transport/internal/store"
)

const stopNotFound = "Stop not found"

func (a *API) GetStop(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	stop, err := a.Store.GetStop(c.Request.Context(), id)
	if err != nil {
		respondStoreError(c, err, stopNotFound, "fetch stop")
		return
	}
	c.JSON(http.StatusOK, stop)
}

// UpdateStop edits a stop; the owning route is recomputed in the same transaction.
func (a *API) UpdateStop(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	var input store.StopUpdate
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid input: " + err.Error()})
		return
	}

	stop, err := a.Store.UpdateStop(c.Request.Context(), id, input)
	if err != nil {
		respondStoreError(c, err, stopNotFound, "update stop")
		return
	}
	c.JSON(http.StatusOK, stop)
}

func (a *API) DeleteStop(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	if err := a.Store.DeleteStop(c.Request.Context(), id); err != nil {
		respondStoreError(c, err, stopNotFound, "delete stop")
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Stop deleted"})
}
