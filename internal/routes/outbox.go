package routes

import (
	"log"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/rm-hull/api-pgd-client/internal"
	"github.com/rm-hull/api-pgd-client/internal/models"
	"github.com/rm-hull/api-pgd-client/internal/stats"
)

type OutboxResponse struct {
	Counts     []models.OutboxCount     `json:"counts"`
	Statistics *models.OutboxStatistics `json:"statistics"`
}

func OutboxStats(repo internal.OutboxRepository) func(c *gin.Context) {
	return func(c *gin.Context) {
		bucketSize := 3 // default if not provided
		if s := c.Query("bucket_size"); s != "" {
			n, err := strconv.Atoi(s)
			if err != nil || n <= 0 {
				c.JSON(http.StatusBadRequest, gin.H{"error": "invalid bucket_size parameter"})
				return
			}
			bucketSize = n
		}

		counts, err := repo.Summary()
		if err != nil {
			log.Printf("error while summarising outbox: %v", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "An internal server error occurred"})
			return
		}

		c.JSON(http.StatusOK, OutboxResponse{
			Counts:     counts,
			Statistics: stats.Derive(counts, bucketSize),
		})
	}
}
