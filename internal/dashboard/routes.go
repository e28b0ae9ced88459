package dashboard

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/groundcheck/groundcheck/internal/db"
)

// registerRoutes sets up all dashboard routes on the Gin router.
func registerRoutes(router *gin.Engine, gdb *gorm.DB) {
	router.GET("/", handleIndex(gdb))
	router.GET("/api/runs", handleRunList(gdb))
	router.GET("/api/runs/:id", handleRunDetail(gdb))
	router.GET("/healthz", handleHealth(gdb))
}

func handleIndex(gdb *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		runs, err := db.RecentRuns(gdb, 50)
		if err != nil {
			c.String(http.StatusInternalServerError, "history unavailable: %v", err)
			return
		}
		c.HTML(http.StatusOK, "index.html", gin.H{
			"runs": runs,
		})
	}
}

func handleRunList(gdb *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
		runs, err := db.RecentRuns(gdb, limit)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"runs": runs})
	}
}

func handleRunDetail(gdb *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := strconv.ParseUint(c.Param("id"), 10, 32)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid run id"})
			return
		}
		run, err := db.GetRun(gdb, uint(id))
		if err != nil {
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, run)
	}
}

func handleHealth(gdb *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		sqlDB, err := gdb.DB()
		if err == nil {
			err = sqlDB.Ping()
		}
		if err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "degraded", "error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	}
}
