package handlers

import (
	"net/http"
	"sort"

	"github.com/gin-gonic/gin"
)

// RouteLister is satisfied by *gin.Engine.
type RouteLister interface {
	Routes() gin.RoutesInfo
}

type endpoint struct {
	Method string `json:"method"`
	Path   string `json:"path"`
}

// Endpoints lists every registered route.
func Endpoints(routes RouteLister) gin.HandlerFunc {
	return func(c *gin.Context) {
		info := routes.Routes()
		list := make([]endpoint, 0, len(info))
		for _, r := range info {
			list = append(list, endpoint{Method: r.Method, Path: r.Path})
		}
		sort.Slice(list, func(i, j int) bool {
			if list[i].Path == list[j].Path {
				return list[i].Method < list[j].Method
			}
			return list[i].Path < list[j].Path
		})

		c.JSON(http.StatusOK, list)
	}
}

// Health reports that the server is up.
func Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "ok",
		"message": "Event platform API is running",
	})
}

// PathNotFound answers unmatched routes.
func PathNotFound(c *gin.Context) {
	c.JSON(http.StatusNotFound, gin.H{"msg": "Path not found"})
}
