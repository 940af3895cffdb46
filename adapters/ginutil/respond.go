// Package ginutil holds small response helpers shared by the gin handlers.
package ginutil

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

func BadRequest(c *gin.Context, code string) {
	c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": code})
}

func Unauthorized(c *gin.Context, code string) {
	c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": code})
}

func Forbidden(c *gin.Context, code string) {
	c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": code})
}

func NotFound(c *gin.Context, code string) {
	c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"error": code})
}

func ServerErr(c *gin.Context, code string) {
	c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": code})
}
