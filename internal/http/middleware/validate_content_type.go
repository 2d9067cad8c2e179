package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

// RequireContentType rejects requests whose body is not one of the given
// media types. File routes expect multipart/form-data, the upload and async
// routes expect application/json.
func RequireContentType(mediaTypes ...string) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		contentType := strings.ToLower(ctx.ContentType())

		for _, mediaType := range mediaTypes {
			if contentType == mediaType {
				ctx.Next()
				return
			}
		}

		ctx.AbortWithStatusJSON(http.StatusUnsupportedMediaType, gin.H{
			"success": false,
			"error":   "Content-Type must be " + strings.Join(mediaTypes, " or "),
		})
	}
}
