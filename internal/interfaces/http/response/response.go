package response

import (
	"net/http"

	"github.com/gin-gonic/gin"
	domainerrors "ptradoor.backend/internal/domain/errors"
	"ptradoor.backend/pkg/utils"
)

// Success sends a success response
func Success(c *gin.Context, status int, data interface{}) {
	c.JSON(status, data)
}

// Paginated sends a list with its pagination metadata
func Paginated(c *gin.Context, items interface{}, meta utils.PaginationMeta) {
	c.JSON(http.StatusOK, gin.H{
		"items":      items,
		"pagination": meta,
	})
}

// Error maps err through the domain taxonomy and sends it
func Error(c *gin.Context, err error) {
	appErr := domainerrors.FromDomain(err)
	c.JSON(appErr.Status, gin.H{
		"code":    appErr.Code,
		"message": appErr.Message,
	})
}

// ErrorWithError sends an error response with a specific status and message
func ErrorWithError(c *gin.Context, status int, code string, message string) {
	c.JSON(status, gin.H{
		"code":    code,
		"message": message,
	})
}
