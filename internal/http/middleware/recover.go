package middleware

import (
	"fmt"
	"net/http"
	"runtime/debug"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/traitdial/internal/http/response"
	"github.com/yungbote/traitdial/internal/platform/apierr"
	"github.com/yungbote/traitdial/internal/platform/ctxutil"
	"github.com/yungbote/traitdial/internal/platform/logger"
)

// Recover turns a panic into a JSON 500 carrying the panic message.
func Recover(log *logger.Logger) gin.HandlerFunc {
	return gin.CustomRecovery(func(c *gin.Context, rec any) {
		if log != nil {
			fields := []interface{}{"panic", rec, "stack", string(debug.Stack())}
			if td := ctxutil.GetTraceData(c.Request.Context()); td != nil {
				fields = append(fields, "request_id", td.RequestID)
			}
			log.Error("panic recovered", fields...)
		}
		response.RespondError(c, apierr.New(http.StatusInternalServerError, apierr.CodeInternal, fmt.Errorf("%v", rec)))
		c.Abort()
	})
}
