package response

import (
	"encoding/json"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/traitdial/internal/platform/apierr"
)

const contentTypeJSON = "application/json; charset=utf-8"

// fallbackBody is written when a payload cannot be serialised.
var fallbackBody = []byte(`{"error":"Internal server error"}`)

type ErrorBody struct {
	Error   string `json:"error"`
	Snippet string `json:"snippet,omitempty"`
}

func RespondError(c *gin.Context, err error) {
	ae := apierr.From(err)
	if ae == nil {
		ae = apierr.New(http.StatusInternalServerError, apierr.CodeInternal, nil)
	}
	msg := ae.Error()
	if msg == "" || msg == ae.Code {
		msg = http.StatusText(ae.Status)
	}
	c.Set("error_code", ae.Code)
	WriteJSON(c, ae.Status, ErrorBody{Error: msg, Snippet: ae.Snippet})
}

func RespondOK(c *gin.Context, payload any) {
	WriteJSON(c, http.StatusOK, payload)
}

// WriteJSON always produces a JSON body, falling back to a fixed 500 body when
// payload cannot be marshalled.
func WriteJSON(c *gin.Context, status int, payload any) {
	b, err := json.Marshal(payload)
	if err != nil {
		c.Data(http.StatusInternalServerError, contentTypeJSON, fallbackBody)
		return
	}
	c.Data(status, contentTypeJSON, b)
}
