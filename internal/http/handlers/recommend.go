package handlers

import (
	"context"
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/traitdial/internal/http/response"
	"github.com/yungbote/traitdial/internal/platform/apierr"
	"github.com/yungbote/traitdial/internal/platform/logger"
	"github.com/yungbote/traitdial/internal/recommend"
)

type Recommender interface {
	Handle(ctx context.Context, body []byte) (recommend.Response, error)
}

type RecommendHandler struct {
	log      *logger.Logger
	svc      Recommender
	maxBytes int64
}

func NewRecommendHandler(log *logger.Logger, svc Recommender, maxBytes int64) *RecommendHandler {
	if log == nil {
		log = logger.NewNop()
	}
	return &RecommendHandler{log: log, svc: svc, maxBytes: maxBytes}
}

// Recommend is mounted for every method so that anything but POST gets a JSON
// 405 before the body is touched.
func (h *RecommendHandler) Recommend(c *gin.Context) {
	if c.Request.Method != http.MethodPost {
		c.Header("Allow", http.MethodPost)
		response.RespondError(c, apierr.New(http.StatusMethodNotAllowed, apierr.CodeMethodNotAllowed, errors.New("Method not allowed")))
		return
	}

	body, err := h.readBody(c)
	if err != nil {
		// An unreadable body is treated like an empty one.
		h.log.Warn("read request body failed", "error", err)
		body = nil
	}

	resp, err := h.svc.Handle(c.Request.Context(), body)
	if err != nil {
		ae := apierr.From(err)
		if ae.Status >= http.StatusInternalServerError {
			h.log.Error("recommend failed", "code", ae.Code, "status", ae.Status, "error", ae.Error())
		}
		response.RespondError(c, ae)
		return
	}
	response.RespondOK(c, resp)
}

func (h *RecommendHandler) readBody(c *gin.Context) ([]byte, error) {
	if c.Request.Body == nil {
		return nil, nil
	}
	r := io.Reader(c.Request.Body)
	if h.maxBytes > 0 {
		r = http.MaxBytesReader(c.Writer, c.Request.Body, h.maxBytes)
	}
	return io.ReadAll(r)
}
