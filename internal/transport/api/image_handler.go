package api

import (
	"context"
	"encoding/base64"
	"net/http"

	"github.com/gin-gonic/gin"
)

type ImageHandler struct {
	svs ImageServicer
}

func NewImageHandler(svs ImageServicer) *ImageHandler {
	return &ImageHandler{
		svs: svs,
	}
}

type GenerateImageParams struct {
	Prompt string `binding:"required,notblank,max_bytes=1000" json:"prompt"`
}

type GenerateImageResponse struct {
	CreditBalance int64  `json:"creditBalance"`
	ResultImage   string `json:"resultImage"`
}

// Generate POST RouteGroup + GenerateImageRoute. Генерирует изображение и списывает за него кредит.
// Изображение возвращается в виде data URL.
func (h *ImageHandler) Generate(c *gin.Context) {
	currentUserID := getUserIDFromContext(c)

	var params GenerateImageParams
	if bindErr := c.ShouldBindJSON(&params); bindErr != nil {
		abortWithBindError(c, bindErr)
		return
	}

	reqCtx, cancel := context.WithTimeout(c, ImageServiceTimeout)
	defer cancel()

	img, err := h.svs.Generate(reqCtx, currentUserID, params.Prompt)
	if err != nil {
		abortWithServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, GenerateImageResponse{
		CreditBalance: img.CreditBalance,
		ResultImage:   "data:" + img.ContentType + ";base64," + base64.StdEncoding.EncodeToString(img.Data),
	})
}
