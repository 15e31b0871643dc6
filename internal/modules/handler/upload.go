package handler

import (
	"fmt"
	"io"
	"net/http"

	"github.com/artel-team/artel/internal/modules/serializer"
	"github.com/gin-gonic/gin"
)

// MaxImageSize caps avatar and cover uploads (10MB).
const MaxImageSize = 10 << 20

// readImage reads the multipart "file" field. It writes the 400 itself.
func readImage(c *gin.Context) ([]byte, bool) {
	fh, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, serializer.ParamErr("file is required", err))
		return nil, false
	}
	if fh.Size > MaxImageSize {
		c.JSON(http.StatusBadRequest, serializer.ParamErr(fmt.Sprintf("file exceeds %d bytes", MaxImageSize), nil))
		return nil, false
	}
	f, err := fh.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, serializer.ParamErr("", err))
		return nil, false
	}
	defer f.Close()

	body, err := io.ReadAll(io.LimitReader(f, MaxImageSize+1))
	if err != nil {
		c.JSON(http.StatusBadRequest, serializer.ParamErr("", err))
		return nil, false
	}
	if len(body) > MaxImageSize {
		c.JSON(http.StatusBadRequest, serializer.ParamErr(fmt.Sprintf("file exceeds %d bytes", MaxImageSize), nil))
		return nil, false
	}
	return body, true
}
