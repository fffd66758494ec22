package http

import (
	"errors"
	"net/http"
	"os"
	"path/filepath"

	"github.com/gin-gonic/gin"
	"github.com/go-kit/kit/endpoint"
	"github.com/google/uuid"

	"github.com/docblade/docblade"
	"github.com/docblade/docblade/extract"
)

// IngestHandler accepts a multipart upload plus an optional category_id
// form field, stages the file under uploadDir and ingests it.
func IngestHandler(e endpoint.Endpoint, uploadDir string) gin.HandlerFunc {
	return func(c *gin.Context) {
		file, err := c.FormFile("file")
		if err != nil {
			c.String(http.StatusBadRequest, err.Error())
			c.Error(err)
			c.Abort()
			return
		}

		if err := os.MkdirAll(uploadDir, 0755); err != nil {
			c.String(http.StatusInternalServerError, err.Error())
			c.Error(err)
			c.Abort()
			return
		}

		// Prefix with a fresh ID so concurrent uploads of the same
		// filename do not clobber each other.
		dst := filepath.Join(uploadDir, uuid.NewString()+"_"+filepath.Base(file.Filename))
		if err := c.SaveUploadedFile(file, dst); err != nil {
			c.String(http.StatusInternalServerError, err.Error())
			c.Error(err)
			c.Abort()
			return
		}

		req := docblade.IngestRequest{
			FilePath:   dst,
			CategoryID: docblade.CategoryID(c.PostForm("category_id")),
		}

		ctx := c.Request.Context()
		resp, err := e(ctx, req)
		if err != nil {
			status := http.StatusExpectationFailed
			if errors.Is(err, docblade.ErrExtractionTooShort) || errors.Is(err, extract.ErrUnsupportedFileType) {
				status = http.StatusBadRequest
			}

			c.String(status, err.Error())
			c.Error(err)
			c.Abort()
			return
		}

		c.JSON(http.StatusOK, &resp)
	}
}

func QueryHandler(e endpoint.Endpoint) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req docblade.QueryRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.String(http.StatusBadRequest, err.Error())
			c.Error(err)
			c.Abort()
			return
		}

		ctx := c.Request.Context()
		resp, err := e(ctx, req)
		if err != nil {
			status := http.StatusExpectationFailed
			if errors.Is(err, docblade.ErrEmptyQuestion) {
				status = http.StatusBadRequest
			}

			c.String(status, err.Error())
			c.Error(err)
			c.Abort()
			return
		}

		c.JSON(http.StatusOK, &resp)
	}
}

func ClearHandler(e endpoint.Endpoint) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req docblade.ClearRequest
		if c.Request.ContentLength > 0 {
			if err := c.ShouldBindJSON(&req); err != nil {
				c.String(http.StatusBadRequest, err.Error())
				c.Error(err)
				c.Abort()
				return
			}
		}

		ctx := c.Request.Context()
		resp, err := e(ctx, req)
		if err != nil {
			c.String(http.StatusExpectationFailed, err.Error())
			c.Error(err)
			c.Abort()
			return
		}

		c.JSON(http.StatusOK, &resp)
	}
}

func ListFilesHandler(e endpoint.Endpoint) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()

		resp, err := e(ctx, nil)
		if err != nil {
			c.String(http.StatusExpectationFailed, err.Error())
			c.Error(err)
			c.Abort()
			return
		}

		c.JSON(http.StatusOK, &resp)
	}
}

func CreateCategoryHandler(e endpoint.Endpoint) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req docblade.CreateCategoryRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.String(http.StatusBadRequest, err.Error())
			c.Error(err)
			c.Abort()
			return
		}

		if req.Name == "" {
			err := errors.New("category name is required")
			c.String(http.StatusBadRequest, err.Error())
			c.Error(err)
			c.Abort()
			return
		}

		ctx := c.Request.Context()
		resp, err := e(ctx, req)
		if err != nil {
			c.String(http.StatusExpectationFailed, err.Error())
			c.Error(err)
			c.Abort()
			return
		}

		c.JSON(http.StatusOK, &resp)
	}
}

func ListCategoriesHandler(e endpoint.Endpoint) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()

		resp, err := e(ctx, nil)
		if err != nil {
			c.String(http.StatusExpectationFailed, err.Error())
			c.Error(err)
			c.Abort()
			return
		}

		c.JSON(http.StatusOK, &resp)
	}
}
