package handlers

import (
	"io"
	"mime/multipart"
	"net/http"
	"path"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/damacus/iron-explorer/internal/explorer"
	"github.com/damacus/iron-explorer/internal/store"
)

// BucketsHandler serves the object browser API.
type BucketsHandler struct {
	factory store.Factory
	engine  *explorer.Engine
	logger  *zap.Logger
}

func NewBucketsHandler(factory store.Factory, engine *explorer.Engine, logger *zap.Logger) *BucketsHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &BucketsHandler{factory: factory, engine: engine, logger: logger}
}

// ListBuckets returns every bucket visible to the session.
func (h *BucketsHandler) ListBuckets(c echo.Context) error {
	s, err := openStore(c, h.factory)
	if err != nil {
		return err
	}
	buckets, err := h.engine.ListBuckets(c.Request().Context(), s)
	if err != nil {
		return readError(err)
	}
	return c.JSON(http.StatusOK, buckets)
}

// ListObjects returns one page of a prefix.
func (h *BucketsHandler) ListObjects(c echo.Context) error {
	s, err := openStore(c, h.factory)
	if err != nil {
		return err
	}

	pageSize := 0
	if raw := c.QueryParam("pageSize"); raw != "" {
		pageSize, err = strconv.Atoi(raw)
		if err != nil || pageSize < 1 {
			return echo.NewHTTPError(http.StatusBadRequest, "pageSize must be a positive integer")
		}
	}

	page, err := h.engine.ListPage(c.Request().Context(), s, explorer.ListRequest{
		Bucket:   c.Param("bucket"),
		Prefix:   c.QueryParam("prefix"),
		PageSize: pageSize,
		Cursor:   c.QueryParam("cursor"),
		Sort:     explorer.SortOrder(c.QueryParam("sort")),
	})
	if err != nil {
		return readError(err)
	}
	return c.JSON(http.StatusOK, page)
}

// Search matches q against names directly under prefix.
func (h *BucketsHandler) Search(c echo.Context) error {
	s, err := openStore(c, h.factory)
	if err != nil {
		return err
	}
	page, err := h.engine.Search(c.Request().Context(), s, c.Param("bucket"), c.QueryParam("prefix"), c.QueryParam("q"))
	if err != nil {
		return readError(err)
	}
	return c.JSON(http.StatusOK, page)
}

// Count reports how many entries live directly under prefix.
func (h *BucketsHandler) Count(c echo.Context) error {
	s, err := openStore(c, h.factory)
	if err != nil {
		return err
	}
	n := h.engine.Count(c.Request().Context(), s, c.Param("bucket"), c.QueryParam("prefix"))
	return c.JSON(http.StatusOK, map[string]int{"count": n})
}

type createFolderRequest struct {
	Prefix string `json:"prefix" form:"prefix"`
	Name   string `json:"name" form:"name"`
}

func (h *BucketsHandler) CreateFolder(c echo.Context) error {
	var req createFolderRequest
	if err := c.Bind(&req); err != nil {
		return respond(c, "", bindError(err))
	}
	s, err := openStore(c, h.factory)
	if err != nil {
		return err
	}
	key, err := h.engine.CreateFolder(c.Request().Context(), s, c.Param("bucket"), req.Prefix, req.Name)
	return respond(c, key, err)
}

// Upload stores every multipart "file" part under the prefix query value.
func (h *BucketsHandler) Upload(c echo.Context) error {
	s, err := openStore(c, h.factory)
	if err != nil {
		return err
	}

	form, err := c.MultipartForm()
	if err != nil {
		return respond(c, "", &explorer.ValidationError{Field: "file", Message: "Expected a multipart form"})
	}
	defer func() { _ = form.RemoveAll() }()

	var files []explorer.Upload
	for _, fh := range form.File["file"] {
		files = append(files, uploadFromHeader(fh))
	}

	prefix := c.QueryParam("prefix")
	stored, err := h.engine.UploadFiles(c.Request().Context(), s, c.Param("bucket"), prefix, files)
	h.logger.Info("upload",
		zap.String("bucket", c.Param("bucket")),
		zap.String("prefix", prefix),
		zap.Int("stored", len(stored)),
		zap.Int("files", len(files)))

	key := ""
	if len(stored) == 1 {
		key = stored[0]
	}
	return respond(c, key, err)
}

func uploadFromHeader(fh *multipart.FileHeader) explorer.Upload {
	return explorer.Upload{
		// Some clients send a full path; keep only the file name.
		Name:        path.Base(fh.Filename),
		Size:        fh.Size,
		ContentType: fh.Header.Get(echo.HeaderContentType),
		Open:        func() (io.ReadCloser, error) { return fh.Open() },
	}
}

type renameRequest struct {
	OldKey string `json:"oldKey" form:"oldKey"`
	NewKey string `json:"newKey" form:"newKey"`
}

func (h *BucketsHandler) Rename(c echo.Context) error {
	var req renameRequest
	if err := c.Bind(&req); err != nil {
		return respond(c, "", bindError(err))
	}
	s, err := openStore(c, h.factory)
	if err != nil {
		return err
	}
	err = h.engine.RenameObject(c.Request().Context(), s, c.Param("bucket"), req.OldKey, req.NewKey)
	return respond(c, req.NewKey, err)
}

type deleteRequest struct {
	Keys []string `json:"keys" form:"key"`
}

// Delete removes one key or, when several are given, all of them in batches.
func (h *BucketsHandler) Delete(c echo.Context) error {
	var req deleteRequest
	if err := c.Bind(&req); err != nil {
		return respond(c, "", bindError(err))
	}
	s, err := openStore(c, h.factory)
	if err != nil {
		return err
	}

	ctx := c.Request().Context()
	bucket := c.Param("bucket")
	switch len(req.Keys) {
	case 0:
		return respond(c, "", &explorer.ValidationError{Field: "key", Message: "at least one key is required"})
	case 1:
		return respond(c, req.Keys[0], h.engine.DeleteObject(ctx, s, bucket, req.Keys[0]))
	default:
		return respond(c, "", h.engine.DeleteObjects(ctx, s, bucket, req.Keys))
	}
}

type keyRequest struct {
	Key string `json:"key" form:"key"`
}

func (h *BucketsHandler) MakePublic(c echo.Context) error {
	var req keyRequest
	if err := c.Bind(&req); err != nil {
		return respond(c, "", bindError(err))
	}
	s, err := openStore(c, h.factory)
	if err != nil {
		return err
	}
	return respond(c, req.Key, h.engine.MakePublic(c.Request().Context(), s, c.Param("bucket"), req.Key))
}

// DownloadURL presigns a GET for key. An optional ttl query value such as
// "15m" shortens or extends the default lifetime.
func (h *BucketsHandler) DownloadURL(c echo.Context) error {
	var ttl time.Duration
	if raw := c.QueryParam("ttl"); raw != "" {
		d, err := time.ParseDuration(raw)
		if err != nil || d <= 0 {
			return echo.NewHTTPError(http.StatusBadRequest, "ttl must be a positive duration")
		}
		ttl = d
	}
	s, err := openStore(c, h.factory)
	if err != nil {
		return err
	}
	url, err := h.engine.DownloadURL(c.Request().Context(), s, c.Param("bucket"), c.QueryParam("key"), ttl)
	if err != nil {
		return readError(err)
	}
	return c.JSON(http.StatusOK, map[string]string{"url": url})
}

// Content returns the head of a text object for preview.
func (h *BucketsHandler) Content(c echo.Context) error {
	s, err := openStore(c, h.factory)
	if err != nil {
		return err
	}
	content, err := h.engine.FileContent(c.Request().Context(), s, c.Param("bucket"), c.QueryParam("key"))
	if err != nil {
		return readError(err)
	}
	return c.JSON(http.StatusOK, content)
}
