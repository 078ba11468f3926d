package rest

import (
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/zynoxlab/zynox-cloud/internal/common"
)

const landingHTML = `<html>
    <head><title>Zynox Cloud Storage</title></head>
    <body style="font-family: Arial; background-color:#f4f4f4; text-align:center; padding:50px;">
        <h1 style="color:#2E86C1;">Zynox Cloud Storage</h1>
        <p>This is the prototype cloud-based memory system built only for <b>Zynox AGI</b>.</p>
        <h3>Features so far:</h3>
        <ul style="text-align:left; display:inline-block;">
            <li>Secure <b>memory storage</b> using AES encryption</li>
            <li>Database-backed memory versioning</li>
            <li>API endpoints (<code>/v1/save</code>, <code>/v1/list</code>, <code>/v1/download</code>, <code>/v1/delete</code>, <code>/v1/query</code>)</li>
            <li>Auto-tagging of emotions (happy/sad/angry) based on memory text</li>
            <li>PDF document sharing (<code>/v1/share</code>)</li>
            <li>Protected with API Key system</li>
        </ul>
    </body>
</html>`

type saveRequest struct {
	OwnerID string   `json:"owner_id"`
	Key     string   `json:"key"`
	Tags    []string `json:"tags"`
	Data    string   `json:"data"`
}

type queryRequest struct {
	Emotion string `json:"emotion"`
	Keyword string `json:"keyword"`
}

type listItem struct {
	ID        string   `json:"id"`
	Key       string   `json:"key"`
	Tags      []string `json:"tags"`
	CreatedAt string   `json:"created_at"`
	UpdatedAt string   `json:"updated_at"`
	Version   int      `json:"version"`
}

type queryItem struct {
	ID        string   `json:"id"`
	Key       string   `json:"key"`
	Tags      []string `json:"tags"`
	CreatedAt string   `json:"created_at"`
	Text      string   `json:"text"`
}

type shareItem struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Size      int64  `json:"size"`
	CreatedAt string `json:"created_at"`
}

func isoTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}

// writeError maps service errors to the original wire shapes: a fixed 404
// body for unknown ids, 401 for key failures, 400 for validation faults,
// 503 when the store is unreachable, 500 otherwise.
func (s *Server) writeError(c echo.Context, err error) error {
	switch {
	case errors.Is(err, common.ErrorNotFound):
		return c.JSON(http.StatusNotFound, echo.Map{"detail": "Not found"})
	case errors.Is(err, common.ErrorUnauthorized):
		return c.JSON(http.StatusUnauthorized, echo.Map{"detail": "Invalid API key"})
	case errors.Is(err, common.ErrorValidation):
		return c.JSON(http.StatusBadRequest, echo.Map{"detail": err.Error()})
	case errors.Is(err, common.ErrorStoreUnavailable):
		s.logger.Error(c.Request().Context(), "store unavailable", "error", err)
		return c.JSON(http.StatusServiceUnavailable, echo.Map{"detail": "Store unavailable"})
	default:
		s.logger.Error(c.Request().Context(), "request failed", "error", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"detail": "Internal server error"})
	}
}

func (s *Server) handlePing(c echo.Context) error {
	return c.JSON(http.StatusOK, echo.Map{"status": "ok", "message": "Zynox Cloud is alive"})
}

func (s *Server) handleLanding(c echo.Context) error {
	return c.HTML(http.StatusOK, landingHTML)
}

func (s *Server) handleSave(c echo.Context) error {
	var req saveRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"detail": "Invalid request body"})
	}

	m, err := s.memories.Save(c.Request().Context(), req.OwnerID, req.Key, req.Tags, req.Data)
	if err != nil {
		return s.writeError(c, err)
	}

	return c.JSON(http.StatusOK, echo.Map{"status": "ok", "id": m.ID, "tags": m.Tags})
}

func (s *Server) handleList(c echo.Context) error {
	items, err := s.memories.List(c.Request().Context(), c.Param("owner_id"))
	if err != nil {
		return s.writeError(c, err)
	}

	out := make([]listItem, 0, len(items))
	for _, m := range items {
		out = append(out, listItem{
			ID:        m.ID,
			Key:       m.Key,
			Tags:      m.Tags,
			CreatedAt: isoTime(m.CreatedAt),
			UpdatedAt: isoTime(m.UpdatedAt),
			Version:   m.Version,
		})
	}

	return c.JSON(http.StatusOK, echo.Map{"status": "ok", "items": out})
}

func (s *Server) handleDownload(c echo.Context) error {
	text, err := s.memories.Download(c.Request().Context(), c.Param("id"))
	if err != nil {
		return s.writeError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"status": "ok", "data": text})
}

func (s *Server) handleDelete(c echo.Context) error {
	id, err := s.memories.Delete(c.Request().Context(), c.Param("id"))
	if err != nil {
		return s.writeError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"status": "ok", "deleted": id})
}

func (s *Server) handleQuery(c echo.Context) error {
	var req queryRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"detail": "Invalid request body"})
	}

	results, _, err := s.memories.Query(c.Request().Context(), c.Param("owner_id"), req.Emotion, req.Keyword)
	if err != nil {
		return s.writeError(c, err)
	}

	out := make([]queryItem, 0, len(results))
	for _, r := range results {
		out = append(out, queryItem{
			ID:        r.ID,
			Key:       r.Key,
			Tags:      r.Tags,
			CreatedAt: isoTime(r.CreatedAt),
			Text:      r.Text,
		})
	}

	return c.JSON(http.StatusOK, echo.Map{"status": "ok", "results": out})
}

func (s *Server) handleShareUpload(c echo.Context) error {
	ownerID := c.FormValue("owner_id")

	fh, err := c.FormFile("file")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"detail": "Missing file"})
	}

	f, err := fh.Open()
	if err != nil {
		return s.writeError(c, err)
	}
	defer f.Close()

	share, err := s.shares.Upload(c.Request().Context(), ownerID, fh.Filename, f, fh.Size)
	if err != nil {
		return s.writeError(c, err)
	}

	return c.JSON(http.StatusOK, echo.Map{
		"status": "ok",
		"id":     share.ID,
		"name":   share.FileName,
		"size":   share.SizeBytes,
	})
}

func (s *Server) handleShareDownload(c echo.Context) error {
	share, body, err := s.shares.Download(c.Request().Context(), c.Param("id"))
	if err != nil {
		return s.writeError(c, err)
	}
	defer body.Close()

	c.Response().Header().Set(echo.HeaderContentDisposition, `attachment; filename="`+share.FileName+`"`)
	return c.Stream(http.StatusOK, share.ContentType, body)
}

func (s *Server) handleShareLink(c echo.Context) error {
	url, err := s.shares.Link(c.Request().Context(), c.Param("id"))
	if err != nil {
		return s.writeError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"status": "ok", "url": url})
}

func (s *Server) handleShareList(c echo.Context) error {
	items, err := s.shares.List(c.Request().Context(), c.Param("owner_id"))
	if err != nil {
		return s.writeError(c, err)
	}

	out := make([]shareItem, 0, len(items))
	for _, sh := range items {
		out = append(out, shareItem{
			ID:        sh.ID,
			Name:      sh.FileName,
			Size:      sh.SizeBytes,
			CreatedAt: isoTime(sh.CreatedAt),
		})
	}

	return c.JSON(http.StatusOK, echo.Map{"status": "ok", "items": out})
}

func (s *Server) handleShareDelete(c echo.Context) error {
	id, err := s.shares.Delete(c.Request().Context(), c.Param("id"))
	if err != nil {
		return s.writeError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"status": "ok", "deleted": id})
}
