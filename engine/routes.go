package engine

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/drummonds/pdfpages/config"
	"github.com/drummonds/pdfpages/database"
	_ "github.com/drummonds/pdfpages/docs" // registers the API description
	"github.com/drummonds/pdfpages/engine/imageformat"
	"github.com/drummonds/pdfpages/internal/build"
	"github.com/labstack/echo/v4"
	"github.com/oklog/ulid/v2"
	"github.com/swaggo/swag"
)

// SessionCookieName identifies the browser session holding a result
const SessionCookieName = "pdfpages_session"

const sessionContextKey = "pdfpages.session"

// multipartOverhead is room for the non-file form fields of an upload
const multipartOverhead = 1 << 20

// ServerHandler will inject the variables needed into routes
type ServerHandler struct {
	DB           database.Repository
	Echo         *echo.Echo
	ServerConfig config.ServerConfig
	Converter    *Converter
	Sessions     *SessionStore
	Archiver     Archiver // nil packs zips with ServerConfig.ArchiveCompression
}

// PageSummary describes one converted page without its bytes
type PageSummary struct {
	Index       int    `json:"index"`
	Name        string `json:"name"`
	Format      string `json:"format"`
	ContentType string `json:"contentType"`
	Width       int    `json:"width"`
	Height      int    `json:"height"`
	Bytes       int    `json:"bytes"`
	URL         string `json:"url"`
	PreviewURL  string `json:"previewURL"`
}

// ResultSummary describes the held conversion result
type ResultSummary struct {
	ID         string        `json:"id"`
	Format     string        `json:"format"`
	Label      string        `json:"label"`
	SourceName string        `json:"sourceName"`
	Renderer   string        `json:"renderer"`
	PageCount  int           `json:"pageCount"`
	TotalBytes int64         `json:"totalBytes"`
	CreatedAt  time.Time     `json:"createdAt"`
	ExportURL  string        `json:"exportURL"`
	JobID      string        `json:"jobId,omitempty"`
	Pages      []PageSummary `json:"pages"`
}

// FormatInfo is one row of the supported format table
type FormatInfo struct {
	Label      string `json:"label"`
	Identifier string `json:"identifier"`
	Extension  string `json:"extension"`
	MIMEType   string `json:"mimeType"`
	Default    bool   `json:"default"`
	Available  bool   `json:"available"`
}

// ErrorResponse is returned by every failed API call
type ErrorResponse struct {
	Error   string `json:"error"`
	Stage   string `json:"stage,omitempty"`
	Reason  string `json:"reason,omitempty"`
	Page    int    `json:"page,omitempty"`
	Message string `json:"message"`
}

// RegisterRoutes adds the JSON API to the echo instance. Everything lives
// under /api and runs inside a browser session.
func (serverHandler *ServerHandler) RegisterRoutes() {
	api := serverHandler.Echo.Group("/api", serverHandler.sessionMiddleware)

	// Conversion and export
	api.POST("/convert", serverHandler.Convert)
	api.GET("/result", serverHandler.GetResult)
	api.DELETE("/result", serverHandler.ClearResult)
	api.GET("/pages/:index", serverHandler.GetPage)
	api.GET("/export", serverHandler.ExportArchive)
	api.GET("/formats", serverHandler.GetFormats)

	// Job tracking
	api.GET("/jobs", serverHandler.GetRecentJobs)
	api.GET("/jobs/active", serverHandler.GetActiveJobs)
	api.GET("/jobs/:id", serverHandler.GetJob)

	// Admin
	api.GET("/health", serverHandler.Health)
	api.GET("/swagger.json", serverHandler.SwaggerDoc)
}

// sessionMiddleware attaches the caller's session, issuing a cookie on first use
func (serverHandler *ServerHandler) sessionMiddleware(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		var session *Session
		if cookie, err := c.Cookie(SessionCookieName); err == nil {
			if id, err := ulid.Parse(cookie.Value); err == nil {
				session = serverHandler.Sessions.GetOrCreate(id)
			}
		}
		if session == nil {
			session = serverHandler.Sessions.Create()
			c.SetCookie(&http.Cookie{
				Name:     SessionCookieName,
				Value:    session.ID.String(),
				Path:     "/",
				HttpOnly: true,
				SameSite: http.SameSiteStrictMode,
			})
		}
		c.Set(sessionContextKey, session)
		return next(c)
	}
}

func sessionFrom(c echo.Context) *Session {
	session, _ := c.Get(sessionContextKey).(*Session)
	return session
}

// Convert renders an uploaded PDF into one image per page
// @Summary Convert a PDF to images
// @Description Renders every page of the uploaded PDF at 1.5x scale and holds the images in the session, replacing any previous result. A conversion already running in the same session is cancelled.
// @Tags Conversion
// @Accept multipart/form-data
// @Produce json
// @Param file formData file true "PDF document"
// @Param format formData string false "Output format: jpeg, png or webp"
// @Success 200 {object} ResultSummary "Converted pages"
// @Failure 400 {object} ErrorResponse "Missing file or unsupported format"
// @Failure 409 {object} ErrorResponse "Cancelled by a newer upload or a clear"
// @Failure 413 {object} ErrorResponse "File too large"
// @Failure 422 {object} ErrorResponse "Unreadable file"
// @Failure 500 {object} ErrorResponse "Render failure"
// @Router /convert [post]
func (serverHandler *ServerHandler) Convert(c echo.Context) error {
	session := sessionFrom(c)
	limit := serverHandler.ServerConfig.MaxUploadBytes()

	req := c.Request()
	req.Body = http.MaxBytesReader(c.Response(), req.Body, limit+multipartOverhead)
	// keep the whole upload in memory; nothing is spooled to disk
	if err := req.ParseMultipartForm(limit + multipartOverhead); err != nil {
		return uploadErrorResponse(c, err, limit)
	}

	formatValue := c.FormValue("format")
	if formatValue == "" {
		formatValue = serverHandler.ServerConfig.DefaultFormat
	}
	format, err := imageformat.Parse(formatValue)
	if err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "Unsupported format",
			Stage:   "reading the request",
			Message: err.Error(),
		})
	}

	fileHeader, err := c.FormFile("file")
	if err != nil {
		return uploadErrorResponse(c, err, limit)
	}
	if fileHeader.Size > limit {
		return tooLargeResponse(c, limit)
	}
	src, err := fileHeader.Open()
	if err != nil {
		return uploadErrorResponse(c, err, limit)
	}
	data, err := io.ReadAll(src)
	src.Close()
	if err != nil {
		return uploadErrorResponse(c, err, limit)
	}

	job := serverHandler.startJob(session, database.JobTypeConversion, fmt.Sprintf("Converting %s to %s", fileHeader.Filename, format.Label()))
	job.running("Opening document")
	Logger.Info("Converting document", "file", fileHeader.Filename, "bytes", len(data), "format", format, "session", session.ID, "jobID", job.ID())

	result, err := session.Convert(req.Context(), serverHandler.Converter, data, format, fileHeader.Filename, func(done, total int) {
		job.step(done, total, fmt.Sprintf("Rendering page %d of %d", done, total))
	})
	if err != nil {
		job.fail(err)
		Logger.Warn("Conversion failed", "file", fileHeader.Filename, "error", err, "jobID", job.ID())
		return conversionErrorResponse(c, err)
	}

	job.complete(fmt.Sprintf("Converted %d pages to %s", result.Len(), result.Format.Label()), database.JobSummary{
		Pages:      result.Len(),
		Format:     string(result.Format),
		SourceName: result.SourceName,
		Bytes:      result.TotalBytes(),
		Renderer:   result.Renderer,
	})
	Logger.Info("Conversion complete", "file", fileHeader.Filename, "pages", result.Len(), "format", format, "jobID", job.ID())

	summary := summarize(result)
	summary.JobID = job.ID()
	return c.JSON(http.StatusOK, summary)
}

// GetResult returns the held conversion result
// @Summary Get the current result
// @Description Returns the pages held by this session, or 204 when nothing has been converted
// @Tags Conversion
// @Produce json
// @Success 200 {object} ResultSummary "Converted pages"
// @Success 204 "No result"
// @Router /result [get]
func (serverHandler *ServerHandler) GetResult(c echo.Context) error {
	result := sessionFrom(c).Result()
	if result == nil {
		return c.NoContent(http.StatusNoContent)
	}
	return c.JSON(http.StatusOK, summarize(result))
}

// ClearResult discards the held result
// @Summary Discard the current result
// @Description Drops the session's pages from memory and cancels any conversion in flight
// @Tags Conversion
// @Success 204 "Cleared"
// @Router /result [delete]
func (serverHandler *ServerHandler) ClearResult(c echo.Context) error {
	sessionFrom(c).Clear()
	return c.NoContent(http.StatusNoContent)
}

// GetPage downloads one converted page
// @Summary Download a page image
// @Description Returns page {index} (1-based) as page-{index}.{ext}. Pass inline=true to display it instead of downloading.
// @Tags Export
// @Produce image/jpeg,image/png,image/webp
// @Param index path int true "1-based page number"
// @Param inline query bool false "Serve inline for preview"
// @Success 200 {file} binary "Page image"
// @Failure 404 {object} ErrorResponse "No such page"
// @Router /pages/{index} [get]
func (serverHandler *ServerHandler) GetPage(c echo.Context) error {
	index, err := strconv.Atoi(c.Param("index"))
	if err != nil {
		return c.JSON(http.StatusNotFound, ErrorResponse{Error: "Not Found", Message: "Page index must be a number"})
	}
	page, ok := sessionFrom(c).Result().Page(index)
	if !ok {
		return c.JSON(http.StatusNotFound, ErrorResponse{
			Error:   "Not Found",
			Message: fmt.Sprintf("There is no converted page %d", index),
		})
	}

	file := ExportOne(page)
	disposition := "attachment"
	if inline, _ := strconv.ParseBool(c.QueryParam("inline")); inline {
		disposition = "inline"
	}
	return sendFile(c, file, disposition)
}

// ExportArchive downloads every page as pdf-pages.zip
// @Summary Download all pages as a zip
// @Description Packs every converted page into pdf-pages.zip with entries page-1.ext to page-N.ext. Returns 204 when there is nothing to export.
// @Tags Export
// @Produce application/zip
// @Success 200 {file} binary "Zip archive"
// @Success 204 "Nothing to export"
// @Failure 500 {object} ErrorResponse "Archive assembly failed"
// @Router /export [get]
func (serverHandler *ServerHandler) ExportArchive(c echo.Context) error {
	session := sessionFrom(c)
	result := session.Result()
	if result.Len() == 0 {
		return c.NoContent(http.StatusNoContent)
	}

	job := serverHandler.startJob(session, database.JobTypeExport, fmt.Sprintf("Packing %d pages into %s", result.Len(), ArchiveName))
	job.running("Building archive")
	archive, err := ExportAll(result, serverHandler.archiver())
	if err != nil {
		job.fail(err)
		Logger.Error("Export failed", "pages", result.Len(), "error", err, "jobID", job.ID())
		var exportErr *ExportError
		if errors.As(err, &exportErr) {
			return c.JSON(http.StatusInternalServerError, ErrorResponse{
				Error:   "Export failed",
				Stage:   exportErr.Stage(),
				Reason:  exportErr.Reason,
				Message: "The zip archive could not be built. Try downloading the pages one at a time.",
			})
		}
		return c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "Export failed", Message: err.Error()})
	}
	if archive == nil {
		job.complete("Nothing to export", database.JobSummary{})
		return c.NoContent(http.StatusNoContent)
	}

	job.complete(fmt.Sprintf("Packed %d pages into %s", result.Len(), ArchiveName), database.JobSummary{
		Pages:      result.Len(),
		Format:     string(result.Format),
		SourceName: result.SourceName,
		Bytes:      int64(len(archive.Data)),
	})
	return sendFile(c, *archive, "attachment")
}

// GetFormats lists the output formats
// @Summary List output formats
// @Description Returns the label, identifier and extension of every supported image format
// @Tags Conversion
// @Produce json
// @Success 200 {array} FormatInfo "Supported formats"
// @Router /formats [get]
func (serverHandler *ServerHandler) GetFormats(c echo.Context) error {
	defaultFormat, err := imageformat.Parse(serverHandler.ServerConfig.DefaultFormat)
	if err != nil {
		defaultFormat = imageformat.Default
	}
	webp := imageformat.WebPSupported()

	formats := make([]FormatInfo, 0, len(imageformat.All()))
	for _, f := range imageformat.All() {
		formats = append(formats, FormatInfo{
			Label:      f.Label(),
			Identifier: string(f),
			Extension:  f.Extension(),
			MIMEType:   f.MIMEType(),
			Default:    f == defaultFormat,
			Available:  f != imageformat.WebP || webp,
		})
	}
	return c.JSON(http.StatusOK, formats)
}

// Health reports the state of the converter
// @Summary Health check
// @Description Reports the renderer, encoder support and live session count
// @Tags Admin
// @Produce json
// @Success 200 {object} map[string]interface{} "Health information"
// @Router /health [get]
func (serverHandler *ServerHandler) Health(c echo.Context) error {
	rendererName := ""
	if serverHandler.Converter != nil && serverHandler.Converter.Renderer != nil {
		rendererName = serverHandler.Converter.Renderer.Name()
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"status":      "ok",
		"version":     build.Version,
		"renderer":    rendererName,
		"renderScale": RenderScale,
		"webp":        imageformat.WebPSupported(),
		"sessions":    serverHandler.Sessions.Len(),
		"maxUploadMB": serverHandler.ServerConfig.MaxUploadMB,
	})
}

// SwaggerDoc serves the OpenAPI description of this API
func (serverHandler *ServerHandler) SwaggerDoc(c echo.Context) error {
	doc, err := swag.ReadDoc()
	if err != nil {
		Logger.Error("Failed to read API documentation", "error", err)
		return c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "Internal Server Error", Message: "API documentation unavailable"})
	}
	return c.Blob(http.StatusOK, echo.MIMEApplicationJSONCharsetUTF8, []byte(doc))
}

func (serverHandler *ServerHandler) archiver() Archiver {
	if serverHandler.Archiver != nil {
		return serverHandler.Archiver
	}
	return ZipArchiver{Compression: serverHandler.ServerConfig.ArchiveCompression}
}

func sendFile(c echo.Context, file DownloadFile, disposition string) error {
	header := c.Response().Header()
	header.Set(echo.HeaderContentDisposition, fmt.Sprintf("%s; filename=%q", disposition, file.Name))
	header.Set("Cache-Control", "no-store")
	return c.Blob(http.StatusOK, file.ContentType, file.Data)
}

func summarize(result *ConversionResult) ResultSummary {
	summary := ResultSummary{
		ID:         result.ID.String(),
		Format:     string(result.Format),
		Label:      result.Format.Label(),
		SourceName: result.SourceName,
		Renderer:   result.Renderer,
		PageCount:  result.Len(),
		TotalBytes: result.TotalBytes(),
		CreatedAt:  result.CreatedAt,
		ExportURL:  "/api/export",
		Pages:      make([]PageSummary, 0, result.Len()),
	}
	for _, page := range result.Pages() {
		url := fmt.Sprintf("/api/pages/%d", page.Index)
		summary.Pages = append(summary.Pages, PageSummary{
			Index:       page.Index,
			Name:        page.FileName(),
			Format:      string(page.Format),
			ContentType: page.Format.MIMEType(),
			Width:       page.Width,
			Height:      page.Height,
			Bytes:       page.Size(),
			URL:         url,
			// the result ID keeps browsers from showing a stale preview
			PreviewURL: url + "?inline=true&v=" + result.ID.String(),
		})
	}
	return summary
}

func conversionErrorResponse(c echo.Context, err error) error {
	var convErr *ConversionError
	if !errors.As(err, &convErr) {
		return c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "Conversion failed", Stage: "conversion", Message: err.Error()})
	}

	response := ErrorResponse{
		Error:  "Conversion failed",
		Stage:  convErr.Stage(),
		Reason: convErr.Reason,
		Page:   convErr.PageIndex,
	}
	status := http.StatusInternalServerError
	switch convErr.Reason {
	case ReasonUnreadableFile:
		status = http.StatusUnprocessableEntity
		response.Message = "The file could not be opened as a PDF document. Check that it is a valid, unencrypted PDF and try again."
	case ReasonRenderFailure:
		response.Message = fmt.Sprintf("Page %d could not be converted. No pages were kept from this attempt; your previous result is unchanged.", convErr.PageIndex)
	case ReasonCancelled:
		status = http.StatusConflict
		switch {
		case errors.Is(convErr, ErrSuperseded):
			response.Message = "This conversion was stopped because a newer file was uploaded."
		case errors.Is(convErr, ErrCleared):
			response.Message = "This conversion was stopped because the result was cleared."
		default:
			response.Message = "This conversion was cancelled before it finished."
		}
	default:
		response.Message = convErr.Error()
	}
	return c.JSON(status, response)
}

func uploadErrorResponse(c echo.Context, err error, limit int64) error {
	var maxErr *http.MaxBytesError
	if errors.As(err, &maxErr) {
		return tooLargeResponse(c, limit)
	}
	return c.JSON(http.StatusBadRequest, ErrorResponse{
		Error:   "No file uploaded",
		Stage:   "reading the upload",
		Message: "Choose a PDF file to convert.",
	})
}

func tooLargeResponse(c echo.Context, limit int64) error {
	return c.JSON(http.StatusRequestEntityTooLarge, ErrorResponse{
		Error:   "File too large",
		Stage:   "reading the upload",
		Message: fmt.Sprintf("The file is larger than the %d MB limit.", limit>>20),
	})
}
