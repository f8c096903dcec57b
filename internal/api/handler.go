// Package api exposes the parse/reconcile pipeline over HTTP for the browsing
// frontend: upload a transcript export, get back the full per-student report;
// upload annotations, get back the annotated copy of the original file.
package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"os"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/insightdelivered/transcript-analyzer/internal/extractor"
	"github.com/insightdelivered/transcript-analyzer/internal/insights"
	"github.com/insightdelivered/transcript-analyzer/internal/models"
	"github.com/insightdelivered/transcript-analyzer/internal/parser"
	"github.com/insightdelivered/transcript-analyzer/internal/requirements"
	"github.com/insightdelivered/transcript-analyzer/internal/writer"
)

const version = "1.1.0"

// StudentReport bundles one student's parsed record with the derived
// analytics and the requirement reconciliation.
type StudentReport struct {
	Student  models.Student   `json:"student"`
	Insights insights.Insight `json:"insights"`

	// ProgrammeCode is the resolved requirements mapping; when resolution is
	// ambiguous it is empty and ProgrammeCandidates lists the choices.
	ProgrammeCode       string               `json:"programmeCode,omitempty"`
	ProgrammeCandidates []string             `json:"programmeCandidates,omitempty"`
	Requirements        *requirements.Report `json:"requirements,omitempty"`
}

// ParseResponse is the JSON response from POST /api/parse.
type ParseResponse struct {
	Success     bool               `json:"success"`
	Error       string             `json:"error,omitempty"`
	RunID       string             `json:"runId,omitempty"`
	ContentHash string             `json:"contentHash,omitempty"`
	Count       int                `json:"count"`
	Reports     []StudentReport    `json:"reports"`
	DebugLines  []models.DebugLine `json:"debugLines,omitempty"`
}

// Handler holds the HTTP handlers for the API.
type Handler struct {
	RequirementsPath string
	StaticDir        string
	Log              *zap.Logger
}

// RegisterRoutes sets up the HTTP routes.
func (h *Handler) RegisterRoutes(app *fiber.App) {
	app.Post("/api/parse", h.handleParse)
	app.Post("/api/annotate", h.handleAnnotate)
	app.Get("/api/health", h.handleHealth)

	if h.StaticDir != "" {
		app.Static("/", h.StaticDir)
	}
}

func (h *Handler) handleHealth(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"status": "ok", "version": version})
}

func (h *Handler) handleParse(c *fiber.Ctx) error {
	text, err := h.uploadText(c)
	if err != nil {
		return writeError(c, fiber.StatusBadRequest, err.Error())
	}

	res := parser.ParseCached(text)

	ix := requirements.LoadFileCached(h.RequirementsPath)
	policy := requirements.SortMostRecent
	if c.FormValue("sort") == "grade" {
		policy = requirements.SortHighestGrade
	}
	forced := c.FormValue("programme")

	reports := make([]StudentReport, 0, len(res.Students))
	for _, st := range res.Students {
		rep := StudentReport{
			Student:  st,
			Insights: insights.Compute(st),
		}
		code, candidates := ix.Resolve(st)
		if forced != "" {
			code, candidates = forced, nil
		}
		rep.ProgrammeCode = code
		rep.ProgrammeCandidates = candidates
		if code != "" {
			rep.Requirements = ix.Match(st, code, policy)
		}
		reports = append(reports, rep)
	}

	resp := ParseResponse{
		Success:     true,
		RunID:       uuid.NewString(),
		ContentHash: parser.ContentHash(text),
		Count:       len(reports),
		Reports:     reports,
	}
	if c.FormValue("debug") == "true" {
		resp.DebugLines = res.DebugLines
	}

	h.Log.Info("parsed transcript",
		zap.String("runId", resp.RunID),
		zap.Int("students", resp.Count),
		zap.String("contentHash", resp.ContentHash[:12]))

	return c.JSON(resp)
}

func (h *Handler) handleAnnotate(c *fiber.Ctx) error {
	fh, err := c.FormFile("file")
	if err != nil {
		return writeError(c, fiber.StatusBadRequest, "No file uploaded. Use form field 'file'.")
	}
	text, err := readUpload(fh)
	if err != nil {
		return writeError(c, fiber.StatusBadRequest, err.Error())
	}

	annotations := map[string]models.Annotation{}
	if raw := c.FormValue("annotations"); raw != "" {
		if err := json.Unmarshal([]byte(raw), &annotations); err != nil {
			return writeError(c, fiber.StatusBadRequest, fmt.Sprintf("Bad annotations JSON: %v", err))
		}
	}

	var buf bytes.Buffer
	a := &writer.Annotator{Annotations: annotations}
	if err := a.Write(&buf, text); err != nil {
		return writeError(c, fiber.StatusInternalServerError, fmt.Sprintf("Annotation failed: %v", err))
	}

	name := writer.AnnotatedFilename(fh.Filename)
	h.Log.Info("annotated transcript",
		zap.String("file", name),
		zap.Int("annotations", len(annotations)))

	c.Set(fiber.HeaderContentType, "text/csv")
	c.Set(fiber.HeaderContentDisposition, fmt.Sprintf("attachment; filename=%q", name))
	return c.Send(buf.Bytes())
}

// uploadText returns the transcript text from the request: either the raw
// 'text' form value or an uploaded file. PDF uploads go through the
// extractor; anything else is decoded as CSV text.
func (h *Handler) uploadText(c *fiber.Ctx) (string, error) {
	if text := c.FormValue("text"); text != "" {
		return text, nil
	}

	fh, err := c.FormFile("file")
	if err != nil {
		return "", fmt.Errorf("no transcript supplied; use form field 'file' or 'text'")
	}

	if strings.HasSuffix(strings.ToLower(fh.Filename), ".pdf") {
		return h.uploadPDFText(fh)
	}
	return readUpload(fh)
}

// uploadPDFText spools a PDF upload to a temp file for the extractor.
func (h *Handler) uploadPDFText(fh *multipart.FileHeader) (string, error) {
	src, err := fh.Open()
	if err != nil {
		return "", fmt.Errorf("failed to open upload: %w", err)
	}
	defer src.Close()

	tmp, err := os.CreateTemp("", "transcript-*.pdf")
	if err != nil {
		return "", fmt.Errorf("failed to create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())
	defer tmp.Close()

	if _, err := io.Copy(tmp, src); err != nil {
		return "", fmt.Errorf("failed to save upload: %w", err)
	}
	tmp.Close()

	pages, err := extractor.ExtractPDFText(tmp.Name())
	if err != nil {
		return "", err
	}
	return strings.Join(pages, "\n"), nil
}

func readUpload(fh *multipart.FileHeader) (string, error) {
	src, err := fh.Open()
	if err != nil {
		return "", fmt.Errorf("failed to open upload: %w", err)
	}
	defer src.Close()

	data, err := io.ReadAll(src)
	if err != nil {
		return "", fmt.Errorf("failed to read upload: %w", err)
	}
	return extractor.DecodeText(data), nil
}

func writeError(c *fiber.Ctx, status int, msg string) error {
	return c.Status(status).JSON(ParseResponse{
		Success: false,
		Error:   msg,
	})
}
