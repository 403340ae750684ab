package server

import (
	"errors"
	"io"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/jonathan/cover-letter/internal/resume"
	"github.com/jonathan/cover-letter/internal/types"
)

// ResumeTextResponse is the response of POST /api/resume/extract.
type ResumeTextResponse struct {
	Success   bool   `json:"success"`
	Text      string `json:"text,omitempty"`
	PageCount int    `json:"pageCount,omitempty"`
	Truncated bool   `json:"truncated,omitempty"`
	Error     string `json:"error,omitempty"`
}

// handleExtractResume returns the plain text of an uploaded resume so the
// client can fill in the resume field.
func (s *Server) handleExtractResume(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, resume.MaxUploadSize)
	if err := r.ParseMultipartForm(resume.MaxUploadSize); err != nil {
		s.jsonResponse(w, http.StatusBadRequest, ResumeTextResponse{Error: "Upload a resume file up to 5 MB"})
		return
	}
	defer func() { _ = r.MultipartForm.RemoveAll() }()

	file, header, err := r.FormFile("resume")
	if err != nil {
		s.jsonResponse(w, http.StatusBadRequest, ResumeTextResponse{Error: "Resume file is required"})
		return
	}
	defer func() { _ = file.Close() }()

	var doc *resume.Document
	switch strings.ToLower(filepath.Ext(header.Filename)) {
	case ".pdf":
		doc, err = resume.ExtractText(file, header.Size)
	case ".txt", ".md":
		var data []byte
		data, err = io.ReadAll(file)
		if err == nil {
			doc = &resume.Document{Text: resume.CleanText(string(data)), PageCount: 1}
			if doc.Text == "" {
				err = resume.ErrNoText
			}
		}
	default:
		err = resume.ErrUnsupported
	}

	if err != nil {
		msg := "Could not read text from the resume"
		if errors.Is(err, resume.ErrUnsupported) {
			msg = "Resume must be a PDF or text file"
		}
		s.sink.LogError(err, "resume extract "+header.Filename)
		s.jsonResponse(w, http.StatusBadRequest, ResumeTextResponse{Error: msg})
		return
	}

	text, truncated := truncateRunes(doc.Text, types.MaxFieldLength)
	s.jsonResponse(w, http.StatusOK, ResumeTextResponse{
		Success:   true,
		Text:      text,
		PageCount: doc.PageCount,
		Truncated: truncated,
	})
}

func truncateRunes(s string, max int) (string, bool) {
	runes := []rune(s)
	if len(runes) <= max {
		return s, false
	}
	return string(runes[:max]), true
}
