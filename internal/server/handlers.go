package server

import (
	"encoding/json"
	"io"
	"mime"
	"net/http"

	"github.com/getmemscope/memscope/pkg/buildinfo"
	"github.com/getmemscope/memscope/pkg/errors"
	"github.com/getmemscope/memscope/pkg/pipeline"
)

func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status":  "ok",
		"version": buildinfo.Version,
	})
}

// handleReports renders a report from uploaded recordings.
//
// The request is multipart/form-data with one file part per recording; the
// part's field name becomes the dataset label. Query parameters:
//
//	title   report title (optional)
//	format  "html" (default) or "json"
//	refresh "1" to bypass the cache
func (s *Server) handleReports(w http.ResponseWriter, r *http.Request) {
	mediaType, _, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if err != nil || mediaType != "multipart/form-data" {
		writeError(w, http.StatusUnsupportedMediaType,
			errors.New(errors.ErrCodeInvalidInput, "expected multipart/form-data"))
		return
	}

	format := r.URL.Query().Get("format")
	if format == "" {
		format = pipeline.FormatHTML
	}
	if err := pipeline.ValidateFormats([]string{format}); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	inputs, err := readUploads(r, s.cfg.MaxUploadBytes)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	opts := pipeline.Options{
		Inputs:  inputs,
		Title:   r.URL.Query().Get("title"),
		Formats: []string{format},
		Refresh: r.URL.Query().Get("refresh") == "1",
		Logger:  s.logger,
	}

	result, err := s.runner.Execute(r.Context(), opts)
	if err != nil {
		status := http.StatusBadRequest
		if errors.Is(err, errors.ErrCodeInternal) {
			status = http.StatusInternalServerError
		}
		writeError(w, status, err)
		return
	}

	w.Header().Set("ETag", `"`+result.ContentHash+`"`)
	switch format {
	case pipeline.FormatJSON:
		w.Header().Set("Content-Type", "application/json")
	default:
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
	}
	w.WriteHeader(http.StatusOK)
	w.Write(result.Artifacts[format])
}

// readUploads decodes the multipart body part by part so that chart order
// follows upload order.
func readUploads(r *http.Request, limit int64) ([]pipeline.Input, error) {
	mr, err := r.MultipartReader()
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidInput, err, "read multipart body")
	}

	var inputs []pipeline.Input
	remaining := limit
	for {
		part, err := mr.NextPart()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, errors.Wrap(errors.ErrCodeInvalidInput, err, "read multipart body")
		}

		label := part.FormName()
		if label == "" {
			part.Close()
			return nil, errors.New(errors.ErrCodeInvalidInput, "upload part without a field name")
		}

		data, err := io.ReadAll(io.LimitReader(part, remaining+1))
		part.Close()
		if err != nil {
			return nil, errors.Wrap(errors.ErrCodeInvalidInput, err, "read upload %q", label)
		}
		if int64(len(data)) > remaining {
			return nil, errors.New(errors.ErrCodeInvalidInput, "upload exceeds %d bytes", limit)
		}
		remaining -= int64(len(data))

		inputs = append(inputs, pipeline.Input{Label: label, Data: data})
	}

	if len(inputs) == 0 {
		return nil, errors.New(errors.ErrCodeInvalidInput, "no recordings uploaded")
	}
	return inputs, nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, map[string]string{
		"error": errors.UserMessage(err),
		"code":  string(errors.GetCode(err)),
	})
}
