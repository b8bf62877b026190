package web

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/JonMunkholm/regmap/internal/export"
	"github.com/JonMunkholm/regmap/internal/service"
	"github.com/JonMunkholm/regmap/internal/source"
)

// multipartOverhead is allowed on top of MaxFileSize for form boundaries
// and fields.
const multipartOverhead = 1 << 20

// handleHealth reports liveness and conversion slot usage.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":      "ok",
		"history":     s.service.HistoryEnabled(),
		"conversions": s.service.SlotStatus(),
	})
}

// handleListBackends returns every registered backend.
func (s *Server) handleListBackends(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.service.Backends())
}

// handleConvert converts an uploaded document. The file is sent as the
// "file" field of a multipart form; ?format= selects xlsx (default), csv
// or json.
func (s *Server) handleConvert(w http.ResponseWriter, r *http.Request) {
	format, err := export.ParseFormat(r.URL.Query().Get("format"))
	if err != nil {
		respondError(w, r, err)
		return
	}

	maxSize := s.cfg.Convert.MaxFileSize
	r.Body = http.MaxBytesReader(w, r.Body, maxSize+multipartOverhead)
	if err := r.ParseMultipartForm(maxSize); err != nil {
		var maxBytes *http.MaxBytesError
		if errors.As(err, &maxBytes) {
			respondError(w, r, fmt.Errorf("%w: %v", service.ErrFileTooLarge, err))
			return
		}
		respondError(w, r, fmt.Errorf("%w: %v", service.ErrNoFile, err))
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		respondError(w, r, service.ErrNoFile)
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		respondError(w, r, err)
		return
	}

	conv, err := s.service.Convert(r.Context(), service.ConvertRequest{
		Backend:  chi.URLParam(r, "backend"),
		FileName: header.Filename,
		Data:     data,
	})
	if err != nil {
		respondError(w, r, err)
		return
	}
	s.writeConversion(w, r, conv, format)
}

// handleConvertTables converts tables already extracted from an HTML or PDF
// document. The body uses the same JSON layout as .json uploads.
func (s *Server) handleConvertTables(w http.ResponseWriter, r *http.Request) {
	format, err := export.ParseFormat(r.URL.Query().Get("format"))
	if err != nil {
		respondError(w, r, err)
		return
	}

	name := r.URL.Query().Get("name")
	if name == "" {
		name = "tables.json"
	}

	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.Convert.MaxFileSize)
	tables, err := source.ReadTables(r.Body, name)
	if err != nil {
		var maxBytes *http.MaxBytesError
		if errors.As(err, &maxBytes) {
			err = fmt.Errorf("%w: %v", service.ErrFileTooLarge, err)
		}
		respondError(w, r, err)
		return
	}

	conv, err := s.service.ConvertTables(r.Context(), chi.URLParam(r, "backend"), name, tables)
	if err != nil {
		respondError(w, r, err)
		return
	}
	s.writeConversion(w, r, conv, format)
}

// handleListConversions pages through the conversion history.
func (s *Server) handleListConversions(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	list, err := s.service.History(r.Context(), service.ListParams{
		Backend: q.Get("backend"),
		Limit:   queryInt(r, "limit", service.DefaultHistoryLimit),
		Offset:  queryInt(r, "offset", 0),
	})
	if err != nil {
		respondError(w, r, err)
		return
	}
	if list == nil {
		list = []service.Summary{}
	}
	writeJSON(w, http.StatusOK, list)
}

// handleGetConversion returns a stored conversion with records and reports.
func (s *Server) handleGetConversion(w http.ResponseWriter, r *http.Request) {
	conv, ok := s.loadConversion(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, conv)
}

// handleDownloadConversion re-serves a stored conversion. ?format= works as
// for handleConvert.
func (s *Server) handleDownloadConversion(w http.ResponseWriter, r *http.Request) {
	format, err := export.ParseFormat(r.URL.Query().Get("format"))
	if err != nil {
		respondError(w, r, err)
		return
	}
	conv, ok := s.loadConversion(w, r)
	if !ok {
		return
	}
	s.writeFile(w, r, conv, format)
}

func (s *Server) loadConversion(w http.ResponseWriter, r *http.Request) (*service.Conversion, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respondError(w, r, fmt.Errorf("%w: %v", errInvalidID, err))
		return nil, false
	}
	conv, err := s.service.Get(r.Context(), id)
	if err != nil {
		respondError(w, r, err)
		return nil, false
	}
	return conv, true
}

// writeConversion answers a convert request: JSON returns the whole
// conversion, the other formats return a file download.
func (s *Server) writeConversion(w http.ResponseWriter, r *http.Request, conv *service.Conversion, format export.Format) {
	w.Header().Set("X-Conversion-ID", conv.ID.String())
	w.Header().Set("X-Record-Count", strconv.Itoa(len(conv.Records)))
	if format == export.FormatJSON {
		writeJSON(w, http.StatusOK, conv)
		return
	}
	s.writeFile(w, r, conv, format)
}

func (s *Server) writeFile(w http.ResponseWriter, r *http.Request, conv *service.Conversion, format export.Format) {
	var body []byte
	if format == export.FormatXLSX && len(conv.Workbook) > 0 {
		body = conv.Workbook
	} else {
		var buf bytes.Buffer
		if err := export.Write(&buf, format, conv.Records); err != nil {
			respondError(w, r, err)
			return
		}
		body = buf.Bytes()
	}

	filename := export.FileName(conv.FileName, format)
	w.Header().Set("Content-Type", format.ContentType())
	w.Header().Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": filename}))
	w.Header().Set("Content-Length", strconv.Itoa(len(body)))
	w.WriteHeader(http.StatusOK)
	w.Write(body)
}

// queryInt parses a non-negative integer query parameter with a default.
func queryInt(r *http.Request, name string, defaultVal int) int {
	val := r.URL.Query().Get(name)
	if val == "" {
		return defaultVal
	}
	i, err := strconv.Atoi(val)
	if err != nil || i < 0 {
		return defaultVal
	}
	return i
}
