package api

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"strings"

	"github.com/okian/leadtime/internal/adapters/export"
	"github.com/okian/leadtime/internal/adapters/ingest"
	"github.com/okian/leadtime/internal/domain/model"
	"github.com/okian/leadtime/pkg/metrics"
)

const (
	multipartMemory = 8 << 20
	uploadField     = "file"
	defaultName     = "upload"

	contentTypeCSV  = "text/csv; charset=utf-8"
	contentTypeXLSX = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
)

// zipMagic prefixes every XLSX document.
var zipMagic = []byte("PK\x03\x04")

// AnalysesHandler handles submission and retrieval of analyses.
type AnalysesHandler struct {
	deps           Dependencies
	maxUploadBytes int64
	sheet          string
}

// NewAnalysesHandler creates a new analyses handler.
func NewAnalysesHandler(deps Dependencies, maxUploadBytes int64, sheet string) *AnalysesHandler {
	return &AnalysesHandler{deps: deps, maxUploadBytes: maxUploadBytes, sheet: sheet}
}

// HandleSubmit handles POST /analyses. The body is a raw CSV or XLSX file,
// or a multipart form carrying one in the "file" field.
func (h *AnalysesHandler) HandleSubmit(w http.ResponseWriter, r *http.Request) {
	const op = "api.post_analysis"
	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}
	r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadBytes)

	name, ds, err := h.readUpload(r)
	if err != nil {
		writeFailure(w, Wrap(op, err))
		return
	}
	sub, err := h.deps.SubmitDataset(r.Context(), name, ds)
	if err != nil {
		writeFailure(w, Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusAccepted, sub)
}

// HandleSample handles POST /analyses/sample.
func (h *AnalysesHandler) HandleSample(w http.ResponseWriter, r *http.Request) {
	const op = "api.post_sample"
	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}
	sub, err := h.deps.SubmitSample(r.Context())
	if err != nil {
		writeFailure(w, Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusAccepted, sub)
}

// HandleItem handles GET /analyses/{id} and its export subpaths.
func (h *AnalysesHandler) HandleItem(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	rest := strings.TrimPrefix(r.URL.Path, "/analyses/")
	id, sub, _ := strings.Cut(rest, "/")
	if id == "" {
		writeError(w, http.StatusBadRequest, "bad_request", ErrBadRequest)
		return
	}
	switch sub {
	case "":
		h.getAnalysis(w, r, id)
	case "export.csv":
		h.exportCSV(w, r, id)
	case "export.xlsx":
		h.exportXLSX(w, r, id)
	default:
		writeError(w, http.StatusNotFound, "not_found", ErrNotFound)
	}
}

func (h *AnalysesHandler) getAnalysis(w http.ResponseWriter, r *http.Request, id string) {
	const op = "api.get_analysis"
	a, err := h.deps.Get(r.Context(), id)
	if err != nil {
		writeFailure(w, Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusOK, a)
}

func (h *AnalysesHandler) exportCSV(w http.ResponseWriter, r *http.Request, id string) {
	const op = "api.export_csv"
	rep, err := h.deps.Report(r.Context(), id)
	if err != nil {
		writeFailure(w, Wrap(op, err))
		return
	}
	var buf bytes.Buffer
	if err := export.WriteCSV(&buf, rep.Answers); err != nil {
		writeFailure(w, Wrap(op, err))
		return
	}
	writeAttachment(w, contentTypeCSV, export.CSVFileName, buf.Bytes())
}

func (h *AnalysesHandler) exportXLSX(w http.ResponseWriter, r *http.Request, id string) {
	const op = "api.export_xlsx"
	rep, err := h.deps.Report(r.Context(), id)
	if err != nil {
		writeFailure(w, Wrap(op, err))
		return
	}
	var buf bytes.Buffer
	if err := export.WriteXLSX(&buf, rep); err != nil {
		writeFailure(w, Wrap(op, err))
		return
	}
	writeAttachment(w, contentTypeXLSX, export.XLSXFileName, buf.Bytes())
}

// readUpload extracts the dataset and its display name from r.
func (h *AnalysesHandler) readUpload(r *http.Request) (string, model.Dataset, error) {
	q := r.URL.Query()
	name := strings.TrimSpace(q.Get("name"))
	sheet := q.Get("sheet")
	if sheet == "" {
		sheet = h.sheet
	}

	data, filename, err := readBody(r)
	if err != nil {
		return "", model.Dataset{}, err
	}
	if filename == "" {
		filename = name
	}
	if name == "" {
		name = filename
	}
	if name == "" {
		name = defaultName
	}

	format, err := detectFormat(q.Get("format"), filename, data)
	if err != nil {
		return "", model.Dataset{}, err
	}
	ds, err := ingest.ReadFormat(format, bytes.NewReader(data), sheet)
	if err != nil {
		metrics.RecordIngestError(string(format))
		return "", model.Dataset{}, err
	}
	return name, ds, nil
}

// readBody returns the uploaded bytes and, for multipart forms, the
// client supplied file name.
func readBody(r *http.Request) ([]byte, string, error) {
	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mediaType != "multipart/form-data" {
		data, err := io.ReadAll(r.Body)
		if err != nil {
			return nil, "", bodyError(err)
		}
		return data, "", nil
	}

	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		return nil, "", bodyError(err)
	}
	defer func() { _ = r.MultipartForm.RemoveAll() }()

	file, header, err := r.FormFile(uploadField)
	if err != nil {
		return nil, "", WrapKind("multipart", ErrBadRequest, err)
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		return nil, "", bodyError(err)
	}
	return data, header.Filename, nil
}

func bodyError(err error) error {
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		return WrapKind("body", ErrTooLarge, err)
	}
	return WrapKind("body", ErrBadRequest, err)
}

// detectFormat prefers an explicit format, then the file extension, then
// the content itself.
func detectFormat(explicit, filename string, data []byte) (ingest.Format, error) {
	if explicit != "" {
		switch f := ingest.Format(strings.ToLower(explicit)); f {
		case ingest.FormatCSV, ingest.FormatXLSX:
			return f, nil
		default:
			return "", fmt.Errorf("%w: %q", ingest.ErrUnsupportedFormat, explicit)
		}
	}
	if filename != "" {
		if f, err := ingest.FormatOf(filename); err == nil {
			return f, nil
		}
	}
	if bytes.HasPrefix(data, zipMagic) {
		return ingest.FormatXLSX, nil
	}
	return ingest.FormatCSV, nil
}

func writeAttachment(w http.ResponseWriter, contentType, filename string, body []byte) {
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": filename}))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(body)
}
