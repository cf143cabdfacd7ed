package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/suyashkumar/dicom"

	"github.com/candelhealth/srbridge/internal/service/srbridge/adapters/dicomsr"
	"github.com/candelhealth/srbridge/internal/service/srbridge/app"
	"github.com/candelhealth/srbridge/internal/service/srbridge/app/commands"
	"github.com/candelhealth/srbridge/internal/service/srbridge/app/queries"
	"github.com/candelhealth/srbridge/internal/service/srbridge/canonical"
	"github.com/candelhealth/srbridge/internal/service/srbridge/sr"
)

const maxUploadBytes = 32 << 20

type Server struct {
	cmdBus   app.CommandBus
	queryBus app.QueryBus
	log      zerolog.Logger
}

func NewServer(cmdBus app.CommandBus, queryBus app.QueryBus, log zerolog.Logger) *Server {
	return &Server{
		cmdBus:   cmdBus,
		queryBus: queryBus,
		log:      log,
	}
}

// generateRequest is the JSON body: the canonical record plus the output
// selector.
type generateRequest struct {
	MessageType string `json:"message_type"`
	canonical.Record
}

// conversionInput is what either input path converges on before the engine
// runs.
type conversionInput struct {
	messageType string
	record      canonical.Record
	lines       []sr.Line
}

func (s *Server) GenerateMessage(w http.ResponseWriter, r *http.Request) {
	in, err := s.readInput(r)
	if err != nil {
		s.writeError(w, err)
		return
	}

	switch in.messageType {
	case "hl7":
		result, err := s.cmdBus.ConvertReport(r.Context(), commands.ConvertReportCommand{
			Record: in.record,
			Lines:  in.lines,
			Format: commands.FormatHL7,
		})
		if err != nil {
			s.writeError(w, err)
			return
		}
		s.writeJSON(w, http.StatusOK, map[string]string{"hl7": result.HL7})
	case "fhir":
		result, err := s.cmdBus.ConvertReport(r.Context(), commands.ConvertReportCommand{
			Record: in.record,
			Lines:  in.lines,
			Format: commands.FormatFHIR,
		})
		if err != nil {
			s.writeError(w, err)
			return
		}
		s.writeJSON(w, http.StatusOK, result.Bundle)
	case "json":
		result, err := s.queryBus.GetCanonical(r.Context(), queries.GetCanonicalQuery{Record: in.record})
		if err != nil {
			s.writeError(w, err)
			return
		}
		s.writeJSON(w, http.StatusOK, map[string]canonical.Record{"parsed": result.Record})
	default:
		s.writeError(w, badRequestf("unknown message_type %q, expected hl7, fhir or json", in.messageType))
	}
}

func (s *Server) GetHealthStatus(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// readInput converges both input paths on the same conversion input: a
// canonical record, optional walker lines, and the output selector.
func (s *Server) readInput(r *http.Request) (conversionInput, error) {
	contentType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if contentType == "multipart/form-data" {
		return s.readMultipart(r)
	}

	var req generateRequest
	if err := json.NewDecoder(io.LimitReader(r.Body, maxUploadBytes)).Decode(&req); err != nil {
		return conversionInput{}, badRequestf("invalid json body: %v", err)
	}
	return conversionInput{messageType: req.MessageType, record: req.Record}, nil
}

func (s *Server) readMultipart(r *http.Request) (conversionInput, error) {
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		return conversionInput{}, badRequestf("invalid multipart form: %v", err)
	}

	in := conversionInput{messageType: r.FormValue("message_type")}

	file, header, err := r.FormFile("file")
	if err != nil {
		return conversionInput{}, badRequestf("missing file upload: %v", err)
	}
	defer file.Close()

	switch strings.ToLower(filepath.Ext(header.Filename)) {
	case ".dcm":
		in.record, in.lines, err = s.readDICOM(file)
		if err != nil {
			return conversionInput{}, err
		}
	case ".json":
		var req generateRequest
		if err := json.NewDecoder(file).Decode(&req); err != nil {
			return conversionInput{}, badRequestf("invalid json file: %v", err)
		}
		in.record = req.Record
	default:
		return conversionInput{}, badRequestf("unsupported file type %q, expected .dcm or .json", filepath.Ext(header.Filename))
	}
	return in, nil
}

// readDICOM stages the upload to a temp file, decodes it, and removes the
// file before returning.
func (s *Server) readDICOM(file io.Reader) (canonical.Record, []sr.Line, error) {
	tmp, err := os.CreateTemp("", "srbridge-*.dcm")
	if err != nil {
		return canonical.Record{}, nil, err
	}
	defer os.Remove(tmp.Name())

	if _, err := io.Copy(tmp, file); err != nil {
		tmp.Close()
		return canonical.Record{}, nil, err
	}
	if err := tmp.Close(); err != nil {
		return canonical.Record{}, nil, err
	}

	ds, err := dicom.ParseFile(tmp.Name(), nil)
	if err != nil {
		return canonical.Record{}, nil, badRequestf("could not decode DICOM file: %v", err)
	}

	doc, err := dicomsr.Parse(ds)
	if err != nil {
		return canonical.Record{}, nil, badRequestf("could not read SR content: %v", err)
	}
	if err := doc.Validate(); err != nil {
		return canonical.Record{}, nil, badRequestf("not a usable SR document: %v", err)
	}

	return doc.Canonical(uuid.New), sr.Walk(doc.Content), nil
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		s.log.Error().Err(err).Msg("encode response")
	}
}

// writeError maps engine errors to HTTP statuses: malformed or incomplete
// input is 400, a record rejected mid-construction is 422, everything else
// is 500.
func (s *Server) writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError

	var badReq *badRequestError
	var invalidInput *canonical.InvalidInputError
	var missingField *canonical.MissingFieldError
	switch {
	case errors.As(err, &badReq), errors.As(err, &invalidInput):
		status = http.StatusBadRequest
	case errors.As(err, &missingField):
		status = http.StatusUnprocessableEntity
	}

	if status == http.StatusInternalServerError {
		s.log.Error().Err(err).Msg("conversion failed")
	} else {
		s.log.Warn().Err(err).Int("status", status).Msg("request rejected")
	}
	s.writeJSON(w, status, map[string]string{"error": err.Error()})
}

type badRequestError struct {
	msg string
}

func (e *badRequestError) Error() string { return e.msg }

func badRequestf(format string, args ...any) error {
	return &badRequestError{msg: fmt.Sprintf(format, args...)}
}
