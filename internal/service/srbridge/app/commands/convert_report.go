package commands

import (
	"context"
	"fmt"

	"github.com/candelhealth/srbridge/internal/service/srbridge/adapters/fhir"
	fhirmodel "github.com/candelhealth/srbridge/internal/service/srbridge/adapters/fhir/model"
	"github.com/candelhealth/srbridge/internal/service/srbridge/adapters/hl7"
	"github.com/candelhealth/srbridge/internal/service/srbridge/canonical"
	"github.com/candelhealth/srbridge/internal/service/srbridge/sr"
)

// Format selects the output representation of a conversion.
type Format string

const (
	FormatHL7  Format = "hl7"
	FormatFHIR Format = "fhir"
)

type ConvertReportCommand struct {
	Record canonical.Record
	// Lines is the walker output on the DICOM path. Empty on the
	// pre-flattened JSON path, where Record.Findings drives the report.
	Lines  []sr.Line
	Format Format
}

type ConvertReportResult struct {
	HL7    string
	Bundle *fhirmodel.Bundle
}

type ConvertReportHandler interface {
	Handle(ctx context.Context, cmd ConvertReportCommand) (ConvertReportResult, error)
}

func NewConvertReportHandler(hl7Composer *hl7.Composer, fhirComposer *fhir.Composer) ConvertReportHandler {
	return &convertReportCmdHandler{
		hl7Composer:  hl7Composer,
		fhirComposer: fhirComposer,
	}
}

type convertReportCmdHandler struct {
	hl7Composer  *hl7.Composer
	fhirComposer *fhir.Composer
}

// Handle validates the record shape before any composing starts, then
// dispatches to the requested composer. Composer errors pass through
// untouched so the transport can map them.
func (h *convertReportCmdHandler) Handle(ctx context.Context, cmd ConvertReportCommand) (ConvertReportResult, error) {
	if err := cmd.Record.Validate(); err != nil {
		return ConvertReportResult{}, err
	}

	switch cmd.Format {
	case FormatHL7:
		msg, err := h.hl7Composer.Compose(cmd.Record, cmd.Lines)
		if err != nil {
			return ConvertReportResult{}, err
		}
		return ConvertReportResult{HL7: msg}, nil
	case FormatFHIR:
		bundle := h.fhirComposer.Compose(cmd.Record, cmd.Lines)
		return ConvertReportResult{Bundle: &bundle}, nil
	default:
		return ConvertReportResult{}, fmt.Errorf("unsupported output format %q", cmd.Format)
	}
}
