package commands

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/candelhealth/srbridge/internal/service/srbridge/adapters/fhir"
	"github.com/candelhealth/srbridge/internal/service/srbridge/adapters/hl7"
	"github.com/candelhealth/srbridge/internal/service/srbridge/canonical"
)

func testHandler() ConvertReportHandler {
	return NewConvertReportHandler(hl7.NewComposer(hl7.Config{
		SendingApplication:   "SRBRIDGE",
		SendingFacility:      "MAMMO_HOSP",
		ReceivingApplication: "HL7_RECEIVER",
		ReceivingFacility:    "HOSP",
	}), fhir.NewComposer())
}

func testRecord() canonical.Record {
	return canonical.Record{
		Patient: canonical.Patient{ID: "123456"},
		Study: canonical.Study{
			Date:             "2025-05-12",
			AccessionNumber:  "ACC1",
			Modality:         "MG",
			ProcedureCode:    canonical.DefaultProcedureCode,
			StudyInstanceUID: "1.2.3",
		},
		Findings: []canonical.Finding{{Type: "text", Value: "ok"}},
	}
}

func TestHandleDispatchesByFormat(t *testing.T) {
	h := testHandler()

	result, err := h.Handle(context.Background(), ConvertReportCommand{Record: testRecord(), Format: FormatHL7})
	if err != nil {
		t.Fatalf("hl7: %v", err)
	}
	if !strings.HasPrefix(result.HL7, "MSH|") || result.Bundle != nil {
		t.Errorf("hl7 result = %+v", result)
	}

	result, err = h.Handle(context.Background(), ConvertReportCommand{Record: testRecord(), Format: FormatFHIR})
	if err != nil {
		t.Fatalf("fhir: %v", err)
	}
	if result.Bundle == nil || result.HL7 != "" {
		t.Errorf("fhir result = %+v", result)
	}

	if _, err := h.Handle(context.Background(), ConvertReportCommand{Record: testRecord(), Format: "edifact"}); err == nil {
		t.Error("unsupported format accepted")
	}
}

func TestHandleValidatesRecordShapeFirst(t *testing.T) {
	rec := testRecord()
	rec.Patient.ID = ""
	_, err := testHandler().Handle(context.Background(), ConvertReportCommand{Record: rec, Format: FormatHL7})
	var iie *canonical.InvalidInputError
	if !errors.As(err, &iie) {
		t.Fatalf("got %v, want InvalidInputError", err)
	}
}
