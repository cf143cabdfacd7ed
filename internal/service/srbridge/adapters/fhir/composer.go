// Package fhir assembles the canonical clinical record into a FHIR Bundle
// of type collection: Patient, ImagingStudy, one Observation per finding,
// and a DiagnosticReport referencing them all by urn:uuid.
package fhir

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	fhirmodel "github.com/candelhealth/srbridge/internal/service/srbridge/adapters/fhir/model"
	"github.com/candelhealth/srbridge/internal/service/srbridge/canonical"
	"github.com/candelhealth/srbridge/internal/service/srbridge/sr"
)

const (
	sysLOINC     = "http://loinc.org"
	sysPatientID = "http://hospital.smarthealth.org/patient-id"
	sysAccession = "http://hospital.smarthealth.org/accession-number"
	sysDICOMUID  = "urn:dicom:uid"

	performerSystem    = "Radiologist System"
	performerFallback  = "Unknown Physician"
	observationDisplay = "Mammogram observation"

	imageLibraryHeading = "Image Library"
	syntheticImageLine  = "DXm image"
)

// Composer builds bundles. Stateless between calls except for the injected
// clock and ID generator, so it is safe for concurrent use.
type Composer struct {
	now   func() time.Time
	newID func() uuid.UUID
}

func NewComposer() *Composer {
	return &Composer{now: time.Now, newID: uuid.New}
}

// Compose never fails: every optional source field has a literal default.
// lines is the walker output for the DICOM path; when empty the
// observations come from rec.Findings instead.
func (c *Composer) Compose(rec canonical.Record, lines []sr.Line) fhirmodel.Bundle {
	patient := c.buildPatient(rec.Patient)
	patientRef := urn(patient.ID)

	study := c.buildImagingStudy(rec.Study, patientRef)

	var observations []fhirmodel.Observation
	if len(lines) > 0 {
		observations = c.observationsFromLines(rec, lines, patientRef)
	} else {
		observations = c.observationsFromFindings(rec, patientRef)
	}

	report := c.buildDiagnosticReport(rec, observations, patientRef)

	entries := make([]fhirmodel.Entry, 0, len(observations)+3)
	entries = append(entries,
		fhirmodel.Entry{FullURL: patientRef, Resource: patient},
		fhirmodel.Entry{FullURL: urn(study.ID), Resource: study},
	)
	for _, obs := range observations {
		entries = append(entries, fhirmodel.Entry{FullURL: urn(obs.ID), Resource: obs})
	}
	entries = append(entries, fhirmodel.Entry{FullURL: urn(report.ID), Resource: report})

	return fhirmodel.Bundle{
		ResourceType: "Bundle",
		Type:         "collection",
		Entry:        entries,
	}
}

func (c *Composer) buildPatient(p canonical.Patient) fhirmodel.Patient {
	// Anything outside the canonical enum collapses to "other".
	gender := string(p.Gender)
	switch p.Gender {
	case canonical.Male, canonical.Female, canonical.Unknown, canonical.Other:
	default:
		gender = string(canonical.Other)
	}

	names := p.Name
	if len(names) == 0 {
		names = []canonical.HumanName{{}}
	}
	modelNames := make([]fhirmodel.HumanName, len(names))
	for i, n := range names {
		given := n.Given
		if given == nil {
			given = []string{}
		}
		modelNames[i] = fhirmodel.HumanName{Family: n.Family, Given: given}
	}

	patient := fhirmodel.Patient{
		ResourceType: "Patient",
		ID:           c.newID().String(),
		Identifier:   []fhirmodel.Identifier{{System: sysPatientID, Value: p.ID}},
		Name:         modelNames,
		Gender:       gender,
		BirthDate:    p.BirthDate,
	}

	display := strings.TrimSpace(strings.Join(names[0].Given, " ") + " " + names[0].Family)
	patient.Text = narrative(fmt.Sprintf("Patient: %s (ID: %s)", display, p.ID))
	return patient
}

func (c *Composer) buildImagingStudy(s canonical.Study, patientRef string) fhirmodel.ImagingStudy {
	study := fhirmodel.ImagingStudy{
		ResourceType: "ImagingStudy",
		ID:           c.newID().String(),
		Identifier:   []fhirmodel.Identifier{{System: sysDICOMUID, Value: s.StudyInstanceUID}},
		Status:       "registered",
		Subject:      fhirmodel.Reference{Reference: patientRef},
		Started:      studyDateTime(s),
	}
	if s.AccessionNumber != "" {
		study.Identifier = append(study.Identifier, fhirmodel.Identifier{
			System: sysAccession,
			Value:  s.AccessionNumber,
		})
	}
	study.Text = narrative("ImagingStudy Resource")
	return study
}

// observationsFromLines turns each rendered report line into an Observation.
// A blank line directly under the "Image Library" heading stands for a
// referenced image and becomes a synthetic "DXm image" observation.
func (c *Composer) observationsFromLines(rec canonical.Record, lines []sr.Line, patientRef string) []fhirmodel.Observation {
	var out []fhirmodel.Observation
	heading := ""
	for _, ln := range lines {
		text := strings.TrimSpace(ln.Text)
		if ln.Heading() && text != "" {
			heading = text
		}
		if text == "" {
			if heading != imageLibraryHeading {
				continue
			}
			text = syntheticImageLine
		}

		value := text
		if _, v, found := strings.Cut(text, "="); found {
			value = strings.TrimSpace(v)
		}

		obs := c.newObservation(patientRef, canonical.StripMarkupWrappers(value), fhirmodel.Coding{System: sysLOINC})
		obs.EffectiveDateTime = firstNonEmpty(observationDateTime(ln.ObservationDateTime), studyDateTime(rec.Study))
		obs.Text = narrative("Observation:" + text)
		out = append(out, obs)
	}
	return out
}

func (c *Composer) observationsFromFindings(rec canonical.Record, patientRef string) []fhirmodel.Observation {
	coding := fhirmodel.Coding{
		System:  sysLOINC,
		Code:    rec.Study.ProcedureCode.Code,
		Display: observationDisplay,
	}
	var out []fhirmodel.Observation
	for _, f := range rec.Findings {
		value := canonical.StripMarkupWrappers(f.Value)
		obs := c.newObservation(patientRef, value, coding)
		obs.EffectiveDateTime = studyDateTime(rec.Study)
		obs.Text = narrative("Observation:" + value)
		out = append(out, obs)
	}
	return out
}

func (c *Composer) newObservation(patientRef, value string, coding fhirmodel.Coding) fhirmodel.Observation {
	return fhirmodel.Observation{
		ResourceType: "Observation",
		ID:           c.newID().String(),
		Status:       "final",
		Code:         fhirmodel.CodeableConcept{Coding: []fhirmodel.Coding{coding}},
		Subject:      fhirmodel.Reference{Reference: patientRef},
		ValueString:  value,
		Performer:    []fhirmodel.Reference{{Display: performerSystem}},
	}
}

func (c *Composer) buildDiagnosticReport(rec canonical.Record, observations []fhirmodel.Observation, patientRef string) fhirmodel.DiagnosticReport {
	performer := rec.Provider.Name
	if performer == "" {
		performer = performerFallback
	}

	results := make([]fhirmodel.Reference, len(observations))
	for i, obs := range observations {
		results[i] = fhirmodel.Reference{Reference: urn(obs.ID)}
	}

	coding := fhirmodel.Coding{
		System:  rec.Study.ProcedureCode.System,
		Code:    rec.Study.ProcedureCode.Code,
		Display: rec.Study.ProcedureCode.Display,
	}

	report := fhirmodel.DiagnosticReport{
		ResourceType:      "DiagnosticReport",
		ID:                c.newID().String(),
		Status:            "final",
		Code:              fhirmodel.CodeableConcept{Coding: []fhirmodel.Coding{coding}},
		Subject:           fhirmodel.Reference{Reference: patientRef},
		EffectiveDateTime: studyDateTime(rec.Study),
		Issued:            c.now().UTC().Format(time.RFC3339),
		Performer:         []fhirmodel.Reference{{Display: performer}},
		Result:            results,
		Identifier:        []fhirmodel.Identifier{{System: sysDICOMUID, Value: rec.Study.StudyInstanceUID}},
	}
	report.Text = narrative("Diagnostic Report: " + coding.Display)
	return report
}

func urn(id string) string { return "urn:uuid:" + id }

func narrative(text string) *fhirmodel.Narrative {
	return &fhirmodel.Narrative{
		Status: "generated",
		Div:    fmt.Sprintf(`<div xmlns="http://www.w3.org/1999/xhtml">%s</div>`, text),
	}
}

// studyDateTime renders the study timestamp: date alone when the time is
// absent or malformed, date plus HH:MM:SS in UTC otherwise.
func studyDateTime(s canonical.Study) string {
	if s.Date == "" {
		return ""
	}
	t := strings.TrimSpace(s.Time)
	if len(t) >= 6 && allDigits(t[:6]) {
		return fmt.Sprintf("%sT%s:%s:%sZ", s.Date, t[:2], t[2:4], t[4:6])
	}
	return s.Date
}

// observationDateTime converts a 14-digit DICOM datetime to RFC 3339 form.
// Anything else yields "" so the caller can fall back to the study time.
func observationDateTime(dt string) string {
	dt = strings.TrimSpace(dt)
	if len(dt) != 14 || !allDigits(dt) {
		return ""
	}
	return fmt.Sprintf("%s-%s-%sT%s:%s:%sZ", dt[:4], dt[4:6], dt[6:8], dt[8:10], dt[10:12], dt[12:14])
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

func allDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return s != ""
}
