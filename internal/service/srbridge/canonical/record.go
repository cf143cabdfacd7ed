// Package canonical defines the intermediate clinical record bridging the
// DICOM SR input and both output composers, plus the pure extraction helpers
// that normalize source values into it.
package canonical

import "fmt"

// Gender is the canonical administrative gender.
type Gender string

const (
	Male    Gender = "male"
	Female  Gender = "female"
	Other   Gender = "other"
	Unknown Gender = "unknown"
)

// Coding is a code/system/display triple.
type Coding struct {
	Code    string `json:"code"`
	System  string `json:"system"`
	Display string `json:"display"`
}

// HumanName holds the parsed patient name. Given keeps source order.
type HumanName struct {
	Family string   `json:"family"`
	Given  []string `json:"given"`
}

// Patient demographics. BirthDate is ISO (YYYY-MM-DD) or empty.
type Patient struct {
	ID        string      `json:"id"`
	Name      []HumanName `json:"name"`
	Gender    Gender      `json:"gender"`
	BirthDate string      `json:"birth_date"`
}

// ReferencedImage is one referenced SOP instance from the evidence
// sequences, used for the HL7 UID cross-reference block.
type ReferencedImage struct {
	StudyInstanceUID  string `json:"study_instance_uid"`
	SeriesInstanceUID string `json:"series_instance_uid"`
	SOPInstanceUID    string `json:"sop_instance_uid"`
	SOPClassUID       string `json:"sop_class_uid"`
}

// Study context. Date/Time stay in raw DICOM form (YYYYMMDD / HHMMSS)
// except Date, which may already be hyphenated on the JSON input path.
type Study struct {
	Date              string            `json:"date"`
	Time              string            `json:"time,omitempty"`
	AccessionNumber   string            `json:"accession_number"`
	Modality          string            `json:"modality"`
	ProcedureCode     Coding            `json:"procedure_code"`
	StudyInstanceUID  string            `json:"study_instance_uid,omitempty"`
	SeriesInstanceUID string            `json:"series_instance_uid,omitempty"`
	SOPInstanceUID    string            `json:"sop_instance_uid,omitempty"`
	ReferencedImages  []ReferencedImage `json:"referenced_images,omitempty"`
}

// Provider is the ordering/referring clinician.
type Provider struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	Department string `json:"department,omitempty"`
}

// Finding is one report statement. Type selects the OBX classification:
// "text" (default), "html" and "rtf" map to distinct observation tags.
type Finding struct {
	Type  string `json:"type"`
	Tag   string `json:"tag,omitempty"`
	Value string `json:"value"`
}

// Record is the flattened intermediate representation. Every field carries
// a defined value after extraction; composers never branch on nil.
type Record struct {
	Patient  Patient   `json:"patient"`
	Study    Study     `json:"study"`
	Provider Provider  `json:"provider"`
	Findings []Finding `json:"findings"`
}

// Validate checks the top-level shape of a caller-supplied record before
// any building starts. It is the fatal InvalidInputShape gate for the
// pre-flattened JSON input path.
func (r *Record) Validate() error {
	if r.Patient.ID == "" {
		return &InvalidInputError{Section: "patient"}
	}
	if r.Study.Date == "" && r.Study.AccessionNumber == "" {
		return &InvalidInputError{Section: "study"}
	}
	return nil
}

// MissingFieldError is raised when a segment-required identifier is absent.
// It is fatal to message construction: partial messages are never returned.
type MissingFieldError struct {
	Segment string
	Field   string
}

func (e *MissingFieldError) Error() string {
	return fmt.Sprintf("%s: required field %s is missing", e.Segment, e.Field)
}

// InvalidInputError is raised when a caller-supplied canonical record is
// missing a required top-level section.
type InvalidInputError struct {
	Section string
}

func (e *InvalidInputError) Error() string {
	return fmt.Sprintf("canonical record: section %q is missing or incomplete", e.Section)
}
