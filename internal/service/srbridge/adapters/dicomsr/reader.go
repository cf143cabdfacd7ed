// Package dicomsr adapts a decoded DICOM dataset into the engine's SR
// content tree and canonical clinical record.
package dicomsr

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/suyashkumar/dicom"
	"github.com/suyashkumar/dicom/pkg/tag"

	"github.com/candelhealth/srbridge/internal/service/srbridge/canonical"
	"github.com/candelhealth/srbridge/internal/service/srbridge/sr"
)

// Document is the flat view of a mammography SR dataset: demographics and
// study attributes plus the decoded content tree.
type Document struct {
	PatientID        string
	PatientName      string
	PatientBirthDate string
	PatientSex       string

	StudyDate         string
	StudyTime         string
	AccessionNumber   string
	Modality          string
	StudyInstanceUID  string
	SeriesInstanceUID string
	SOPInstanceUID    string

	ReferringPhysicianName string
	ProcedureCode          *canonical.Coding

	Content          []*sr.Node
	ReferencedImages []canonical.ReferencedImage
}

// Parse reads the SR-relevant elements out of a decoded dataset. Missing
// elements degrade to empty strings; Parse itself never fails on content.
func Parse(ds dicom.Dataset) (*Document, error) {
	doc := &Document{
		PatientID:        dsString(ds, tag.PatientID),
		PatientName:      dsString(ds, tag.PatientName),
		PatientBirthDate: dsString(ds, tag.PatientBirthDate),
		PatientSex:       dsString(ds, tag.PatientSex),

		StudyDate:         dsString(ds, tag.StudyDate),
		StudyTime:         dsString(ds, tag.StudyTime),
		AccessionNumber:   dsString(ds, tag.AccessionNumber),
		Modality:          dsString(ds, tag.Modality),
		StudyInstanceUID:  dsString(ds, tag.StudyInstanceUID),
		SeriesInstanceUID: dsString(ds, tag.SeriesInstanceUID),
		SOPInstanceUID:    dsString(ds, tag.SOPInstanceUID),

		ReferringPhysicianName: dsString(ds, tag.ReferringPhysicianName),
	}

	if elem, err := ds.FindElementByTag(tag.ProcedureCodeSequence); err == nil {
		if items := sequenceItems(elem); len(items) > 0 {
			c := codedEntry(items[0])
			doc.ProcedureCode = &canonical.Coding{Code: c.Value, System: c.Scheme, Display: c.Meaning}
		}
	}

	if elem, err := ds.FindElementByTag(tag.ContentSequence); err == nil {
		for _, item := range sequenceItems(elem) {
			doc.Content = append(doc.Content, contentNode(item))
		}
	}

	doc.ReferencedImages = collectReferencedImages(ds)

	return doc, nil
}

// Validate enforces the structural presence checks applied to uploaded SR
// files before conversion starts.
func (d *Document) Validate() error {
	if d.Modality != "SR" {
		return fmt.Errorf("dataset modality is %q, expected SR", d.Modality)
	}
	if d.StudyInstanceUID == "" {
		return fmt.Errorf("dataset is missing StudyInstanceUID")
	}
	if d.PatientID == "" {
		return fmt.Errorf("dataset is missing PatientID")
	}
	return nil
}

// Canonical flattens the document into the shared intermediate record.
// newID generates the accession placeholder when the source has none.
func (d *Document) Canonical(newID func() uuid.UUID) canonical.Record {
	accession := d.AccessionNumber
	if accession == "" {
		accession = "ACC-" + newID().String()
	}

	modality := d.Modality
	if modality == "" {
		modality = "MG"
	}

	proc := canonical.DefaultProcedureCode
	if d.ProcedureCode != nil {
		proc = *d.ProcedureCode
	}

	rec := canonical.Record{
		Patient: canonical.Patient{
			ID:        d.PatientID,
			Name:      []canonical.HumanName{canonical.ParseName(d.PatientName)},
			Gender:    canonical.GenderFromDICOM(d.PatientSex),
			BirthDate: canonical.FormatDate(d.PatientBirthDate),
		},
		Study: canonical.Study{
			Date:              canonical.FormatDate(d.StudyDate),
			Time:              strings.TrimSpace(d.StudyTime),
			AccessionNumber:   accession,
			Modality:          modality,
			ProcedureCode:     proc,
			StudyInstanceUID:  d.StudyInstanceUID,
			SeriesInstanceUID: d.SeriesInstanceUID,
			SOPInstanceUID:    d.SOPInstanceUID,
			ReferencedImages:  d.ReferencedImages,
		},
		Provider: canonical.Provider{
			ID:         "PROV001",
			Name:       canonical.ProviderName(d.ReferringPhysicianName),
			Department: "Radiology",
		},
	}
	return rec
}

// collectReferencedImages walks the evidence sequence, flattening every
// referenced SOP instance with its study and series context. Duplicate SOP
// instance UIDs are dropped.
func collectReferencedImages(ds dicom.Dataset) []canonical.ReferencedImage {
	elem, err := ds.FindElementByTag(tag.CurrentRequestedProcedureEvidenceSequence)
	if err != nil {
		return nil
	}

	var out []canonical.ReferencedImage
	seen := map[string]bool{}

	for _, study := range sequenceItems(elem) {
		studyUID := itemString(study, tag.StudyInstanceUID)
		for _, series := range nestedItems(study, tag.ReferencedSeriesSequence) {
			seriesUID := itemString(series, tag.SeriesInstanceUID)
			for _, sop := range nestedItems(series, tag.ReferencedSOPSequence) {
				ref := canonical.ReferencedImage{
					StudyInstanceUID:  studyUID,
					SeriesInstanceUID: seriesUID,
					SOPInstanceUID:    itemString(sop, tag.ReferencedSOPInstanceUID),
					SOPClassUID:       itemString(sop, tag.ReferencedSOPClassUID),
				}
				if ref.SOPInstanceUID == "" || seen[ref.SOPInstanceUID] {
					continue
				}
				seen[ref.SOPInstanceUID] = true
				out = append(out, ref)
			}
		}
	}
	return out
}

// contentNode converts one content-sequence item (and its children) into an
// sr.Node. Unknown value types are kept verbatim; the walker handles them.
func contentNode(elems []*dicom.Element) *sr.Node {
	n := &sr.Node{
		ValueType:           sr.ValueType(itemString(elems, tag.ValueType)),
		RelationshipType:    itemString(elems, tag.RelationshipType),
		ObservationDateTime: itemString(elems, tag.ObservationDateTime),
	}

	if items := nestedItems(elems, tag.ConceptNameCodeSequence); len(items) > 0 {
		n.ConceptName = codedEntry(items[0])
	}

	switch n.ValueType {
	case sr.Text:
		n.Text = itemString(elems, tag.TextValue)
	case sr.Code:
		if items := nestedItems(elems, tag.ConceptCodeSequence); len(items) > 0 {
			n.Concept = codedEntry(items[0])
		}
	case sr.Num:
		if items := nestedItems(elems, tag.MeasuredValueSequence); len(items) > 0 {
			n.NumericValue = itemString(items[0], tag.NumericValue)
			if units := nestedItems(items[0], tag.MeasurementUnitsCodeSequence); len(units) > 0 {
				n.Unit = codedEntry(units[0])
			}
		}
	case sr.Date:
		n.Date = itemString(elems, tag.Date)
	case sr.Time:
		n.Time = itemString(elems, tag.Time)
	}

	for _, item := range nestedItems(elems, tag.ContentSequence) {
		n.Children = append(n.Children, contentNode(item))
	}
	return n
}

func codedEntry(elems []*dicom.Element) sr.Coded {
	return sr.Coded{
		Value:   itemString(elems, tag.CodeValue),
		Scheme:  itemString(elems, tag.CodingSchemeDesignator),
		Meaning: itemString(elems, tag.CodeMeaning),
	}
}

// dsString reads a top-level element as a string, "" when absent.
func dsString(ds dicom.Dataset, t tag.Tag) string {
	elem, err := ds.FindElementByTag(t)
	if err != nil {
		return ""
	}
	return elemString(elem)
}

// itemString reads an element out of a sequence item's element list.
func itemString(elems []*dicom.Element, t tag.Tag) string {
	for _, e := range elems {
		if e.Tag == t {
			return elemString(e)
		}
	}
	return ""
}

func elemString(e *dicom.Element) string {
	if e == nil || e.Value == nil {
		return ""
	}
	switch v := e.Value.GetValue().(type) {
	case []string:
		if len(v) == 0 {
			return ""
		}
		return strings.TrimSpace(v[0])
	case string:
		return strings.TrimSpace(v)
	default:
		return strings.TrimSpace(fmt.Sprintf("%v", v))
	}
}

// sequenceItems unwraps a sequence element into per-item element lists.
func sequenceItems(e *dicom.Element) [][]*dicom.Element {
	if e == nil || e.Value == nil {
		return nil
	}
	items, ok := e.Value.GetValue().([]*dicom.SequenceItemValue)
	if !ok {
		return nil
	}
	out := make([][]*dicom.Element, 0, len(items))
	for _, item := range items {
		elems, ok := item.GetValue().([]*dicom.Element)
		if !ok {
			continue
		}
		out = append(out, elems)
	}
	return out
}

func nestedItems(elems []*dicom.Element, t tag.Tag) [][]*dicom.Element {
	for _, e := range elems {
		if e.Tag == t {
			return sequenceItems(e)
		}
	}
	return nil
}
