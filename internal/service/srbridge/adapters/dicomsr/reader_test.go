package dicomsr

import (
	"testing"

	"github.com/google/uuid"
	"github.com/suyashkumar/dicom"
	"github.com/suyashkumar/dicom/pkg/tag"

	"github.com/candelhealth/srbridge/internal/service/srbridge/canonical"
	"github.com/candelhealth/srbridge/internal/service/srbridge/sr"
)

func mustNewElement(t tag.Tag, data interface{}) *dicom.Element {
	elem, err := dicom.NewElement(t, data)
	if err != nil {
		panic(err)
	}
	return elem
}

func item(elems ...*dicom.Element) []*dicom.Element { return elems }

func codeItem(value, scheme, meaning string) []*dicom.Element {
	return item(
		mustNewElement(tag.CodeValue, []string{value}),
		mustNewElement(tag.CodingSchemeDesignator, []string{scheme}),
		mustNewElement(tag.CodeMeaning, []string{meaning}),
	)
}

func srDataset() dicom.Dataset {
	findings := item(
		mustNewElement(tag.ValueType, []string{"CONTAINER"}),
		mustNewElement(tag.ConceptNameCodeSequence, [][]*dicom.Element{
			codeItem("121070", "DCM", "Findings"),
		}),
		mustNewElement(tag.ContentSequence, [][]*dicom.Element{
			item(
				mustNewElement(tag.ValueType, []string{"TEXT"}),
				mustNewElement(tag.RelationshipType, []string{"CONTAINS"}),
				mustNewElement(tag.ConceptNameCodeSequence, [][]*dicom.Element{
					codeItem("121071", "DCM", "Finding"),
				}),
				mustNewElement(tag.TextValue, []string{"Suspicious mass in right breast"}),
			),
			item(
				mustNewElement(tag.ValueType, []string{"NUM"}),
				mustNewElement(tag.ConceptNameCodeSequence, [][]*dicom.Element{
					codeItem("M-02550", "SRT", "Diameter"),
				}),
				mustNewElement(tag.MeasuredValueSequence, [][]*dicom.Element{
					item(
						mustNewElement(tag.NumericValue, []string{"12"}),
						mustNewElement(tag.MeasurementUnitsCodeSequence, [][]*dicom.Element{
							codeItem("mm", "UCUM", "millimeter"),
						}),
					),
				}),
			),
		}),
	)

	evidence := mustNewElement(tag.CurrentRequestedProcedureEvidenceSequence, [][]*dicom.Element{
		item(
			mustNewElement(tag.StudyInstanceUID, []string{"1.2.3"}),
			mustNewElement(tag.ReferencedSeriesSequence, [][]*dicom.Element{
				item(
					mustNewElement(tag.SeriesInstanceUID, []string{"1.2.3.4"}),
					mustNewElement(tag.ReferencedSOPSequence, [][]*dicom.Element{
						item(
							mustNewElement(tag.ReferencedSOPClassUID, []string{"1.2.840.10008.5.1.4.1.1.13.1.3"}),
							mustNewElement(tag.ReferencedSOPInstanceUID, []string{"1.2.3.4.5"}),
						),
						// duplicate SOP instance, must be dropped
						item(
							mustNewElement(tag.ReferencedSOPClassUID, []string{"1.2.840.10008.5.1.4.1.1.13.1.3"}),
							mustNewElement(tag.ReferencedSOPInstanceUID, []string{"1.2.3.4.5"}),
						),
					}),
				),
			}),
		),
	})

	return dicom.Dataset{Elements: []*dicom.Element{
		mustNewElement(tag.PatientID, []string{"123456"}),
		mustNewElement(tag.PatientName, []string{"Doe^Jane"}),
		mustNewElement(tag.PatientBirthDate, []string{"19850315"}),
		mustNewElement(tag.PatientSex, []string{"F"}),
		mustNewElement(tag.StudyDate, []string{"20250512"}),
		mustNewElement(tag.StudyTime, []string{"101530"}),
		mustNewElement(tag.Modality, []string{"SR"}),
		mustNewElement(tag.StudyInstanceUID, []string{"1.2.3"}),
		mustNewElement(tag.SeriesInstanceUID, []string{"1.2.3.4"}),
		mustNewElement(tag.SOPInstanceUID, []string{"1.2.3.4.99"}),
		mustNewElement(tag.ReferringPhysicianName, []string{"Carter^Emily"}),
		mustNewElement(tag.ContentSequence, [][]*dicom.Element{findings}),
		evidence,
	}}
}

func TestParseDemographicsAndStudy(t *testing.T) {
	doc, err := Parse(srDataset())
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if doc.PatientID != "123456" {
		t.Errorf("PatientID = %q", doc.PatientID)
	}
	if doc.PatientName != "Doe^Jane" {
		t.Errorf("PatientName = %q", doc.PatientName)
	}
	if doc.Modality != "SR" || doc.StudyInstanceUID != "1.2.3" {
		t.Errorf("study attrs: modality %q uid %q", doc.Modality, doc.StudyInstanceUID)
	}
	if err := doc.Validate(); err != nil {
		t.Errorf("Validate: %v", err)
	}
}

func TestParseContentTree(t *testing.T) {
	doc, err := Parse(srDataset())
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if len(doc.Content) != 1 {
		t.Fatalf("got %d roots, want 1", len(doc.Content))
	}
	root := doc.Content[0]
	if root.ValueType != sr.Container || root.ConceptName.Meaning != "Findings" {
		t.Errorf("root = %s %q", root.ValueType, root.ConceptName.Meaning)
	}
	if len(root.Children) != 2 {
		t.Fatalf("got %d children, want 2", len(root.Children))
	}
	text := root.Children[0]
	if text.ValueType != sr.Text || text.Text != "Suspicious mass in right breast" {
		t.Errorf("text child = %s %q", text.ValueType, text.Text)
	}
	if text.RelationshipType != "CONTAINS" {
		t.Errorf("relationship = %q", text.RelationshipType)
	}
	num := root.Children[1]
	if num.NumericValue != "12" || num.Unit.Meaning != "millimeter" {
		t.Errorf("num child = %q %q", num.NumericValue, num.Unit.Meaning)
	}
}

func TestParseReferencedImagesDeduplicates(t *testing.T) {
	doc, err := Parse(srDataset())
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if len(doc.ReferencedImages) != 1 {
		t.Fatalf("got %d referenced images, want 1", len(doc.ReferencedImages))
	}
	ref := doc.ReferencedImages[0]
	want := canonical.ReferencedImage{
		StudyInstanceUID:  "1.2.3",
		SeriesInstanceUID: "1.2.3.4",
		SOPInstanceUID:    "1.2.3.4.5",
		SOPClassUID:       "1.2.840.10008.5.1.4.1.1.13.1.3",
	}
	if ref != want {
		t.Errorf("got %+v, want %+v", ref, want)
	}
}

func TestCanonicalAccessionPlaceholder(t *testing.T) {
	doc, err := Parse(srDataset())
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	fixed := uuid.MustParse("9e0d1f6a-0000-0000-0000-000000000042")
	rec := doc.Canonical(func() uuid.UUID { return fixed })

	if rec.Study.AccessionNumber != "ACC-"+fixed.String() {
		t.Errorf("accession = %q", rec.Study.AccessionNumber)
	}
	if rec.Patient.BirthDate != "1985-03-15" {
		t.Errorf("birth date = %q", rec.Patient.BirthDate)
	}
	if rec.Patient.Gender != canonical.Female {
		t.Errorf("gender = %q", rec.Patient.Gender)
	}
	if rec.Provider.Name != "Carter Emily" || rec.Provider.ID != "PROV001" {
		t.Errorf("provider = %+v", rec.Provider)
	}
	if rec.Study.ProcedureCode != canonical.DefaultProcedureCode {
		t.Errorf("procedure code = %+v", rec.Study.ProcedureCode)
	}
	if err := rec.Validate(); err != nil {
		t.Errorf("canonical record invalid: %v", err)
	}
}

func TestValidateRejectsNonSR(t *testing.T) {
	doc := &Document{Modality: "MG", StudyInstanceUID: "1.2.3", PatientID: "1"}
	if err := doc.Validate(); err == nil {
		t.Fatal("non-SR dataset accepted")
	}
	doc = &Document{Modality: "SR", PatientID: "1"}
	if err := doc.Validate(); err == nil {
		t.Fatal("dataset without StudyInstanceUID accepted")
	}
}
