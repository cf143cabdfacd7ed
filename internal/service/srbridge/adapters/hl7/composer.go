// Package hl7 renders the canonical clinical record as an HL7 v2 ORU^R01
// message: MSH, PID, OBR, ZDS, then two OBX blocks sharing one Set-ID
// counter.
package hl7

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/candelhealth/srbridge/internal/service/srbridge/canonical"
	"github.com/candelhealth/srbridge/internal/service/srbridge/sr"
)

const (
	fieldSep     = "|"
	componentSep = "^"

	encodingChars = `^~\&`
	messageType   = "ORU^R01"
	versionID     = "2.5"

	observationSource = "AIENGINE"
	resultStatusFinal = "F"

	tagResult       = "RESULTSTAG"
	tagTitle        = "TITLETAG"
	tagHTML         = "HTMLCRTAG"
	tagRTF          = "RTFCRTAG"
	tagImageLibrary = "IMAGELIBRARY"

	tagStudyUID       = "STUDYUID"
	tagSeriesUID      = "SERIESUID"
	tagSOPInstanceUID = "SOPINSTANCEUID"
	tagSOPClassUID    = "SOPCLASSUID"

	imageLibraryHeading = "Image Library"
	syntheticImageValue = "DXm image"
)

// Config carries the MSH endpoint identities.
type Config struct {
	SendingApplication   string
	SendingFacility      string
	ReceivingApplication string
	ReceivingFacility    string
}

// Composer builds ORU^R01 messages. Safe for concurrent use: all state per
// call lives on the stack.
type Composer struct {
	cfg   Config
	now   func() time.Time
	newID func() uuid.UUID
}

func NewComposer(cfg Config) *Composer {
	return &Composer{cfg: cfg, now: time.Now, newID: uuid.New}
}

// Compose renders the full message. lines is the walker output for the
// DICOM path; when empty, the report block is built from rec.Findings
// instead. Missing accession or study instance UID aborts the whole
// message, a partial message is never returned.
func (c *Composer) Compose(rec canonical.Record, lines []sr.Line) (string, error) {
	obr, err := c.buildOBR(rec, 1)
	if err != nil {
		return "", err
	}
	zds, err := c.buildZDS(rec)
	if err != nil {
		return "", err
	}

	segments := []string{
		c.buildMSH(),
		c.buildPID(rec.Patient),
		obr,
		zds,
	}

	setID := 1
	segments = append(segments, c.buildUIDBlock(rec.Study.ReferencedImages, &setID)...)
	if len(lines) > 0 {
		segments = append(segments, c.buildReportBlock(lines, &setID)...)
	} else {
		segments = append(segments, c.buildFindingsBlock(rec.Findings, &setID)...)
	}

	return strings.Join(segments, "\n"), nil
}

func (c *Composer) buildMSH() string {
	fields := []string{
		"MSH",
		encodingChars,
		Escape(c.cfg.SendingApplication),
		Escape(c.cfg.SendingFacility),
		Escape(c.cfg.ReceivingApplication),
		Escape(c.cfg.ReceivingFacility),
		c.now().Format("20060102150405"),
		"",
		messageType,
		c.newID().String(),
		"P",
		versionID,
		"",
		"",
		"AL",
		"NE",
		"USA",
		"UNICODE UTF-8",
	}
	return strings.Join(fields, fieldSep)
}

func (c *Composer) buildPID(p canonical.Patient) string {
	fields := make([]string, 19)
	fields[0] = "PID"
	fields[1] = "1"
	fields[3] = Escape(p.ID)
	fields[5] = patientNameField(p.Name)
	fields[7] = canonical.CompactDate(p.BirthDate)
	fields[8] = canonical.SexCode(p.Gender)
	return strings.Join(fields, fieldSep)
}

// patientNameField renders family^given from the first name entry. A
// missing family collapses to the bare given name.
func patientNameField(names []canonical.HumanName) string {
	if len(names) == 0 {
		return ""
	}
	n := names[0]
	given := ""
	if len(n.Given) > 0 {
		given = n.Given[0]
	}
	if n.Family == "" {
		return Escape(given)
	}
	return Escape(n.Family) + componentSep + Escape(given)
}

func (c *Composer) buildOBR(rec canonical.Record, setID int) (string, error) {
	if rec.Study.AccessionNumber == "" {
		return "", &canonical.MissingFieldError{Segment: "OBR", Field: "accession_number"}
	}

	proc := strings.Join([]string{
		Escape(rec.Study.ProcedureCode.Code),
		Escape(rec.Study.ProcedureCode.Display),
		"LN",
	}, componentSep)

	provider := Escape(rec.Provider.ID) + componentSep + Escape(rec.Provider.Name)

	observationDT := ""
	if rec.Study.Date != "" {
		t := rec.Study.Time
		if t == "" {
			t = "000000"
		}
		observationDT = canonical.CompactDate(rec.Study.Date) + t
	}

	accession := Escape(rec.Study.AccessionNumber)

	fields := make([]string, 25)
	fields[0] = "OBR"
	fields[1] = strconv.Itoa(setID)
	fields[3] = accession
	fields[4] = proc
	fields[7] = observationDT
	fields[16] = provider
	fields[18] = accession
	fields[24] = Escape(rec.Study.Modality)
	return strings.Join(fields, fieldSep), nil
}

func (c *Composer) buildZDS(rec canonical.Record) (string, error) {
	if strings.TrimSpace(rec.Study.StudyInstanceUID) == "" {
		return "", &canonical.MissingFieldError{Segment: "ZDS", Field: "study_instance_uid"}
	}
	triple := strings.Join([]string{
		Escape(rec.Study.StudyInstanceUID),
		Escape(rec.Study.SeriesInstanceUID),
		Escape(rec.Study.SOPInstanceUID),
	}, componentSep)
	return "ZDS" + fieldSep + triple, nil
}

// buildUIDBlock emits four cross-reference OBX rows per referenced image.
// The input is already deduplicated by SOP instance UID.
func (c *Composer) buildUIDBlock(images []canonical.ReferencedImage, setID *int) []string {
	var out []string
	for _, img := range images {
		out = append(out,
			c.obx(setID, "ST", tagStudyUID, img.StudyInstanceUID),
			c.obx(setID, "ST", tagSeriesUID, img.SeriesInstanceUID),
			c.obx(setID, "ST", tagSOPInstanceUID, img.SOPInstanceUID),
			c.obx(setID, "ST", tagSOPClassUID, img.SOPClassUID),
		)
	}
	return out
}

// buildReportBlock converts walker lines to OBX rows. Top-level lines split
// on the first "=" into a title/result pair; nested lines become plain
// results. A blank line directly under the "Image Library" heading stands
// for a referenced image and is rewritten as a synthetic "DXm image" row.
// That rewrite is a documented quirk of one known document layout, keep it
// narrow. Line text is whitespace-collapsed so multi-line text values
// cannot break segment framing.
func (c *Composer) buildReportBlock(lines []sr.Line, setID *int) []string {
	var out []string
	heading := ""
	for _, ln := range lines {
		text := canonical.CollapseWhitespace(ln.Text)
		if text == "" {
			if heading == imageLibraryHeading {
				out = append(out, c.obx(setID, "ST", tagImageLibrary, syntheticImageValue))
			}
			continue
		}

		if ln.Heading() {
			if title, value, found := strings.Cut(text, "="); found {
				out = append(out,
					c.obx(setID, "ST", tagTitle, strings.TrimSpace(title)),
					c.obx(setID, "ST", tagResult, strings.TrimSpace(value)),
				)
			} else {
				out = append(out, c.obx(setID, "ST", tagTitle, text))
			}
			heading = text
			continue
		}

		out = append(out, c.obx(setID, "ST", tagResult, text))
	}
	return out
}

// buildFindingsBlock handles the pre-flattened input path: one OBX per
// structured finding, classified by declared type.
func (c *Composer) buildFindingsBlock(findings []canonical.Finding, setID *int) []string {
	var out []string
	for _, f := range findings {
		valueType := "ST"
		tag := tagResult
		switch strings.ToLower(f.Type) {
		case "html":
			tag = tagHTML
		case "rtf":
			tag = tagRTF
			valueType = "FT"
		}
		value := canonical.CollapseWhitespace(canonical.StripMarkupWrappers(f.Value))
		out = append(out, c.obx(setID, valueType, tag, value))
	}
	return out
}

// obx renders one observation row and advances the shared Set-ID counter.
func (c *Composer) obx(setID *int, valueType, tag, value string) string {
	fields := []string{
		"OBX",
		strconv.Itoa(*setID),
		valueType,
		fmt.Sprintf("%s%s%s%s", tag, componentSep, componentSep, observationSource),
		"",
		Escape(value),
		"", "", "", "", "",
		resultStatusFinal,
	}
	*setID++
	return strings.Join(fields, fieldSep)
}
