// Package sr models a DICOM Structured Report content tree and renders it
// into the flat, indentation-aware line form consumed by the HL7 and FHIR
// composers.
package sr

// ValueType tags a content item with the kind of value it carries.
type ValueType string

const (
	Container ValueType = "CONTAINER"
	Text      ValueType = "TEXT"
	Code      ValueType = "CODE"
	Num       ValueType = "NUM"
	Date      ValueType = "DATE"
	Time      ValueType = "TIME"
	Image     ValueType = "IMAGE"
)

// Coded is a coded entry: value, scheme designator and human-readable meaning.
type Coded struct {
	Value   string
	Scheme  string
	Meaning string
}

// Node is one SR content item. Exactly one of the value fields is meaningful,
// selected by ValueType; the rest stay zero. A node exclusively owns its
// children and the tree is finite and acyclic.
type Node struct {
	ValueType        ValueType
	RelationshipType string // e.g. "CONTAINS", "HAS ACQ CONTEXT"
	ConceptName      Coded  // optional label; Meaning is the display text

	Text         string // TEXT
	Concept      Coded  // CODE
	NumericValue string // NUM
	Unit         Coded  // NUM

	Date string // DATE, raw DICOM DA value
	Time string // TIME, raw DICOM TM value

	// ObservationDateTime carries the optional item-level timestamp
	// (YYYYMMDDHHMMSS) used for Observation.effectiveDateTime.
	ObservationDateTime string

	Children []*Node
}

// Name returns the concept-name meaning, or "" when the item is unnamed.
func (n *Node) Name() string {
	return n.ConceptName.Meaning
}
