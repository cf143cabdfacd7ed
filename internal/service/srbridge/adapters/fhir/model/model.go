// Package model holds the JSON shapes of the FHIR resources the composer
// emits. Only the fields the bundle actually carries are modeled.
package model

// Narrative is the generated human-readable summary of a resource.
type Narrative struct {
	Status string `json:"status"`
	Div    string `json:"div"`
}

type Coding struct {
	System  string `json:"system,omitempty"`
	Code    string `json:"code,omitempty"`
	Display string `json:"display,omitempty"`
}

type CodeableConcept struct {
	Coding []Coding `json:"coding"`
}

type Identifier struct {
	System string `json:"system"`
	Value  string `json:"value"`
}

type HumanName struct {
	Family string   `json:"family"`
	Given  []string `json:"given"`
}

// Reference points at another resource, or carries a bare display string
// for participants that are not modeled as resources.
type Reference struct {
	Reference string `json:"reference,omitempty"`
	Display   string `json:"display,omitempty"`
}

type Patient struct {
	ResourceType string       `json:"resourceType"`
	ID           string       `json:"id"`
	Text         *Narrative   `json:"text,omitempty"`
	Identifier   []Identifier `json:"identifier"`
	Name         []HumanName  `json:"name"`
	Gender       string       `json:"gender"`
	BirthDate    string       `json:"birthDate,omitempty"`
}

type ImagingStudy struct {
	ResourceType string       `json:"resourceType"`
	ID           string       `json:"id"`
	Text         *Narrative   `json:"text,omitempty"`
	Identifier   []Identifier `json:"identifier"`
	Status       string       `json:"status"`
	Subject      Reference    `json:"subject"`
	Started      string       `json:"started,omitempty"`
}

type Observation struct {
	ResourceType      string          `json:"resourceType"`
	ID                string          `json:"id"`
	Text              *Narrative      `json:"text,omitempty"`
	Status            string          `json:"status"`
	Code              CodeableConcept `json:"code"`
	Subject           Reference       `json:"subject"`
	ValueString       string          `json:"valueString"`
	EffectiveDateTime string          `json:"effectiveDateTime,omitempty"`
	Performer         []Reference     `json:"performer"`
}

type DiagnosticReport struct {
	ResourceType      string          `json:"resourceType"`
	ID                string          `json:"id"`
	Text              *Narrative      `json:"text,omitempty"`
	Status            string          `json:"status"`
	Code              CodeableConcept `json:"code"`
	Subject           Reference       `json:"subject"`
	EffectiveDateTime string          `json:"effectiveDateTime,omitempty"`
	Issued            string          `json:"issued"`
	Performer         []Reference     `json:"performer"`
	Result            []Reference     `json:"result"`
	Identifier        []Identifier    `json:"identifier"`
}

// Entry pairs a resource with the urn:uuid fullUrl every in-bundle
// reference to it must match.
type Entry struct {
	FullURL  string `json:"fullUrl"`
	Resource any    `json:"resource"`
}

type Bundle struct {
	ResourceType string  `json:"resourceType"`
	Type         string  `json:"type"`
	Entry        []Entry `json:"entry"`
}
