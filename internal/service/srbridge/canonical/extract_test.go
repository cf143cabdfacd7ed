package canonical

import (
	"errors"
	"reflect"
	"testing"
)

func TestFormatDate(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"19850315", "1985-03-15"},
		{"1985-03-15", "1985-03-15"}, // already hyphenated passes through
		{"", ""},
		{"1985", ""},
		{"19850x15", ""},
		{"  20250512  ", "2025-05-12"},
	}
	for _, tt := range tests {
		if got := FormatDate(tt.in); got != tt.want {
			t.Errorf("FormatDate(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestGenderMappingRoundTrip(t *testing.T) {
	// DICOM F -> canonical female -> HL7 F must hold for the defined codes.
	if g := GenderFromDICOM("F"); g != Female {
		t.Fatalf("GenderFromDICOM(F) = %q, want female", g)
	}
	if c := SexCode(Female); c != "F" {
		t.Fatalf("SexCode(female) = %q, want F", c)
	}
	if c := SexCode(GenderFromDICOM("M")); c != "M" {
		t.Fatalf("M round trip = %q, want M", c)
	}
}

func TestGenderMappingAsymmetry(t *testing.T) {
	// Unrecognized DICOM codes collapse to "other" on the way in, while the
	// HL7 side renders unknown as empty. Both directions are deliberate.
	if g := GenderFromDICOM("U"); g != Other {
		t.Errorf("GenderFromDICOM(U) = %q, want other", g)
	}
	if g := GenderFromDICOM(""); g != Other {
		t.Errorf("GenderFromDICOM(\"\") = %q, want other", g)
	}
	if c := SexCode(Unknown); c != "" {
		t.Errorf("SexCode(unknown) = %q, want empty", c)
	}
	if c := SexCode(Gender("nonbinary")); c != "" {
		t.Errorf("SexCode(unrecognized) = %q, want empty", c)
	}
}

func TestParseName(t *testing.T) {
	tests := []struct {
		in   string
		want HumanName
	}{
		{"Doe^Jane", HumanName{Family: "Doe", Given: []string{"Jane"}}},
		{"Doe^Jane^Marie", HumanName{Family: "Doe", Given: []string{"Jane", "Marie"}}},
		{"Doe", HumanName{Family: "Doe", Given: []string{}}},
		{"", HumanName{}},
	}
	for _, tt := range tests {
		got := ParseName(tt.in)
		if got.Family != tt.want.Family {
			t.Errorf("ParseName(%q).Family = %q, want %q", tt.in, got.Family, tt.want.Family)
		}
		if len(got.Given) != len(tt.want.Given) || (len(got.Given) > 0 && !reflect.DeepEqual(got.Given, tt.want.Given)) {
			t.Errorf("ParseName(%q).Given = %v, want %v", tt.in, got.Given, tt.want.Given)
		}
	}
}

func TestProviderName(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Carter^Emily", "Carter Emily"},
		{"Carter^Emily^^Dr^", "Carter Emily  Dr"},
		{"", "Unknown"},
		{"^^", "Unknown"},
	}
	for _, tt := range tests {
		if got := ProviderName(tt.in); got != tt.want {
			t.Errorf("ProviderName(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestCollapseWhitespace(t *testing.T) {
	got := CollapseWhitespace("  BI-RADS 4:\n Suspicious\r\tabnormality.  ")
	want := "BI-RADS 4: Suspicious abnormality."
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestStripMarkupWrappers(t *testing.T) {
	got := StripMarkupWrappers("<html><body><p>X</p></body></html>")
	if got != "<p>X</p>" {
		t.Errorf("got %q, want <p>X</p>", got)
	}
}

func TestRecordValidate(t *testing.T) {
	rec := Record{
		Patient: Patient{ID: "123456"},
		Study:   Study{Date: "2025-05-12", AccessionNumber: "ACC1"},
	}
	if err := rec.Validate(); err != nil {
		t.Fatalf("valid record rejected: %v", err)
	}

	bad := Record{Study: Study{Date: "2025-05-12"}}
	err := bad.Validate()
	if err == nil {
		t.Fatal("record without patient section accepted")
	}
	var iie *InvalidInputError
	if !errors.As(err, &iie) || iie.Section != "patient" {
		t.Fatalf("got %v, want InvalidInputError{patient}", err)
	}
}
