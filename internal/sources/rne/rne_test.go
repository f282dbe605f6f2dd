package rne

import (
	"context"
	"errors"
	"testing"

	"github.com/mkoziy/civic/exporter/internal/models"
	"github.com/mkoziy/civic/exporter/internal/parse"
	"github.com/mkoziy/civic/exporter/internal/sources"
)

func row(fields map[string]string) parse.Record {
	return parse.Record{Index: 2, Origin: "line 2", Fields: fields}
}

func TestMapMunicipalOfficer(t *testing.T) {
	e, err := MapMunicipalOfficer(context.Background(), row(map[string]string{
		colDepartmentCode: "01",
		colDepartmentName: "Ain",
		colCommuneCode:    "01001",
		colCommuneName:    "L'Abergement-Clémenciat",
		colLastName:       "DUPONT",
		colFirstName:      "Hélène",
		colGender:         "F",
		colBirthDate:      "02/03/1960",
		colFunction:       "Maire",
		colMandateStart:   "18/05/2020",
	}), nil)
	if err != nil {
		t.Fatalf("MapMunicipalOfficer() error: %v", err)
	}
	m := e.(*models.MunicipalOfficer)
	if m.Identity != "dupont-helene-1960-03-02" {
		t.Errorf("Identity = %q", m.Identity)
	}
	if m.Function == nil || *m.Function != "Maire" {
		t.Errorf("Function = %v, want Maire", m.Function)
	}
	if m.ProfessionCode != nil {
		t.Error("absent profession must be nil")
	}
	if m.BirthDate == nil || m.BirthDate.Year() != 1960 {
		t.Errorf("BirthDate = %v", m.BirthDate)
	}
}

func TestIdentityUnknownBirthDate(t *testing.T) {
	if got := Identity("Martin", "Paul", parse.ParseDate("")); got != "martin-paul-unknown" {
		t.Fatalf("Identity = %q", got)
	}
	a := Identity("Lefèvre", "Zoé", parse.ParseDate("1980-01-01"))
	b := Identity("LEFEVRE", "Zoe", parse.ParseDate("01/01/1980"))
	if a != b {
		t.Fatalf("identity not stable across spellings: %q vs %q", a, b)
	}
}

func TestMapMunicipalOfficerMissingCommune(t *testing.T) {
	_, err := MapMunicipalOfficer(context.Background(), row(map[string]string{colLastName: "X"}), nil)
	var merr *sources.MappingError
	if !errors.As(err, &merr) || merr.Field != colCommuneCode {
		t.Fatalf("expected MappingError on commune code, got %v", err)
	}
}
