package models

import (
	"testing"
	"time"
)

func TestOfficialValidate(t *testing.T) {
	valid := &Official{Chamber: ChamberAssembly, Slug: "jean-dupont", LastName: "Dupont"}
	if err := valid.Validate(); err != nil {
		t.Fatalf("expected valid official, got error: %v", err)
	}

	for _, o := range []*Official{
		{Slug: "jean-dupont", LastName: "Dupont"},
		{Chamber: ChamberSenate, LastName: "Dupont"},
		{Chamber: ChamberSenate, Slug: "jean-dupont"},
	} {
		if err := o.Validate(); err == nil {
			t.Fatalf("expected error for %+v", o)
		}
	}
}

func TestOfficialKey(t *testing.T) {
	o := &Official{Chamber: ChamberSenate, Slug: "marie-curie", FirstName: "Marie", LastName: "Curie"}
	cols, vals := o.KeyColumns(), o.KeyValues()
	if len(cols) != 2 || cols[0] != "chamber" || cols[1] != "slug" {
		t.Fatalf("unexpected key columns: %v", cols)
	}
	if vals[0] != ChamberSenate || vals[1] != "marie-curie" {
		t.Fatalf("unexpected key values: %v", vals)
	}
}

func TestMunicipalOfficerValidate(t *testing.T) {
	m := &MunicipalOfficer{CommuneCode: "01001", Identity: "dupont-jean-1960-01-02", LastName: "Dupont"}
	if err := m.Validate(); err != nil {
		t.Fatalf("expected valid officer, got error: %v", err)
	}
	if cols := m.KeyColumns(); len(cols) != 2 || cols[0] != "commune_code" || cols[1] != "identity" {
		t.Fatalf("unexpected key columns: %v", cols)
	}

	m.CommuneCode = ""
	if err := m.Validate(); err == nil {
		t.Fatalf("expected error without commune code")
	}
}

func TestCommuneAndVoteValidate(t *testing.T) {
	if err := (&Commune{Code: "75056", Name: "Paris"}).Validate(); err != nil {
		t.Fatalf("expected valid commune, got %v", err)
	}
	if err := (&Commune{Name: "Paris"}).Validate(); err == nil {
		t.Fatalf("expected error for commune without code")
	}

	v := &Vote{UID: "VTANR5L17V1", Title: "l'ensemble du projet de loi"}
	if err := v.Validate(); err != nil {
		t.Fatalf("expected valid vote, got %v", err)
	}
	if err := (&Vote{UID: "x"}).Validate(); err == nil {
		t.Fatalf("expected error for vote without title")
	}
}

func TestStringArray(t *testing.T) {
	v, err := StringArray{}.Value()
	if err != nil || v != "[]" {
		t.Fatalf("expected empty JSON array, got %v (%v)", v, err)
	}
	v, err = StringArray{"75001", "75002"}.Value()
	if err != nil || v != `["75001","75002"]` {
		t.Fatalf("unexpected value %v (%v)", v, err)
	}

	var s StringArray
	if err := s.Scan([]byte(`["01400"]`)); err != nil || len(s) != 1 || s[0] != "01400" {
		t.Fatalf("unexpected scan result %v (%v)", s, err)
	}
	if err := s.Scan(nil); err != nil || len(s) != 0 {
		t.Fatalf("expected empty array from NULL, got %v (%v)", s, err)
	}
	if err := s.Scan(42); err == nil {
		t.Fatalf("expected error for unsupported type")
	}
}

func TestJobStatusAndDuration(t *testing.T) {
	if JobRunning.Terminal() || !JobCompleted.Terminal() || !JobFailed.Terminal() {
		t.Fatalf("unexpected terminal states")
	}

	start := time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC)
	j := &SyncJob{StartedAt: start}
	if j.Duration() != 0 {
		t.Fatalf("expected zero duration while running")
	}
	end := start.Add(90 * time.Second)
	j.FinishedAt = &end
	if j.Duration() != 90*time.Second {
		t.Fatalf("unexpected duration %s", j.Duration())
	}
}

func TestAllDatasetsOrder(t *testing.T) {
	got := AllDatasets()
	want := []DatasetType{DatasetDeputies, DatasetSenators, DatasetMunicipalOfficers, DatasetCommunes, DatasetVotes}
	if len(got) != len(want) {
		t.Fatalf("expected %d datasets, got %d", len(want), len(got))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("position %d: expected %s, got %s", i, want[i], got[i])
		}
	}
}
