package insee

import (
	"context"
	"testing"

	"github.com/mkoziy/civic/exporter/internal/models"
	"github.com/mkoziy/civic/exporter/internal/parse"
)

func TestMapCommune(t *testing.T) {
	e, err := MapCommune(context.Background(), parse.Record{Fields: map[string]string{
		"code":            "01001",
		"nom":             "L'Abergement-Clémenciat",
		"codeDepartement": "01",
		"codeRegion":      "84",
		"codesPostaux":    "01400",
		"codesPostaux.1":  "01401",
		"population":      "859",
	}}, nil)
	if err != nil {
		t.Fatalf("MapCommune() error: %v", err)
	}
	c := e.(*models.Commune)
	if c.Code != "01001" || c.Population == nil || *c.Population != 859 {
		t.Fatalf("unexpected commune %+v", c)
	}
	if len(c.PostalCodes) != 2 || c.PostalCodes[1] != "01401" {
		t.Errorf("PostalCodes = %v", c.PostalCodes)
	}
}

func TestMapCommuneWithoutPopulation(t *testing.T) {
	e, err := MapCommune(context.Background(), parse.Record{Fields: map[string]string{"code": "97501", "nom": "Saint-Pierre"}}, nil)
	if err != nil {
		t.Fatalf("MapCommune() error: %v", err)
	}
	if c := e.(*models.Commune); c.Population != nil || c.DepartmentCode != nil {
		t.Fatalf("absent values must stay nil: %+v", c)
	}
	if _, err := MapCommune(context.Background(), parse.Record{Fields: map[string]string{"nom": "x"}}, nil); err == nil {
		t.Fatal("expected error without code")
	}
}
