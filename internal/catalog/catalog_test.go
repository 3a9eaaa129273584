package catalog

import (
	"errors"
	"testing"

	"wellcoach_backend/internal/model"
	"wellcoach_backend/internal/util"
)

func TestDefaultCatalogLoads(t *testing.T) {
	c, err := Load("")
	if err != nil {
		t.Fatalf("load default catalog: %v", err)
	}
	mods := c.Modules()
	if len(mods) == 0 {
		t.Fatal("expected modules in default catalog")
	}
	for i := 1; i < len(mods); i++ {
		if mods[i-1].Number > mods[i].Number {
			t.Fatalf("modules not ordered: %d before %d", mods[i-1].Number, mods[i].Number)
		}
	}

	m, err := c.Module("wellbeing-foundations")
	if err != nil {
		t.Fatalf("module lookup: %v", err)
	}
	if m.TotalSections() != 3 {
		t.Fatalf("expected 3 sections, got %d", m.TotalSections())
	}
	if m.TotalExercises() != 4 {
		t.Fatalf("expected 4 exercises, got %d", m.TotalExercises())
	}
	for _, sec := range m.Sections {
		if sec.ModuleID != m.ID {
			t.Fatalf("section %s has module id %q", sec.ID, sec.ModuleID)
		}
		for _, ex := range sec.Exercises {
			if ex.SectionID != sec.ID {
				t.Fatalf("exercise %s has section id %q", ex.ID, ex.SectionID)
			}
		}
	}
}

func TestModuleNotFound(t *testing.T) {
	c, err := Load("")
	if err != nil {
		t.Fatal(err)
	}
	if _, err := c.Module("nope"); !errors.Is(err, util.ErrModuleNotFound) {
		t.Fatalf("expected ErrModuleNotFound, got %v", err)
	}
	if _, _, _, err := FindExercise(c, "nope", "x"); !errors.Is(err, util.ErrModuleNotFound) {
		t.Fatalf("expected ErrModuleNotFound, got %v", err)
	}
}

func TestFindExercise(t *testing.T) {
	c, err := Load("")
	if err != nil {
		t.Fatal(err)
	}
	ex, sec, ok, err := FindExercise(c, "wellbeing-foundations", "wf-stress-quiz")
	if err != nil || !ok {
		t.Fatalf("expected exercise, ok=%v err=%v", ok, err)
	}
	if sec.ID != "wf-stress-response" || ex.Type != "quiz" {
		t.Fatalf("unexpected match: section=%s type=%s", sec.ID, ex.Type)
	}
	if _, _, ok, _ := FindExercise(c, "wellbeing-foundations", "missing"); ok {
		t.Fatal("expected missing exercise not to be found")
	}
}

func TestSectionsSortedByOrder(t *testing.T) {
	c, err := Parse([]byte(`
modules:
  - id: m1
    number: 1
    title: One
    sections:
      - id: b
        order: 2
      - id: a
        order: 1
`))
	if err != nil {
		t.Fatal(err)
	}
	m, _ := c.Module("m1")
	if m.Sections[0].ID != "a" || m.Sections[1].ID != "b" {
		t.Fatalf("sections not sorted: %s, %s", m.Sections[0].ID, m.Sections[1].ID)
	}
}

func TestValidation(t *testing.T) {
	tests := []struct {
		name string
		doc  string
	}{
		{"empty", `modules: []`},
		{"duplicate module", `
modules:
  - {id: m1, number: 1, sections: [{id: s1, order: 1}]}
  - {id: m1, number: 2, sections: [{id: s2, order: 1}]}
`},
		{"no sections", `
modules:
  - {id: m1, number: 1}
`},
		{"duplicate section", `
modules:
  - {id: m1, number: 1, sections: [{id: s1, order: 1}, {id: s1, order: 2}]}
`},
		{"unknown exercise type", `
modules:
  - id: m1
    number: 1
    sections:
      - id: s1
        order: 1
        exercises: [{id: e1, type: dance}]
`},
		{"duplicate exercise", `
modules:
  - id: m1
    number: 1
    sections:
      - id: s1
        order: 1
        exercises: [{id: e1, type: quiz}, {id: e1, type: reflection}]
`},
		{"dangling prerequisite", `
modules:
  - {id: m1, number: 1, prerequisites: [m9], sections: [{id: s1, order: 1}]}
`},
		{"self prerequisite", `
modules:
  - {id: m1, number: 1, prerequisites: [m1], sections: [{id: s1, order: 1}]}
`},
		{"duplicate resource", `
modules:
  - id: m1
    number: 1
    sections: [{id: s1, order: 1}]
    resources: [{id: r1, kind: pdf}, {id: r1, kind: link}]
`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.doc))
			if !errors.Is(err, ErrInvalidCatalog) {
				t.Fatalf("expected ErrInvalidCatalog, got %v", err)
			}
		})
	}
}

func TestCatalogIsolatedFromCallers(t *testing.T) {
	input := []model.TrainingModule{{
		ID:     "m1",
		Number: 1,
		Title:  "One",
		Sections: []model.ModuleSection{
			{ID: "b", Order: 2},
			{ID: "a", Order: 1, Exercises: []model.Exercise{
				{ID: "q1", Type: model.ExQuiz, Config: map[string]any{"answers": []any{"x"}}},
			}},
		},
	}}
	c, err := New(input)
	if err != nil {
		t.Fatal(err)
	}
	if input[0].Sections[0].ID != "b" || input[0].Sections[1].Exercises[0].SectionID != "" {
		t.Fatalf("input modified by New: %+v", input[0].Sections)
	}

	m, _ := c.Module("m1")
	m.Sections[0].Title = "changed"
	m.Sections[0].Exercises[0].Config["answers"].([]any)[0] = "y"
	m.Sections = m.Sections[:1]

	list := c.Modules()
	list[0].Sections[1].ID = "z"

	again, _ := c.Module("m1")
	if again.TotalSections() != 2 || again.Sections[1].ID != "b" {
		t.Fatalf("catalog sections changed: %+v", again.Sections)
	}
	if again.Sections[0].Title != "" {
		t.Fatalf("section title leaked: %q", again.Sections[0].Title)
	}
	if got := again.Sections[0].Exercises[0].Config["answers"].([]any)[0]; got != "x" {
		t.Fatalf("exercise config leaked: %v", got)
	}
}
