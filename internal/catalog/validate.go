package catalog

import (
	"errors"
	"fmt"

	"wellcoach_backend/internal/model"
)

var ErrInvalidCatalog = errors.New("invalid catalog")

func invalid(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidCatalog, fmt.Sprintf(format, args...))
}

func validate(modules []model.TrainingModule) error {
	if len(modules) == 0 {
		return invalid("no modules defined")
	}

	moduleIDs := make(map[string]bool, len(modules))
	for _, m := range modules {
		if m.ID == "" {
			return invalid("module #%d has no id", m.Number)
		}
		if moduleIDs[m.ID] {
			return invalid("duplicate module id %q", m.ID)
		}
		moduleIDs[m.ID] = true
	}

	// 小节、练习、资源 id 全局唯一，提交记录只按 id 引用
	sectionIDs := map[string]bool{}
	exerciseIDs := map[string]bool{}
	resourceIDs := map[string]bool{}

	for _, m := range modules {
		if len(m.Sections) == 0 {
			return invalid("module %q has no sections", m.ID)
		}
		for _, p := range m.Prerequisites {
			if p == m.ID {
				return invalid("module %q lists itself as a prerequisite", m.ID)
			}
			if !moduleIDs[p] {
				return invalid("module %q requires unknown module %q", m.ID, p)
			}
		}
		for _, sec := range m.Sections {
			if sec.ID == "" {
				return invalid("module %q has a section without id", m.ID)
			}
			if sectionIDs[sec.ID] {
				return invalid("duplicate section id %q", sec.ID)
			}
			sectionIDs[sec.ID] = true
			for _, ex := range sec.Exercises {
				if ex.ID == "" {
					return invalid("section %q has an exercise without id", sec.ID)
				}
				if exerciseIDs[ex.ID] {
					return invalid("duplicate exercise id %q", ex.ID)
				}
				exerciseIDs[ex.ID] = true
				if !ex.Type.Valid() {
					return invalid("exercise %q has unknown type %q", ex.ID, ex.Type)
				}
			}
		}
		for _, r := range m.Resources {
			if r.ID == "" {
				return invalid("module %q has a resource without id", m.ID)
			}
			if resourceIDs[r.ID] {
				return invalid("duplicate resource id %q", r.ID)
			}
			resourceIDs[r.ID] = true
		}
	}
	return nil
}
