package catalog

import (
	_ "embed"
	"fmt"
	"os"
	"sort"

	"wellcoach_backend/internal/model"
	"wellcoach_backend/internal/util"

	"gopkg.in/yaml.v3"
)

//go:embed catalog.yaml
var defaultCatalog []byte

// Catalog 只读的模块目录
type Catalog interface {
	Modules() []model.TrainingModule
	Module(id string) (*model.TrainingModule, error)
}

type document struct {
	Modules []model.TrainingModule `yaml:"modules"`
}

// Static 加载后不可变，可并发读取
type Static struct {
	modules []model.TrainingModule
	index   map[string]int
}

// Load 读取 path 指定的目录文件，path 为空时使用内置目录
func Load(path string) (*Static, error) {
	if path == "" {
		return Parse(defaultCatalog)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read catalog %s: %w", path, err)
	}
	return Parse(data)
}

func Parse(data []byte) (*Static, error) {
	var doc document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse catalog: %w", err)
	}
	return New(doc.Modules)
}

// New 校验并规范化模块：小节按序号排序，回填父级 id。入参先深拷贝，不会被修改
func New(modules []model.TrainingModule) (*Static, error) {
	mods := make([]model.TrainingModule, len(modules))
	for i := range modules {
		mods[i] = modules[i].Clone()
	}

	for i := range mods {
		m := &mods[i]
		sort.SliceStable(m.Sections, func(a, b int) bool {
			return m.Sections[a].Order < m.Sections[b].Order
		})
		for j := range m.Sections {
			sec := &m.Sections[j]
			sec.ModuleID = m.ID
			for k := range sec.Exercises {
				sec.Exercises[k].SectionID = sec.ID
			}
		}
	}
	sort.SliceStable(mods, func(a, b int) bool {
		return mods[a].Number < mods[b].Number
	})

	if err := validate(mods); err != nil {
		return nil, err
	}

	index := make(map[string]int, len(mods))
	for i, m := range mods {
		index[m.ID] = i
	}
	return &Static{modules: mods, index: index}, nil
}

func (s *Static) Modules() []model.TrainingModule {
	out := make([]model.TrainingModule, len(s.modules))
	for i := range s.modules {
		out[i] = s.modules[i].Clone()
	}
	return out
}

func (s *Static) Module(id string) (*model.TrainingModule, error) {
	i, ok := s.index[id]
	if !ok {
		return nil, fmt.Errorf("module %q: %w", id, util.ErrModuleNotFound)
	}
	m := s.modules[i].Clone()
	return &m, nil
}

// FindExercise 返回练习及其所在小节；模块不存在时返回 ErrModuleNotFound
func FindExercise(c Catalog, moduleID, exerciseID string) (*model.Exercise, *model.ModuleSection, bool, error) {
	m, err := c.Module(moduleID)
	if err != nil {
		return nil, nil, false, err
	}
	ex, sec, ok := m.FindExercise(exerciseID)
	return ex, sec, ok, nil
}
