package curriculum

import (
	_ "embed"
	"fmt"
	"log/slog"
	"os"

	"gopkg.in/yaml.v3"
)

//go:embed catalog/default.yaml
var defaultCatalog []byte

// LoadDefault builds a registry from the catalog compiled into the binary
func LoadDefault() (*Registry, error) {
	return Load(defaultCatalog)
}

// LoadFromFile builds a registry from a catalog YAML file
func LoadFromFile(path string) (*Registry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read catalog: %w", err)
	}
	return Load(data)
}

// Load parses and validates a catalog document
func Load(data []byte) (*Registry, error) {
	var cf catalogFile
	if err := yaml.Unmarshal(data, &cf); err != nil {
		return nil, fmt.Errorf("failed to parse catalog YAML: %w", err)
	}

	reg := &Registry{
		modules:    make(map[ModuleID]*Module),
		challenges: make(map[string]struct{}),
	}

	for _, mf := range cf.Modules {
		mod, err := buildModule(mf)
		if err != nil {
			return nil, err
		}
		if _, dup := reg.modules[mod.ID]; dup {
			return nil, fmt.Errorf("module %s defined twice", mod.ID)
		}
		reg.modules[mod.ID] = mod
	}

	if _, ok := reg.modules[DefaultModule]; !ok {
		return nil, fmt.Errorf("default module %s must be defined", DefaultModule)
	}

	levelKeys := make(map[string]struct{}, len(cf.Certifications))
	for _, tf := range cf.Certifications {
		if tf.LevelKey == "" {
			return nil, fmt.Errorf("certification level_key is required")
		}
		if _, dup := levelKeys[tf.LevelKey]; dup {
			return nil, fmt.Errorf("certification %s defined twice", tf.LevelKey)
		}
		levelKeys[tf.LevelKey] = struct{}{}

		if len(tf.RequiredChallenges) == 0 {
			return nil, fmt.Errorf("certification %s requires at least one challenge", tf.LevelKey)
		}

		name := tf.Name
		if name == "" {
			name = tf.LevelKey
		}
		reg.tiers = append(reg.tiers, Tier{
			LevelKey:           tf.LevelKey,
			Name:               name,
			Level:              tf.Level,
			RequiredChallenges: dedupe(tf.RequiredChallenges),
		})
		for _, c := range tf.RequiredChallenges {
			reg.challenges[c] = struct{}{}
		}
	}

	slog.Info("curriculum loaded",
		"modules", len(reg.modules),
		"tiers", len(reg.tiers),
		"challenges", len(reg.challenges),
	)
	return reg, nil
}

func buildModule(mf moduleFile) (*Module, error) {
	id, ok := ParseModuleID(mf.ID)
	if !ok {
		return nil, fmt.Errorf("unknown module %q", mf.ID)
	}

	mod := &Module{
		ID:          id,
		Title:       mf.Title,
		Description: mf.Description,
		Scoring:     id.Scoring(),
		ClaimMode:   id.ClaimMode(),
	}
	if mod.Title == "" {
		mod.Title = id.String()
	}

	chapterIDs := make(map[string]struct{}, len(mf.Chapters))
	for _, cf := range mf.Chapters {
		if cf.ID == "" {
			return nil, fmt.Errorf("module %s: chapter id is required", id)
		}
		if _, dup := chapterIDs[cf.ID]; dup {
			return nil, fmt.Errorf("module %s: chapter %s defined twice", id, cf.ID)
		}
		chapterIDs[cf.ID] = struct{}{}

		level := Level(cf.Level)
		if level == "" {
			level = LevelBeginner
		}
		if !level.Valid() {
			return nil, fmt.Errorf("module %s: chapter %s has unknown level %q", id, cf.ID, cf.Level)
		}

		chapter := Chapter{ID: cf.ID, Title: cf.Title, Level: level}
		sectionIDs := make(map[string]struct{}, len(cf.Sections))
		for _, sf := range cf.Sections {
			if sf.ID == "" {
				return nil, fmt.Errorf("module %s: chapter %s: section id is required", id, cf.ID)
			}
			if _, dup := sectionIDs[sf.ID]; dup {
				return nil, fmt.Errorf("module %s: chapter %s: section %s defined twice", id, cf.ID, sf.ID)
			}
			sectionIDs[sf.ID] = struct{}{}

			status := SectionStatus(sf.Status)
			if status == "" {
				status = SectionAvailable
			}
			chapter.Sections = append(chapter.Sections, Section{ID: sf.ID, Title: sf.Title, Status: status})
		}
		mod.Chapters = append(mod.Chapters, chapter)
	}

	return mod, nil
}

func dedupe(ids []string) []string {
	out := make([]string, 0, len(ids))
	seen := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}

// --- YAML file structs ---

type catalogFile struct {
	Modules        []moduleFile `yaml:"modules"`
	Certifications []tierFile   `yaml:"certifications"`
}

type moduleFile struct {
	ID          string        `yaml:"id"`
	Title       string        `yaml:"title"`
	Description string        `yaml:"description"`
	Chapters    []chapterFile `yaml:"chapters"`
}

type chapterFile struct {
	ID       string        `yaml:"id"`
	Title    string        `yaml:"title"`
	Level    string        `yaml:"level"`
	Sections []sectionFile `yaml:"sections"`
}

type sectionFile struct {
	ID     string `yaml:"id"`
	Title  string `yaml:"title"`
	Status string `yaml:"status"`
}

type tierFile struct {
	LevelKey           string   `yaml:"level_key"`
	Name               string   `yaml:"name"`
	Level              int      `yaml:"level"`
	RequiredChallenges []string `yaml:"required_challenges"`
}
