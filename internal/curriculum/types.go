package curriculum

// Level is a chapter's difficulty
type Level string

const (
	LevelBeginner     Level = "Beginner"
	LevelIntermediate Level = "Intermediate"
	LevelAdvanced     Level = "Advanced"
)

// Points returns the score a finished chapter of this level is worth
func (l Level) Points() int {
	switch l {
	case LevelAdvanced:
		return 30
	case LevelIntermediate:
		return 20
	case LevelBeginner:
		return 10
	default:
		return 0
	}
}

// Valid reports whether the level is one of the known difficulties
func (l Level) Valid() bool {
	return l == LevelBeginner || l == LevelIntermediate || l == LevelAdvanced
}

// SectionStatus marks whether a section is open to learners
type SectionStatus string

const (
	SectionAvailable  SectionStatus = "available"
	SectionComingSoon SectionStatus = "coming-soon"
	SectionLocked     SectionStatus = "locked"
)

// Section is the smallest completable unit
type Section struct {
	ID     string        `json:"id"`
	Title  string        `json:"title"`
	Status SectionStatus `json:"status"`
}

// Available returns true if the section counts toward completion
func (s Section) Available() bool {
	return s.Status == SectionAvailable
}

// Chapter is an ordered unit within a module
type Chapter struct {
	ID       string    `json:"id"`
	Title    string    `json:"title"`
	Level    Level     `json:"level"`
	Sections []Section `json:"sections"`
}

// AvailableSectionIDs returns the ids of sections that count toward completion
func (c *Chapter) AvailableSectionIDs() []string {
	ids := make([]string, 0, len(c.Sections))
	for _, s := range c.Sections {
		if s.Available() {
			ids = append(ids, s.ID)
		}
	}
	return ids
}

// Module is a top-level course
type Module struct {
	ID          ModuleID  `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description,omitempty"`
	Scoring     Scoring   `json:"scoring"`
	ClaimMode   ClaimMode `json:"claimMode"`
	Chapters    []Chapter `json:"chapters"`
}

// Chapter returns a chapter by id, or nil
func (m *Module) Chapter(id string) *Chapter {
	for i := range m.Chapters {
		if m.Chapters[i].ID == id {
			return &m.Chapters[i]
		}
	}
	return nil
}

// Tier is one rung of the certification ladder
type Tier struct {
	LevelKey           string   `json:"levelKey"`
	Name               string   `json:"name"`
	Level              int      `json:"level"`
	RequiredChallenges []string `json:"requiredChallenges"`
}
