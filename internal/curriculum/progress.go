package curriculum

import "sort"

// ChapterProgress is one chapter's completion state
type ChapterProgress struct {
	ChapterID           string   `json:"chapterId"`
	Level               Level    `json:"level"`
	CompletedSectionIDs []string `json:"completedSectionIds"`
	TotalSections       int      `json:"totalSections"`
	Percent             float64  `json:"percent"`
	Done                bool     `json:"done"`
}

// ModuleProgress is the derived view of a learner's completion record
type ModuleProgress struct {
	ModuleID          ModuleID          `json:"moduleId"`
	Chapters          []ChapterProgress `json:"chapters"`
	CompletedChapters []string          `json:"completedChapters"`
	ChapterPoints     map[string]int    `json:"chapterPoints,omitempty"`
	Points            int               `json:"points"`
	IsCompleted       bool              `json:"isCompleted"`
}

// CalculateProgress derives per-chapter percentages, finished chapters,
// points and module completion from a chapters snapshot. It never fails:
// unknown chapter ids in the snapshot are ignored and sections that are not
// available do not count.
//
// A chapter with no available sections does not block module completion but
// is not listed as finished and earns no points.
func CalculateProgress(mod *Module, chapters map[string][]string) ModuleProgress {
	result := ModuleProgress{
		ModuleID:          mod.ID,
		Chapters:          make([]ChapterProgress, 0, len(mod.Chapters)),
		CompletedChapters: []string{},
		IsCompleted:       true,
	}
	if mod.Scoring == ScoringByLevel {
		result.ChapterPoints = make(map[string]int)
	}

	for i := range mod.Chapters {
		ch := &mod.Chapters[i]
		done := toSet(chapters[ch.ID])

		cp := ChapterProgress{
			ChapterID:           ch.ID,
			Level:               ch.Level,
			CompletedSectionIDs: []string{},
		}
		for _, id := range ch.AvailableSectionIDs() {
			cp.TotalSections++
			if _, ok := done[id]; ok {
				cp.CompletedSectionIDs = append(cp.CompletedSectionIDs, id)
			}
		}
		sort.Strings(cp.CompletedSectionIDs)

		completed := len(cp.CompletedSectionIDs)
		if cp.TotalSections > 0 {
			cp.Percent = 100 * float64(completed) / float64(cp.TotalSections)
		}

		if completed < cp.TotalSections {
			result.IsCompleted = false
		}

		if cp.TotalSections > 0 && completed == cp.TotalSections {
			cp.Done = true
			result.CompletedChapters = append(result.CompletedChapters, ch.ID)
			if mod.Scoring == ScoringByLevel {
				points := ch.Level.Points()
				result.ChapterPoints[ch.ID] = points
				result.Points += points
			}
		}

		result.Chapters = append(result.Chapters, cp)
	}

	return result
}

// Chapter returns progress for one chapter, or nil
func (p *ModuleProgress) Chapter(id string) *ChapterProgress {
	for i := range p.Chapters {
		if p.Chapters[i].ChapterID == id {
			return &p.Chapters[i]
		}
	}
	return nil
}

func toSet(ids []string) map[string]struct{} {
	set := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		set[id] = struct{}{}
	}
	return set
}
