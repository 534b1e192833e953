package models

import (
	"sort"
	"time"
)

// CompletionRecord is a learner's completion snapshot for one module.
// Chapters maps chapter id to the sorted set of completed section ids.
type CompletionRecord struct {
	UserAddress       string              `json:"userAddress"`
	ModuleID          string              `json:"moduleId"`
	Chapters          map[string][]string `json:"chapters"`
	CompletedChapters []string            `json:"completedChapters"`
	ChapterPoints     map[string]int      `json:"chapterPoints,omitempty"`
	Points            int                 `json:"points"`
	IsCompleted       bool                `json:"isCompleted"`
	Version           int64               `json:"version"`
	UpdatedAt         time.Time           `json:"updatedAt"`
}

// NewCompletionRecord returns an empty, never-persisted record
func NewCompletionRecord(userAddress, moduleID string) *CompletionRecord {
	return &CompletionRecord{
		UserAddress:       userAddress,
		ModuleID:          moduleID,
		Chapters:          make(map[string][]string),
		CompletedChapters: []string{},
	}
}

// AddSection records a section as completed. Returns false if it already was.
func (r *CompletionRecord) AddSection(chapterID, sectionID string) bool {
	if r.Chapters == nil {
		r.Chapters = make(map[string][]string)
	}
	sections := r.Chapters[chapterID]
	i := sort.SearchStrings(sections, sectionID)
	if i < len(sections) && sections[i] == sectionID {
		return false
	}
	sections = append(sections, "")
	copy(sections[i+1:], sections[i:])
	sections[i] = sectionID
	r.Chapters[chapterID] = sections
	return true
}

// SetChapter replaces a chapter's completed sections with the given ids
func (r *CompletionRecord) SetChapter(chapterID string, sectionIDs []string) {
	if r.Chapters == nil {
		r.Chapters = make(map[string][]string)
	}
	r.Chapters[chapterID] = uniqueSorted(sectionIDs)
}

// Clone returns a deep copy
func (r *CompletionRecord) Clone() *CompletionRecord {
	if r == nil {
		return nil
	}
	c := *r
	c.Chapters = make(map[string][]string, len(r.Chapters))
	for k, v := range r.Chapters {
		c.Chapters[k] = append([]string(nil), v...)
	}
	c.CompletedChapters = append([]string{}, r.CompletedChapters...)
	if r.ChapterPoints != nil {
		c.ChapterPoints = make(map[string]int, len(r.ChapterPoints))
		for k, v := range r.ChapterPoints {
			c.ChapterPoints[k] = v
		}
	}
	return &c
}

func uniqueSorted(ids []string) []string {
	out := make([]string, 0, len(ids))
	seen := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}

// CompleteSectionRequest records one section (or a whole chapter) as done
type CompleteSectionRequest struct {
	UserAddress     string `json:"userAddress" validate:"required,eth_addr"`
	ModuleID        string `json:"moduleId" validate:"required"`
	ChapterID       string `json:"chapterId" validate:"required"`
	SectionID       string `json:"sectionId" validate:"required"`
	FinalizeChapter bool   `json:"finalizeChapter,omitempty"`
}

// Validate checks required fields
func (r *CompleteSectionRequest) Validate() error {
	return Validate(r)
}
