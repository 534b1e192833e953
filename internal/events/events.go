package events

import (
	"context"
	"sync"
	"time"
)

// Event types
const (
	TypeSectionCompleted     = "section_completed"
	TypeCertificationClaimed = "certification_claimed"
)

// ProgressEvent is pushed to a learner's live stream
type ProgressEvent struct {
	Type              string    `json:"type"`
	UserAddress       string    `json:"userAddress"`
	ModuleID          string    `json:"moduleId"`
	ChapterID         string    `json:"chapterId,omitempty"`
	SectionID         string    `json:"sectionId,omitempty"`
	CompletedChapters []string  `json:"completedChapters,omitempty"`
	Points            int       `json:"points"`
	IsCompleted       bool      `json:"isCompleted"`
	Level             int       `json:"level,omitempty"`
	Timestamp         time.Time `json:"timestamp"`
}

// Publisher delivers events to the learner's subscribers
type Publisher interface {
	Publish(ctx context.Context, ev ProgressEvent) error
}

// Subscriber opens a stream of one learner's events
type Subscriber interface {
	Subscribe(ctx context.Context, userAddress string) (*Subscription, error)
}

// Bus is both ends of the event stream
type Bus interface {
	Publisher
	Subscriber
	Close() error
}

// Subscription receives events until Close is called. C is closed once the
// subscription ends.
type Subscription struct {
	C <-chan ProgressEvent

	once    sync.Once
	closeFn func()
}

// Close stops delivery. Safe to call more than once.
func (s *Subscription) Close() {
	s.once.Do(s.closeFn)
}

const subscriberBuffer = 16
