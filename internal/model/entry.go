package model

import "time"

const (
	KindBook    = "book"
	KindArticle = "article"
)

const (
	StatusPlanned    = "planned"
	StatusInProgress = "in_progress"
	StatusFinished   = "finished"
)

// Entry is one item on a user's reading list.
type Entry struct {
	ID        uint64
	Title     string
	Kind      string
	Link      *string
	Status    string
	OwnerID   uint64
	CreatedAt time.Time
	UpdatedAt time.Time
}

func ValidKind(k string) bool { return k == KindBook || k == KindArticle }

func ValidStatus(s string) bool {
	return s == StatusPlanned || s == StatusInProgress || s == StatusFinished
}
