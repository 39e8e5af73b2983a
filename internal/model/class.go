package model

import "time"

// Levels offered by the catalog filter. LevelAll disables filtering.
const (
	LevelAll          = "Todos"
	LevelBeginner     = "Principiante"
	LevelIntermediate = "Intermedio"
	LevelAdvanced     = "Avanzado"
)

var Levels = []string{LevelAll, LevelBeginner, LevelIntermediate, LevelAdvanced}

// ClassRef is the subset of a class used for purchase matching.
type ClassRef struct {
	ID               int    `json:"id"`
	DocumentID       string `json:"document_id,omitempty"`
	Slug             string `json:"slug"`
	Title            string `json:"title,omitempty"`
	ThumbnailURL     string `json:"thumbnail_url,omitempty"`
	PreviewVideoRef  string `json:"-"`
	ExternalVideoRef string `json:"-"`
}

type Class struct {
	ID               int       `json:"id"`
	DocumentID       string    `json:"document_id"`
	Title            string    `json:"title"`
	Slug             string    `json:"slug"`
	Price            float64   `json:"price"`
	Level            string    `json:"level,omitempty"`
	DurationMinutes  int       `json:"duration_minutes,omitempty"`
	Description      []Block   `json:"-"`
	ThumbnailURL     string    `json:"thumbnail_url,omitempty"`
	PreviewVideoRef  string    `json:"-"`
	ExternalVideoRef string    `json:"-"`
	Link             string    `json:"-"`
	CreatedAt        time.Time `json:"created_at"`
}

func (c Class) Ref() ClassRef {
	return ClassRef{
		ID:               c.ID,
		DocumentID:       c.DocumentID,
		Slug:             c.Slug,
		Title:            c.Title,
		ThumbnailURL:     c.ThumbnailURL,
		PreviewVideoRef:  c.PreviewVideoRef,
		ExternalVideoRef: c.ExternalVideoRef,
	}
}

// WithoutVideo returns a copy of c that carries no playable video reference.
func (c Class) WithoutVideo() Class {
	c.ExternalVideoRef = ""
	c.Link = ""
	return c
}

// Block is one rich-text node as stored by the backend.
type Block struct {
	Type     string        `json:"type"`
	Level    int           `json:"level,omitempty"`
	Children []InlineBlock `json:"children,omitempty"`
}

type InlineBlock struct {
	Type string `json:"type,omitempty"`
	Text string `json:"text"`
}

type PaymentPreference struct {
	SessionID string `json:"session_id"`
}
