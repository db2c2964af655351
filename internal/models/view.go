package models

import (
	"crypto/sha256"
	"encoding/hex"
	"time"

	"gorm.io/gorm"

	"github.com/jmylchreest/supervideo/internal/classifier"
)

// MaxURLLength bounds the stored URL column.
const MaxURLLength = 2048

// HashURL returns the hex SHA-256 of rawURL, the identity of a View.
func HashURL(rawURL string) string {
	sum := sha256.Sum256([]byte(rawURL))
	return hex.EncodeToString(sum[:])
}

// View records how far a viewer got through one media URL.
type View struct {
	BaseModel

	// URL is the embedded media URL exactly as classified.
	URL string `gorm:"not null;size:2048" json:"url"`

	// URLHash is HashURL(URL) and identifies the record (unique index).
	URLHash string `gorm:"uniqueIndex;not null;size:64" json:"url_hash"`

	// Kind is the embed kind the URL classified as.
	Kind classifier.MediaKind `gorm:"not null;size:32;index" json:"kind"`

	// Playback position and length, in seconds. CURRENT_TIME is reserved
	// in SQL, hence the column name.
	CurrentTime int `gorm:"column:playback_position;default:0" json:"current_time"`
	Duration    int `gorm:"default:0" json:"duration"`

	// Percent watched, 0..100.
	Percent int `gorm:"default:0" json:"percent"`

	// Mapa is the client-produced view map, stored opaque.
	Mapa string `gorm:"type:text" json:"mapa,omitempty"`

	HitCount   int64 `gorm:"default:0" json:"hit_count"`
	LastSeenAt Time  `gorm:"not null;index" json:"last_seen_at"`
}

// NewView builds an unsaved View for rawURL.
func NewView(rawURL string, kind classifier.MediaKind) *View {
	return &View{
		URL:        rawURL,
		URLHash:    HashURL(rawURL),
		Kind:       kind,
		LastSeenAt: Now(),
	}
}

// TableName returns the table name for View.
func (View) TableName() string {
	return "views"
}

// Validate performs basic validation on the view.
func (v *View) Validate() error {
	if v.URL == "" {
		return ErrURLRequired
	}
	if len(v.URL) > MaxURLLength {
		return ErrValidation{Field: "url", Message: "exceeds 2048 characters"}
	}
	if v.URLHash != HashURL(v.URL) {
		return ErrURLHashMismatch
	}
	if !v.Kind.IsValid() || v.Kind == classifier.KindUnsupported {
		return ErrInvalidKind
	}
	return nil
}

// BeforeCreate is a GORM hook that fills the hash and validates.
func (v *View) BeforeCreate(tx *gorm.DB) error {
	if err := v.BaseModel.BeforeCreate(tx); err != nil {
		return err
	}
	if v.URLHash == "" {
		v.URLHash = HashURL(v.URL)
	}
	if v.LastSeenAt.IsZero() {
		v.LastSeenAt = Now()
	}
	return v.Validate()
}

// BeforeUpdate is a GORM hook that validates before update.
func (v *View) BeforeUpdate(tx *gorm.DB) error {
	return v.Validate()
}

// Touch records another view of the media.
func (v *View) Touch() {
	v.HitCount++
	v.LastSeenAt = Now()
}

// SetProgress stores a playback position and recomputes Percent, clamped
// to 0..100. A zero duration leaves Percent at 0.
func (v *View) SetProgress(currentTime, duration int) {
	v.CurrentTime = currentTime
	v.Duration = duration
	v.Percent = 0
	if duration > 0 {
		v.Percent = min(max(currentTime*100/duration, 0), 100)
	}
}

// IsComplete reports whether the media was watched to the end.
func (v *View) IsComplete() bool {
	return v.Percent >= 100
}

// Remaining returns the unwatched part of the media.
func (v *View) Remaining() time.Duration {
	if v.Duration <= v.CurrentTime {
		return 0
	}
	return time.Duration(v.Duration-v.CurrentTime) * time.Second
}
