// Package movie describes the catalog document the text index is built over.
// Documents are owned by the external store; this package only decodes them
// for search hits.
package movie

import (
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
)

// Indexed field notations. "[]" marks an array segment.
const (
	FieldTitle             = "title"
	FieldDescription       = "description"
	FieldGenres            = "genres[]"
	FieldCastName          = "cast[].name"
	FieldDirectorName      = "director.name"
	FieldWriterName        = "writer.name"
	FieldProductionCompany = "production_company"
)

// Movie is a catalog document.
type Movie struct {
	ID        bson.ObjectID `json:"movie_id" bson:"_id"`
	TraceID   string        `json:"trace_id,omitempty" bson:"trace_id,omitempty"`
	CreatedAt time.Time     `json:"created_at" bson:"created_at"`
	UpdatedAt time.Time     `json:"updated_at" bson:"updated_at"`

	Title              string              `json:"title" bson:"title"`
	Description        string              `json:"description" bson:"description"`
	Genres             []string            `json:"genres" bson:"genres"`
	PosterImageURL     string              `json:"poster_image_url,omitempty" bson:"poster_image_url,omitempty"`
	PhotoURLs          []string            `json:"photo_urls,omitempty" bson:"photo_urls,omitempty"`
	TrailerURL         string              `json:"trailer_url,omitempty" bson:"trailer_url,omitempty"`
	Runtime            time.Duration       `json:"runtime" bson:"runtime"`
	ReleaseDate        time.Time           `json:"release_date" bson:"release_date"`
	ParentalGuidances  []*ParentalGuidance `json:"parental_guide,omitempty" bson:"parental_guide,omitempty"`
	Dub                Language            `json:"dub" bson:"dub"`
	AvailableSubtitles []Language          `json:"available_subtitles,omitempty" bson:"available_subtitles,omitempty"`

	Cast              []*People `json:"cast" bson:"cast"`
	Director          *People   `json:"director" bson:"director"`
	Writer            *People   `json:"writer" bson:"writer"`
	ProductionCompany string    `json:"production_company" bson:"production_company"`
}

// People is a credited person.
type People struct {
	Name string `json:"name" bson:"name"`
}

// Language is a spoken or subtitle language.
type Language struct {
	Name string `json:"name" bson:"name"`
	Code string `json:"code" bson:"code"`
}

// ParentalGuidance is a rating in one country.
type ParentalGuidance struct {
	Code        string `json:"code" bson:"code"`
	CountryCode string `json:"country_code" bson:"country_code"` // ISO 3166-1 alpha-2
}

// Summary is a one-line description: title, release year and genres.
func (m *Movie) Summary() string {
	var b strings.Builder
	b.WriteString(m.Title)
	if !m.ReleaseDate.IsZero() {
		b.WriteString(" (")
		b.WriteString(m.ReleaseDate.Format("2006"))
		b.WriteString(")")
	}
	if len(m.Genres) > 0 {
		b.WriteString(" [")
		b.WriteString(strings.Join(m.Genres, ", "))
		b.WriteString("]")
	}
	return b.String()
}
