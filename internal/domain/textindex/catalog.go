package textindex

import "github.com/kailas-cloud/movieidx/internal/domain/movie"

// MovieCatalogFields is the weighted field set of the movie catalog text index,
// in the order the index keys are declared.
//
//	title 10, description 3, genres 5, cast.name 3,
//	director.name 2, writer.name 2, production_company 1
func MovieCatalogFields() []Field {
	return []Field{
		MustField(movie.FieldTitle, 10),
		MustField(movie.FieldDescription, 3),
		MustField(movie.FieldGenres, 5),
		MustField(movie.FieldCastName, 3),
		MustField(movie.FieldDirectorName, 2),
		MustField(movie.FieldWriterName, 2),
		MustField(movie.FieldProductionCompany, 1),
	}
}

// MovieCatalog builds the movie catalog text index definition.
func MovieCatalog(opts ...Option) (Index, error) {
	return New(MovieCatalogFields(), opts...)
}
