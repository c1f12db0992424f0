package ingest

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hubenschmidt/go-bookmatch/catalog"
	"github.com/hubenschmidt/go-bookmatch/core"
)

const booksCSV = `ISBN,Book-Title,Book-Author,Year-Of-Publication,Publisher,Image-URL-S
0195153448,Classical Mythology,Mark P. O. Morford,2002,Oxford University Press,http://x/1.jpg
0002005018,Clara Callan,Richard Bruce Wright,2001,HarperFlamingo Canada,http://x/2.jpg
0060973129,"Decision in Normandy",Carlo D'Este,DK Publishing Inc,HarperPerennial,http://x/3.jpg
0374157065,Flu,Gina Bari Kolata,1999,Farrar Straus Giroux,http://x/4.jpg
`

const ratingsCSV = `User-ID,ISBN,Book-Rating
276725,0195153448,0
276726,0195153448,5
276727,0002005018,8
276729,0060973129,6
276730,9999999999,7
`

func TestReadBooks(t *testing.T) {
	books, err := ReadBooks(context.Background(), strings.NewReader(booksCSV), 0)
	require.NoError(t, err)
	require.Len(t, books, 4)

	assert.Equal(t, "0195153448", books[0].ID)
	assert.Equal(t, "Classical Mythology", books[0].Title)
	assert.Equal(t, "Mark P. O. Morford", books[0].Author)
	assert.Equal(t, "2002", books[0].Year)
	assert.Equal(t, "Oxford University Press", books[0].Publisher)
	assert.Equal(t, "DK Publishing Inc", books[2].Year)
}

func TestReadBooksUnderscoreHeaders(t *testing.T) {
	in := "ISBN;Book_Title;Book_Author;Year_Of_Publication\n1;Dune;Frank Herbert;1965\n"
	books, err := ReadBooks(context.Background(), strings.NewReader(in), ';')
	require.NoError(t, err)
	require.Len(t, books, 1)
	assert.Equal(t, "Dune", books[0].Title)
	assert.Empty(t, books[0].Publisher)
}

func TestReadBooksMissingColumn(t *testing.T) {
	_, err := ReadBooks(context.Background(), strings.NewReader("ISBN,Book-Title\n1,Dune\n"), 0)
	require.Error(t, err)
	assert.True(t, errors.Is(err, core.ErrIngestion))
}

func TestReadRatings(t *testing.T) {
	obs, err := ReadRatings(context.Background(), strings.NewReader(ratingsCSV), 0)
	require.NoError(t, err)
	require.Len(t, obs, 5)
	assert.Equal(t, catalog.Observation{ID: "0195153448", Rating: 0}, obs[0])
	assert.Equal(t, catalog.Observation{ID: "0002005018", Rating: 8}, obs[2])
}

func TestReadRatingsErrors(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{"Empty", ""},
		{"Not a number", "User-ID,ISBN,Book-Rating\n1,0195153448,great\n"},
		{"NaN", "User-ID,ISBN,Book-Rating\n1,0195153448,NaN\n"},
		{"Missing id", "User-ID,ISBN,Book-Rating\n1,,5\n"},
		{"No rating column", "User-ID,ISBN\n1,0195153448\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ReadRatings(context.Background(), strings.NewReader(tt.input), 0)
			require.Error(t, err)
			assert.True(t, errors.Is(err, core.ErrIngestion), "got %v", err)
		})
	}
}

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestFileSourceBuild(t *testing.T) {
	dir := t.TempDir()
	src := FileSource{
		BooksPath:   writeFile(t, dir, "Books.csv", booksCSV),
		RatingsPath: writeFile(t, dir, "Ratings.csv", ratingsCSV),
	}

	records, report, err := Build(context.Background(), src)
	require.NoError(t, err)
	require.Len(t, records, 3)

	assert.Equal(t, "0002005018", records[0].ID)
	assert.Equal(t, "0060973129", records[1].ID)
	assert.Equal(t, "0195153448", records[2].ID)

	// Decision in Normandy has no numeric year: median of 2001 and 2002.
	assert.Equal(t, 2001, records[1].Year)
	assert.Equal(t, 2, records[2].NumRatings)
	assert.InDelta(t, 2.5, records[2].AvgRating, 1e-9)

	assert.Equal(t, 1, report.UnratedBooks)
	assert.Equal(t, 1, report.UnknownRatings)
	assert.Equal(t, 1, report.ImputedYears)
}

func TestFileSourceMissingFile(t *testing.T) {
	dir := t.TempDir()
	src := FileSource{
		BooksPath:   writeFile(t, dir, "Books.csv", booksCSV),
		RatingsPath: filepath.Join(dir, "missing.csv"),
	}
	_, _, err := Build(context.Background(), src)
	require.Error(t, err)
	assert.True(t, errors.Is(err, core.ErrIngestion))
}

func TestStaticSource(t *testing.T) {
	src := StaticSource{
		Books:   []catalog.BookMetadata{{ID: "1", Title: "Dune", Author: "Frank Herbert", Year: "1965"}},
		Ratings: []catalog.Observation{{ID: "1", Rating: 9}},
	}
	records, _, err := Build(context.Background(), src)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "dune", records[0].NormalizedTitle)
}
