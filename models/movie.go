package models

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"
)

// requiredMovieFields must all be present in a source file for it to be ingested.
var requiredMovieFields = []string{"name", "year", "runtime", "actors", "director", "storyline"}

// Movie is one source record as loaded from a JSON file.
type Movie struct {
	Name      string       `json:"name"`
	Year      int          `json:"year"`
	Runtime   json.Number  `json:"runtime"`
	Actors    StringOrList `json:"actors"`
	Director  StringOrList `json:"director"`
	Storyline string       `json:"storyline"`
}

// StringOrList accepts either a JSON string or a JSON array of strings.
// Source files are inconsistent about actors/director being one or the other.
type StringOrList []string

func (s *StringOrList) UnmarshalJSON(data []byte) error {
	trimmed := strings.TrimSpace(string(data))
	if strings.HasPrefix(trimmed, "[") {
		var items []string
		if err := json.Unmarshal(data, &items); err != nil {
			return err
		}
		*s = items
		return nil
	}
	var one string
	if err := json.Unmarshal(data, &one); err != nil {
		return err
	}
	*s = StringOrList{one}
	return nil
}

// Joined renders the list the way it is stored in chunk metadata.
func (s StringOrList) Joined() string {
	return strings.Join(s, ", ")
}

// ValidationError reports a malformed or incomplete source document or
// an out-of-range request field. It is never retried.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

// ParseMovie decodes a movie record and verifies all required fields are
// present. Presence is checked on the raw JSON keys, not on zero values,
// so an explicit `"year": 0` still validates.
func ParseMovie(data []byte) (Movie, error) {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return Movie{}, &ValidationError{Message: fmt.Sprintf("invalid JSON document: %v", err)}
	}

	var missing []string
	for _, key := range requiredMovieFields {
		if _, ok := raw[key]; !ok {
			missing = append(missing, key)
		}
	}
	if len(missing) > 0 {
		sort.Strings(missing)
		return Movie{}, &ValidationError{
			Message: fmt.Sprintf("missing required fields: %s", strings.Join(missing, ", ")),
		}
	}

	var movie Movie
	if err := json.Unmarshal(data, &movie); err != nil {
		return Movie{}, &ValidationError{Message: fmt.Sprintf("malformed movie record: %v", err)}
	}
	return movie, nil
}

// MovieMetadata is the per-document metadata duplicated onto every chunk
// stored in the vector collection.
type MovieMetadata struct {
	Name      string
	Year      int
	Actors    string
	Director  string
	FileName  string
	ModTime   int64
	UniqueKey string
}

// NewMovieMetadata derives metadata from a parsed movie and its source file
// identity. UniqueKey changes whenever the file name, year, or modification
// time changes, so re-ingestion of an untouched file is a no-op and a touched
// file is fully replaced.
func NewMovieMetadata(movie Movie, fileName string, modTime time.Time) MovieMetadata {
	mtime := modTime.Unix()
	return MovieMetadata{
		Name:      movie.Name,
		Year:      movie.Year,
		Actors:    movie.Actors.Joined(),
		Director:  movie.Director.Joined(),
		FileName:  fileName,
		ModTime:   mtime,
		UniqueKey: fmt.Sprintf("%s_%d_%d", fileName, movie.Year, mtime),
	}
}

// Map renders the metadata in the flat key/value form the vector store keeps.
func (md MovieMetadata) Map() map[string]any {
	return map[string]any{
		"doc_name":     md.Name,
		"doc_year":     md.Year,
		"doc_actors":   md.Actors,
		"doc_director": md.Director,
		"doc_fname":    md.FileName,
		"doc_mtime":    md.ModTime,
		"doc_uniq_key": md.UniqueKey,
	}
}

// ChunkID returns the deterministic vector record id for chunk i of a document.
func ChunkID(uniqueKey string, i int) string {
	return fmt.Sprintf("%s_chunk_%d", uniqueKey, i)
}
