package savedata

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"golang.org/x/text/unicode/norm"
)

// CurrentFormatVersion is stamped on every new lexicon entry.
const CurrentFormatVersion = 1

// LexiconName is the reserved base name of the lexicon document. No record may use it.
const LexiconName = "lexicon"

// LexiconEntry is the lightweight metadata kept for every save.
type LexiconEntry struct {
	ID            string    `json:"id"`
	FormatVersion int       `json:"formatVer"`
	CreationTime  time.Time `json:"creationTime"`
	Label         string    `json:"meta"`
}

// SceneSnapshot is the reference payload the game stores in a record.
// The registry never interprets it.
type SceneSnapshot struct {
	SceneID      string  `json:"sceneId"`
	CheckpointID *string `json:"checkpointId"`
	Health       float64 `json:"health"`
}

// NormalizeLabel returns the NFC form of a label, which is how it is persisted.
func NormalizeLabel(label string) string {
	return norm.NFC.String(label)
}

// ValidateID rejects identifiers that cannot be mapped to a record location.
// Record locations are derived from the ID, so anything that could escape the
// save directory or collide with the lexicon document is refused.
func ValidateID(id string) error {
	switch {
	case id == "":
		return &Error{Code: CodeInvalidID, Op: "validate id", Err: fmt.Errorf("empty id")}
	case id == "." || id == "..":
		return &Error{Code: CodeInvalidID, Op: "validate id", ID: id, Err: fmt.Errorf("reserved path element")}
	case strings.EqualFold(id, LexiconName):
		return &Error{Code: CodeInvalidID, Op: "validate id", ID: id, Err: fmt.Errorf("reserved name")}
	case strings.ContainsAny(id, `/\`) || filepath.Base(id) != id:
		return &Error{Code: CodeInvalidID, Op: "validate id", ID: id, Err: fmt.Errorf("contains path separator")}
	case strings.ContainsRune(id, 0):
		return &Error{Code: CodeInvalidID, Op: "validate id", ID: id, Err: fmt.Errorf("contains NUL")}
	}
	return nil
}
