package book

import (
	"regexp"
	"strings"
)

// KnownExtensions lists formats known to be e-books.
// Membership is informational: unknown extensions are still treated as books.
var KnownExtensions = []string{
	"lrf", "rar", "zip", "rtf", "lit", "txt", "txtz", "text", "htm", "xhtm",
	"html", "htmlz", "xhtml", "pdf", "pdb", "updb", "pdr", "prc", "mobi",
	"azw", "doc", "epub", "fb2", "fbz", "djv", "djvu", "lrx", "cbr", "cb7",
	"cbz", "cbc", "oebzip", "rb", "imp", "odt", "chm", "tpz", "azw1", "pml",
	"pmlz", "mbp", "tan", "snb", "xps", "oxps", "azw4", "book", "zbf", "pobi",
	"docx", "docm", "md", "textile", "markdown", "ibook", "ibooks", "iba",
	"azw3", "ps", "kepub", "kfx", "kpf",
}

// NonBookExtensions are never books: images, OPF metadata and editor swap files.
var NonBookExtensions = []string{
	"jpg", "jpeg", "gif", "png", "bmp",
	"opf", "swp", "swo",
}

// validExtension matches extensions made only of lowercase letters, digits and underscores.
var validExtension = regexp.MustCompile(`^[a-z0-9_]+$`)

// Identifier classifies file names as books by extension.
// The deny-set is checked first; any other well-formed extension is assumed to be a book.
type Identifier struct {
	deny  map[string]bool
	known map[string]bool
}

// NewIdentifier builds an identifier from the default lists plus extraDeny.
func NewIdentifier(extraDeny ...string) *Identifier {
	id := &Identifier{
		deny:  make(map[string]bool, len(NonBookExtensions)+len(extraDeny)),
		known: make(map[string]bool, len(KnownExtensions)),
	}
	for _, ext := range NonBookExtensions {
		id.deny[ext] = true
	}
	for _, ext := range extraDeny {
		ext = strings.ToLower(strings.TrimPrefix(strings.TrimSpace(ext), "."))
		if ext != "" {
			id.deny[ext] = true
		}
	}
	for _, ext := range KnownExtensions {
		id.known[ext] = true
	}
	return id
}

// IsBook reports whether the bare file name looks like a book.
func (id *Identifier) IsBook(name string) bool {
	ext := strings.ToLower(extension(name))
	if ext == "" {
		return false
	}
	if id.deny[ext] || !validExtension.MatchString(ext) {
		return false
	}
	return true
}

// IsKnownFormat reports whether name is a book with an extension from KnownExtensions.
func (id *Identifier) IsKnownFormat(name string) bool {
	return id.IsBook(name) && id.known[strings.ToLower(extension(name))]
}

var defaultIdentifier = NewIdentifier()

// IsBook classifies name with the default extension lists.
func IsBook(name string) bool {
	return defaultIdentifier.IsBook(name)
}
