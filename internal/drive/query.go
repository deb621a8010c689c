package drive

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
)

// ErrInvalidID is returned for strings that cannot be Drive file IDs
var ErrInvalidID = errors.New("invalid Google Drive ID")

var idPattern = regexp.MustCompile(`^[a-zA-Z0-9_-]{10,100}$`)

// IDPattern is the pattern accepted by ValidateID, for argument validation
func IDPattern() *regexp.Regexp {
	return idPattern
}

// ValidateID checks that id looks like a Drive file or folder ID. Besides
// catching typos this keeps arbitrary text out of query strings.
func ValidateID(id string) error {
	if !idPattern.MatchString(id) {
		return fmt.Errorf("%w: %q", ErrInvalidID, id)
	}
	return nil
}

// EscapeQuery escapes a value for use inside a single quoted Drive query literal
func EscapeQuery(s string) string {
	return strings.NewReplacer(`\`, `\\`, `'`, `\'`).Replace(s)
}

// buildListQuery combines the folder filter, the caller's query and the
// trash filter
func buildListQuery(opts ListOptions) string {
	var clauses []string
	if opts.FolderID != "" {
		clauses = append(clauses, fmt.Sprintf("'%s' in parents", EscapeQuery(opts.FolderID)))
	}
	if opts.Query != "" {
		clauses = append(clauses, "("+opts.Query+")")
	}
	if !opts.IncludeTrashed {
		clauses = append(clauses, "trashed = false")
	}
	return strings.Join(clauses, " and ")
}

// buildSearchQuery matches text against file names and full text
func buildSearchQuery(text string) string {
	escaped := EscapeQuery(text)
	return fmt.Sprintf("(name contains '%s' or fullText contains '%s') and trashed = false", escaped, escaped)
}

// clampResults applies the default and the upper bound to a page size
func clampResults(n, def, max int) int {
	if n <= 0 {
		return def
	}
	if n > max {
		return max
	}
	return n
}
