package docs

import (
	"fmt"
	"strings"

	"github.com/adrg/frontmatter"
)

// FrontMatter holds the document settings a markdown file may declare in a
// leading YAML (---), TOML (+++) or JSON (;;;) block
type FrontMatter struct {
	Title    string `yaml:"title" toml:"title" json:"title"`
	FolderID string `yaml:"folder_id" toml:"folder_id" json:"folder_id"`
}

// SplitFrontMatter separates the front matter from the markdown body. The
// body starts right after the closing delimiter's line, so blank lines
// following it are kept. Markdown without front matter is returned unchanged.
func SplitFrontMatter(markdown string) (FrontMatter, string, error) {
	var meta FrontMatter
	body, err := frontmatter.Parse(strings.NewReader(markdown), &meta)
	if err != nil {
		return FrontMatter{}, markdown, fmt.Errorf("failed to parse front matter: %w", err)
	}
	return meta, string(body), nil
}
