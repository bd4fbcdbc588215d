package annotations

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/alecthomas/participle/v2"
	"github.com/alecthomas/participle/v2/lexer"

	"github.com/km-arc/go-spf/framework/reflection"
)

// DefaultNamespace prefixes every framework annotation: @SPF:Name.
const DefaultNamespace = "SPF"

var identPattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// tagLine is one annotation: "@NS:Name param param ...".
type tagLine struct {
	Tag    string   `parser:"@Tag"`
	Params []string `parser:"@(Word | Tag)*"`
}

var tagParser = participle.MustBuild[tagLine](
	participle.Lexer(lexer.MustSimple([]lexer.SimpleRule{
		{Name: "Tag", Pattern: `@[A-Za-z_][A-Za-z0-9_]*:[A-Za-z_][A-Za-z0-9_]*`},
		{Name: "Word", Pattern: `[^\s]+`},
		{Name: "Whitespace", Pattern: `\s+`},
	})),
	participle.Elide("Whitespace"),
)

// Parser extracts annotations of one namespace from doc blocks.
type Parser struct {
	marker string
}

// NewParser returns a parser for "@<namespace>:" tags.
func NewParser(namespace string) (*Parser, error) {
	if !identPattern.MatchString(namespace) {
		return nil, fmt.Errorf("annotations: invalid namespace %q", namespace)
	}
	return &Parser{marker: "@" + namespace + ":"}, nil
}

// Parse returns one tag per matching line, in source order. Lines that
// carry the marker but don't form a valid tag are skipped.
func (p *Parser) Parse(doc string) []reflection.Tag {
	var tags []reflection.Tag
	for _, line := range strings.Split(doc, "\n") {
		idx := strings.Index(line, p.marker)
		if idx < 0 {
			continue
		}
		text := strings.TrimSpace(line[idx:])
		text = strings.TrimSpace(strings.TrimSuffix(text, "*/"))

		parsed, err := tagParser.ParseString("", text)
		if err != nil {
			continue
		}
		tag := reflection.Tag{Name: parsed.Tag[len(p.marker):]}
		if len(parsed.Params) > 0 {
			tag.Params = parsed.Params
		}
		tags = append(tags, tag)
	}
	return tags
}
