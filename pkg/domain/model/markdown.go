package model

import (
	"regexp"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	gtext "github.com/yuin/goldmark/text"
)

// Indicators that a text is worth running through the markdown parser at
// all. Plain conversational sentences skip the parse entirely.
var markdownIndicators = []*regexp.Regexp{
	regexp.MustCompile(`(?m)^#{1,6}\s`),           // headings
	regexp.MustCompile(`\*\*[^*\n]+\*\*`),         // bold
	regexp.MustCompile(`(?m)^\s*[-*+]\s+\S`),      // unordered list
	regexp.MustCompile(`(?m)^\s*\d+\.\s+\S`),      // ordered list
	regexp.MustCompile("`[^`\n]+`"),               // inline code
	regexp.MustCompile("(?s)```.+```"),            // fenced code block
	regexp.MustCompile(`\[[^\]\n]+\]\([^)\n]+\)`), // link
	regexp.MustCompile(`(?m)^>\s`),                // blockquote
	regexp.MustCompile(`(?m)^\s*\|.+\|\s*$`),      // table row
}

// Default goldmark without stateful extensions, safe for concurrent Parse.
var markdownParser = goldmark.New()

func structuralKind(k ast.NodeKind) bool {
	switch k {
	case ast.KindHeading,
		ast.KindEmphasis,
		ast.KindLink,
		ast.KindImage,
		ast.KindCodeSpan,
		ast.KindCodeBlock,
		ast.KindFencedCodeBlock,
		ast.KindList,
		ast.KindBlockquote,
		ast.KindThematicBreak:
		return true
	default:
		return false
	}
}

// DetectMarkdown reports whether text carries markdown structure rather than
// plain prose. A regexp prefilter keeps the common case cheap; candidates are
// confirmed by parsing and checking for structural nodes, so incidental
// punctuation ("wait 2 * 3 minutes") does not flag a message as rich.
func DetectMarkdown(text string) bool {
	if text == "" {
		return false
	}

	hit := false
	for _, re := range markdownIndicators {
		if re.MatchString(text) {
			hit = true
			break
		}
	}
	if !hit {
		return false
	}

	doc := markdownParser.Parser().Parse(gtext.NewReader([]byte(text)))

	found := false
	_ = ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		if structuralKind(n.Kind()) {
			found = true
			return ast.WalkStop, nil
		}
		return ast.WalkContinue, nil
	})

	return found
}
