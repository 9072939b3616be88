package pipeline

import (
	"regexp"
	"strings"
	"time"

	"github.com/dlclark/regexp2"
)

// rule is one step of the inline chain. Rules run in ascending rank and
// each one sees the output of the rules before it. Ranks 4 (lists) and 9
// (thematic breaks) are handled by the line pass.
type rule struct {
	rank  int
	name  string
	apply func(string) string
}

var inlineRules = []rule{
	{rank: 1, name: "headings", apply: applyHeadings},
	{rank: 2, name: "emphasis", apply: applyEmphasis},
	{rank: 3, name: "code", apply: applyCode},
	{rank: 5, name: "list runs", apply: wrapListRuns},
	{rank: 6, name: "links", apply: applyLinks},
	{rank: 7, name: "images", apply: applyImages},
	{rank: 8, name: "blockquotes", apply: applyBlockquotes},
	{rank: 10, name: "paragraphs", apply: wrapParagraphs},
}

// ApplyRules runs the inline rule chain over text.
func ApplyRules(text string) string {
	for _, r := range inlineRules {
		text = r.apply(text)
	}
	return text
}

// headingPatterns holds one pattern per heading level, h1 first.
var headingPatterns = func() []*regexp.Regexp {
	patterns := make([]*regexp.Regexp, 6)
	for i := range patterns {
		patterns[i] = regexp.MustCompile(`(?m)^` + strings.Repeat("#", i+1) + ` (.*)$`)
	}
	return patterns
}()

var (
	// Emphasis, non-greedy, bold before italic
	boldPattern       = regexp.MustCompile(`\*\*(.*?)\*\*`)
	italicStarPattern = regexp.MustCompile(`\*(.*?)\*`)
	italicBarPattern  = regexp.MustCompile(`_(.*?)_`)

	// Triple-backtick spans before single-backtick spans
	codeBlockPattern  = regexp.MustCompile("```([^`]+)```")
	inlineCodePattern = regexp.MustCompile("`([^`]+)`")

	// Maximal run of list items, each followed by a newline or end of text
	listRunPattern = regexp.MustCompile(`(?:<li>.*?</li>(?:\n|$))+`)
	ordinalPattern = regexp.MustCompile(`\d+\.\s`)

	imagePattern      = regexp.MustCompile(`!\[([^\]]+)\]\(([^)]+)\)`)
	blockquotePattern = regexp.MustCompile(`(?m)^> (.*)$`)
)

// Rules that need lookaround run on regexp2.
var (
	// Bracketed links; a leading ! belongs to the image rule.
	linkPattern = regexp2.MustCompile(`(?<!!)\[([^\]]+)\]\(([^)]+)\)`, regexp2.None)

	// Bare URLs not inside an attribute value, a link target or the text
	// of an anchor. The last character may not be trailing punctuation.
	autolinkPattern = regexp2.MustCompile(`(?<!["'=(])(https?://[^\s<]+[^<.,:;"')\]\s])(?![^<]*</a>)`, regexp2.None)

	// Maximal spans that neither start with a tag nor cross a block tag.
	paragraphPattern = regexp2.MustCompile(
		`^(?!<[^>]+>)((?:[^<]|<(?!/?(?:h[1-6]|ul|ol|li|blockquote|pre|code|table|hr|div)\b))+)$`,
		regexp2.Multiline,
	)
)

// ruleMatchTimeout bounds each regexp2 rule. On timeout the rule leaves
// the text unchanged.
const ruleMatchTimeout = 2 * time.Second

func init() {
	linkPattern.MatchTimeout = ruleMatchTimeout
	autolinkPattern.MatchTimeout = ruleMatchTimeout
	paragraphPattern.MatchTimeout = ruleMatchTimeout
}

func applyHeadings(text string) string {
	for i, re := range headingPatterns {
		tag := "h" + string(rune('1'+i))
		text = re.ReplaceAllString(text, "<"+tag+">${1}</"+tag+">")
	}
	return text
}

func applyEmphasis(text string) string {
	text = boldPattern.ReplaceAllString(text, "<strong>${1}</strong>")
	text = italicStarPattern.ReplaceAllString(text, "<em>${1}</em>")
	return italicBarPattern.ReplaceAllString(text, "<em>${1}</em>")
}

func applyCode(text string) string {
	text = codeBlockPattern.ReplaceAllString(text, "<pre><code>${1}</code></pre>")
	return inlineCodePattern.ReplaceAllString(text, "<code>${1}</code>")
}

// wrapListRuns wraps bare runs of list items. The run becomes ordered when
// any ordinal marker appears inside it.
func wrapListRuns(text string) string {
	return listRunPattern.ReplaceAllStringFunc(text, func(run string) string {
		if ordinalPattern.MatchString(run) {
			return "<ol>" + run + "</ol>"
		}
		return "<ul>" + run + "</ul>"
	})
}

func applyLinks(text string) string {
	text = replace2(linkPattern, text, `<a href="$2" target="_blank">$1</a>`)
	return replace2(autolinkPattern, text, `<a href="$1" target="_blank">$1</a>`)
}

func applyImages(text string) string {
	return imagePattern.ReplaceAllString(text, `<img src="${2}" alt="${1}">`)
}

func applyBlockquotes(text string) string {
	return blockquotePattern.ReplaceAllString(text, "<blockquote>${1}</blockquote>")
}

func wrapParagraphs(text string) string {
	return replace2(paragraphPattern, text, "<p>$1</p>")
}

// replace2 replaces every match of re. Errors, including match timeouts,
// leave the text unchanged.
func replace2(re *regexp2.Regexp, text, replacement string) string {
	out, err := re.Replace(text, replacement, -1, -1)
	if err != nil {
		return text
	}
	return out
}
