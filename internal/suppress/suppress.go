// Package suppress implements the inline suppression-annotation filter: a
// `nogrep` comment on the first line of a match marks the finding ignored,
// optionally scoped to specific rule ids.
package suppress

import (
	"regexp"
	"strings"

	"go.uber.org/zap"

	"github.com/sourcegrep/sourcegrep/api/schemas"
)

// annotationRe recognizes a comment-like lead-in followed by the annotation
// keyword and an optional id list. The lead-in deliberately matches any
// comment syntax (#, //, ;, <!-- ... via the ':' '#' '/' class) rather than
// per-language comment grammars.
var annotationRe = regexp.MustCompile(`(?i)[:#/]+\s*nogrep(?::\s*(?P<ids>([^,\s](?:[,\s]+)?)+))?`)

// idSplitRe separates entries of the annotation's id list.
var idSplitRe = regexp.MustCompile(`[,\s]+`)

// validIDRe accepts tokens made of word characters, dashes and dots. Tokens
// with anything else are trailing comment-closing artifacts (`-->`, `*/`)
// and are discarded, not matched against.
var validIDRe = regexp.MustCompile(`^[\w.-]+$`)

// Filter decides whether findings are suppressed by inline annotations.
type Filter struct {
	strict bool
	logger *zap.Logger
}

// NewFilter creates a Filter. In strict mode an annotation naming an id with
// no corresponding rule is a fatal configuration error.
func NewFilter(strict bool, logger *zap.Logger) *Filter {
	return &Filter{strict: strict, logger: logger.Named("suppress")}
}

// IsSuppressed reports whether the finding's inline annotation suppresses
// it. Only the first matched line is consulted, so it is always unambiguous
// which finding an annotation refers to.
//
// A bare annotation (no id list) suppresses unconditionally, whatever the
// rule id. A scoped annotation suppresses only when it names the finding's
// rule; other listed ids are fatal in strict mode and logged otherwise.
func (f *Filter) IsSuppressed(m *schemas.RuleMatch) (bool, error) {
	if len(m.Lines) == 0 {
		return false, nil
	}

	sub := annotationRe.FindStringSubmatch(m.Lines[0])
	if sub == nil {
		return false, nil
	}

	ids := sub[annotationRe.SubexpIndex("ids")]
	if ids == "" {
		f.logger.Debug("Found bare suppression comment, skipping rule",
			zap.String("rule_id", m.RuleID),
			zap.Int("line", m.Start.Line),
		)
		return true, nil
	}

	suppressed := false
	for _, id := range splitIDs(ids) {
		if id == m.RuleID {
			f.logger.Debug("Found suppression comment for rule",
				zap.String("rule_id", m.RuleID),
				zap.Int("line", m.Start.Line),
			)
			suppressed = true
			continue
		}
		if f.strict {
			return false, schemas.NewSuppressionError(m.RuleID, id)
		}
		f.logger.Debug("Suppression comment names id with no corresponding rule",
			zap.String("annotated_id", id),
			zap.String("rule_id", m.RuleID),
		)
	}
	return suppressed, nil
}

// splitIDs tokenizes the annotation's id list: quotes are stripped so the
// annotation survives inside markup attributes (markup comments cannot
// appear inside tags), duplicates collapse, invalid tokens drop.
func splitIDs(ids string) []string {
	seen := make(map[string]bool)
	var out []string
	for _, tok := range idSplitRe.Split(ids, -1) {
		tok = strings.Trim(strings.TrimSpace(tok), `"'`)
		if tok == "" || seen[tok] || !validIDRe.MatchString(tok) {
			continue
		}
		seen[tok] = true
		out = append(out, tok)
	}
	return out
}
