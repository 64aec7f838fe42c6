// Final response composition.
//
// The responder's terminal text is post-processed into structured form:
// a unified diff is carved out in patch mode, and a trailing
// next-actions list is lifted into its own field in every mode.

package orchestrator

import (
	"regexp"
	"strings"

	"github.com/richinex/repoassist/model"
)

var (
	patchFenceRe = regexp.MustCompile("(?s)```diff\n(.*?)```")

	nextActionsRe = regexp.MustCompile(
		`(?i)(?:Next Actions?|Next Steps?|Suggested Steps?|Recommendations?)[ \t]*:?[ \t]*\n` +
			`((?:[ \t]*[-*0-9•].*\n?)+)`)

	bulletPrefixRe = regexp.MustCompile(`^[ \t]*[-*0-9•.)]+[ \t]*`)
)

// Compose turns raw terminal text plus consolidated evidence into the
// structured final response. Patch extraction only happens in patch
// mode; next-actions extraction happens in every mode.
func Compose(rawText string, evidence []model.Citation, mode model.Mode) model.FinalResponse {
	answer := rawText
	var patch string

	if mode == model.ModePatch {
		patch, answer = extractPatch(rawText)
	}

	actions, answer := extractNextActions(answer)

	return model.FinalResponse{
		AnswerText:  strings.TrimSpace(answer),
		Citations:   evidence,
		PatchDiff:   patch,
		NextActions: actions,
	}
}

// extractPatch pulls a unified diff out of the text. A fenced ```diff
// block wins; otherwise everything from the first ---/+++ header on is
// treated as the diff.
func extractPatch(text string) (patch, rest string) {
	if m := patchFenceRe.FindStringSubmatchIndex(text); m != nil {
		patch = strings.TrimSpace(text[m[2]:m[3]])
		rest = strings.TrimSpace(text[:m[0]] + text[m[1]:])
		return patch, rest
	}

	var diffLines, restLines []string
	inDiff := false
	for _, line := range strings.Split(text, "\n") {
		if strings.HasPrefix(line, "--- ") || strings.HasPrefix(line, "+++ ") {
			inDiff = true
		}
		if inDiff {
			diffLines = append(diffLines, line)
		} else {
			restLines = append(restLines, line)
		}
	}
	if len(diffLines) > 0 {
		return strings.Join(diffLines, "\n"), strings.Join(restLines, "\n")
	}
	return "", text
}

// extractNextActions lifts a trailing bulleted or numbered list under a
// next-actions style heading out of the text.
func extractNextActions(text string) (actions []string, rest string) {
	m := nextActionsRe.FindStringSubmatchIndex(text)
	if m == nil {
		return nil, text
	}

	block := text[m[2]:m[3]]
	for _, line := range strings.Split(block, "\n") {
		if strings.TrimSpace(line) == "" {
			continue
		}
		action := strings.TrimSpace(bulletPrefixRe.ReplaceAllString(line, ""))
		if action != "" {
			actions = append(actions, action)
		}
	}

	rest = strings.TrimSpace(text[:m[0]] + text[m[1]:])
	return actions, rest
}
