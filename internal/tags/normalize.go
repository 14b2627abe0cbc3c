package tags

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/cases"
	"golang.org/x/text/unicode/norm"

	"github.com/Belphemur/DoubanRecommend/internal/apperrors"
)

// MaxTagLength is the longest tag accepted by the editor, in runes.
const MaxTagLength = 32

// Normalize trims the raw input, converts it to NFC and validates it.
func Normalize(raw string) (string, error) {
	tag := norm.NFC.String(strings.TrimSpace(raw))
	if tag == "" {
		return "", &apperrors.ErrEmptyTag{}
	}
	if utf8.RuneCountInString(tag) > MaxTagLength {
		return "", &apperrors.ErrInvalidTag{Tag: tag, Detail: "longer than 32 characters"}
	}
	for _, r := range tag {
		if unicode.IsControl(r) {
			return "", &apperrors.ErrInvalidTag{Tag: tag, Detail: "contains control characters"}
		}
	}
	return tag, nil
}

// foldKey returns the case-insensitive comparison key of a tag.
// A Caser is stateful, so a fresh one is used per call.
func foldKey(tag string) string {
	return cases.Fold().String(norm.NFC.String(tag))
}

// indexFold returns the index of the first tag equal to tag under case folding, or -1.
func indexFold(list []string, tag string) int {
	key := foldKey(tag)
	for i, existing := range list {
		if foldKey(existing) == key {
			return i
		}
	}
	return -1
}

// dedupe drops empty entries and case-insensitive duplicates, keeping the first occurrence.
func dedupe(list []string) []string {
	seen := make(map[string]struct{}, len(list))
	out := make([]string, 0, len(list))
	for _, tag := range list {
		tag = strings.TrimSpace(tag)
		if tag == "" {
			continue
		}
		key := foldKey(tag)
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, tag)
	}
	return out
}
