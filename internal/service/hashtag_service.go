package service

import "regexp"

// hashtagPattern matches '#' followed by word characters: letters and digits
// from any script plus '_'. "#café" yields "café"; a decomposed "cafe\u0301"
// stops at the combining accent and yields "cafe".
var hashtagPattern = regexp.MustCompile(`#([\p{L}\p{N}_]+)`)

// ExtractHashtags returns every hashtag token in content without the leading
// '#', in order of appearance. Duplicates are kept; the registry collapses them.
func ExtractHashtags(content string) []string {
	matches := hashtagPattern.FindAllStringSubmatch(content, -1)
	tokens := make([]string, 0, len(matches))
	for _, m := range matches {
		tokens = append(tokens, m[1])
	}
	return tokens
}
