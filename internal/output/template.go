package output

import (
	"fmt"
	"regexp"
	"strings"

	"bookfetch/internal/audiobook"
)

var templateKey = regexp.MustCompile(`\{(\w+)\}`)

// locationDefaults fill template keys the metadata does not provide, so a
// template like "{author}/{title}" still renders for anonymous books.
var locationDefaults = map[string]string{
	"author":   "NA",
	"narrator": "NA",
	"series":   "NA",
}

// GenerateLocation renders the output base path from a template like
// "{author} - {title}" and the book's metadata. Each substituted value is
// stripped of removeChars and characters the filesystem cannot take; path
// separators written in the template itself survive, so templates may spell
// out directories.
func GenerateLocation(template string, meta audiobook.Metadata, removeChars string) string {
	values := map[string]string{}
	for key, value := range locationDefaults {
		values[key] = value
	}
	for _, prop := range meta.AllProperties(audiobook.ListJoined) {
		values[prop.Key] = fmt.Sprint(prop.Value)
	}

	return templateKey.ReplaceAllStringFunc(template, func(match string) string {
		key := match[1 : len(match)-1]
		value, ok := values[key]
		if !ok {
			value = "NA"
		}
		return fixOutput(value, removeChars)
	})
}

// fixOutput removes characters the target filesystem cannot handle plus any
// the user asked to strip.
func fixOutput(name, removeChars string) string {
	name = strings.ReplaceAll(name, "/", "-")
	for _, r := range removeChars {
		name = strings.ReplaceAll(name, string(r), "")
	}
	return name
}
