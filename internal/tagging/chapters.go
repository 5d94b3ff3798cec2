package tagging

import (
	"sort"

	"bookfetch/internal/audiobook"
)

// Span is a chapter with a resolved end time. Sources only report starts;
// ends exist only once the finished file's real duration is known.
type Span struct {
	Start int64
	End   int64
	Title string
}

// Spans pairs each chapter start with the next chapter's start and closes the
// final chapter at totalMillis, the decoded duration of the finished file.
// Output is sorted by start and no end exceeds totalMillis.
func Spans(chapters []audiobook.Chapter, totalMillis int64) []Span {
	if len(chapters) == 0 {
		return nil
	}
	ordered := append([]audiobook.Chapter(nil), chapters...)
	sort.SliceStable(ordered, func(i, j int) bool { return ordered[i].Start < ordered[j].Start })

	spans := make([]Span, len(ordered))
	for i, chapter := range ordered {
		end := totalMillis
		if i < len(ordered)-1 {
			end = ordered[i+1].Start
		}
		if totalMillis > 0 && end > totalMillis {
			end = totalMillis
		}
		if end < chapter.Start {
			end = chapter.Start
		}
		spans[i] = Span{Start: chapter.Start, End: end, Title: chapter.Title}
	}
	return spans
}
