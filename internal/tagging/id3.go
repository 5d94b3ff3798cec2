package tagging

import (
	"fmt"
	"strconv"
	"time"

	id3v2 "github.com/bogem/id3v2/v2"

	"bookfetch/internal/audiobook"
)

var coverMIMETypes = map[string]string{
	"jpg":  "image/jpeg",
	"jpeg": "image/jpeg",
	"png":  "image/png",
}

func writeID3(path string, meta audiobook.Metadata, spans []Span, cover *audiobook.Cover) error {
	tag, err := id3v2.Open(path, id3v2.Options{Parse: true})
	if err != nil {
		return fmt.Errorf("open id3 tag: %w", err)
	}
	defer tag.Close()
	tag.SetDefaultEncoding(id3v2.EncodingUTF8)

	tag.SetTitle(meta.Title)
	if len(meta.Authors) > 0 {
		tag.SetArtist(joinPeople(meta.Authors))
	}
	if meta.Series != "" {
		tag.SetAlbum(meta.Series)
	}
	if len(meta.Narrators) > 0 {
		tag.AddTextFrame("TPE3", id3v2.EncodingUTF8, joinPeople(meta.Narrators))
	}
	if len(meta.Genres) > 0 {
		tag.SetGenre(joinGenres(meta.Genres))
	}
	if meta.Language != "" {
		tag.AddTextFrame("TLAN", id3v2.EncodingUTF8, meta.Language)
	}
	if meta.Publisher != "" {
		tag.AddTextFrame("TPUB", id3v2.EncodingUTF8, meta.Publisher)
	}
	if meta.SeriesOrder > 0 {
		tag.AddTextFrame("TPOS", id3v2.EncodingUTF8, strconv.Itoa(meta.SeriesOrder))
	}
	if !meta.ReleaseDate.IsZero() {
		tag.SetYear(strconv.Itoa(meta.ReleaseDate.Year()))
	}
	if meta.Description != "" {
		tag.AddCommentFrame(id3v2.CommentFrame{
			Encoding: id3v2.EncodingUTF8,
			Language: "eng",
			Text:     meta.Description,
		})
	}

	for i, span := range spans {
		tag.AddChapterFrame(id3v2.ChapterFrame{
			ElementID:   "chp" + strconv.Itoa(i+1),
			StartTime:   time.Duration(span.Start) * time.Millisecond,
			EndTime:     time.Duration(span.End) * time.Millisecond,
			StartOffset: id3v2.IgnoredOffset,
			EndOffset:   id3v2.IgnoredOffset,
			Title: &id3v2.TextFrame{
				Encoding: id3v2.EncodingUTF8,
				Text:     span.Title,
			},
		})
	}

	if cover != nil {
		if mime, ok := coverMIMETypes[cover.Extension]; ok {
			tag.AddAttachedPicture(id3v2.PictureFrame{
				Encoding:    id3v2.EncodingUTF8,
				MimeType:    mime,
				PictureType: id3v2.PTFrontCover,
				Picture:     cover.Image,
			})
		}
	}

	return tag.Save()
}
