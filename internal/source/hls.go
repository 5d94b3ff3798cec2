package source

import (
	"bytes"
	"context"
	"fmt"
	"math/big"
	"net/url"
	"path"
	"strings"

	"github.com/grafov/m3u8"

	"bookfetch/internal/audiobook"
	"bookfetch/internal/errs"
)

// GetStreamFiles expands an HLS playlist into one audiobook file per media
// segment, in playlist order. Segments carrying an AES-128 key get their key
// bytes fetched through the page cache and the playlist IV decoded as a
// 16-byte big-endian integer. Master playlists resolve through their first
// variant.
func (s *Session) GetStreamFiles(ctx context.Context, playlistURL string, headers map[string]string) ([]audiobook.File, error) {
	return s.streamFiles(ctx, playlistURL, headers, 0)
}

func (s *Session) streamFiles(ctx context.Context, playlistURL string, headers map[string]string, depth int) ([]audiobook.File, error) {
	if depth > 2 {
		return nil, errs.Wrap(errs.ErrDataNotPresent, "hls", "load", "nested master playlists", nil)
	}
	base, err := url.Parse(playlistURL)
	if err != nil {
		return nil, fmt.Errorf("parse playlist url: %w", err)
	}

	body, err := s.Get(ctx, playlistURL, WithHeaders(headers))
	if err != nil {
		return nil, err
	}

	playlist, listType, err := m3u8.DecodeFrom(bytes.NewReader(body), true)
	if err != nil {
		return nil, errs.Wrap(errs.ErrDataNotPresent, "hls", "decode", playlistURL, err)
	}

	switch listType {
	case m3u8.MASTER:
		master := playlist.(*m3u8.MasterPlaylist)
		if len(master.Variants) == 0 {
			return nil, errs.Wrap(errs.ErrDataNotPresent, "hls", "master", "no variants", nil)
		}
		variant := resolveURL(base, master.Variants[0].URI)
		return s.streamFiles(ctx, variant, headers, depth+1)
	case m3u8.MEDIA:
		return s.mediaFiles(ctx, base, playlist.(*m3u8.MediaPlaylist), headers)
	default:
		return nil, errs.Wrap(errs.ErrDataNotPresent, "hls", "decode", "unknown playlist type", nil)
	}
}

func (s *Session) mediaFiles(ctx context.Context, base *url.URL, playlist *m3u8.MediaPlaylist, headers map[string]string) ([]audiobook.File, error) {
	files := make([]audiobook.File, 0, len(playlist.Segments))
	key := playlist.Key
	for _, segment := range playlist.Segments {
		if segment == nil {
			continue
		}
		if segment.Key != nil {
			key = segment.Key
		}
		file := audiobook.File{
			URL:     resolveURL(base, segment.URI),
			Ext:     segmentExt(segment.URI),
			Headers: headers,
		}
		if key != nil && !strings.EqualFold(key.Method, "NONE") {
			encryption, err := s.segmentEncryption(ctx, base, key, segment.SeqId, headers)
			if err != nil {
				return nil, err
			}
			file.Encryption = encryption
		}
		files = append(files, file)
	}
	return files, nil
}

func (s *Session) segmentEncryption(ctx context.Context, base *url.URL, key *m3u8.Key, sequence uint64, headers map[string]string) (*audiobook.AESEncryption, error) {
	keyBytes, err := s.Page(ctx, resolveURL(base, key.URI), WithHeaders(headers))
	if err != nil {
		return nil, err
	}
	iv, err := decodeIV(key.IV, sequence)
	if err != nil {
		return nil, errs.Wrap(errs.ErrDataNotPresent, "hls", "key", "bad iv attribute", err)
	}
	return &audiobook.AESEncryption{Key: keyBytes, IV: iv}, nil
}

// decodeIV turns the playlist IV attribute into 16 big-endian bytes. A
// missing attribute falls back to the segment's media sequence number, as
// the HLS spec prescribes.
func decodeIV(attribute string, sequence uint64) ([]byte, error) {
	iv := make([]byte, 16)
	trimmed := strings.TrimSpace(attribute)
	if trimmed == "" {
		new(big.Int).SetUint64(sequence).FillBytes(iv)
		return iv, nil
	}
	value, ok := new(big.Int).SetString(trimmed, 0)
	if !ok {
		return nil, fmt.Errorf("parse iv %q", attribute)
	}
	if value.Sign() < 0 || value.BitLen() > 128 {
		return nil, fmt.Errorf("iv %q out of range", attribute)
	}
	value.FillBytes(iv)
	return iv, nil
}

func resolveURL(base *url.URL, ref string) string {
	parsed, err := url.Parse(ref)
	if err != nil {
		return ref
	}
	return base.ResolveReference(parsed).String()
}

func segmentExt(uri string) string {
	if idx := strings.IndexByte(uri, '?'); idx >= 0 {
		uri = uri[:idx]
	}
	return strings.TrimPrefix(path.Ext(uri), ".")
}
