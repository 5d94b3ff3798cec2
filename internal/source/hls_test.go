package source

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
)

const encryptedPlaylist = `#EXTM3U
#EXT-X-VERSION:3
#EXT-X-TARGETDURATION:10
#EXT-X-MEDIA-SEQUENCE:0
#EXT-X-KEY:METHOD=AES-128,URI="key.bin",IV=0x00000000000000000000000000000102
#EXTINF:10.0,
seg0.ts
#EXTINF:10.0,
seg1.ts?token=x
#EXTINF:10.0,
seg2.ts
#EXT-X-ENDLIST
`

func TestGetStreamFilesEncrypted(t *testing.T) {
	keyBytes := []byte("0123456789abcdef")
	var keyFetches atomic.Int32
	mux := http.NewServeMux()
	mux.HandleFunc("/book/playlist.m3u8", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(encryptedPlaylist))
	})
	mux.HandleFunc("/book/key.bin", func(w http.ResponseWriter, r *http.Request) {
		keyFetches.Add(1)
		w.Write(keyBytes)
	})
	server := httptest.NewServer(mux)
	defer server.Close()

	session := NewSession()
	files, err := session.GetStreamFiles(context.Background(), server.URL+"/book/playlist.m3u8", map[string]string{"X-Auth": "t"})
	if err != nil {
		t.Fatalf("GetStreamFiles returned error: %v", err)
	}
	if len(files) != 3 {
		t.Fatalf("expected 3 files, got %d", len(files))
	}

	wantIV := make([]byte, 16)
	wantIV[14] = 0x01
	wantIV[15] = 0x02
	for i, file := range files {
		if file.Encryption == nil {
			t.Fatalf("file %d missing encryption", i)
		}
		if !bytes.Equal(file.Encryption.Key, keyBytes) {
			t.Fatalf("file %d key mismatch", i)
		}
		if !bytes.Equal(file.Encryption.IV, wantIV) {
			t.Fatalf("file %d iv mismatch: %x", i, file.Encryption.IV)
		}
		if file.Ext != "ts" {
			t.Fatalf("file %d ext: %q", i, file.Ext)
		}
		if file.Headers["X-Auth"] != "t" {
			t.Fatalf("file %d lost request headers", i)
		}
	}
	if files[0].URL != server.URL+"/book/seg0.ts" {
		t.Fatalf("segment url not absolutized: %q", files[0].URL)
	}
	// Shared key resolves through the page cache, one fetch total.
	if keyFetches.Load() != 1 {
		t.Fatalf("expected one key fetch, got %d", keyFetches.Load())
	}
}

func TestGetStreamFilesPlainPlaylist(t *testing.T) {
	playlist := "#EXTM3U\n#EXT-X-VERSION:3\n#EXT-X-TARGETDURATION:10\n"
	for i := 0; i < 2; i++ {
		playlist += fmt.Sprintf("#EXTINF:10.0,\npart%d.mp3\n", i)
	}
	playlist += "#EXT-X-ENDLIST\n"

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(playlist))
	}))
	defer server.Close()

	session := NewSession()
	files, err := session.GetStreamFiles(context.Background(), server.URL+"/list.m3u8", nil)
	if err != nil {
		t.Fatalf("GetStreamFiles returned error: %v", err)
	}
	if len(files) != 2 {
		t.Fatalf("expected 2 files, got %d", len(files))
	}
	for i, file := range files {
		if file.Encryption != nil {
			t.Fatalf("file %d unexpectedly encrypted", i)
		}
		if file.Ext != "mp3" {
			t.Fatalf("file %d ext: %q", i, file.Ext)
		}
	}
	if files[1].URL != server.URL+"/part1.mp3" {
		t.Fatalf("unexpected segment url %q", files[1].URL)
	}
}

func TestDecodeIV(t *testing.T) {
	iv, err := decodeIV("0x10", 0)
	if err != nil {
		t.Fatalf("decodeIV returned error: %v", err)
	}
	if iv[15] != 0x10 {
		t.Fatalf("unexpected iv %x", iv)
	}

	// Missing attribute falls back to the sequence number.
	iv, err = decodeIV("", 3)
	if err != nil {
		t.Fatalf("decodeIV returned error: %v", err)
	}
	if iv[15] != 3 {
		t.Fatalf("unexpected fallback iv %x", iv)
	}

	if _, err := decodeIV("garbage", 0); err == nil {
		t.Fatal("expected error for malformed iv")
	}
}
