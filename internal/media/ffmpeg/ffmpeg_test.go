package ffmpeg

import (
	"context"
	"os"
	"os/exec"
	"testing"
)

func captureArgs(t *testing.T) *[]string {
	t.Helper()
	var captured []string
	original := commandContext
	commandContext = func(ctx context.Context, name string, args ...string) *exec.Cmd {
		captured = append([]string(nil), args...)
		cmd := exec.CommandContext(ctx, os.Args[0], "-test.run=TestHelperProcess")
		cmd.Env = append(os.Environ(), "GO_WANT_HELPER_PROCESS=1")
		return cmd
	}
	t.Cleanup(func() { commandContext = original })
	return &captured
}

func TestHelperProcess(t *testing.T) {
	if os.Getenv("GO_WANT_HELPER_PROCESS") != "1" {
		return
	}
	os.Exit(0)
}

func TestConvertCopyCodec(t *testing.T) {
	captured := captureArgs(t)
	cli := NewCLI()
	if err := cli.Convert(context.Background(), "in.ts", "out.mp3", ConvertOptions{CopyCodec: true}); err != nil {
		t.Fatalf("Convert returned error: %v", err)
	}
	want := []string{"-y", "-i", "in.ts", "-codec", "copy", "out.mp3"}
	assertArgs(t, *captured, want)
}

func TestConvertEncoderWithBitrate(t *testing.T) {
	captured := captureArgs(t)
	cli := NewCLI()
	opts := ConvertOptions{Encoder: "aac", BitRateKbps: 128}
	if err := cli.Convert(context.Background(), "in.mp3", "out.m4b", opts); err != nil {
		t.Fatalf("Convert returned error: %v", err)
	}
	want := []string{"-y", "-i", "in.mp3", "-c:a", "aac", "-b:a", "128k", "out.m4b"}
	assertArgs(t, *captured, want)
}

func TestConcatArgs(t *testing.T) {
	captured := captureArgs(t)
	cli := NewCLI()
	if err := cli.Concat(context.Background(), "list.txt", "out.mp3"); err != nil {
		t.Fatalf("Concat returned error: %v", err)
	}
	want := []string{"-y", "-f", "concat", "-safe", "0", "-i", "list.txt", "-c", "copy", "out.mp3"}
	assertArgs(t, *captured, want)
}

func TestWriteMetadataArgs(t *testing.T) {
	captured := captureArgs(t)
	cli := NewCLI()
	if err := cli.WriteMetadata(context.Background(), "in.m4b", "meta.txt", "out.m4b"); err != nil {
		t.Fatalf("WriteMetadata returned error: %v", err)
	}
	want := []string{
		"-y", "-i", "in.m4b", "-i", "meta.txt",
		"-map_metadata", "1", "-map_chapters", "1",
		"-map", "0", "-c", "copy", "out.m4b",
	}
	assertArgs(t, *captured, want)
}

func TestConvertValidatesPaths(t *testing.T) {
	cli := NewCLI()
	if err := cli.Convert(context.Background(), "", "out.mp3", ConvertOptions{}); err == nil {
		t.Fatal("expected error for empty input")
	}
	if err := cli.Convert(context.Background(), "in.mp3", "", ConvertOptions{}); err == nil {
		t.Fatal("expected error for empty output")
	}
}

func TestWithBinary(t *testing.T) {
	cli := NewCLI(WithBinary("/opt/ffmpeg"))
	if cli.binary != "/opt/ffmpeg" {
		t.Fatalf("binary override not applied: %q", cli.binary)
	}
}

func assertArgs(t *testing.T, got, want []string) {
	t.Helper()
	if len(got) != len(want) {
		t.Fatalf("arg count mismatch: got %v want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("arg %d mismatch: got %v want %v", i, got, want)
		}
	}
}
