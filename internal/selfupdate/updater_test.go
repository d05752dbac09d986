package selfupdate

import (
	"archive/tar"
	"bytes"
	"compress/gzip"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAssetNameFor(t *testing.T) {
	tests := []struct {
		name    string
		goos    string
		goarch  string
		want    string
		wantErr bool
	}{
		{"darwin amd64", "darwin", "amd64", "atrisk_Darwin_all.tar.gz", false},
		{"darwin arm64", "darwin", "arm64", "atrisk_Darwin_all.tar.gz", false},
		{"linux amd64", "linux", "amd64", "atrisk_Linux_x86_64.tar.gz", false},
		{"linux arm64", "linux", "arm64", "atrisk_Linux_arm64.tar.gz", false},
		{"linux 386", "linux", "386", "atrisk_Linux_i386.tar.gz", false},
		{"windows amd64", "windows", "amd64", "atrisk_Windows_x86_64.zip", false},
		{"windows arm64", "windows", "arm64", "atrisk_Windows_arm64.zip", false},
		{"unsupported os", "freebsd", "amd64", "", true},
		{"unsupported arch", "linux", "mips", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := assetNameFor("atrisk", tt.goos, tt.goarch)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseChecksums(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  map[string]string
	}{
		{
			name:  "normal",
			input: "abc123  atrisk_Darwin_all.tar.gz\ndef456  atrisk_Linux_x86_64.tar.gz\n",
			want: map[string]string{
				"atrisk_Darwin_all.tar.gz":   "abc123",
				"atrisk_Linux_x86_64.tar.gz": "def456",
			},
		},
		{
			name:  "empty",
			input: "",
			want:  map[string]string{},
		},
		{
			name:  "malformed lines skipped",
			input: "abc123  file.tar.gz\nbadline\n  \nfoo  bar  baz\nghi789  other.tar.gz\n",
			want: map[string]string{
				"file.tar.gz":  "abc123",
				"other.tar.gz": "ghi789",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := parseChecksums([]byte(tt.input))
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestVerifyChecksum(t *testing.T) {
	data := []byte("hello world")
	h := sha256.Sum256(data)
	correctHex := hex.EncodeToString(h[:])

	t.Run("match", func(t *testing.T) {
		assert.NoError(t, verifyChecksum(data, correctHex))
	})

	t.Run("mismatch", func(t *testing.T) {
		err := verifyChecksum(data, "0000000000000000000000000000000000000000000000000000000000000000")
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrChecksum)
	})
}

func TestExtractBinary(t *testing.T) {
	binaryContent := []byte("#!/bin/sh\necho atrisk")

	t.Run("tar.gz", func(t *testing.T) {
		archive := buildTarGz(t, "atrisk", binaryContent)
		got, err := extractBinary(archive, "atrisk", "atrisk_Darwin_all.tar.gz")
		require.NoError(t, err)
		assert.Equal(t, binaryContent, got)
	})

	t.Run("missing binary", func(t *testing.T) {
		archive := buildTarGz(t, "other-file", binaryContent)
		_, err := extractBinary(archive, "atrisk", "atrisk_Darwin_all.tar.gz")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "not found")
	})
}

func TestApplyUpdate(t *testing.T) {
	dir := t.TempDir()
	target := filepath.Join(dir, "atrisk")

	require.NoError(t, os.WriteFile(target, []byte("old"), 0755))

	newData := []byte("new-binary-content")
	h := sha256.Sum256(newData)

	require.NoError(t, applyUpdate(newData, "atrisk", target, h[:]))

	got, err := os.ReadFile(target)
	require.NoError(t, err)
	assert.Equal(t, newData, got)

	info, err := os.Stat(target)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0755), info.Mode().Perm())
}

// fakeRelease serves a latest-release document for tag and the given
// release files; everything else is 404.
func fakeRelease(t *testing.T, tag string, files map[string][]byte) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/repos/abhisek/atrisk/releases/latest" {
			_, _ = fmt.Fprintf(w, `{"tag_name":%q,"html_url":"https://example.com/%s"}`, tag, tag)
			return
		}
		prefix := "/abhisek/atrisk/releases/download/" + tag + "/"
		if body, ok := files[strings.TrimPrefix(r.URL.Path, prefix)]; ok && strings.HasPrefix(r.URL.Path, prefix) {
			_, _ = w.Write(body)
			return
		}
		w.WriteHeader(http.StatusNotFound)
	}))
	t.Cleanup(server.Close)
	return server
}

func TestUpdate(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("release archives for windows are zip files")
	}
	asset, err := assetNameFor("atrisk", runtime.GOOS, runtime.GOARCH)
	if err != nil {
		t.Skipf("no release asset for this platform: %v", err)
	}

	binaryContent := []byte("new-atrisk-binary")
	archive := buildTarGz(t, "atrisk", binaryContent)
	archiveHash := sha256.Sum256(archive)
	goodSums := []byte(fmt.Sprintf("%s  %s\n", hex.EncodeToString(archiveHash[:]), asset))
	noop := func(UpdateProgress) {}

	t.Run("happy path", func(t *testing.T) {
		execPath := filepath.Join(t.TempDir(), "atrisk")
		require.NoError(t, os.WriteFile(execPath, []byte("old"), 0755))

		server := fakeRelease(t, "v2.0.0", map[string][]byte{asset: archive, "checksums.txt": goodSums})
		checker := NewChecker(
			WithBaseURL(server.URL),
			WithDownloadBaseURL(server.URL),
			withExecPath(func() (string, error) { return execPath, nil }),
		)

		var stages []string
		err := checker.Update(context.Background(), &UpdateInput{CurrentVersion: "v1.0.0"}, func(p UpdateProgress) {
			stages = append(stages, p.Stage)
		})
		require.NoError(t, err)

		got, err := os.ReadFile(execPath)
		require.NoError(t, err)
		assert.Equal(t, binaryContent, got)
		assert.Equal(t, []string{"check", "download", "verify", "extract", "apply", "done"}, stages)

		entries, err := os.ReadDir(filepath.Dir(execPath))
		require.NoError(t, err)
		assert.Len(t, entries, 1, "staging file left behind")
	})

	t.Run("explicit target skips check", func(t *testing.T) {
		execPath := filepath.Join(t.TempDir(), "atrisk")
		require.NoError(t, os.WriteFile(execPath, []byte("old"), 0755))

		server := fakeRelease(t, "v1.5.0", map[string][]byte{asset: archive, "checksums.txt": goodSums})
		checker := NewChecker(
			WithBaseURL(server.URL),
			WithDownloadBaseURL(server.URL),
			withExecPath(func() (string, error) { return execPath, nil }),
		)

		var stages []string
		err := checker.Update(context.Background(), &UpdateInput{CurrentVersion: "v2.0.0", TargetVersion: "v1.5.0"}, func(p UpdateProgress) {
			stages = append(stages, p.Stage)
		})
		require.NoError(t, err)
		assert.NotContains(t, stages, "check")
	})

	t.Run("dev build", func(t *testing.T) {
		err := NewChecker().Update(context.Background(), &UpdateInput{CurrentVersion: "(devel)"}, noop)
		assert.ErrorIs(t, err, ErrDevBuild)
	})

	t.Run("already latest", func(t *testing.T) {
		server := fakeRelease(t, "v1.0.0", nil)
		err := NewChecker(WithBaseURL(server.URL)).Update(context.Background(), &UpdateInput{CurrentVersion: "v1.0.0"}, noop)
		assert.ErrorIs(t, err, ErrAlreadyLatest)
	})

	t.Run("checksum mismatch", func(t *testing.T) {
		badSums := []byte(strings.Repeat("0", 64) + "  " + asset + "\n")
		server := fakeRelease(t, "v2.0.0", map[string][]byte{asset: archive, "checksums.txt": badSums})
		checker := NewChecker(WithBaseURL(server.URL), WithDownloadBaseURL(server.URL))

		err := checker.Update(context.Background(), &UpdateInput{CurrentVersion: "v1.0.0"}, noop)
		assert.ErrorIs(t, err, ErrChecksum)
	})

	t.Run("download failure", func(t *testing.T) {
		server := fakeRelease(t, "v2.0.0", nil)
		checker := NewChecker(WithBaseURL(server.URL), WithDownloadBaseURL(server.URL))

		err := checker.Update(context.Background(), &UpdateInput{CurrentVersion: "v1.0.0"}, noop)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "download archive")
	})
}

// buildTarGz creates a tar.gz archive containing a single file.
func buildTarGz(t *testing.T, name string, content []byte) []byte {
	t.Helper()
	var buf bytes.Buffer
	gw := gzip.NewWriter(&buf)
	tw := tar.NewWriter(gw)

	require.NoError(t, tw.WriteHeader(&tar.Header{
		Name: name,
		Size: int64(len(content)),
		Mode: 0755,
	}))
	_, err := tw.Write(content)
	require.NoError(t, err)
	require.NoError(t, tw.Close())
	require.NoError(t, gw.Close())
	return buf.Bytes()
}
