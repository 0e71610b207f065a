package circuits

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"time"

	"github.com/whistle-protocol/shieldpool/log"
	"github.com/whistle-protocol/shieldpool/types"
)

// CheckHashes tells whether artifact content is checked against its sha256
// hash when loaded or downloaded. SHIELDPOOL_CHECK_HASHES=false (or 0)
// disables it.
var CheckHashes = true

// BaseDir is the local artifact cache, where files are stored by the hex
// encoding of their sha256 hash. Defaults to SHIELDPOOL_ARTIFACTS_DIR or
// ~/.cache/shieldpool-artifacts.
var BaseDir string

func init() {
	if v := os.Getenv("SHIELDPOOL_CHECK_HASHES"); v != "" {
		if strings.EqualFold(v, "false") || v == "0" {
			CheckHashes = false
		}
	}
	if dir := os.Getenv("SHIELDPOOL_ARTIFACTS_DIR"); dir != "" {
		BaseDir = dir
		return
	}
	home, err := os.UserHomeDir()
	if err != nil || home == "" {
		BaseDir = filepath.Join(os.TempDir(), "shieldpool-artifacts")
		return
	}
	BaseDir = filepath.Join(home, ".cache", "shieldpool-artifacts")
}

// Artifact is a file identified by its sha256 hash, such as a verifying key.
// It is looked up in the local cache first and downloaded from RemoteURL when
// missing.
type Artifact struct {
	RemoteURL string         `json:"remoteURL,omitempty"`
	Hash      types.HexBytes `json:"hash,omitempty"`
	Content   types.HexBytes `json:"-"`
}

// Load fills Content from the local cache, downloading it first if needed.
// Content already set is returned as is.
func (a *Artifact) Load(ctx context.Context) error {
	if len(a.Content) != 0 {
		return nil
	}
	if len(a.Hash) == 0 {
		return fmt.Errorf("artifact hash not provided")
	}
	content, err := load(a.Hash)
	if err != nil {
		return err
	}
	if content == nil {
		if err := a.Download(ctx); err != nil {
			return err
		}
		if content, err = load(a.Hash); err != nil {
			return err
		}
		if content == nil {
			return fmt.Errorf("artifact %x not found after download", []byte(a.Hash))
		}
	}
	a.Content = content
	return nil
}

// Download fetches RemoteURL into the local cache, resuming a previous
// partial download if there is one.
func (a *Artifact) Download(ctx context.Context) error {
	if a.RemoteURL == "" {
		return fmt.Errorf("artifact %x not cached and no remote url", []byte(a.Hash))
	}
	return downloadAndStore(ctx, a.Hash, a.RemoteURL)
}

func load(hash []byte) ([]byte, error) {
	if err := os.MkdirAll(BaseDir, 0o755); err != nil {
		return nil, fmt.Errorf("create artifacts dir: %w", err)
	}
	path := filepath.Join(BaseDir, hex.EncodeToString(hash))
	content, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read artifact %s: %w", path, err)
	}
	if CheckHashes {
		if sum := sha256.Sum256(content); !bytes.Equal(sum[:], hash) {
			return nil, fmt.Errorf("hash mismatch for %s: expected %x, got %x", path, hash, sum)
		}
	}
	return content, nil
}

// countingReader keeps track of the bytes read so far.
type countingReader struct {
	io.Reader
	total atomic.Int64
}

func (r *countingReader) Read(p []byte) (int, error) {
	n, err := r.Reader.Read(p)
	r.total.Add(int64(n))
	return n, err
}

func downloadAndStore(ctx context.Context, expectedHash []byte, fileURL string) error {
	if _, err := url.Parse(fileURL); err != nil {
		return fmt.Errorf("invalid artifact url: %w", err)
	}
	if err := os.MkdirAll(BaseDir, 0o755); err != nil {
		return fmt.Errorf("create artifacts dir: %w", err)
	}
	path := filepath.Join(BaseDir, hex.EncodeToString(expectedHash))
	partialPath := path + ".partial"

	var offset int64
	if info, err := os.Stat(partialPath); err == nil {
		offset = info.Size()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fileURL, nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	if offset > 0 {
		req.Header.Set("Range", fmt.Sprintf("bytes=%d-", offset))
	}
	res, err := http.DefaultClient.Do(req)
	if err != nil {
		return fmt.Errorf("download %s: %w", fileURL, err)
	}
	defer res.Body.Close()
	if res.StatusCode != http.StatusOK && res.StatusCode != http.StatusPartialContent {
		return fmt.Errorf("download %s: http status %d", fileURL, res.StatusCode)
	}

	flags := os.O_CREATE | os.O_WRONLY | os.O_TRUNC
	resume := offset > 0 && res.StatusCode == http.StatusPartialContent
	if resume {
		flags = os.O_APPEND | os.O_WRONLY
	}
	fd, err := os.OpenFile(partialPath, flags, 0o644)
	if err != nil {
		return fmt.Errorf("open artifact file: %w", err)
	}
	defer fd.Close()

	hasher := sha256.New()
	if resume {
		existing, err := os.Open(partialPath)
		if err != nil {
			return fmt.Errorf("reopen partial artifact: %w", err)
		}
		_, err = io.Copy(hasher, existing)
		existing.Close()
		if err != nil {
			return fmt.Errorf("hash partial artifact: %w", err)
		}
	}

	body := &countingReader{Reader: res.Body}
	done := make(chan error, 1)
	go func() {
		_, err := io.Copy(io.MultiWriter(fd, hasher), body)
		done <- err
	}()
	ticker := time.NewTicker(10 * time.Second)
	defer ticker.Stop()
wait:
	for {
		select {
		case err := <-done:
			if err != nil {
				return fmt.Errorf("write artifact: %w", err)
			}
			break wait
		case <-ticker.C:
			log.Debugw("downloading artifact", "url", fileURL,
				"downloaded", fmt.Sprintf("%.2fMiB", float64(body.total.Load())/(1<<20)))
		}
	}

	if CheckHashes {
		if sum := hasher.Sum(nil); !bytes.Equal(sum, expectedHash) {
			_ = os.Remove(partialPath)
			return fmt.Errorf("hash mismatch: expected %x, got %x", expectedHash, sum)
		}
	}
	if err := os.Rename(partialPath, path); err != nil {
		return fmt.Errorf("store artifact: %w", err)
	}
	return nil
}
