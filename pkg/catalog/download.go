package catalog

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/colinwz/stonkbot/pkg/core"
	"github.com/schollz/progressbar/v3"
)

const downloadTimeout = 2 * time.Minute

// Download fetches a symbol directory from url and writes it to
// outputPath. The body must parse as a reference entry list; invalid
// payloads never replace an existing file.
func Download(ctx context.Context, url, outputPath string) error {
	ctx, cancel := context.WithTimeout(ctx, downloadTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to fetch symbol directory: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("failed to fetch symbol directory: unexpected status %s", resp.Status)
	}

	bar := progressbar.DefaultBytes(resp.ContentLength, "downloading symbol directory")

	var buf bytes.Buffer
	if _, err := io.Copy(io.MultiWriter(&buf, bar), resp.Body); err != nil {
		return fmt.Errorf("failed to read symbol directory: %w", err)
	}

	var entries []core.SymbolInfo
	if err := json.Unmarshal(buf.Bytes(), &entries); err != nil {
		return fmt.Errorf("invalid symbol directory payload: %w", err)
	}

	if err := os.WriteFile(outputPath, buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", outputPath, err)
	}

	return nil
}
