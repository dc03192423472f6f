// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package remote

import (
	"context"
	"fmt"
	"io"

	"github.com/UnderscoreTud/skript-server-wizard/internal/util"
)

// MaxDownloadSize is the largest file a Downloader will write.
const MaxDownloadSize = 512 * 1024 * 1024

// Downloader streams remote files to disk. It shares the rate limiter
// and logging of the API clients but not their per-request timeout;
// a download is bounded by its context only.
type Downloader struct {
	c *client
}

// NewDownloader creates a downloader. opts.Timeout is ignored.
func NewDownloader(opts Options) *Downloader {
	return &Downloader{c: newClient(opts, nil)}
}

// Download writes the body at url to path and returns its size. path is
// replaced atomically, so a failed download never leaves a partial file.
func (d *Downloader) Download(ctx context.Context, url, path string) (int64, error) {
	resp, err := d.c.open(ctx, url)
	if err != nil {
		return 0, fmt.Errorf("download %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.ContentLength > MaxDownloadSize {
		return 0, fmt.Errorf("%s: %w", url, ErrResponseTooLarge)
	}

	n, err := util.AtomicWriteReader(path, &cappedReader{r: resp.Body, left: MaxDownloadSize}, 0644)
	if err != nil {
		return n, fmt.Errorf("download %s: %w", url, err)
	}
	d.c.logger.Debug("downloaded", "url", url, "path", path, "bytes", n)
	return n, nil
}

// cappedReader fails with ErrResponseTooLarge once more than left bytes
// have been read.
type cappedReader struct {
	r    io.Reader
	left int64
}

func (c *cappedReader) Read(p []byte) (int, error) {
	if c.left <= 0 {
		var extra [1]byte
		n, err := c.r.Read(extra[:])
		if n > 0 {
			return 0, ErrResponseTooLarge
		}
		return 0, err
	}
	if int64(len(p)) > c.left {
		p = p[:c.left]
	}
	n, err := c.r.Read(p)
	c.left -= int64(n)
	return n, err
}
