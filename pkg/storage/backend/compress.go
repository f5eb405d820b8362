// Copyright 2026 Teradata
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//	http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.
package backend

import (
	"fmt"
	"io"
	"os"

	"github.com/klauspost/compress/zstd"
)

// CompressedSuffix is appended to a backup path by CompressBackup.
const CompressedSuffix = ".zst"

// CompressBackup zstd-compresses the file at path into path+".zst" and
// removes the original. It returns the compressed file's path.
func CompressBackup(path string) (_ string, err error) {
	src, err := os.Open(path) // #nosec G304 -- path comes from Backup
	if err != nil {
		return "", fmt.Errorf("failed to open backup: %w", err)
	}
	defer src.Close()

	target := path + CompressedSuffix
	dst, err := os.OpenFile(target, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o600) // #nosec G304
	if err != nil {
		return "", fmt.Errorf("failed to create compressed backup: %w", err)
	}
	defer func() {
		if cerr := dst.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("failed to close compressed backup: %w", cerr)
		}
		if err != nil {
			_ = os.Remove(target)
		}
	}()

	enc, err := zstd.NewWriter(dst, zstd.WithEncoderLevel(zstd.SpeedBetterCompression))
	if err != nil {
		return "", fmt.Errorf("failed to create zstd encoder: %w", err)
	}
	if _, err := io.Copy(enc, src); err != nil {
		_ = enc.Close()
		return "", fmt.Errorf("failed to compress backup: %w", err)
	}
	if err := enc.Close(); err != nil {
		return "", fmt.Errorf("failed to compress backup: %w", err)
	}

	_ = src.Close()
	if err := os.Remove(path); err != nil {
		return "", fmt.Errorf("failed to remove uncompressed backup: %w", err)
	}
	return target, nil
}

// DecompressBackup restores a file written by CompressBackup to dest.
func DecompressBackup(path, dest string) error {
	src, err := os.Open(path) // #nosec G304
	if err != nil {
		return fmt.Errorf("failed to open compressed backup: %w", err)
	}
	defer src.Close()

	dec, err := zstd.NewReader(src)
	if err != nil {
		return fmt.Errorf("failed to create zstd decoder: %w", err)
	}
	defer dec.Close()

	dst, err := os.OpenFile(dest, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o600) // #nosec G304
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", dest, err)
	}
	if _, err := io.Copy(dst, dec); err != nil {
		_ = dst.Close()
		return fmt.Errorf("failed to decompress backup: %w", err)
	}
	return dst.Close()
}
