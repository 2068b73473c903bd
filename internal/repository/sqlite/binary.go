package sqlite

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/hex"
	"errors"
	"fmt"
	"io"

	"golang.org/x/crypto/blake2b"

	"repoexplorer/internal/repository"
)

// storeBinary reads r fully and stores it under its BLAKE2b-256 digest.
// Identical payloads share one row.
func storeBinary(ctx context.Context, tx *sql.Tx, r io.Reader) (string, error) {
	h, err := blake2b.New256(nil)
	if err != nil {
		return "", fmt.Errorf("failed to create hasher: %w", err)
	}

	var buf bytes.Buffer
	size, err := io.Copy(io.MultiWriter(&buf, h), r)
	if err != nil {
		return "", fmt.Errorf("failed to read binary stream: %w", err)
	}
	digest := hex.EncodeToString(h.Sum(nil))

	if _, err := tx.ExecContext(ctx, `
		INSERT OR IGNORE INTO binaries (digest, size, data) VALUES (?, ?, ?)
	`, digest, size, buf.Bytes()); err != nil {
		return "", fmt.Errorf("failed to store binary: %w", err)
	}
	return digest, nil
}

// OpenBinary returns the committed payload of a binary value
func (r *Repository) OpenBinary(ctx context.Context, v repository.Value) (io.ReadCloser, error) {
	if v.Type() != repository.TypeBinary {
		return nil, fmt.Errorf("%w: %s value is not binary", repository.ErrValueFormat, v.Type())
	}
	var data []byte
	err := r.db.QueryRowContext(ctx, `SELECT data FROM binaries WHERE digest = ?`, v.String()).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: binary %s", repository.ErrItemNotFound, v.String())
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read binary: %w", err)
	}
	return io.NopCloser(bytes.NewReader(data)), nil
}
