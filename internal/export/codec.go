package export

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/natefinch/atomic"
	"github.com/tailscale/hujson"
)

// filePerms is applied after writing; atomic.WriteFile keeps the temp
// file's mode for new files.
const filePerms = 0600

// standardize turns JSONC/HuJSON (comments, trailing commas) into plain
// JSON when lenient is set.
func standardize(data []byte, lenient bool) ([]byte, error) {
	if !lenient {
		return data, nil
	}
	out, err := hujson.Standardize(bytes.Clone(data))
	if err != nil {
		return nil, fmt.Errorf("invalid JSONC: %w", err)
	}
	return out, nil
}

// DecodeRaw decodes a snapshot into untyped values for ValidateExportData.
// Numbers are kept as json.Number. Trailing data after the document is an
// error.
func DecodeRaw(data []byte, lenient bool) (any, error) {
	data, err := standardize(data, lenient)
	if err != nil {
		return nil, err
	}

	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var raw any
	if err := dec.Decode(&raw); err != nil {
		return nil, fmt.Errorf("invalid JSON: %w", err)
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("invalid JSON: unexpected data after snapshot")
	}
	return raw, nil
}

// Decode decodes a snapshot into typed records. Call it after
// ValidateExportData has accepted the same bytes. An empty assigneeId
// decodes as unassigned.
func Decode(data []byte, lenient bool) (*Snapshot, error) {
	data, err := standardize(data, lenient)
	if err != nil {
		return nil, err
	}
	var snap Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, fmt.Errorf("invalid snapshot: %w", err)
	}
	snap.Data = snap.Data.normalize()
	for i := range snap.Data.Issues {
		if a := snap.Data.Issues[i].AssigneeID; a != nil && *a == "" {
			snap.Data.Issues[i].AssigneeID = nil
		}
	}
	return &snap, nil
}

// Encode writes snap to w as indented JSON.
func Encode(w io.Writer, snap *Snapshot) error {
	out := *snap
	out.Data = out.Data.normalize()

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	if err := enc.Encode(&out); err != nil {
		return fmt.Errorf("failed to encode snapshot: %w", err)
	}
	return nil
}

// WriteFile writes snap to path atomically with 0600 permissions.
func WriteFile(path string, snap *Snapshot) error {
	var buf bytes.Buffer
	if err := Encode(&buf, snap); err != nil {
		return err
	}
	if err := atomic.WriteFile(path, &buf); err != nil {
		return fmt.Errorf("failed to write snapshot: %w", err)
	}
	if err := os.Chmod(path, filePerms); err != nil {
		return fmt.Errorf("failed to set snapshot permissions: %w", err)
	}
	return nil
}
