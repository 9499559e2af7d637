// Package storage persists the engine's PairingConfig across restarts,
// grounded on the pack's directory-scoped record-file pattern but
// switched from JSON to CBOR (github.com/fxamacker/cbor/v2) since the
// record is a small fixed binary structure, not a document meant for
// human editing.
package storage

import (
	"fmt"
	"hash/fnv"
	"os"
	"path/filepath"

	"github.com/fxamacker/cbor/v2"
	"github.com/foxcroft/ventlink/internal/link"
)

// recordVersion lets a future field addition change the persisted
// layout without breaking decode of an older record.
const recordVersion = 1

type record struct {
	Version uint8
	Fields  map[string]uint32
}

// hashedKey mirrors the non-volatile-storage contract's "key derived
// from a hash of the literal string" requirement: any stable hash
// works, FNV-1a needs no dependency beyond the standard library.
func hashedKey() string {
	h := fnv.New32a()
	_, _ = h.Write([]byte("zehnderrf"))
	return fmt.Sprintf("%08x", h.Sum32())
}

// FileStore persists a PairingConfig as a single CBOR-encoded file
// under dir, named by the hashed storage key.
type FileStore struct {
	dir string
}

// NewFileStore returns a FileStore rooted at dir. The directory is
// created lazily on first Save.
func NewFileStore(dir string) *FileStore {
	return &FileStore{dir: dir}
}

func (s *FileStore) path() string {
	return filepath.Join(s.dir, hashedKey()+".cbor")
}

// Load returns the persisted PairingConfig and true, or a zero value
// and false if no record has been saved yet.
func (s *FileStore) Load() (link.PairingConfig, bool, error) {
	data, err := os.ReadFile(s.path())
	if os.IsNotExist(err) {
		return link.PairingConfig{}, false, nil
	}
	if err != nil {
		return link.PairingConfig{}, false, err
	}

	var rec record
	if err := cbor.Unmarshal(data, &rec); err != nil {
		return link.PairingConfig{}, false, err
	}

	cfg := link.PairingConfig{
		NetworkID:    rec.Fields["network_id"],
		MyType:       link.DeviceType(rec.Fields["my_type"]),
		MyID:         uint8(rec.Fields["my_id"]),
		MainUnitType: link.DeviceType(rec.Fields["main_unit_type"]),
		MainUnitID:   uint8(rec.Fields["main_unit_id"]),
	}
	return cfg, true, nil
}

// Save writes cfg as a single CBOR record, overwriting any prior
// pairing.
func (s *FileStore) Save(cfg link.PairingConfig) error {
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return err
	}

	rec := record{
		Version: recordVersion,
		Fields: map[string]uint32{
			"network_id":     cfg.NetworkID,
			"my_type":        uint32(cfg.MyType),
			"my_id":          uint32(cfg.MyID),
			"main_unit_type": uint32(cfg.MainUnitType),
			"main_unit_id":   uint32(cfg.MainUnitID),
		},
	}

	data, err := cbor.Marshal(rec)
	if err != nil {
		return err
	}

	tmp := s.path() + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return err
	}
	return os.Rename(tmp, s.path())
}
