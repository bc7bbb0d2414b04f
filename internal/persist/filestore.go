package persist

import (
	"bytes"
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"
	"golang.org/x/crypto/blake2b"

	"github.com/l1jgo/rpgcore/internal/state"
)

// ErrChecksum is returned when a state file does not match its checksum.
var ErrChecksum = errors.New("state file checksum mismatch")

// checksumPrefix starts the first line of a state file. The YAML payload
// follows on the next line, so the file stays readable.
const checksumPrefix = "# blake2b "

// FileStore writes one YAML file per map below Dir.
type FileStore struct {
	Dir string
	log *zap.Logger
}

func NewFileStore(dir string, log *zap.Logger) (*FileStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create state dir %s: %w", dir, err)
	}
	return &FileStore{Dir: dir, log: log}, nil
}

func (s *FileStore) path(key string) string {
	return filepath.Join(s.Dir, filepath.Base(key))
}

func (s *FileStore) Load(ctx context.Context, key string) (state.States, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	raw, err := os.ReadFile(s.path(key))
	if err != nil {
		if os.IsNotExist(err) {
			return make(state.States), nil
		}
		return nil, fmt.Errorf("read state %s: %w", key, err)
	}
	payload, err := verify(raw)
	if err != nil {
		return nil, fmt.Errorf("state %s: %w", key, err)
	}
	states, err := state.Unmarshal(payload)
	if err != nil {
		return nil, fmt.Errorf("state %s: %w", key, err)
	}
	s.log.Debug("載入地圖狀態", zap.String("key", key), zap.Int("entities", len(states)))
	return states, nil
}

// Save replaces the file atomically through a temp file and rename.
func (s *FileStore) Save(ctx context.Context, key string, states state.States) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	payload, err := state.Marshal(states)
	if err != nil {
		return err
	}
	tmp, err := os.CreateTemp(s.Dir, ".state-*")
	if err != nil {
		return fmt.Errorf("create temp state: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(seal(payload)); err != nil {
		tmp.Close()
		return fmt.Errorf("write state %s: %w", key, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("write state %s: %w", key, err)
	}
	if err := os.Rename(tmp.Name(), s.path(key)); err != nil {
		return fmt.Errorf("replace state %s: %w", key, err)
	}
	s.log.Debug("儲存地圖狀態", zap.String("key", key), zap.Int("entities", len(states)))
	return nil
}

func (s *FileStore) Close() error { return nil }

func seal(payload []byte) []byte {
	sum := blake2b.Sum256(payload)
	out := make([]byte, 0, len(checksumPrefix)+hex.EncodedLen(len(sum))+1+len(payload))
	out = append(out, checksumPrefix...)
	out = hex.AppendEncode(out, sum[:])
	out = append(out, '\n')
	return append(out, payload...)
}

func verify(raw []byte) ([]byte, error) {
	header, payload, ok := bytes.Cut(raw, []byte{'\n'})
	if !ok || !bytes.HasPrefix(header, []byte(checksumPrefix)) {
		return nil, ErrChecksum
	}
	want, err := hex.DecodeString(string(header[len(checksumPrefix):]))
	if err != nil {
		return nil, ErrChecksum
	}
	sum := blake2b.Sum256(payload)
	if !bytes.Equal(want, sum[:]) {
		return nil, ErrChecksum
	}
	return payload, nil
}

var _ Store = (*FileStore)(nil)
