// Package localstate keeps the persisted store blob in a single local file.
package localstate

import (
	"context"
	"crypto/sha256"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"go.uber.org/zap"

	clientcrypto "github.com/and161185/nutrisync/internal/crypto/clientcrypto"
	"github.com/and161185/nutrisync/internal/errs"
	"github.com/and161185/nutrisync/internal/model"
	"github.com/and161185/nutrisync/internal/service"
)

const (
	formatVersion = 1
	stateKeyLabel = "nutrisync/state"
)

// ErrLocked is returned by Load when the file is sealed and no passphrase is set.
var ErrLocked = errors.New("local state is sealed: passphrase required")

type envelope struct {
	Version    int             `json:"version"`
	Sealed     bool            `json:"sealed"`
	Salt       []byte          `json:"salt,omitempty"`
	WrappedKey []byte          `json:"wrapped_key,omitempty"`
	State      json.RawMessage `json:"state,omitempty"`
	Data       []byte          `json:"data,omitempty"`
}

// Option customizes a File.
type Option func(*File)

// WithPassphrase seals the file under passphrase.
func WithPassphrase(p []byte) Option {
	return func(f *File) { f.pass = append([]byte(nil), p...) }
}

// WithLogger sets the logger used for background write failures.
func WithLogger(l *zap.Logger) Option {
	return func(f *File) {
		if l != nil {
			f.log = l
		}
	}
}

// File is a service.Persister backed by one JSON file. Save never blocks on
// I/O: a single writer goroutine stores the most recent snapshot.
type File struct {
	path string
	pass []byte
	log  *zap.Logger

	mu      sync.Mutex
	pending *model.State
	salt    []byte
	wrapped []byte
	key     []byte
	sum     [sha256.Size]byte // of the bytes last read or written

	writeMu sync.Mutex
	wake    chan struct{}
	stop    chan struct{}
	done    chan struct{}
	once    sync.Once
}

var _ service.Persister = (*File)(nil)

// Open returns a File for path and starts its writer.
func Open(path string, opts ...Option) *File {
	f := &File{
		path: path,
		log:  zap.NewNop(),
		wake: make(chan struct{}, 1),
		stop: make(chan struct{}),
		done: make(chan struct{}),
	}
	for _, o := range opts {
		o(f)
	}
	go f.loop()
	return f
}

// Path returns the file location.
func (f *File) Path() string { return f.path }

// Load reads the stored state. A missing file yields errs.ErrNotFound; an
// unreadable or undecryptable one yields errs.ErrCorruptState.
func (f *File) Load(ctx context.Context) (model.State, error) {
	if err := ctx.Err(); err != nil {
		return model.State{}, err
	}
	b, err := os.ReadFile(f.path)
	if errors.Is(err, fs.ErrNotExist) {
		return model.State{}, errs.ErrNotFound
	}
	if err != nil {
		return model.State{}, fmt.Errorf("read state: %w", err)
	}
	f.mu.Lock()
	f.sum = sha256.Sum256(b)
	f.mu.Unlock()

	var env envelope
	if err := json.Unmarshal(b, &env); err != nil {
		return model.State{}, fmt.Errorf("%w: %v", errs.ErrCorruptState, err)
	}
	if env.Version != formatVersion {
		return model.State{}, fmt.Errorf("%w: unsupported version %d", errs.ErrCorruptState, env.Version)
	}

	raw := []byte(env.State)
	if env.Sealed {
		if len(f.pass) == 0 {
			return model.State{}, ErrLocked
		}
		kek := clientcrypto.DeriveKEK(f.pass, env.Salt)
		dk, err := clientcrypto.UnwrapKey(kek, env.WrappedKey)
		if err != nil {
			return model.State{}, fmt.Errorf("%w: unwrap key: %v", errs.ErrCorruptState, err)
		}
		key, err := clientcrypto.DeriveSubkey(dk, stateKeyLabel)
		if err != nil {
			return model.State{}, err
		}
		raw, err = clientcrypto.Open(key, versionAAD(env.Version), env.Data)
		if err != nil {
			return model.State{}, fmt.Errorf("%w: open: %v", errs.ErrCorruptState, err)
		}
		f.mu.Lock()
		f.salt, f.wrapped, f.key = env.Salt, env.WrappedKey, key
		f.mu.Unlock()
	}

	var st model.State
	if err := json.Unmarshal(raw, &st); err != nil {
		return model.State{}, fmt.Errorf("%w: %v", errs.ErrCorruptState, err)
	}
	return st, nil
}

// Save queues st for writing, replacing any snapshot not yet written.
func (f *File) Save(st model.State) {
	f.mu.Lock()
	f.pending = &st
	f.mu.Unlock()
	select {
	case f.wake <- struct{}{}:
	default:
	}
}

// Flush writes the queued snapshot, if any, before returning.
func (f *File) Flush() error {
	f.writeMu.Lock()
	defer f.writeMu.Unlock()
	f.mu.Lock()
	st := f.pending
	f.pending = nil
	f.mu.Unlock()
	if st == nil {
		return nil
	}
	return f.write(*st)
}

// Close flushes and stops the writer. It is safe to call more than once.
func (f *File) Close() error {
	f.once.Do(func() { close(f.stop) })
	<-f.done
	return f.Flush()
}

func (f *File) loop() {
	defer close(f.done)
	for {
		select {
		case <-f.wake:
			if err := f.Flush(); err != nil {
				f.log.Error("write local state", zap.String("path", f.path), zap.Error(err))
			}
		case <-f.stop:
			return
		}
	}
}

func (f *File) write(st model.State) error {
	raw, err := json.Marshal(st)
	if err != nil {
		return fmt.Errorf("marshal state: %w", err)
	}
	env := envelope{Version: formatVersion}
	if len(f.pass) == 0 {
		env.State = raw
	} else {
		if err := f.ensureKey(); err != nil {
			return err
		}
		f.mu.Lock()
		key := f.key
		env.Salt, env.WrappedKey = f.salt, f.wrapped
		f.mu.Unlock()
		env.Sealed = true
		env.Data, err = clientcrypto.Seal(key, versionAAD(env.Version), raw)
		if err != nil {
			return fmt.Errorf("seal state: %w", err)
		}
	}
	b, err := json.MarshalIndent(env, "", "  ")
	if err != nil {
		return err
	}
	f.mu.Lock()
	f.sum = sha256.Sum256(b)
	f.mu.Unlock()
	return writeAtomic(f.path, b)
}

// ensureKey creates salt and data key on first sealed write.
func (f *File) ensureKey() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.key != nil {
		return nil
	}
	salt, err := clientcrypto.Rand(clientcrypto.SaltLen)
	if err != nil {
		return err
	}
	dk, err := clientcrypto.NewDataKey()
	if err != nil {
		return err
	}
	wrapped, err := clientcrypto.WrapKey(clientcrypto.DeriveKEK(f.pass, salt), dk)
	if err != nil {
		return err
	}
	key, err := clientcrypto.DeriveSubkey(dk, stateKeyLabel)
	if err != nil {
		return err
	}
	f.salt, f.wrapped, f.key = salt, wrapped, key
	return nil
}

func versionAAD(v int) []byte { return []byte(fmt.Sprintf("nutrisync-state-v%d", v)) }

func writeAtomic(path string, b []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(dir, ".state-*")
	if err != nil {
		return err
	}
	name := tmp.Name()
	defer os.Remove(name)
	if _, err := tmp.Write(b); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Chmod(name, 0o600); err != nil {
		return err
	}
	return os.Rename(name, path)
}

// DefaultPath returns $XDG_DATA_HOME/nutrisync/state.json, falling back to
// ~/.local/share.
func DefaultPath() string {
	if v := os.Getenv("XDG_DATA_HOME"); v != "" {
		return filepath.Join(v, "nutrisync", "state.json")
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".local", "share", "nutrisync", "state.json")
}
