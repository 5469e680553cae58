package starlark

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/robbyt/go-scriptbind/domain"
	"github.com/vmihailenco/msgpack/v5"
	starlarkLib "go.starlark.net/starlark"
)

// Bump when the envelope layout changes.
const artifactSchemaVersion uint16 = 1

const artifactExt = ".starc"

// envelope is the on-disk form of a compiled script.
type envelope struct {
	Schema          uint16        `msgpack:"schema"`
	CompilerVersion int           `msgpack:"compiler_version"`
	SourceHash      string        `msgpack:"source_hash"`
	Filename        string        `msgpack:"filename"`
	Program         []byte        `msgpack:"program"`
	Order           []declaration `msgpack:"order"`
}

func (env *envelope) program() (*starlarkLib.Program, error) {
	prog, err := starlarkLib.CompiledProgram(bytes.NewReader(env.Program))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrArtifactInvalid, err)
	}
	return prog, nil
}

// artifactPath is <cacheDir>/<domain>/<first 16 hex of the source hash>.starc
func (e *Engine) artifactPath(dom *domain.Domain, hash string) string {
	return filepath.Join(e.cacheDir, dirName(dom.Name()), hash[:16]+artifactExt)
}

// dirName makes a domain name safe to use as one path element.
func dirName(name string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_', r == '.':
			return r
		default:
			return '_'
		}
	}, name)
}

func readArtifact(path, hash string) (*envelope, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var env envelope
	if err := msgpack.Unmarshal(data, &env); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrArtifactInvalid, err)
	}
	if env.Schema != artifactSchemaVersion {
		return nil, fmt.Errorf("%w: schema %d, want %d", ErrArtifactInvalid, env.Schema, artifactSchemaVersion)
	}
	if env.CompilerVersion != starlarkLib.CompilerVersion {
		return nil, fmt.Errorf("%w: compiler version %d, want %d",
			ErrArtifactInvalid, env.CompilerVersion, starlarkLib.CompilerVersion)
	}
	if env.SourceHash != hash {
		return nil, fmt.Errorf("%w: source hash mismatch", ErrArtifactInvalid)
	}
	return &env, nil
}

// loadArtifact reads the envelope at path and loads its program. Any failure
// means the artifact has to be rebuilt.
func loadArtifact(path, hash string) (*envelope, *starlarkLib.Program, error) {
	env, err := readArtifact(path, hash)
	if err != nil {
		return nil, nil, err
	}
	prog, err := env.program()
	if err != nil {
		return nil, nil, err
	}
	return env, prog, nil
}

// writeArtifact stores the program through a temp file renamed into place.
func writeArtifact(path string, u *unit, prog *starlarkLib.Program, order []declaration) (err error) {
	var buf bytes.Buffer
	if err := prog.Write(&buf); err != nil {
		return fmt.Errorf("%w: %w", ErrArtifactWrite, err)
	}

	data, err := msgpack.Marshal(&envelope{
		Schema:          artifactSchemaVersion,
		CompilerVersion: starlarkLib.CompilerVersion,
		SourceHash:      u.hash,
		Filename:        u.filename,
		Program:         buf.Bytes(),
		Order:           order,
	})
	if err != nil {
		return fmt.Errorf("%w: %w", ErrArtifactWrite, err)
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("%w: %w", ErrArtifactWrite, err)
	}
	f, err := os.CreateTemp(dir, "tmp-*")
	if err != nil {
		return fmt.Errorf("%w: %w", ErrArtifactWrite, err)
	}
	defer func() {
		if rmErr := os.Remove(f.Name()); rmErr != nil && !errors.Is(rmErr, os.ErrNotExist) {
			err = errors.Join(err, rmErr)
		}
	}()

	if _, err := f.Write(data); err != nil {
		_ = f.Close()
		return fmt.Errorf("%w: %w", ErrArtifactWrite, err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("%w: %w", ErrArtifactWrite, err)
	}
	if err := os.Rename(f.Name(), path); err != nil {
		return fmt.Errorf("%w: %w", ErrArtifactWrite, err)
	}
	return nil
}
