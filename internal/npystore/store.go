package npystore

import (
	"bufio"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/sbinet/npyio"

	"actionprep/internal/faults"
)

// Extension is the file suffix of every artifact.
const Extension = ".npy"

// Artifact records one file written by WriteArray.
type Artifact struct {
	Kind   string
	Name   string
	Path   string
	Bytes  int64
	SHA256 string
}

// Array is any slice type the NumPy encoder accepts.
type Array interface {
	~[]int8 | ~[]float32 | ~[]float64
}

// WriteArray stores values as dir/name.npy. The file is written to a temporary
// name and renamed into place so readers never observe a partial array.
func WriteArray[T Array](dir, kind, name string, values T) (Artifact, error) {
	target := filepath.Join(dir, name+Extension)
	tmp, err := os.CreateTemp(dir, "."+name+"-*.tmp")
	if err != nil {
		return Artifact{}, faults.Wrap(faults.ErrOutput, "npystore", "create", target, err)
	}
	cleanup := func() {
		_ = tmp.Close()
		_ = os.Remove(tmp.Name())
	}

	hasher := sha256.New()
	counter := &countingWriter{}
	buffered := bufio.NewWriter(io.MultiWriter(tmp, hasher, counter))
	if err := npyio.Write(buffered, values); err != nil {
		cleanup()
		return Artifact{}, faults.Wrap(faults.ErrOutput, "npystore", "encode", target, err)
	}
	if err := buffered.Flush(); err != nil {
		cleanup()
		return Artifact{}, faults.Wrap(faults.ErrOutput, "npystore", "write", target, err)
	}
	if err := tmp.Chmod(0o644); err != nil {
		cleanup()
		return Artifact{}, faults.Wrap(faults.ErrOutput, "npystore", "chmod", target, err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmp.Name())
		return Artifact{}, faults.Wrap(faults.ErrOutput, "npystore", "close", target, err)
	}
	if err := os.Rename(tmp.Name(), target); err != nil {
		_ = os.Remove(tmp.Name())
		return Artifact{}, faults.Wrap(faults.ErrOutput, "npystore", "rename", target, err)
	}

	return Artifact{
		Kind:   kind,
		Name:   name + Extension,
		Path:   target,
		Bytes:  counter.n,
		SHA256: hex.EncodeToString(hasher.Sum(nil)),
	}, nil
}

// ReadFloat64 loads a float64 array.
func ReadFloat64(path string) ([]float64, error) {
	var out []float64
	return out, read(path, &out)
}

// ReadFloat32 loads a float32 array.
func ReadFloat32(path string) ([]float32, error) {
	var out []float32
	return out, read(path, &out)
}

// ReadInt8 loads an int8 array.
func ReadInt8(path string) ([]int8, error) {
	var out []int8
	return out, read(path, &out)
}

func read(path string, ptr any) error {
	file, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open %s: %w", path, err)
	}
	defer file.Close()
	if err := npyio.Read(bufio.NewReader(file), ptr); err != nil {
		return fmt.Errorf("decode %s: %w", path, err)
	}
	return nil
}

type countingWriter struct {
	n int64
}

func (w *countingWriter) Write(p []byte) (int, error) {
	w.n += int64(len(p))
	return len(p), nil
}
