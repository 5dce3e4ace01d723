package archive

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/spf13/afero"
)

// maxDisambiguator bounds the candidate search so a broken filesystem
// that reports every name as taken cannot spin forever.
const maxDisambiguator = 100000

func candidateName(path string, n int) string {
	if n == 0 {
		return path
	}
	return fmt.Sprintf("%s %d", path, n)
}

// fileCandidateName is candidateName for files. An archive extension stays at
// the end, "a.tar.gz" becomes "a 1.tar.gz", so the copy is still detected as an
// archive. Other names get the number appended.
func fileCandidateName(path string, n int) string {
	if n == 0 {
		return path
	}
	if _, suffix := matchSuffix(path); suffix != "" {
		cut := len(path) - len(suffix)
		return fmt.Sprintf("%s %d%s", path[:cut], n, path[cut:])
	}
	return candidateName(path, n)
}

// MakeUniqueDirectoryName returns path if nothing exists there, otherwise the
// first of "path 1", "path 2", ... that is free.
//
// The answer is only valid at the moment of the check. Use CreateUniqueDirectory
// when the directory is going to be created anyway.
func MakeUniqueDirectoryName(fsys afero.Fs, path string) (string, error) {
	for n := 0; n <= maxDisambiguator; n++ {
		candidate := candidateName(path, n)
		exists, err := afero.Exists(fsys, candidate)
		if err != nil {
			return "", fsError("stat", candidate, err)
		}
		if !exists {
			return candidate, nil
		}
	}
	return "", fsError("unique name", path, fmt.Errorf("no free name after %d attempts", maxDisambiguator))
}

// CreateUniqueDirectory creates and returns a directory at path or at the first
// free "path N" candidate. Each candidate is claimed with Mkdir, so two callers
// racing for the same base path never end up sharing a directory.
func CreateUniqueDirectory(fsys afero.Fs, path string) (string, error) {
	if err := fsys.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return "", fsError("mkdir", filepath.Dir(path), err)
	}

	for n := 0; n <= maxDisambiguator; n++ {
		candidate := candidateName(path, n)
		err := fsys.Mkdir(candidate, 0o755)
		if err == nil {
			return candidate, nil
		}
		if !errors.Is(err, fs.ErrExist) {
			return "", fsError("mkdir", candidate, err)
		}
	}
	return "", fsError("mkdir", path, fmt.Errorf("no free name after %d attempts", maxDisambiguator))
}

// CreateUniqueFile opens a new file for writing at path or at the first free
// candidate, using exclusive create. Candidates are "path N", or "name N.ext"
// when path ends in an archive extension.
func CreateUniqueFile(fsys afero.Fs, path string, perm os.FileMode) (afero.File, error) {
	for n := 0; n <= maxDisambiguator; n++ {
		candidate := fileCandidateName(path, n)
		f, err := fsys.OpenFile(candidate, os.O_WRONLY|os.O_CREATE|os.O_EXCL, perm)
		if err == nil {
			return f, nil
		}
		if !errors.Is(err, fs.ErrExist) {
			return nil, fsError("create", candidate, err)
		}
	}
	return nil, fsError("create", path, fmt.Errorf("no free name after %d attempts", maxDisambiguator))
}
