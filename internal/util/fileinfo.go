package util

import (
	"fmt"
	"os"
	"syscall"
)

// FileInfo captures the identity of a dump file on disk: size, mtime and
// inode. Together they are stable enough to tell "same file" from "rewritten".
type FileInfo struct {
	ModTime int64
	Size    int64
	Inode   uint64
}

// GetFileInfo stats a dump file. Requires a Unix-like stat (Linux, macOS).
func GetFileInfo(filepath string) (*FileInfo, error) {
	stat, err := os.Stat(filepath)
	if err != nil {
		return nil, err
	}

	sysStat, ok := stat.Sys().(*syscall.Stat_t)
	if !ok {
		return nil, fmt.Errorf("no stat information for %s", filepath)
	}

	return &FileInfo{
		ModTime: stat.ModTime().Unix(),
		Size:    stat.Size(),
		Inode:   sysStat.Ino,
	}, nil
}

// Fingerprint folds a FileInfo into a single comparable token, used to
// detect whether a dump file actually changed between reloads.
func (f *FileInfo) Fingerprint() string {
	return fmt.Sprintf("%d-%d-%d", f.Inode, f.Size, f.ModTime)
}
