package source

import (
	"archive/zip"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"
)

// Kind tells how the upstream packages a dataset.
type Kind string

const (
	KindDocument Kind = "document"
	KindArchive  Kind = "archive"
)

// Payload is the raw material of one dataset run. It is only valid inside the
// callback passed to Fetcher.Fetch; archive files are deleted afterwards.
type Payload struct {
	Dataset string
	Kind    Kind
	Body    []byte

	// Files holds extracted archive entries in archive-name order.
	Files []ArchiveFile
	// Unreadable lists archive entries that could not be extracted.
	Unreadable []string
}

// Empty reports whether the upstream returned nothing to parse.
func (p *Payload) Empty() bool {
	return len(p.Body) == 0 && len(p.Files) == 0 && len(p.Unreadable) == 0
}

// ArchiveFile is one extracted entry on local disk.
type ArchiveFile struct {
	Name string // name inside the archive
	Path string // extracted location in the scratch directory
}

// Ext returns the lower-case extension of the entry name.
func (f ArchiveFile) Ext() string {
	return strings.ToLower(path.Ext(f.Name))
}

// Open opens the extracted entry.
func (f ArchiveFile) Open() (io.ReadCloser, error) {
	return os.Open(f.Path)
}

// extractArchive unpacks every regular entry of the zip at archivePath into dir.
// Entries are written under generated names so that hostile entry paths cannot
// escape dir. A corrupt entry is recorded as unreadable and skipped.
func extractArchive(archivePath, dir string) ([]ArchiveFile, []string, error) {
	r, err := zip.OpenReader(archivePath)
	if err != nil {
		return nil, nil, fmt.Errorf("open archive: %w", err)
	}
	defer func() {
		_ = r.Close()
	}()

	entries := make([]*zip.File, 0, len(r.File))
	for _, zf := range r.File {
		if zf.FileInfo().IsDir() {
			continue
		}
		entries = append(entries, zf)
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Name < entries[j].Name })

	files := make([]ArchiveFile, 0, len(entries))
	var unreadable []string
	for i, zf := range entries {
		target := filepath.Join(dir, fmt.Sprintf("%06d%s", i, filepath.Ext(zf.Name)))
		if err := extractEntry(zf, target); err != nil {
			unreadable = append(unreadable, zf.Name)
			_ = os.Remove(target)
			continue
		}
		files = append(files, ArchiveFile{Name: zf.Name, Path: target})
	}
	return files, unreadable, nil
}

func extractEntry(zf *zip.File, target string) error {
	rc, err := zf.Open()
	if err != nil {
		return err
	}
	defer func() {
		_ = rc.Close()
	}()

	out, err := os.Create(target)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, rc); err != nil {
		_ = out.Close()
		return err
	}
	return out.Close()
}
