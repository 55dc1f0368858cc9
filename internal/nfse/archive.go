package nfse

import (
	"archive/zip"
	"bytes"
	"fmt"
	"io"
	"path"
	"strings"
)

const (
	// MaxDocumentSizeBytes is the maximum size of a single XML payload (20MB)
	MaxDocumentSizeBytes = 20 * 1024 * 1024

	// MaxArchiveSizeBytes is the maximum size of a ZIP container (256MB)
	MaxArchiveSizeBytes = 256 * 1024 * 1024
)

// ArchiveEntry is an XML payload inside a ZIP container. Open reads its content
// and may be called concurrently with other entries of the same archive.
type ArchiveEntry struct {
	Name string
	file *zip.File
}

// Open decompresses the entry.
func (e ArchiveEntry) Open() ([]byte, error) {
	const op = "OpenEntry"

	if e.file.UncompressedSize64 > MaxDocumentSizeBytes {
		return nil, NewImportError(op, e.Name, ErrDocumentTooLarge,
			fmt.Sprintf("%d bytes", e.file.UncompressedSize64))
	}

	rc, err := e.file.Open()
	if err != nil {
		return nil, NewImportError(op, e.Name, ErrUnreadableFile, err.Error())
	}
	defer rc.Close()

	data, err := io.ReadAll(io.LimitReader(rc, MaxDocumentSizeBytes+1))
	if err != nil {
		return nil, NewImportError(op, e.Name, ErrUnreadableFile, err.Error())
	}
	if len(data) > MaxDocumentSizeBytes {
		return nil, NewImportError(op, e.Name, ErrDocumentTooLarge, "")
	}
	return data, nil
}

// UnpackArchive lists the XML entries of a ZIP container in archive order.
// Directory entries and entries without an .xml extension are skipped.
func UnpackArchive(data []byte, archiveName string) ([]ArchiveEntry, error) {
	const op = "UnpackArchive"

	reader, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, NewImportError(op, archiveName, ErrCorruptArchive, err.Error())
	}

	var entries []ArchiveEntry
	for _, file := range reader.File {
		if file.FileInfo().IsDir() || !IsXMLName(file.Name) {
			continue
		}
		entries = append(entries, ArchiveEntry{Name: file.Name, file: file})
	}
	return entries, nil
}

// IsXMLName reports whether name has an .xml extension.
func IsXMLName(name string) bool {
	return strings.EqualFold(path.Ext(name), ".xml")
}

// IsZipName reports whether name has a .zip extension.
func IsZipName(name string) bool {
	return strings.EqualFold(path.Ext(name), ".zip")
}
