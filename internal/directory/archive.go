package directory

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"
)

// archiveLayout renders as DD_MM_YY__HH_MM_SS.
const archiveLayout = "02_01_06__15_04_05"

// ArchiveName returns the processed-folder file name for a copy taken at t.
func ArchiveName(t time.Time) string {
	return "users_" + t.Format(archiveLayout) + ".csv"
}

// archiveFile copies src into folder under a timestamped name and returns
// the destination path. An existing file with the same name is overwritten.
func archiveFile(src, folder string, t time.Time) (string, error) {
	in, err := os.Open(src)
	if err != nil {
		return "", fmt.Errorf("open source: %w", err)
	}
	defer in.Close()

	dest := filepath.Join(folder, ArchiveName(t))
	out, err := os.Create(dest)
	if err != nil {
		return "", fmt.Errorf("create archive: %w", err)
	}

	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return "", fmt.Errorf("copy to %s: %w", dest, err)
	}
	if err := out.Close(); err != nil {
		return "", fmt.Errorf("close %s: %w", dest, err)
	}
	return dest, nil
}
