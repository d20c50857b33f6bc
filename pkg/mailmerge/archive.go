package mailmerge

import (
	"archive/zip"
	"io"
	"io/fs"
	"os"
	"path/filepath"
)

// archiveDirectory zips the regular files under dir into dest. A stale
// archive at dest is removed first. Paths in the archive are relative to
// dir, so the files sit at the archive root.
func archiveDirectory(dir, dest string) error {
	if err := os.Remove(dest); err != nil && !os.IsNotExist(err) {
		return NewDocumentError("remove", dest, err)
	}

	err := writeFileAtomic(dest, func(w io.Writer) error {
		zw := zip.NewWriter(w)

		walkErr := filepath.WalkDir(dir, func(p string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if !d.Type().IsRegular() {
				return nil
			}
			rel, err := filepath.Rel(dir, p)
			if err != nil {
				return err
			}
			info, err := d.Info()
			if err != nil {
				return err
			}
			header, err := zip.FileInfoHeader(info)
			if err != nil {
				return err
			}
			header.Name = filepath.ToSlash(rel)
			header.Method = zip.Deflate

			fw, err := zw.CreateHeader(header)
			if err != nil {
				return err
			}
			src, err := os.Open(p)
			if err != nil {
				return err
			}
			defer src.Close()
			_, err = io.Copy(fw, src)
			return err
		})
		if walkErr != nil {
			zw.Close()
			return walkErr
		}
		return zw.Close()
	})
	if err != nil {
		return NewDocumentError("archive", dir, err)
	}
	return nil
}
