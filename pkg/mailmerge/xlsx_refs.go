package mailmerge

import (
	"archive/zip"
	"encoding/xml"
	"fmt"
	"io"
	"path"
	"strconv"
	"strings"
)

// sharedStringRef is a cell whose t="s" value points outside the shared
// string table.
type sharedStringRef struct {
	Cell  string
	Index string
	Count int
}

// danglingSharedStrings scans one worksheet for shared string references
// that cannot be resolved. excelize silently hands back the raw index for
// such cells, which would then be merged into documents as a number.
func danglingSharedStrings(r io.ReaderAt, size int64, sheet string) ([]sharedStringRef, error) {
	zr, err := zip.NewReader(r, size)
	if err != nil {
		return nil, fmt.Errorf("opening XLSX archive: %w", err)
	}

	files := make(map[string]*zip.File, len(zr.File))
	for _, f := range zr.File {
		files[f.Name] = f
	}

	count, err := countSharedStrings(files)
	if err != nil {
		return nil, err
	}

	sheetPath, err := worksheetPath(files, sheet)
	if err != nil {
		return nil, err
	}
	file, ok := files[sheetPath]
	if !ok {
		return nil, fmt.Errorf("worksheet part %s not found", sheetPath)
	}

	rc, err := file.Open()
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", file.Name, err)
	}
	defer func() { _ = rc.Close() }()

	var refs []sharedStringRef
	d := xml.NewDecoder(rc)
	d.Strict = false

	var (
		inSharedCell bool
		inValue      bool
		cellRef      string
		value        strings.Builder
	)
	for {
		tok, err := d.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("parsing %s: %w", sheetPath, err)
		}

		switch t := tok.(type) {
		case xml.StartElement:
			switch t.Name.Local {
			case "c":
				inSharedCell = attrValue(t, "t") == "s"
				cellRef = attrValue(t, "r")
			case "v":
				if inSharedCell {
					inValue = true
					value.Reset()
				}
			}
		case xml.CharData:
			if inValue {
				value.Write(t)
			}
		case xml.EndElement:
			switch t.Name.Local {
			case "v":
				if inValue {
					inValue = false
					raw := strings.TrimSpace(value.String())
					idx, err := strconv.Atoi(raw)
					if err != nil || idx < 0 || idx >= count {
						refs = append(refs, sharedStringRef{Cell: cellRef, Index: raw, Count: count})
					}
				}
			case "c":
				inSharedCell = false
			}
		}
	}

	return refs, nil
}

func countSharedStrings(files map[string]*zip.File) (int, error) {
	file, ok := files["xl/sharedStrings.xml"]
	if !ok {
		return 0, nil
	}

	rc, err := file.Open()
	if err != nil {
		return 0, fmt.Errorf("opening %s: %w", file.Name, err)
	}
	defer func() { _ = rc.Close() }()

	d := xml.NewDecoder(rc)
	d.Strict = false
	n := 0
	for {
		tok, err := d.Token()
		if err == io.EOF {
			return n, nil
		}
		if err != nil {
			return 0, fmt.Errorf("parsing shared strings: %w", err)
		}
		if se, ok := tok.(xml.StartElement); ok && se.Name.Local == "si" {
			n++
		}
	}
}

// workbookSheets keeps raw attributes: the relationship id is namespaced and
// the namespace differs between transitional and strict workbooks.
type workbookSheets struct {
	Sheets []struct {
		Attrs []xml.Attr `xml:",any,attr"`
	} `xml:"sheets>sheet"`
}

type workbookRels struct {
	Relationships []struct {
		ID     string `xml:"Id,attr"`
		Target string `xml:"Target,attr"`
	} `xml:"Relationship"`
}

// worksheetPath resolves a sheet name to its part path through the workbook
// and its relationships.
func worksheetPath(files map[string]*zip.File, sheet string) (string, error) {
	var wb workbookSheets
	if err := decodeZipXML(files, "xl/workbook.xml", &wb); err != nil {
		return "", err
	}
	var rels workbookRels
	if err := decodeZipXML(files, "xl/_rels/workbook.xml.rels", &rels); err != nil {
		return "", err
	}

	targets := make(map[string]string, len(rels.Relationships))
	for _, rel := range rels.Relationships {
		targets[rel.ID] = rel.Target
	}

	for _, s := range wb.Sheets {
		var name, rid string
		for _, a := range s.Attrs {
			switch {
			case a.Name.Local == "name" && a.Name.Space == "":
				name = a.Value
			case a.Name.Local == "id" && a.Name.Space != "":
				rid = a.Value
			}
		}
		if name != sheet {
			continue
		}
		target := targets[rid]
		if target == "" {
			return "", fmt.Errorf("sheet %q has no worksheet relationship", sheet)
		}
		return normalizeTargetPath(target), nil
	}
	return "", fmt.Errorf("sheet %q not found in workbook", sheet)
}

func decodeZipXML(files map[string]*zip.File, name string, v interface{}) error {
	file, ok := files[name]
	if !ok {
		return fmt.Errorf("not a valid XLSX file: missing %s", name)
	}
	rc, err := file.Open()
	if err != nil {
		return fmt.Errorf("opening %s: %w", name, err)
	}
	defer func() { _ = rc.Close() }()

	d := xml.NewDecoder(rc)
	d.Strict = false
	if err := d.Decode(v); err != nil {
		return fmt.Errorf("parsing %s: %w", name, err)
	}
	return nil
}

func normalizeTargetPath(target string) string {
	p := strings.TrimPrefix(target, "/")
	if !strings.HasPrefix(p, "xl/") {
		p = path.Join("xl", p)
	}
	return path.Clean(p)
}

func attrValue(se xml.StartElement, local string) string {
	for _, a := range se.Attr {
		if a.Name.Local == local && a.Name.Space == "" {
			return a.Value
		}
	}
	return ""
}
