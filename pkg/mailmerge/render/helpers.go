package render

import (
	"bytes"

	"github.com/benjaminschreck/go-mailmerge/pkg/mailmerge/xml"
)

// runPropertiesEquivalent checks if two run property elements are equivalent for merging purposes.
// This is important to preserve formatting like bold, italic, etc.
func runPropertiesEquivalent(p1, p2 *xml.Node) bool {
	if p1 == nil && p2 == nil {
		return true
	}
	if (p1 == nil) != (p2 == nil) {
		return false
	}

	var b1, b2 bytes.Buffer
	if err := xml.EncodeNode(&b1, p1); err != nil {
		return false
	}
	if err := xml.EncodeNode(&b2, p2); err != nil {
		return false
	}
	return bytes.Equal(b1.Bytes(), b2.Bytes())
}

// textOnlyRun returns the single w:t of a run that holds nothing but
// optional run properties and one text element.
func textOnlyRun(run *xml.Node) *xml.Node {
	if !run.IsElement("r") {
		return nil
	}
	var text *xml.Node
	for _, c := range run.Children {
		switch c.Type {
		case xml.ElementNode:
			switch c.Name.Local {
			case "rPr":
			case "t":
				if text != nil {
					return nil
				}
				text = c
			default:
				return nil
			}
		case xml.TextNode:
			// whitespace between elements
		default:
			return nil
		}
	}
	return text
}

// MergeConsecutiveRuns merges adjacent text-only runs with identical run
// properties inside a paragraph. It returns the number of runs removed.
//
// Only direct run children are considered: runs inside hyperlinks, fields
// or content controls keep their boundaries.
func MergeConsecutiveRuns(para *xml.Node) int {
	if !para.IsElement("p") || len(para.Children) < 2 {
		return 0
	}

	merged := make([]*xml.Node, 0, len(para.Children))
	removed := 0

	var current *xml.Node     // last kept run that can absorb text
	var currentText *xml.Node // its w:t

	for _, child := range para.Children {
		text := textOnlyRun(child)
		if text == nil {
			if child.Type == xml.TextNode && current != nil {
				// Drop inter-element whitespace between two runs that may still merge.
				continue
			}
			current, currentText = nil, nil
			merged = append(merged, child)
			continue
		}

		if current != nil && runPropertiesEquivalent(xml.RunProperties(current), xml.RunProperties(child)) {
			xml.SetRunText(currentText, currentText.Text()+text.Text())
			removed++
			continue
		}

		current, currentText = child, text
		merged = append(merged, child)
	}

	para.Children = merged
	return removed
}

// MergeRunsInTree applies MergeConsecutiveRuns to every paragraph under root
// and returns the total number of runs removed.
func MergeRunsInTree(root *xml.Node) int {
	total := 0
	for _, p := range xml.Paragraphs(root) {
		total += MergeConsecutiveRuns(p)
	}
	return total
}
