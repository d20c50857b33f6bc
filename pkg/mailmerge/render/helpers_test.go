package render

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/benjaminschreck/go-mailmerge/pkg/mailmerge/xml"
)

func parseBody(t *testing.T, inner string) *xml.Node {
	t.Helper()
	doc, err := xml.ParseDocument(strings.NewReader(
		`<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main"><w:body>` + inner + `</w:body></w:document>`))
	require.NoError(t, err)
	return doc.Body()
}

func TestMergeConsecutiveRuns(t *testing.T) {
	tests := []struct {
		name        string
		paragraph   string
		wantRemoved int
		wantTexts   []string
	}{
		{
			name:        "split token without properties",
			paragraph:   `<w:p><w:r><w:t>Dear @</w:t></w:r><w:r><w:t>Name</w:t></w:r></w:p>`,
			wantRemoved: 1,
			wantTexts:   []string{"Dear @Name"},
		},
		{
			name:        "same properties merge",
			paragraph:   `<w:p><w:r><w:rPr><w:b/></w:rPr><w:t>@Na</w:t></w:r><w:r><w:rPr><w:b/></w:rPr><w:t>me</w:t></w:r></w:p>`,
			wantRemoved: 1,
			wantTexts:   []string{"@Name"},
		},
		{
			name:        "different properties stay apart",
			paragraph:   `<w:p><w:r><w:rPr><w:b/></w:rPr><w:t>@Na</w:t></w:r><w:r><w:rPr><w:i/></w:rPr><w:t>me</w:t></w:r></w:p>`,
			wantRemoved: 0,
			wantTexts:   []string{"@Na", "me"},
		},
		{
			name:        "break interrupts merge",
			paragraph:   `<w:p><w:r><w:t>a</w:t></w:r><w:r><w:br/></w:r><w:r><w:t>b</w:t></w:r><w:r><w:t>c</w:t></w:r></w:p>`,
			wantRemoved: 1,
			wantTexts:   []string{"a", "bc"},
		},
		{
			name:        "single run untouched",
			paragraph:   `<w:p><w:r><w:t>@Name</w:t></w:r></w:p>`,
			wantRemoved: 0,
			wantTexts:   []string{"@Name"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			body := parseBody(t, tt.paragraph)
			p := body.Find("p")
			require.NotNil(t, p)

			removed := MergeConsecutiveRuns(p)
			assert.Equal(t, tt.wantRemoved, removed)

			var texts []string
			for _, tn := range xml.TextNodes(p) {
				texts = append(texts, tn.Text())
			}
			assert.Equal(t, tt.wantTexts, texts)
		})
	}
}

func TestMergeConsecutiveRunsPreservesSpaces(t *testing.T) {
	body := parseBody(t, `<w:p><w:r><w:t>Hello</w:t></w:r><w:r><w:t xml:space="preserve"> </w:t></w:r></w:p>`)
	p := body.Find("p")

	MergeConsecutiveRuns(p)

	texts := xml.TextNodes(p)
	require.Len(t, texts, 1)
	assert.Equal(t, "Hello ", texts[0].Text())
	space, _ := texts[0].Attr("space")
	assert.Equal(t, "preserve", space)
}

func TestMergeRunsInTree(t *testing.T) {
	body := parseBody(t,
		`<w:p><w:r><w:t>@</w:t></w:r><w:r><w:t>A</w:t></w:r></w:p>`+
			`<w:tbl><w:tr><w:tc><w:p><w:r><w:t>@</w:t></w:r><w:r><w:t>B</w:t></w:r></w:p></w:tc></w:tr></w:tbl>`)

	assert.Equal(t, 2, MergeRunsInTree(body))
	assert.Equal(t, "@A@B", body.Text())
}
