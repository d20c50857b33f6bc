package mailmerge

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCheckTemplate(t *testing.T) {
	body := paragraph("Dear @Name, you owe @Amount") +
		`<w:p><w:r><w:t>Ref @Na</w:t></w:r><w:r><w:t>me</w:t></w:r></w:p>` +
		paragraph("no tokens") + sectPr
	tmpl := loadTestTemplate(t, "t.docx", body)
	table := NewTable([]string{"Name", "Amount", "City"}, nil)

	check := CheckTemplate(tmpl, table)

	require.Len(t, check.References, 3)
	assert.Equal(t, FieldReference{Field: "Name", ParagraphIndex: 0}, check.References[0])
	assert.Equal(t, FieldReference{Field: "Amount", ParagraphIndex: 0}, check.References[1])
	assert.Equal(t, FieldReference{Field: "Name", ParagraphIndex: 1, Split: true}, check.References[2])
	assert.Equal(t, 1, check.SplitTokens)
	assert.Equal(t, []string{"City"}, check.Unused)
}

func TestCheckTemplateNoTokens(t *testing.T) {
	tmpl := loadTestTemplate(t, "t.docx", paragraph("plain")+sectPr)
	check := CheckTemplate(tmpl, NewTable([]string{"A"}, nil))

	assert.Empty(t, check.References)
	assert.Zero(t, check.SplitTokens)
	assert.Equal(t, []string{"A"}, check.Unused)
}

func TestCheckTemplateNestedParagraphs(t *testing.T) {
	// A text box paragraph inside an outer paragraph, with the outer text
	// ending in "@" and the inner text starting with a field name.
	body := `<w:p><w:r><w:t>Total @</w:t></w:r>` +
		`<w:r><w:pict><w:txbxContent>` + paragraph("Name in box") + `</w:txbxContent></w:pict></w:r>` +
		`<w:r><w:t>@Amount</w:t></w:r></w:p>` + sectPr
	tmpl := loadTestTemplate(t, "t.docx", body)
	table := NewTable([]string{"Name", "Amount"}, nil)

	check := CheckTemplate(tmpl, table)

	assert.Equal(t, []FieldReference{{Field: "Amount", ParagraphIndex: 0}}, check.References)
	assert.Zero(t, check.SplitTokens)
	assert.Equal(t, []string{"Name"}, check.Unused)
}

func TestCheckTemplateTextBoxReferenceCountedOnce(t *testing.T) {
	body := `<w:p><w:r><w:t>See </w:t></w:r>` +
		`<w:r><w:pict><w:txbxContent>` + paragraph("Dear @Name") + `</w:txbxContent></w:pict></w:r></w:p>` + sectPr
	tmpl := loadTestTemplate(t, "t.docx", body)

	check := CheckTemplate(tmpl, NewTable([]string{"Name"}, nil))

	assert.Equal(t, []FieldReference{{Field: "Name", ParagraphIndex: 1}}, check.References)
	assert.Empty(t, check.Unused)
}
