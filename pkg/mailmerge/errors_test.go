package mailmerge

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestErrorMessages(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{
			name: "configuration single issue",
			err:  &ConfigurationError{Issues: []ValidationIssue{{Field: "table", Message: "no table selected"}}},
			want: "configuration error: table - no table selected",
		},
		{
			name: "template missing content",
			err:  &TemplateMissingContentError{Path: "a.docx", Part: "w:body"},
			want: "template 'a.docx' has no content: missing w:body",
		},
		{
			name: "data integrity",
			err:  &DataIntegrityError{Sheet: "Data", Cell: "B2", Index: "9", Count: 3},
			want: "data integrity error in sheet 'Data' cell B2: shared string index 9 out of range (table has 3 entries)",
		},
		{
			name: "document",
			err:  NewDocumentError("save", "out.docx", errors.New("disk full")),
			want: "document error during save of 'out.docx': disk full",
		},
		{
			name: "row is one-based",
			err:  &RowError{Row: 0, Path: "t_1.docx", Cause: errors.New("boom")},
			want: "row 1 (t_1.docx): boom",
		},
		{
			name: "context",
			err:  WithContext(errors.New("boom"), "merge", map[string]interface{}{"total": 3}),
			want: "merge [total=3]: boom",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.err.Error())
		})
	}
}

func TestConfigurationErrorErr(t *testing.T) {
	e := &ConfigurationError{}
	assert.NoError(t, e.Err())

	e.Add("template", "no template selected")
	assert.Error(t, e.Err())
}

func TestErrorPredicatesUnwrap(t *testing.T) {
	cause := &DataIntegrityError{Sheet: "S", Cell: "A1", Index: "4", Count: 1}
	wrapped := fmt.Errorf("reading: %w", WithContext(cause, "read table", nil))

	assert.True(t, IsDataIntegrityError(wrapped))
	assert.False(t, IsRowError(wrapped))
	assert.False(t, IsConfigurationError(wrapped))

	row := &RowError{Row: 2, Cause: NewDocumentError("save", "x", nil)}
	assert.True(t, IsRowError(row))
	assert.True(t, IsDocumentError(row))
	assert.False(t, IsTemplateMissingContentError(row))
}

func TestMultiError(t *testing.T) {
	m := NewMultiError()
	assert.NoError(t, m.Err())

	m.Add(nil)
	assert.Equal(t, 0, m.Len())

	first := &RowError{Row: 0, Cause: errors.New("a")}
	m.Add(first)
	assert.Same(t, first, m.Err())

	m.Add(&RowError{Row: 4, Cause: errors.New("b")})
	err := m.Err()
	assert.Equal(t, 2, m.Len())
	assert.Contains(t, err.Error(), "2 errors occurred")
	assert.Contains(t, err.Error(), "row 5: b")
	assert.True(t, IsRowError(err))
	assert.Len(t, m.Errors(), 2)
}
