package cli

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEditDocument_RoundTrip(t *testing.T) {
	doc := newEditDocument(task(1, nil))

	data, err := doc.Marshal()
	require.NoError(t, err)
	assert.Equal(t, "title: Task A\ndescription: Description\nassignee: bob\nestimate: 30\n", string(data))

	var back editDocument
	require.NoError(t, back.Unmarshal(data))
	assert.Equal(t, doc, back)
}

func TestEditDocument_UnmarshalInvalid(t *testing.T) {
	var doc editDocument
	err := doc.Unmarshal([]byte("title: [unclosed"))
	assert.ErrorContains(t, err, "parse edited task")
}

func TestEditDocument_Diff(t *testing.T) {
	before := editDocument{Title: "A", Description: "D", Assignee: "bob", Estimate: 30}

	tests := []struct {
		name      string
		after     editDocument
		leaf      bool
		wantTitle *string
		wantAssgn *string
		wantEst   *int
	}{
		{
			name:  "unchanged",
			after: before,
			leaf:  true,
		},
		{
			name:      "title and assignee",
			after:     editDocument{Title: "B", Description: "D", Assignee: "alice", Estimate: 30},
			leaf:      true,
			wantTitle: strPtr("B"),
			wantAssgn: strPtr("alice"),
		},
		{
			name:    "estimate of a leaf",
			after:   editDocument{Title: "A", Description: "D", Assignee: "bob", Estimate: 45},
			leaf:    true,
			wantEst: intPtr(45),
		},
		{
			name:  "estimate of a parent is derived",
			after: editDocument{Title: "A", Description: "D", Assignee: "bob", Estimate: 45},
			leaf:  false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := before.Diff(tt.after, tt.leaf)
			assert.Equal(t, tt.wantTitle, in.Title)
			assert.Equal(t, tt.wantAssgn, in.Assignee)
			assert.Equal(t, tt.wantEst, in.EstimatedTime)
			assert.Nil(t, in.Description)
		})
	}
}

func TestGetEditor(t *testing.T) {
	t.Setenv("EDITOR", "")
	t.Setenv("VISUAL", "")
	assert.Equal(t, "vim", getEditor())

	t.Setenv("VISUAL", "emacs")
	assert.Equal(t, "emacs", getEditor())

	t.Setenv("EDITOR", "nano")
	assert.Equal(t, "nano", getEditor())
}

func strPtr(s string) *string { return &s }
