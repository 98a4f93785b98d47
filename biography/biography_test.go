package biography

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestIsValidPathFormat(t *testing.T) {
	cases := []struct {
		path string
		want bool
	}{
		{"", true},
		{"1 Early Life", true},
		{"1 Early Life/1.1 Childhood", true},
		{"1 Early Life/1.1 Childhood/1.1.1 Details", true},
		{"1 Early Life/1.1 Childhood/1.1.1 Details/1.1.1.1 Too Deep", false},
		{"Early Life", false},
		{"1 Early Life/2.1 Mismatch", false},
	}
	for _, c := range cases {
		require.Equal(t, c.want, IsValidPathFormat(c.path), c.path)
	}
}

func TestExtractMemoryIDsUniqueAndOrdered(t *testing.T) {
	ids := ExtractMemoryIDs("Text with [MEM_123] and [MEM_456] and [MEM_123] again")
	require.Equal(t, []string{"MEM_123", "MEM_456"}, ids)
}

func TestAddSectionCreatesIntermediateParents(t *testing.T) {
	ctx := context.Background()
	tree := New("alice", 1)

	sec, err := tree.AddSection(ctx, "1 Early Life/1.1 Childhood", "grew up in a small town")
	require.NoError(t, err)
	require.Equal(t, "1.1 Childhood", sec.Title)

	parent, ok := tree.Root.Subsections["1 Early Life"]
	require.True(t, ok)
	require.Contains(t, parent.Subsections, "1.1 Childhood")
}

func TestAddSectionRejectsInvalidPath(t *testing.T) {
	ctx := context.Background()
	tree := New("alice", 1)
	_, err := tree.AddSection(ctx, "Early Life", "x")
	require.Error(t, err)
}

func TestUpdateSectionAppendsMemoryIDsWithoutRemoval(t *testing.T) {
	ctx := context.Background()
	tree := New("alice", 1)
	_, err := tree.AddSection(ctx, "1 Early Life", "first [MEM_1]")
	require.NoError(t, err)

	content := "rewritten without the citation"
	_, err = tree.UpdateSection(ctx, "1 Early Life", "", &content, "")
	require.NoError(t, err)

	sec, err := tree.GetSection("1 Early Life", "", false)
	require.NoError(t, err)
	require.Equal(t, []string{"MEM_1"}, sec.MemoryIDs)
}

func TestUpdateSectionRejectsMismatchedPathAndTitle(t *testing.T) {
	ctx := context.Background()
	tree := New("alice", 1)
	_, err := tree.AddSection(ctx, "1 Early Life", "x")
	require.NoError(t, err)

	content := "y"
	_, err = tree.UpdateSection(ctx, "1 Early Life", "Something Else", &content, "")
	require.Error(t, err)
}

func TestUpdateSectionRenameResorts(t *testing.T) {
	ctx := context.Background()
	tree := New("alice", 1)
	_, err := tree.AddSection(ctx, "1 Early Life", "x")
	require.NoError(t, err)

	_, err = tree.UpdateSection(ctx, "1 Early Life", "", nil, "1 Childhood Years")
	require.NoError(t, err)

	_, ok := tree.Root.Subsections["1 Early Life"]
	require.False(t, ok)
	_, ok = tree.Root.Subsections["1 Childhood Years"]
	require.True(t, ok)
}

func TestDeleteSectionRejectsRoot(t *testing.T) {
	ctx := context.Background()
	tree := New("alice", 1)
	_, err := tree.DeleteSection(ctx, "", "")
	require.Error(t, err)
}

func TestDeleteSectionRemovesFromParent(t *testing.T) {
	ctx := context.Background()
	tree := New("alice", 1)
	_, err := tree.AddSection(ctx, "1 Early Life", "x")
	require.NoError(t, err)

	ok, err := tree.DeleteSection(ctx, "1 Early Life", "")
	require.NoError(t, err)
	require.True(t, ok)
	require.NotContains(t, tree.Root.Subsections, "1 Early Life")
}

func TestDeleteSectionWithChildrenClearsContentButKeepsNode(t *testing.T) {
	ctx := context.Background()
	tree := New("alice", 1)
	_, err := tree.AddSection(ctx, "1 Early Life", "childhood memories")
	require.NoError(t, err)
	_, err = tree.AddSection(ctx, "1 Early Life/1.1 Childhood", "more detail")
	require.NoError(t, err)

	ok, err := tree.DeleteSection(ctx, "1 Early Life", "")
	require.NoError(t, err)
	require.True(t, ok)

	parent, exists := tree.Root.Subsections["1 Early Life"]
	require.True(t, exists)
	require.Empty(t, parent.Content)
	require.Contains(t, parent.Subsections, "1.1 Childhood")
}

func TestGetSectionHidesMemoryLinksWhenRequested(t *testing.T) {
	ctx := context.Background()
	tree := New("alice", 1)
	_, err := tree.AddSection(ctx, "1 Early Life", "quote [MEM_1]")
	require.NoError(t, err)

	sec, err := tree.GetSection("1 Early Life", "", true)
	require.NoError(t, err)
	require.Equal(t, "quote ", sec.Content)
}

func TestRenderProducesHeadingPerDepth(t *testing.T) {
	ctx := context.Background()
	tree := New("alice", 1)
	_, err := tree.AddSection(ctx, "1 Early Life", "childhood memories")
	require.NoError(t, err)
	_, err = tree.AddSection(ctx, "1 Early Life/1.1 Childhood", "more detail")
	require.NoError(t, err)

	md := tree.Render(true)
	require.Contains(t, md, "# Biography of alice")
	require.Contains(t, md, "## 1 Early Life")
	require.Contains(t, md, "### 1.1 Childhood")
}

func TestAddSectionRejectsNumberingGap(t *testing.T) {
	ctx := context.Background()
	tree := New("alice", 1)
	_, err := tree.AddSection(ctx, "1 Early Life", "x")
	require.NoError(t, err)

	_, err = tree.AddSection(ctx, "3 Career", "y")
	require.Error(t, err)
	_, ok := tree.Root.Subsections["3 Career"]
	require.False(t, ok)

	_, err = tree.AddSection(ctx, "2 Career", "y")
	require.NoError(t, err)
}

func TestAddSectionAllowsReplacingExistingSibling(t *testing.T) {
	ctx := context.Background()
	tree := New("alice", 1)
	_, err := tree.AddSection(ctx, "1 Early Life", "x")
	require.NoError(t, err)

	_, err = tree.AddSection(ctx, "1 Early Life", "replaced content")
	require.NoError(t, err)
}

func TestValidateNewSectionPathMatchesAddSection(t *testing.T) {
	ctx := context.Background()
	tree := New("alice", 1)
	_, err := tree.AddSection(ctx, "1 Early Life", "x")
	require.NoError(t, err)

	require.NoError(t, tree.ValidateNewSectionPath("2 Career"))
	require.Error(t, tree.ValidateNewSectionPath("3 Career"))

	_, ok := tree.Root.Subsections["2 Career"]
	require.False(t, ok, "ValidateNewSectionPath must not mutate the tree")
}

func TestWaitForWritesCompleteReturnsImmediatelyWhenIdle(t *testing.T) {
	tree := New("alice", 1)
	err := tree.WaitForWritesComplete(context.Background())
	require.NoError(t, err)
}
