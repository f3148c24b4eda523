package diffstat

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleDiff = `diff --git a/main.go b/main.go
index 83db48f..bf269f4 100644
--- a/main.go
+++ b/main.go
@@ -1,3 +1,4 @@
 package main
+// added comment
 func main() {
-	println("old")
+	println("new")
 }
diff --git a/added.go b/added.go
new file mode 100644
index 0000000..e69de29
--- /dev/null
+++ b/added.go
@@ -0,0 +1,2 @@
+package added
+var x = 1
diff --git a/removed.go b/removed.go
deleted file mode 100644
index e69de29..0000000
--- a/removed.go
+++ /dev/null
@@ -1,1 +0,0 @@
-package removed
`

func TestParse_EmptyDiff(t *testing.T) {
	t.Parallel()

	stats, files := Parse("")

	assert.Equal(t, Zero(), stats)
	assert.Empty(t, files)
}

func TestParse_MultiFile(t *testing.T) {
	t.Parallel()

	stats, files := Parse(sampleDiff)

	assert.Equal(t, 3, stats.NumberOfFiles)
	assert.Equal(t, 4, stats.Insertions)
	assert.Equal(t, 2, stats.Deletions)
	assert.Equal(t, 6, stats.NumberOfLines)
	assert.Positive(t, stats.Size)

	require.Len(t, files, 3)

	assert.Equal(t, "main.go", files[0].Path)
	assert.Equal(t, Modified, files[0].ChangeType)
	assert.Equal(t, 2, files[0].Insertions)
	assert.Equal(t, 1, files[0].Deletions)

	assert.Equal(t, "added.go", files[1].Path)
	assert.Equal(t, Added, files[1].ChangeType)
	assert.Equal(t, 2, files[1].Insertions)
	assert.Equal(t, 0, files[1].Deletions)

	assert.Equal(t, "removed.go", files[2].Path)
	assert.Equal(t, Deleted, files[2].ChangeType)
	assert.Equal(t, 1, files[2].Deletions)
}

func TestParse_OnlyAddedLines(t *testing.T) {
	t.Parallel()

	diff := `diff --git a/new.txt b/new.txt
--- /dev/null
+++ b/new.txt
@@ -0,0 +1,3 @@
+one
+two
+three
`

	stats, files := Parse(diff)

	assert.Equal(t, 3, stats.Insertions)
	assert.Equal(t, 0, stats.Deletions)

	require.Len(t, files, 1)
	assert.Equal(t, Added, files[0].ChangeType)
}

func TestParse_Deterministic(t *testing.T) {
	t.Parallel()

	first, _ := Parse(sampleDiff)
	second, _ := Parse(sampleDiff)

	assert.Equal(t, first, second)
}

func TestParse_BareHeaderSection(t *testing.T) {
	t.Parallel()

	diff := `+++ old
--- new
@@ -1,1 +1,2 @@
+added line
 context
-removed line
`

	stats, files := Parse(diff)

	assert.Equal(t, 1, stats.Insertions)
	assert.Equal(t, 1, stats.Deletions)
	assert.Equal(t, 1, stats.NumberOfFiles)
	require.Len(t, files, 1)
}

func TestParse_BinarySectionContributesZero(t *testing.T) {
	t.Parallel()

	diff := `diff --git a/logo.png b/logo.png
index 83db48f..bf269f4 100644
Binary files a/logo.png and b/logo.png differ
diff --git a/main.go b/main.go
--- a/main.go
+++ b/main.go
@@ -1,1 +1,1 @@
-old
+new
`

	stats, files := Parse(diff)

	require.Len(t, files, 2)
	assert.Equal(t, 0, files[0].Insertions)
	assert.Equal(t, 0, files[0].Deletions)
	assert.Equal(t, 1, stats.Insertions)
	assert.Equal(t, 1, stats.Deletions)
}

func TestParse_RenameIsReplaced(t *testing.T) {
	t.Parallel()

	diff := `diff --git a/old_name.go b/new_name.go
similarity index 95%
rename from old_name.go
rename to new_name.go
--- a/old_name.go
+++ b/new_name.go
@@ -1,1 +1,1 @@
-x
+y
`

	_, files := Parse(diff)

	require.Len(t, files, 1)
	assert.Equal(t, Replaced, files[0].ChangeType)
}

func TestFromContents(t *testing.T) {
	t.Parallel()

	oldText := "alpha\nbeta\ngamma\n"
	newText := "alpha\ndelta\ngamma\nepsilon\n"

	stats := FromContents(oldText, newText)

	assert.Equal(t, 2, stats.Insertions)
	assert.Equal(t, 1, stats.Deletions)
}

func TestStats_AddFile(t *testing.T) {
	t.Parallel()

	stats, _ := Parse(sampleDiff)
	before := stats

	stats.AddFile(FileStats{Path: "util.go", ChangeType: Modified, Insertions: 3, Deletions: 1})

	assert.Equal(t, before.NumberOfFiles+1, stats.NumberOfFiles)
	assert.Equal(t, before.Insertions+3, stats.Insertions)
	assert.Equal(t, before.Deletions+1, stats.Deletions)
	assert.Equal(t, stats.Insertions+stats.Deletions, stats.NumberOfLines)
	assert.Equal(t, before.Size, stats.Size)
}
