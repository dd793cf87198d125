package services

import (
	"context"
	"fmt"
	"testing"

	"github.com/go-git/go-git/v5/plumbing"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tagnotes/internal/models"
)

func tagAt(name, prefix string, hash plumbing.Hash) models.Tag {
	return models.Tag{Name: name, Prefix: prefix, Hash: hash.String(), Date: "2024-03-01"}
}

func TestPlanReleasesChainsPerPrefix(t *testing.T) {
	tags := []models.Tag{
		{Name: "api-1", Prefix: "api-"},
		{Name: "dashboard-1", Prefix: "dashboard-"},
		{Name: "api-2", Prefix: "api-"},
		{Name: "api-3", Prefix: "api-"},
		{Name: "dashboard-2", Prefix: "dashboard-"},
	}
	plans := PlanReleases(tags)
	require.Len(t, plans, 5)

	prev := func(i int) string {
		if plans[i].Previous == nil {
			return ""
		}
		return plans[i].Previous.Name
	}
	assert.Equal(t, "", prev(0))
	assert.Equal(t, "", prev(1))
	assert.Equal(t, "api-1", prev(2))
	assert.Equal(t, "api-2", prev(3))
	assert.Equal(t, "dashboard-1", prev(4))

	// a second fold starts from scratch
	again := PlanReleases(tags[2:3])
	assert.Nil(t, again[0].Previous)
}

func TestDiffAgainstPreviousTag(t *testing.T) {
	f := newRepoFixture(t)
	f.writeText("a.txt", "one\ntwo\n")
	c1 := f.commit("first", day(2024, 3, 1, 0))
	f.writeText("a.txt", "one\ntwo\nthree\n")
	f.writeText("b.txt", "hello\n")
	c2 := f.commit("second", day(2024, 3, 2, 0))

	plans := PlanReleases([]models.Tag{tagAt("api-1.0", "api-", c1), tagAt("api-1.1", "api-", c2)})
	differ := NewReleaseDiffer(NewGitService(), f.repo, 8)

	cs := differ.Diff(context.Background(), plans[1])
	assert.Equal(t, "api-1.0", cs.BaseRef)
	require.NotNil(t, cs.FromTag)
	assert.Equal(t, "api-1.0", cs.FromTag.Name)
	assert.ElementsMatch(t, []models.ChangedFile{
		{Path: "a.txt", Stat: "+1 -0"},
		{Path: "b.txt", Stat: "+1 -0"},
	}, cs.ChangedFiles)
	assert.Equal(t, 2, cs.TotalFiles)
	assert.Equal(t, 2, cs.Additions)
	assert.False(t, cs.Truncated())
}

func TestDiffFirstTagUsesParent(t *testing.T) {
	f := newRepoFixture(t)
	f.writeText("a.txt", "one\n")
	f.commit("root", day(2024, 3, 1, 0))
	f.writeText("a.txt", "uno\n")
	c2 := f.commit("change", day(2024, 3, 2, 0))

	cs := NewReleaseDiffer(NewGitService(), f.repo, 8).Diff(context.Background(),
		models.ReleasePlan{Tag: tagAt("api-2.0", "api-", c2)})
	assert.Equal(t, "api-2.0^", cs.BaseRef)
	assert.Nil(t, cs.FromTag)
	assert.Equal(t, []models.ChangedFile{{Path: "a.txt", Stat: "+1 -1"}}, cs.ChangedFiles)
}

func TestDiffRootCommitListsEveryFile(t *testing.T) {
	f := newRepoFixture(t)
	f.writeText("a.txt", "one\ntwo\n")
	f.writeText("docs/guide.md", "# Guide\n")
	root := f.commit("root", day(2024, 3, 1, 0))

	cs := NewReleaseDiffer(NewGitService(), f.repo, 8).Diff(context.Background(),
		models.ReleasePlan{Tag: tagAt("api-0.1", "api-", root)})
	assert.Equal(t, "api-0.1^", cs.BaseRef)
	assert.ElementsMatch(t, []models.ChangedFile{
		{Path: "a.txt", Stat: "+2 -0"},
		{Path: "docs/guide.md", Stat: "+1 -0"},
	}, cs.ChangedFiles)
}

func TestDiffCapsFileList(t *testing.T) {
	f := newRepoFixture(t)
	f.writeText("seed.txt", "seed\n")
	base := f.commit("seed", day(2024, 3, 1, 0))
	for i := 0; i < 50; i++ {
		f.writeText(fmt.Sprintf("pkg/file%02d.go", i), "package pkg\n")
	}
	head := f.commit("bulk", day(2024, 3, 2, 0))

	plans := PlanReleases([]models.Tag{tagAt("api-1", "api-", base), tagAt("api-2", "api-", head)})
	cs := NewReleaseDiffer(NewGitService(), f.repo, 8).Diff(context.Background(), plans[1])

	assert.Len(t, cs.ChangedFiles, 8)
	assert.Equal(t, 50, cs.TotalFiles)
	assert.Equal(t, 50, cs.Additions)
	assert.True(t, cs.Truncated())
}

func TestDiffMarksBinaryFiles(t *testing.T) {
	f := newRepoFixture(t)
	f.writeText("a.txt", "a\n")
	base := f.commit("seed", day(2024, 3, 1, 0))
	f.write("logo.png", []byte{0x89, 'P', 'N', 'G', 0x00, 0x01, 0x02, 0x00})
	head := f.commit("logo", day(2024, 3, 2, 0))

	plans := PlanReleases([]models.Tag{tagAt("dashboard-1", "dashboard-", base), tagAt("dashboard-2", "dashboard-", head)})
	cs := NewReleaseDiffer(NewGitService(), f.repo, 8).Diff(context.Background(), plans[1])
	assert.Equal(t, []models.ChangedFile{{Path: "logo.png", Stat: "binary"}}, cs.ChangedFiles)
}

func TestDiffFailureDegradesToEmpty(t *testing.T) {
	captured := captureEvents(t)
	f := newRepoFixture(t)
	f.writeText("a.txt", "a\n")
	head := f.commit("seed", day(2024, 3, 1, 0))

	prev := models.Tag{Name: "api-ghost", Prefix: "api-", Hash: "0123456789abcdef0123456789abcdef01234567"}
	plan := models.ReleasePlan{Tag: tagAt("api-2", "api-", head), Previous: &prev}

	cs := NewReleaseDiffer(NewGitService(), f.repo, 8).Diff(context.Background(), plan)
	assert.Equal(t, "api-ghost", cs.BaseRef)
	assert.NotNil(t, cs.ChangedFiles)
	assert.Empty(t, cs.ChangedFiles)
	assert.Zero(t, cs.TotalFiles)
	assert.Len(t, captured.ofType("warn"), 1)
}

func TestDiffKeepsRenamesAndEmptyFiles(t *testing.T) {
	f := newRepoFixture(t)
	f.writeText("docs/old.md", "# Guide\n\nHow to search.\n")
	base := f.commit("seed", day(2024, 3, 1, 0))

	f.remove("docs/old.md")
	f.writeText("docs/new.md", "# Guide\n\nHow to search.\n")
	f.writeText("empty.txt", "")
	head := f.commit("rename", day(2024, 3, 2, 0))

	plans := PlanReleases([]models.Tag{tagAt("api-1", "api-", base), tagAt("api-2", "api-", head)})
	cs := NewReleaseDiffer(NewGitService(), f.repo, 8).Diff(context.Background(), plans[1])

	assert.Equal(t, 2, cs.TotalFiles)
	assert.ElementsMatch(t, []models.ChangedFile{
		{Path: "docs/old.md => docs/new.md", Stat: "+0 -0"},
		{Path: "empty.txt", Stat: "+0 -0"},
	}, cs.ChangedFiles)

	bullets := FallbackBullets(cs.ChangedFiles, 8)
	assert.NotContains(t, bullets, GenericBullet)
}
