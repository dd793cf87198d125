package services

import (
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	fdiff "github.com/go-git/go-git/v5/plumbing/format/diff"
	"github.com/go-git/go-git/v5/plumbing/object"
)

// TagInfo is a tag resolved to the commit it marks.
type TagInfo struct {
	Name       string
	CommitHash plumbing.Hash
	CreatedAt  time.Time
}

// FileChange is the line statistics of one file in a tree diff.
type FileChange struct {
	Path      string
	Additions int
	Deletions int
	Binary    bool
}

// Stat renders the change the way it appears next to the path.
func (f FileChange) Stat() string {
	if f.Binary {
		return "binary"
	}
	return fmt.Sprintf("+%d -%d", f.Additions, f.Deletions)
}

type GitService struct{}

func NewGitService() *GitService {
	return &GitService{}
}

// Open an existing repo, walking up to the enclosing .git directory.
func (g *GitService) Open(path string) (*git.Repository, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("repository path cannot be empty")
	}
	repo, err := git.PlainOpenWithOptions(path, &git.PlainOpenOptions{DetectDotGit: true})
	if err != nil {
		return nil, fmt.Errorf("failed to open repository at %s: %w", path, err)
	}
	return repo, nil
}

// TagRefs returns every refs/tags/* reference sorted by tag name.
func (g *GitService) TagRefs(repo *git.Repository) ([]*plumbing.Reference, error) {
	if repo == nil {
		return nil, fmt.Errorf("repo cannot be nil")
	}
	iter, err := repo.Tags()
	if err != nil {
		return nil, fmt.Errorf("list tags: %w", err)
	}
	defer iter.Close()

	var refs []*plumbing.Reference
	if err := iter.ForEach(func(ref *plumbing.Reference) error {
		refs = append(refs, ref)
		return nil
	}); err != nil {
		return nil, fmt.Errorf("iterate tags: %w", err)
	}

	// Storage order differs between packed and loose refs.
	sort.Slice(refs, func(i, j int) bool { return refs[i].Name().Short() < refs[j].Name().Short() })
	return refs, nil
}

// ResolveTag finds the commit behind a tag and its creation time: the tagger
// date for annotated tags, the committer date for lightweight ones.
func (g *GitService) ResolveTag(repo *git.Repository, ref *plumbing.Reference) (TagInfo, error) {
	info := TagInfo{Name: ref.Name().Short()}

	tagObj, err := repo.TagObject(ref.Hash())
	switch {
	case err == nil:
		commit, cErr := tagObj.Commit()
		if cErr != nil {
			return info, fmt.Errorf("tag %s does not point to a commit: %w", info.Name, cErr)
		}
		info.CommitHash = commit.Hash
		info.CreatedAt = tagObj.Tagger.When
	case errors.Is(err, plumbing.ErrObjectNotFound):
		commit, cErr := repo.CommitObject(ref.Hash())
		if cErr != nil {
			return info, fmt.Errorf("failed to get commit for tag %s: %w", info.Name, cErr)
		}
		info.CommitHash = commit.Hash
		info.CreatedAt = commit.Committer.When
	default:
		return info, fmt.Errorf("failed to read tag %s: %w", info.Name, err)
	}
	return info, nil
}

// DiffFiles returns per-file statistics between base and target commits.
// An empty base diffs target against its first parent, or against an empty
// tree when target is a root commit.
func (g *GitService) DiffFiles(ctx context.Context, repo *git.Repository, base, target string) ([]FileChange, error) {
	targetHash, err := parseHash(target)
	if err != nil {
		return nil, fmt.Errorf("target: %w", err)
	}
	targetCommit, err := repo.CommitObject(targetHash)
	if err != nil {
		return nil, fmt.Errorf("failed to get target commit: %w", err)
	}
	targetTree, err := targetCommit.Tree()
	if err != nil {
		return nil, fmt.Errorf("failed to get target tree: %w", err)
	}

	baseTree, err := g.baseTree(repo, base, targetCommit)
	if err != nil {
		return nil, err
	}

	changes, err := object.DiffTreeWithOptions(ctx, baseTree, targetTree, object.DefaultDiffTreeOptions)
	if err != nil {
		return nil, fmt.Errorf("failed to diff trees: %w", err)
	}
	patch, err := changes.PatchContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get patch: %w", err)
	}
	return fileChanges(patch), nil
}

// baseTree returns nil for a root commit; DiffTree treats nil as empty.
func (g *GitService) baseTree(repo *git.Repository, base string, target *object.Commit) (*object.Tree, error) {
	if base == "" {
		if target.NumParents() == 0 {
			return nil, nil
		}
		parent, err := target.Parent(0)
		if err != nil {
			return nil, fmt.Errorf("failed to get parent commit: %w", err)
		}
		tree, err := parent.Tree()
		if err != nil {
			return nil, fmt.Errorf("failed to get parent tree: %w", err)
		}
		return tree, nil
	}

	baseHash, err := parseHash(base)
	if err != nil {
		return nil, fmt.Errorf("base: %w", err)
	}
	commit, err := repo.CommitObject(baseHash)
	if err != nil {
		return nil, fmt.Errorf("failed to get base commit: %w", err)
	}
	tree, err := commit.Tree()
	if err != nil {
		return nil, fmt.Errorf("failed to get base tree: %w", err)
	}
	return tree, nil
}

// fileChanges keeps path+stat entries in patch order. Renames and empty
// files are kept with "+0 -0"; an in-place change with no line delta (a mode
// change) has no stat line and is skipped.
func fileChanges(patch *object.Patch) []FileChange {
	var changes []FileChange
	for _, fp := range patch.FilePatches() {
		from, to := fp.Files()
		change := FileChange{Path: patchPath(from, to)}

		if fp.IsBinary() && (hasContent(from) || hasContent(to)) {
			change.Binary = true
			changes = append(changes, change)
			continue
		}

		for _, chunk := range fp.Chunks() {
			s := chunk.Content()
			if len(s) == 0 {
				continue
			}
			lines := strings.Count(s, "\n")
			if s[len(s)-1] != '\n' {
				lines++
			}
			switch chunk.Type() {
			case fdiff.Add:
				change.Additions += lines
			case fdiff.Delete:
				change.Deletions += lines
			}
		}
		modeOnly := from != nil && to != nil && from.Path() == to.Path()
		if change.Additions == 0 && change.Deletions == 0 && modeOnly {
			continue
		}
		changes = append(changes, change)
	}
	return changes
}

var emptyBlobHash = plumbing.ComputeHash(plumbing.BlobObject, []byte{})

func hasContent(f fdiff.File) bool {
	return f != nil && f.Hash() != emptyBlobHash
}

func patchPath(from, to fdiff.File) string {
	switch {
	case from == nil:
		return to.Path()
	case to == nil:
		return from.Path()
	case from.Path() != to.Path():
		return from.Path() + " => " + to.Path()
	default:
		return to.Path()
	}
}

func parseHash(s string) (plumbing.Hash, error) {
	s = strings.TrimSpace(s)
	if len(s) != 40 {
		return plumbing.ZeroHash, fmt.Errorf("invalid commit hash %q", s)
	}
	if _, err := hex.DecodeString(s); err != nil {
		return plumbing.ZeroHash, fmt.Errorf("invalid commit hash %q", s)
	}
	return plumbing.NewHash(s), nil
}
