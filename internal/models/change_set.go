package models

// ChangedFile is one path+stat line of a release diff.
type ChangedFile struct {
	Path string `json:"path"`
	Stat string `json:"stat"`
}

// String renders the file the way fallback bullets show it.
func (f ChangedFile) String() string {
	if f.Stat == "" {
		return f.Path
	}
	return f.Path + " (" + f.Stat + ")"
}

// ChangeSet is the capped file-level diff between two releases of one prefix.
type ChangeSet struct {
	FromTag *Tag  `json:"fromTag,omitempty"`
	ToTag   Tag   `json:"toTag"`
	// BaseRef names the comparison base, e.g. "api-1.0.0" or "api-1.1.0^".
	BaseRef      string        `json:"baseRef"`
	ChangedFiles []ChangedFile `json:"changedFiles"`
	TotalFiles   int           `json:"totalFiles"`
	Additions    int           `json:"additions"`
	Deletions    int           `json:"deletions"`
}

// Truncated reports whether files were dropped by the per-tag cap.
func (c ChangeSet) Truncated() bool {
	return c.TotalFiles > len(c.ChangedFiles)
}
