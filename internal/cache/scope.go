package cache

import "github.com/google/uuid"

// ProjectScope selects which projects govern expense filtering. It is a
// tagged union: either the all-projects scope or a single project is
// active, never both. Use the constructors; the zero value means "no
// project selected yet".
type ProjectScope struct {
	All       bool      `json:"all"`
	ProjectID uuid.UUID `json:"projectId"`
}

// ScopeAll returns the scope covering every project.
func ScopeAll() ProjectScope {
	return ProjectScope{All: true}
}

// ScopeProject returns the scope for a single project.
func ScopeProject(id uuid.UUID) ProjectScope {
	return ProjectScope{ProjectID: id}
}

// Empty reports whether neither all-projects nor a specific project is
// selected.
func (s ProjectScope) Empty() bool {
	return !s.All && s.ProjectID == uuid.Nil
}
