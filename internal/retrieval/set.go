package retrieval

import "github.com/inquora/inquora-cli/internal/core/domain"

// Set is the closed, ordered collection of tools available to the
// orchestrator. Order is the deterministic aggregation order: evidence
// from earlier tools sorts before evidence from later ones regardless
// of arrival time.
type Set struct {
	tools []Tool
	byTag map[domain.ToolTag]Tool
}

// NewSet creates a tool set. A later tool with a duplicate tag
// replaces the earlier one.
func NewSet(tools ...Tool) *Set {
	s := &Set{byTag: make(map[domain.ToolTag]Tool, len(tools))}
	for _, tool := range tools {
		s.Add(tool)
	}
	return s
}

// Add appends a tool, replacing any existing tool with the same tag.
func (s *Set) Add(tool Tool) {
	if existing, ok := s.byTag[tool.Tag()]; ok {
		for i, t := range s.tools {
			if t == existing {
				s.tools[i] = tool
				break
			}
		}
	} else {
		s.tools = append(s.tools, tool)
	}
	s.byTag[tool.Tag()] = tool
}

// ByTag returns the tool with the given capability tag.
func (s *Set) ByTag(tag domain.ToolTag) (Tool, bool) {
	tool, ok := s.byTag[tag]
	return tool, ok
}

// All returns the tools in registration order.
func (s *Set) All() []Tool {
	out := make([]Tool, len(s.tools))
	copy(out, s.tools)
	return out
}

// Len returns the number of registered tools.
func (s *Set) Len() int {
	return len(s.tools)
}
