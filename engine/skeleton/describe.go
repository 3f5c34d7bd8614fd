package skeleton

import (
	"fmt"
	"strings"
)

func (s *skeletonImpl) Describe() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "skeleton %q: %d bones, %d roots\n", s.name, len(s.bones), len(s.roots))
	for _, r := range s.roots {
		s.describeBone(&sb, r, 1)
	}
	return sb.String()
}

func (s *skeletonImpl) describeBone(sb *strings.Builder, i, depth int) {
	b := &s.bones[i]
	mark := ""
	if i == s.highlighted {
		mark = " *"
	}
	j := b.jointPosition
	e := b.endpointPosition
	fmt.Fprintf(sb, "%sbone %d: joint (%.4f %.4f %.4f) end (%.4f %.4f %.4f)%s\n",
		strings.Repeat("  ", depth), i, j[0], j[1], j[2], e[0], e[1], e[2], mark)
	for _, c := range b.children {
		s.describeBone(sb, c, depth+1)
	}
}
