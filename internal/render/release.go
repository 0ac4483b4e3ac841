package render

import "golang.org/x/exp/slog"

// releaseStack holds destroy calls in creation order and runs them newest
// first.
type releaseStack struct {
	fns  []func()
	tags []string
}

func (s *releaseStack) push(tag string, fn func()) {
	s.fns = append(s.fns, fn)
	s.tags = append(s.tags, tag)
}

func (s *releaseStack) len() int {
	return len(s.fns)
}

// unwind runs every pending release and empties the stack.
func (s *releaseStack) unwind(log *slog.Logger) {
	for i := len(s.fns) - 1; i >= 0; i-- {
		log.Debug("release", slog.String("object", s.tags[i]))
		s.fns[i]()
	}
	s.fns = nil
	s.tags = nil
}
