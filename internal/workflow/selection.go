package workflow

// Selection is an ordered set of option keys. Order is the order keys were selected.
type Selection struct {
	keys  []string
	index map[string]struct{}
}

func NewSelection() *Selection {
	return &Selection{index: make(map[string]struct{})}
}

// Toggle adds key if absent and removes it otherwise. It reports whether key is selected afterwards.
func (s *Selection) Toggle(key string) bool {
	if _, ok := s.index[key]; ok {
		delete(s.index, key)
		for i, k := range s.keys {
			if k == key {
				s.keys = append(s.keys[:i], s.keys[i+1:]...)
				break
			}
		}
		return false
	}
	s.index[key] = struct{}{}
	s.keys = append(s.keys, key)
	return true
}

// SelectAll replaces the selection with keys, in list order
func (s *Selection) SelectAll(keys []string) {
	s.Clear()
	for _, k := range keys {
		if _, ok := s.index[k]; ok {
			continue
		}
		s.index[k] = struct{}{}
		s.keys = append(s.keys, k)
	}
}

func (s *Selection) Clear() {
	s.keys = nil
	s.index = make(map[string]struct{})
}

func (s *Selection) Contains(key string) bool {
	_, ok := s.index[key]
	return ok
}

func (s *Selection) Len() int { return len(s.keys) }

// Keys returns a copy of the selected keys in selection order
func (s *Selection) Keys() []string {
	out := make([]string, len(s.keys))
	copy(out, s.keys)
	return out
}
