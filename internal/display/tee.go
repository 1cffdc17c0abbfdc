package display

// Tee forwards every call to each display in order and stops at the first error.
// Displays before the failing one keep the change.
type Tee []Display

var _ Display = Tee(nil)

func (t Tee) Init(nodes []Node, edges []Edge) error {
	for _, d := range t {
		if err := d.Init(nodes, edges); err != nil {
			return err
		}
	}
	return nil
}

func (t Tee) Add(nodes []Node, edges []Edge) error {
	for _, d := range t {
		if err := d.Add(nodes, edges); err != nil {
			return err
		}
	}
	return nil
}

func (t Tee) Clear() error {
	for _, d := range t {
		if err := d.Clear(); err != nil {
			return err
		}
	}
	return nil
}

// SnapshotterOf returns d, or the first member of a Tee, that can report what is
// rendered.
func SnapshotterOf(d Display) (Snapshotter, bool) {
	if s, ok := d.(Snapshotter); ok {
		return s, true
	}
	if t, ok := d.(Tee); ok {
		for _, member := range t {
			if s, ok := SnapshotterOf(member); ok {
				return s, true
			}
		}
	}
	return nil, false
}
