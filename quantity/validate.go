package quantity

import (
	"github.com/phil-mansfield/sphfetch/snapshot"
)

var (
	needs2D = map[string]bool{
		"y": true, "vy": true, "ay": true, "R": true, "phi": true,
	}
	needs3D = map[string]bool{
		"z": true, "vz": true, "az": true, "r": true, "theta": true,
	}
	liveOnly = map[string]string{
		"ax": "accelerations are", "ay": "accelerations are",
		"az": "accelerations are", "dudt": "dudt is",
	}
)

// Validate checks that name can be computed for snap and reports whether it
// is a direct or derived quantity. It has no side effects.
func (reg *Registry) Validate(name string, snap snapshot.Snapshot) (Class, error) {
	if (needs3D[name] && snap.Dims() < 3) || (needs2D[name] && snap.Dims() < 2) {
		return 0, newError(ErrDimensionality, name, nil,
			"You requested the quantity '%s', but the simulation is only "+
				"in %d dims.", name, snap.Dims())
	}

	if what, ok := liveOnly[name]; ok && !snap.Live() {
		return 0, newError(ErrLiveOnly, name, nil,
			"Cannot fetch '%s': %s available only for live snapshots.",
			name, what)
	}

	switch {
	case reg.direct[name]:
		return Direct, nil
	case reg.isDerived(name):
		return Derived, nil
	}
	return 0, newError(ErrUnknownQuantity, name, nil,
		"We don't know how to compute '%s'.", name)
}
