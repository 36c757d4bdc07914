package sweep

import "fmt"

// Role names the measurement purpose of one sweep within a 3-omega session.
type Role string

const (
	RoleSample3w Role = "sample_3w"
	RoleSample1w Role = "sample_1w"
	RoleShunt1w  Role = "shunt_1w"
)

// Roles lists the three sweep roles in aligned-output column order.
var Roles = []Role{RoleSample3w, RoleSample1w, RoleShunt1w}

func validRole(role Role) bool {
	for _, r := range Roles {
		if r == role {
			return true
		}
	}
	return false
}

// Set holds at most one digest per sweep role. It is populated incrementally
// as sweeps complete and read (never mutated) when aligning.
type Set struct {
	digests map[Role]*Digest
}

// NewSet creates an empty Set.
func NewSet() *Set {
	return &Set{digests: make(map[Role]*Digest)}
}

// Assign stores a digest under a role. Re-assigning a role replaces the
// previous digest (last write wins).
func (s *Set) Assign(role Role, d *Digest) error {
	if !validRole(role) {
		return fmt.Errorf("unknown sweep role %q: must be one of %q, %q, or %q",
			role, RoleSample3w, RoleSample1w, RoleShunt1w)
	}
	if d == nil {
		return fmt.Errorf("cannot assign nil digest to role %q", role)
	}
	s.digests[role] = d
	return nil
}

// Digest returns the digest stored under a role, if any.
func (s *Set) Digest(role Role) (*Digest, bool) {
	d, ok := s.digests[role]
	return d, ok
}

// Aligned is the cross-sweep output table for one amplitude: one row per
// frequency with the six mean voltage columns, plus a companion variance
// table under the same ordering.
type Aligned struct {
	Ampl  float64
	Freqs []float64

	// Columns names the six value columns; Values is [frequency][column].
	Columns []string
	Values  [][]float64

	// VarColumns and Variances mirror Columns/Values for the per-cell
	// variances, each sourced from its own digest's matching channel.
	VarColumns []string
	Variances  [][]float64
}

var alignedColumns = []string{"Vs_3w", "Vs_3w_o", "Vs_1w", "Vs_1w_o", "Vsh_1w", "Vsh_1w_o"}

// Align checks the three sweeps for consistency and merges them into one
// table for the chosen amplitude. It fails, leaving the Set intact, when a
// role is missing, when the frequency axes differ at any index, or when the
// amplitude is absent from any digest's grid.
func (s *Set) Align(ampl float64) (*Aligned, error) {
	for _, role := range Roles {
		if _, ok := s.digests[role]; !ok {
			return nil, fmt.Errorf("no recorded sweep for role %q", role)
		}
	}

	d3w := s.digests[RoleSample3w]
	d1w := s.digests[RoleSample1w]
	dsh := s.digests[RoleShunt1w]

	for _, other := range []*Digest{d1w, dsh} {
		if err := sameFreqAxis(d3w, other); err != nil {
			return nil, err
		}
	}

	cols := make(map[Role]int, len(Roles))
	for _, role := range Roles {
		d := s.digests[role]
		col, ok := d.AmplColumn(ampl)
		if !ok {
			return nil, fmt.Errorf("amplitude %g V not found in sweep %q", ampl, role)
		}
		cols[role] = col
	}

	out := &Aligned{
		Ampl:       ampl,
		Freqs:      append([]float64(nil), d3w.Freqs...),
		Columns:    append([]string(nil), alignedColumns...),
		VarColumns: varianceColumns(),
		Values:     newTable(len(d3w.Freqs), len(alignedColumns)),
		Variances:  newTable(len(d3w.Freqs), len(alignedColumns)),
	}

	for j := range d3w.Freqs {
		out.Values[j][0] = d3w.MeanX[j][cols[RoleSample3w]]
		out.Values[j][1] = d3w.MeanY[j][cols[RoleSample3w]]
		out.Values[j][2] = d1w.MeanX[j][cols[RoleSample1w]]
		out.Values[j][3] = d1w.MeanY[j][cols[RoleSample1w]]
		out.Values[j][4] = dsh.MeanX[j][cols[RoleShunt1w]]
		out.Values[j][5] = dsh.MeanY[j][cols[RoleShunt1w]]

		out.Variances[j][0] = d3w.VarX[j][cols[RoleSample3w]]
		out.Variances[j][1] = d3w.VarY[j][cols[RoleSample3w]]
		out.Variances[j][2] = d1w.VarX[j][cols[RoleSample1w]]
		out.Variances[j][3] = d1w.VarY[j][cols[RoleSample1w]]
		out.Variances[j][4] = dsh.VarX[j][cols[RoleShunt1w]]
		out.Variances[j][5] = dsh.VarY[j][cols[RoleShunt1w]]
	}

	return out, nil
}

func sameFreqAxis(a, b *Digest) error {
	if len(a.Freqs) != len(b.Freqs) {
		return fmt.Errorf("frequency axes don't match across sweeps: %d points vs %d points",
			len(a.Freqs), len(b.Freqs))
	}
	for j := range a.Freqs {
		if a.Freqs[j] != b.Freqs[j] {
			return fmt.Errorf("frequency axes don't match across sweeps at index %d: %g Hz vs %g Hz",
				j, a.Freqs[j], b.Freqs[j])
		}
	}
	return nil
}

func varianceColumns() []string {
	out := make([]string, len(alignedColumns))
	for i, c := range alignedColumns {
		out[i] = "d" + c
	}
	return out
}
