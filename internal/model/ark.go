package model

// Ark is a minted persistent identifier. The primary key is the full
// canonical string naan + shoulder + assigned name; Naan, Shoulder, and
// AssignedName are immutable once created, while URL, Metadata, and
// Commitment may be updated by the owning naan. The invariant
// Ark == naan + shoulder + assigned name must hold at all times; a row
// violating it is a data-integrity error, not something to patch at runtime.
type Ark struct {
	Ark          string `json:"ark" db:"ark"`
	Naan         int64  `json:"naan" db:"naan"`
	Shoulder     string `json:"shoulder" db:"shoulder"`
	AssignedName string `json:"assigned_name" db:"assigned_name"`
	URL          string `json:"url" db:"url"`
	Metadata     string `json:"metadata" db:"metadata"`
	Commitment   string `json:"commitment" db:"commitment"`
}

// String renders the ark in its conventional qualified form.
func (a *Ark) String() string {
	return "ark:/" + a.Ark
}
