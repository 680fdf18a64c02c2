package model

import "time"

// Naan is a registered naming authority (Name Assigning Authority Number).
// The number itself is the primary key and is assigned out-of-band by the
// ARK registry. Naans are never deleted once arks reference them.
type Naan struct {
	Naan        int64     `json:"naan" db:"naan"`
	Name        string    `json:"name" db:"name"`
	Description string    `json:"description" db:"description"`
	URL         string    `json:"url" db:"url"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time `json:"updated_at" db:"updated_at"`
}

// Shoulder is a short namespace prefix scoped to one naan, used as the
// leading segment of every assigned name minted under it.
type Shoulder struct {
	ID          int64     `json:"id" db:"id"`
	Naan        int64     `json:"naan" db:"naan"`
	Shoulder    string    `json:"shoulder" db:"shoulder"`
	Name        string    `json:"name" db:"name"`
	Description string    `json:"description" db:"description"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
}
