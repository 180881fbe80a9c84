// Package models defines the vault records (users, categories, units) and
// their validation rules.
package models

// Kind tags a record with the table it lives in.
type Kind string

const (
	KindUser     Kind = "user"
	KindCategory Kind = "category"
	KindUnit     Kind = "unit"
)

func (k Kind) String() string { return string(k) }

// Record is the closed set of persisted record types. Stores are generic over it.
type Record interface {
	User | Category | Unit
	Kind() Kind
	Validate() error
}

// DefaultCategory is used when a unit is added without an explicit category.
const DefaultCategory = "default"
