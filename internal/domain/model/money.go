package model

import "fmt"

// Unit is the denomination an Amount is expressed in. Som is the display
// unit; tiyin is 1/100 som and is what Payme puts on the wire.
type Unit string

const (
	UnitSom   Unit = "som"
	UnitTiyin Unit = "tiyin"
)

// Amount is a money value pinned to its unit. Comparisons always happen in
// tiyin so amounts quoted in different units compare correctly.
type Amount struct {
	Value int64
	Unit  Unit
}

func NewAmount(value int64, unit Unit) Amount {
	return Amount{Value: value, Unit: unit}
}

// InTiyin returns the value normalized to tiyin.
func (a Amount) InTiyin() int64 {
	if a.Unit == UnitTiyin {
		return a.Value
	}
	return a.Value * 100
}

// Equal compares two amounts in tiyin.
func (a Amount) Equal(b Amount) bool {
	return a.InTiyin() == b.InTiyin()
}

func (a Amount) String() string {
	return fmt.Sprintf("%d %s", a.Value, a.Unit)
}
