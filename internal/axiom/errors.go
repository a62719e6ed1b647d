package axiom

import "errors"

var (
	// ErrUnknownAxiomSet indica um nome fora do registro.
	ErrUnknownAxiomSet = errors.New("unknown axiom set")

	// ErrAxiomSetUnavailable cobre documento inacessível, malformado ou vazio.
	ErrAxiomSetUnavailable = errors.New("axiom set unavailable")
)
