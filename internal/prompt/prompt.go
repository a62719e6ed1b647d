// Package prompt renderiza o prompt enviado ao provedor de completions.
package prompt

import (
	"strconv"
	"strings"
)

// Undecidable é a frase que o modelo deve devolver quando não há derivação.
const Undecidable = "Undecidable with given axioms."

// Build é uma função pura de (problem, axioms): mesma entrada, mesmos bytes.
func Build(problem string, axioms []string) string {
	var b strings.Builder

	b.WriteString("You are ProofGPT. You are restricted to the axioms below:\n\n")
	for i, a := range axioms {
		if i > 0 {
			b.WriteByte('\n')
		}
		b.WriteString(strconv.Itoa(i + 1))
		b.WriteString(". ")
		b.WriteString(a)
	}
	b.WriteString("\n\n---\n\nProblem:\n")
	b.WriteString(problem)
	b.WriteString("\n\n---\n\nOnly derive using the axioms. If impossible, reply:\n\"")
	b.WriteString(Undecidable)
	b.WriteString("\"\n")

	return b.String()
}
