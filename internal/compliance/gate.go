// Package compliance validates and de-identifies patient input before any
// downstream processing. Only initials and a pseudonymous id cross this
// boundary; the full name never leaves it.
package compliance

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"
	"unicode"
)

type Input struct {
	NomeCompleto       string
	Idade              int
	CenarioAtendimento string
}

// Profile is the de-identified patient projection. Immutable once built.
type Profile struct {
	Iniciais           string `json:"iniciais"`
	PacienteID         string `json:"paciente_id"`
	Idade              int    `json:"idade"`
	CenarioAtendimento string `json:"cenario_atendimento"`
}

var knownCenarios = map[string]bool{
	"PS":           true,
	"Consultório":  true,
	"Telemedicina": true,
	"UPA":          true,
	"Domiciliar":   true,
}

const maxIdade = 120

// Process validates the identity fields and returns the redacted profile.
// On validation failure it returns the full message list and no profile.
func Process(in Input) (*Profile, []string) {
	var errs []string

	name := strings.TrimSpace(in.NomeCompleto)
	if name == "" {
		errs = append(errs, "Nome do paciente é obrigatório")
	}
	if in.Idade < 0 || in.Idade > maxIdade {
		errs = append(errs, fmt.Sprintf("Idade inválida: %d", in.Idade))
	}
	cenario := strings.TrimSpace(in.CenarioAtendimento)
	if !knownCenarios[cenario] {
		errs = append(errs, fmt.Sprintf("Cenário de atendimento desconhecido: %q", cenario))
	}
	if len(errs) > 0 {
		return nil, errs
	}

	return &Profile{
		Iniciais:           initials(name),
		PacienteID:         pseudonymousID(name),
		Idade:              in.Idade,
		CenarioAtendimento: cenario,
	}, nil
}

// initials reduces "Maria Silva" to "M.S.".
func initials(name string) string {
	var b strings.Builder
	for _, part := range strings.Fields(name) {
		r := []rune(part)[0]
		if !unicode.IsLetter(r) {
			continue
		}
		b.WriteRune(unicode.ToUpper(r))
		b.WriteByte('.')
	}
	if b.Len() == 0 {
		return "?."
	}
	return b.String()
}

// pseudonymousID derives a stable opaque id from the normalized name, so
// the same patient maps to the same id without storing the name.
func pseudonymousID(name string) string {
	norm := strings.ToLower(strings.Join(strings.Fields(name), " "))
	sum := sha256.Sum256([]byte(norm))
	return "PAC-" + strings.ToUpper(hex.EncodeToString(sum[:4]))
}
