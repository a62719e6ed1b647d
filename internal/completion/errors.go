package completion

import (
	"errors"
	"fmt"
)

// ErrEmptyResponse indica resposta 2xx sem nenhuma choice.
var ErrEmptyResponse = errors.New("empty response choices")

// ProviderError é devolvido quando o provedor responde fora de 2xx.
//
// Message é o corpo da resposta; nunca contém a API key.
type ProviderError struct {
	Provider   string
	StatusCode int
	Message    string
}

func (e *ProviderError) Error() string {
	if e == nil {
		return "provider error"
	}
	if e.StatusCode > 0 {
		return fmt.Sprintf("%s request failed: status %d: %s", e.Provider, e.StatusCode, e.Message)
	}
	return fmt.Sprintf("%s request failed: %s", e.Provider, e.Message)
}
