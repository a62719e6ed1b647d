// Package application contém os casos de uso (regras de aplicação) para o rate limit
// e o limite de concorrência.
//
// Ele depende apenas do pacote domain e não conhece net/http.
// Ex.: Service.Decide(ctx, key) retorna uma Decision (allow/deny + limite/restante/retry-after).
package application
