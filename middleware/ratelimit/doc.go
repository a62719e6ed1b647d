// Package ratelimit fornece adapters HTTP (net/http) para o rate limit por janela
// deslizante e para o limite de concorrência.
//
// Visão geral (camadas):
//
//   - domain: contratos e a regra da janela (sem dependência de net/http)
//   - application: casos de uso (decisão allow/deny, acquire/timeout) sem net/http
//   - infra: implementações concretas (janela em memória/Redis, semáforo, stats)
//   - ratelimit (este pacote): middlewares HTTP + extração de chave + tradução para status/headers
//
// Fluxo na rota /api:
//
//  1. Extrai a chave do cliente (header/XFF/IP)
//  2. Chama a camada application para obter a decisão
//  3. Se bloqueado, responde 429 com {"detail": ...} e Retry-After
//  4. Se permitido, chama o próximo handler (ex: /api/proof)
//
// O padrão é 10 chamadas por cliente nas últimas 24h (RATE_LIMIT, RATE_WINDOW).
package ratelimit
