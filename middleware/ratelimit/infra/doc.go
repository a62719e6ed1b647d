// Package infra contém implementações concretas (infraestrutura) para os contratos
// definidos no pacote domain.
//
// Exemplos:
//   - WindowStore: janela deslizante em memória, lock por chave e janitor opcional
//   - RedisWindowStore: a mesma janela num sorted set do Redis (script Lua atômico)
//   - Semaphore: vagas de chamada ao provedor de completions
//   - MemoryStatsStore / RedisStatsStore: contadores allowed/denied
package infra
