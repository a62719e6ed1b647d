// Package domain define contratos e tipos de domínio para o rate limit por
// janela deslizante e para o limite de concorrência.
//
// Este pacote não depende de net/http nem de implementações concretas.
// A regra da janela (Policy.Admit) fica aqui para ser testada sem infraestrutura.
package domain
