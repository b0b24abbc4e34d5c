package models

import "time"

// Status indica se um item está presente na listagem da loja
type Status int

const (
	StatusAbsent  Status = 0
	StatusPresent Status = 1
)

// Item representa um produto rastreado pelo watcher
type Item struct {
	Code        string
	URL         string
	Name        string
	FirstSeen   time.Time
	Status      Status
	StatusSince time.Time
}

// Snapshot mapeia código de produto -> registro rastreado.
// Representa todo o universo de itens já observados por uma instância do watcher.
type Snapshot map[string]*Item

// Clone retorna uma cópia profunda do snapshot
func (s Snapshot) Clone() Snapshot {
	out := make(Snapshot, len(s))
	for code, item := range s {
		copied := *item
		out[code] = &copied
	}
	return out
}

// CountPresent retorna quantos itens estão com status presente
func (s Snapshot) CountPresent() int {
	n := 0
	for _, item := range s {
		if item.Status == StatusPresent {
			n++
		}
	}
	return n
}

// Observation é um item bruto da listagem já resolvido para (código, url, nome)
type Observation struct {
	Code string
	URL  string
	Name string
}

// EventKind identifica o tipo de evento gerado pelo diff
type EventKind int

const (
	EventNew EventKind = iota
	EventRestock
)

// Event é produzido a cada passada e consumido apenas pelo formatador de
// notificações; nunca é persistido.
type Event struct {
	Kind EventKind
	Code string
	URL  string
	Name string
}
