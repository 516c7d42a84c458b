package domain

import "sort"

// Item es un producto de la máquina: precio y relé que lo dispensa.
type Item struct {
	Name  string `json:"name"`
	Price int64  `json:"price"`
	Relay int    `json:"relay"`
}

// Catalog mapea nombre de producto a {precio, relé}. Es configuración
// estática: se construye al arrancar y no se muta después.
type Catalog struct {
	items map[string]Item
}

// TestItemName es el producto centinela para pedidos desconocidos
// (pings de modo test de Midtrans).
const TestItemName = "test"

func NewCatalog(items ...Item) *Catalog {
	m := make(map[string]Item, len(items))
	for _, it := range items {
		m[it.Name] = it
	}
	return &Catalog{items: m}
}

// DefaultCatalog es el catálogo de la máquina de dos relés.
func DefaultCatalog() *Catalog {
	return NewCatalog(
		Item{Name: "Air Putih", Price: 100, Relay: 1},
		Item{Name: "Teh", Price: 150, Relay: 2},
	)
}

// Resolve devuelve el producto por nombre.
func (c *Catalog) Resolve(name string) (Item, bool) {
	it, ok := c.items[name]
	return it, ok
}

// Relays devuelve todos los relés conocidos, ordenados.
func (c *Catalog) Relays() []int {
	seen := make(map[int]struct{}, len(c.items))
	var relays []int
	for _, it := range c.items {
		if _, ok := seen[it.Relay]; !ok {
			seen[it.Relay] = struct{}{}
			relays = append(relays, it.Relay)
		}
	}
	sort.Ints(relays)
	return relays
}
