package catalog

import (
	"go.mongodb.org/mongo-driver/bson/primitive"

	"storefront/internal/models"
)

// Tree es la jerarquía de categorías como mapa padre -> hijos.
type Tree struct {
	children map[primitive.ObjectID][]primitive.ObjectID
	exists   map[primitive.ObjectID]bool
}

// BuildTree indexa el padre de cada categoría.
func BuildTree(links []models.CategoryLink) *Tree {
	t := &Tree{
		children: make(map[primitive.ObjectID][]primitive.ObjectID, len(links)),
		exists:   make(map[primitive.ObjectID]bool, len(links)),
	}
	for _, l := range links {
		t.exists[l.ID] = true
		if l.ParentCategory != nil {
			t.children[*l.ParentCategory] = append(t.children[*l.ParentCategory], l.ID)
		}
	}
	return t
}

// Has indica si id es una categoría conocida.
func (t *Tree) Has(id primitive.ObjectID) bool {
	return t.exists[id]
}

// Descendants devuelve todas las categorías debajo de id, a lo ancho.
// id nunca forma parte del resultado.
func (t *Tree) Descendants(id primitive.ObjectID) []primitive.ObjectID {
	seen := map[primitive.ObjectID]bool{id: true}
	var out []primitive.ObjectID
	queue := append([]primitive.ObjectID(nil), t.children[id]...)
	for len(queue) > 0 {
		next := queue[0]
		queue = queue[1:]
		if seen[next] {
			continue
		}
		seen[next] = true
		out = append(out, next)
		queue = append(queue, t.children[next]...)
	}
	return out
}

// Scope es id seguido de todos sus descendientes.
func (t *Tree) Scope(id primitive.ObjectID) []primitive.ObjectID {
	return append([]primitive.ObjectID{id}, t.Descendants(id)...)
}

// IsDescendant indica si candidate está en algún nivel debajo de ancestor.
func (t *Tree) IsDescendant(ancestor, candidate primitive.ObjectID) bool {
	for _, id := range t.Descendants(ancestor) {
		if id == candidate {
			return true
		}
	}
	return false
}
