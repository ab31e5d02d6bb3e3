package generator

import (
	"math/rand/v2"

	"github.com/learnloop/backend/internal/models"
)

// scrambleItems returns ex with its ORDERING items in an order that differs
// from the solution, so the displayed order is never the answer. Other
// exercise types are returned unchanged.
func scrambleItems(ex models.Exercise) models.Exercise {
	if ex.Type != models.ExerciseOrdering || len(ex.Content.Items) < 2 {
		return ex
	}
	var order []string
	switch sol := ex.Solution.(type) {
	case models.OrderingSolution:
		order = sol.Order
	case *models.OrderingSolution:
		if sol != nil {
			order = sol.Order
		}
	}

	items := append([]models.Item(nil), ex.Content.Items...)
	rand.Shuffle(len(items), func(i, j int) { items[i], items[j] = items[j], items[i] })
	if inOrder(items, order) {
		// Rotating distinct ids by one never yields the same sequence.
		items = append(items[1:], items[0])
	}
	ex.Content.Items = items
	return ex
}

func inOrder(items []models.Item, order []string) bool {
	if len(items) != len(order) {
		return false
	}
	for i, it := range items {
		if it.ID != order[i] {
			return false
		}
	}
	return true
}
