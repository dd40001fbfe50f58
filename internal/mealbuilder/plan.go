package mealbuilder

// Plan is the meal plan aggregate: an ordered list of meals where meals
// sharing a MealKey are the A and B variants of one logical meal.
//
// Every method returns a new Plan and leaves the receiver untouched.
// Invalid indexes and blocked edits return the plan unchanged.
type Plan struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Meals       []Meal `json:"meals"`
}

// NewPlan is the fresh-session plan with one default meal.
func NewPlan() Plan {
	return Plan{Meals: []Meal{DefaultMeal(1)}}
}

func (p Plan) clone() Plan {
	out := Plan{Title: p.Title, Description: p.Description, Meals: make([]Meal, len(p.Meals))}
	for i, m := range p.Meals {
		out.Meals[i] = m.clone()
	}
	return out
}

func (p Plan) HasMeal(i int) bool {
	return i >= 0 && i < len(p.Meals)
}

func (p Plan) HasFood(meal, food int) bool {
	return p.HasMeal(meal) && p.Meals[meal].HasFood(food)
}

func (p Plan) SetTitle(title string) Plan {
	out := p.clone()
	out.Title = title
	return out
}

func (p Plan) SetDescription(desc string) Plan {
	out := p.clone()
	out.Description = desc
	return out
}

// AddMeal appends a default meal. Its number skips names already taken so
// the new meal never joins an existing A/B pair.
func (p Plan) AddMeal() Plan {
	n := len(p.Meals) + 1
	for p.hasKey(DefaultMeal(n).Key()) {
		n++
	}
	out := p.clone()
	out.Meals = append(out.Meals, DefaultMeal(n))
	return out
}

func (p Plan) hasKey(key MealKey) bool {
	for _, m := range p.Meals {
		if m.Key() == key {
			return true
		}
	}
	return false
}

func (p Plan) CanRemoveMeal(i int) bool {
	return p.HasMeal(i) && len(p.Meals) > 1
}

func (p Plan) RemoveMeal(i int) Plan {
	if !p.CanRemoveMeal(i) {
		return p
	}
	out := Plan{Title: p.Title, Description: p.Description, Meals: make([]Meal, 0, len(p.Meals)-1)}
	for j, m := range p.Meals {
		if j != i {
			out.Meals = append(out.Meals, m.clone())
		}
	}
	return out
}

// CanSetMealField reports whether the edit keeps meal keys distinct. Moving
// a meal onto the key of another logical meal would merge the two and hide
// one of them from the totals.
func (p Plan) CanSetMealField(i int, field MealField, value string) bool {
	if !p.HasMeal(i) {
		return false
	}
	old := p.Meals[i].Key()
	next := old
	switch field {
	case MealFieldName:
		next.Name = value
	case MealFieldTime:
		next.Time = value
	default:
		return false
	}
	return next == old || !p.hasKey(next)
}

// SetMealField renames or retimes meal i together with every meal that
// shared its key, so an A/B pair stays paired.
func (p Plan) SetMealField(i int, field MealField, value string) Plan {
	if !p.CanSetMealField(i, field, value) {
		return p
	}
	key := p.Meals[i].Key()
	out := p.clone()
	for j := range out.Meals {
		if out.Meals[j].Key() != key {
			continue
		}
		if field == MealFieldName {
			out.Meals[j].Name = value
		} else {
			out.Meals[j].Time = value
		}
	}
	return out
}

// Variant returns the index of the meal with the same key as meal i and the
// given option, or -1.
func (p Plan) Variant(i int, opt MealOption) int {
	if !p.HasMeal(i) {
		return -1
	}
	key := p.Meals[i].Key()
	for j, m := range p.Meals {
		if m.Key() == key && m.Option == opt {
			return j
		}
	}
	return -1
}

// CanAddMealOption is true for an A meal whose key has no B yet.
func (p Plan) CanAddMealOption(i int) bool {
	return p.HasMeal(i) && p.Meals[i].Option == OptionA && p.Variant(i, OptionB) < 0
}

// AddMealOption inserts a B variant right after meal i. It starts with one
// blank food and carries the A meal's name and time.
func (p Plan) AddMealOption(i int) Plan {
	if !p.CanAddMealOption(i) {
		return p
	}
	a := p.Meals[i]
	b := DefaultMeal(0)
	b.Name, b.Time, b.Option = a.Name, a.Time, OptionB

	out := Plan{Title: p.Title, Description: p.Description, Meals: make([]Meal, 0, len(p.Meals)+1)}
	for j, m := range p.Meals {
		out.Meals = append(out.Meals, m.clone())
		if j == i {
			out.Meals = append(out.Meals, b)
		}
	}
	return out
}

func (p Plan) AddFood(meal int) Plan {
	if !p.HasMeal(meal) {
		return p
	}
	out := p.clone()
	out.Meals[meal].Foods = append(out.Meals[meal].Foods, Food{})
	return out
}

func (p Plan) CanRemoveFood(meal, food int) bool {
	return p.HasFood(meal, food) && len(p.Meals[meal].Foods) > 1
}

func (p Plan) RemoveFood(meal, food int) Plan {
	if !p.CanRemoveFood(meal, food) {
		return p
	}
	out := p.clone()
	foods := out.Meals[meal].Foods
	out.Meals[meal].Foods = append(foods[:food:food], foods[food+1:]...)
	return out
}

func (p Plan) SetFoodField(meal, food int, field FoodField, value string) Plan {
	if !p.HasFood(meal, food) {
		return p
	}
	out := p.clone()
	out.Meals[meal].Foods[food] = out.Meals[meal].Foods[food].With(field, value)
	return out
}

func (p Plan) BlurFoodField(meal, food int, field FoodField) Plan {
	if !p.HasFood(meal, food) {
		return p
	}
	out := p.clone()
	out.Meals[meal].Foods[food] = out.Meals[meal].Foods[food].Blur(field)
	return out
}

// Contributor returns the index of the variant of key that counts toward
// totals: the viewed meal when it is a B of this key, otherwise the first A,
// otherwise the first meal with the key.
func (p Plan) Contributor(key MealKey, viewing int) int {
	if p.HasMeal(viewing) && p.Meals[viewing].Key() == key && p.Meals[viewing].Option == OptionB {
		return viewing
	}
	first := -1
	for j, m := range p.Meals {
		if m.Key() != key {
			continue
		}
		if m.Option == OptionA {
			return j
		}
		if first < 0 {
			first = j
		}
	}
	return first
}

// Totals walks every logical meal and sums exactly one variant of each.
// viewing is the meal index the session currently shows (-1 for none).
func (p Plan) Totals(viewing int) Macros {
	var total Macros
	seen := make(map[MealKey]bool, len(p.Meals))
	for _, m := range p.Meals {
		key := m.Key()
		if seen[key] {
			continue
		}
		seen[key] = true
		if j := p.Contributor(key, viewing); j >= 0 {
			total = total.Add(p.Meals[j].Macros())
		}
	}
	return total
}
