package mealbuilder

import "github.com/google/uuid"

// Payload is the document handed to storage on submit. Macros are numbers
// here; blank input has already been read as zero.
type Payload struct {
	Title       string        `json:"title"`
	Description string        `json:"description"`
	Meals       []MealPayload `json:"meals"`
}

type MealPayload struct {
	ID         string        `json:"id"`
	Name       string        `json:"name"`
	Time       string        `json:"time"`
	MealOption MealOption    `json:"mealOption"`
	Foods      []FoodPayload `json:"foods"`
}

type FoodPayload struct {
	Name     string  `json:"name"`
	Portion  string  `json:"portion"`
	Calories float64 `json:"calories"`
	Protein  float64 `json:"protein"`
	Carbs    float64 `json:"carbs"`
	Fat      float64 `json:"fat"`
}

func (p Plan) Payload() Payload {
	out := Payload{
		Title:       p.Title,
		Description: p.Description,
		Meals:       make([]MealPayload, 0, len(p.Meals)),
	}
	for _, m := range p.Meals {
		mp := MealPayload{
			ID:         m.ID,
			Name:       m.Name,
			Time:       m.Time,
			MealOption: m.Option,
			Foods:      make([]FoodPayload, 0, len(m.Foods)),
		}
		for _, f := range m.Foods {
			mac := f.Macros()
			mp.Foods = append(mp.Foods, FoodPayload{
				Name:     f.Name,
				Portion:  f.Portion,
				Calories: mac.Calories,
				Protein:  mac.Protein,
				Carbs:    mac.Carbs,
				Fat:      mac.Fat,
			})
		}
		out.Meals = append(out.Meals, mp)
	}
	return out
}

// FromPayload hydrates a stored plan. Stored calories are kept as they are;
// they are recomputed on the next macro edit.
func FromPayload(pl Payload) Plan {
	p := Plan{Title: pl.Title, Description: pl.Description}
	for _, mp := range pl.Meals {
		m := Meal{ID: mp.ID, Name: mp.Name, Time: mp.Time, Option: mp.MealOption}
		if m.ID == "" {
			m.ID = uuid.NewString()
		}
		if opt, err := ParseMealOption(string(mp.MealOption)); err == nil {
			m.Option = opt
		} else {
			m.Option = OptionA
		}
		for _, fp := range mp.Foods {
			m.Foods = append(m.Foods, Food{
				Name:     fp.Name,
				Portion:  fp.Portion,
				Protein:  formatGrams(fp.Protein),
				Carbs:    formatGrams(fp.Carbs),
				Fat:      formatGrams(fp.Fat),
				Calories: fp.Calories,
			})
		}
		if len(m.Foods) == 0 {
			m.Foods = []Food{{}}
		}
		p.Meals = append(p.Meals, m)
	}
	if len(p.Meals) == 0 {
		p.Meals = []Meal{DefaultMeal(1)}
	}
	return p
}
