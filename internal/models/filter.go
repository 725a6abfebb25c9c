package models

type FilterKind string

const (
	FilterNone          FilterKind = ""
	FilterDomain        FilterKind = "domain"
	FilterGoal          FilterKind = "goal"
	FilterUncategorized FilterKind = "uncategorized"
)

// CategoryFilter narrows due queries to a domain, a goal, or activities with
// neither. The zero value matches everything.
type CategoryFilter struct {
	Kind FilterKind `json:"kind,omitempty"`
	ID   string     `json:"id,omitempty"`
}

func ByDomain(id string) CategoryFilter { return CategoryFilter{Kind: FilterDomain, ID: id} }
func ByGoal(id string) CategoryFilter   { return CategoryFilter{Kind: FilterGoal, ID: id} }
func Uncategorized() CategoryFilter     { return CategoryFilter{Kind: FilterUncategorized} }

// Matches reports whether a passes the filter.
func (f CategoryFilter) Matches(a Activity) bool {
	switch f.Kind {
	case FilterDomain:
		return a.DomainID != nil && *a.DomainID == f.ID
	case FilterGoal:
		return a.GoalID != nil && *a.GoalID == f.ID
	case FilterUncategorized:
		return a.Uncategorized()
	default:
		return true
	}
}
