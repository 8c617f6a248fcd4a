package lists

// OwnerInput addresses the lists of one user of one site.
type OwnerInput struct {
	Site string `param:"site" validate:"required"`
	User string `param:"user" validate:"required"`
}

type ListInput struct {
	OwnerInput
	List string `param:"list" validate:"required"`
}

type ToggleInput struct {
	ListInput
	ID   string `json:"id" validate:"required"`
	Name string `json:"name"`
}
