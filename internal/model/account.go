package model

type Account struct {
	ID      string  `json:"id" db:"id" yaml:"id"`
	Name    string  `json:"name" db:"name" yaml:"name"`
	Color   string  `json:"color" db:"color" yaml:"color"`
	Balance float64 `json:"balance" db:"balance" yaml:"balance"`
}

func (a Account) GetUID() string {
	return a.ID
}
