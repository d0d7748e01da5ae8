package domain

type RestaurantInfo struct {
	Name         string `json:"name"`
	Phone        string `json:"phone"`
	Address      string `json:"address"`
	WorkingHours string `json:"working_hours"`
	Greeting     string `json:"greeting"`
}
