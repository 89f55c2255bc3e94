package domain

// Product is catalog inventory. Stock is the only field outside the
// ticket aggregate this engine mutates.
type Product struct {
	ID    string
	Name  string
	Cost  float64
	Price float64
	Stock int
}

// Service is a bookable service; read-only here.
type Service struct {
	ID          string
	Name        string
	Price       float64
	DurationMin int
}
