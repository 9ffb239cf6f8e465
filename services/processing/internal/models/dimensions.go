package models

type Country struct {
	ID       int64
	ISO2     string
	Name     string
	Region   string
	Currency string
}

type Skill struct {
	ID    int64
	Group string
	Label string
}

type Source struct {
	ID   int64
	Name string
}

type Company struct {
	ID     int64
	Name   string
	Sector string
}
