package models

type Game struct {
	ID          int64  `db:"id"`
	Title       string `db:"title"`
	Genre       string `db:"genre"`
	Description string `db:"description"`
}
