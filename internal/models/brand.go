package models

type Brand struct {
	ID   int64  `db:"id"`
	Name string `db:"nome"`
}
