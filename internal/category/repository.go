package category

import "errors"

var ErrNameExists = errors.New("category already exists")

type Repository interface {
	List(limit int) ([]CategoryItem, error)
	Create(name string) (CategoryItem, error)
}
