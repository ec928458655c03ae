package domain

// PagedResponse представляет ответ с пагинацией для API
type PagedResponse[T any] struct {
	Items []T   `json:"items"` // Элементы на текущей странице
	Total int64 `json:"total"` // Общее количество элементов
	Page  int   `json:"page"`  // Текущая страница
	Size  int   `json:"size"`  // Размер страницы
	Pages int   `json:"pages"` // Общее количество страниц
}

// NewPagedResponse создает ответ с пагинацией для указанной страницы.
// Количество страниц округляется вверх; при неположительном размере
// страницы оно считается равным нулю.
func NewPagedResponse[T any](items []T, total int64, page, size int) PagedResponse[T] {
	pages := 0
	if size > 0 {
		pages = int((total + int64(size) - 1) / int64(size))
	}
	if items == nil {
		items = []T{}
	}
	return PagedResponse[T]{
		Items: items,
		Total: total,
		Page:  page,
		Size:  size,
		Pages: pages,
	}
}
