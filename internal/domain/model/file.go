package model

// Classification — вид сущности в каталоге файлов.
type Classification string

const (
	// ClassificationRaces — файлы рас.
	ClassificationRaces Classification = "Races"
	// ClassificationNations — файлы наций.
	ClassificationNations Classification = "Nations"
)

// FileType — элемент каталога типов файлов внешнего сервиса.
type FileType struct {
	ID   int64
	Name string
}

// FileItem — файл сущности. После построения ссылок Name содержит
// абсолютный URL скачивания.
type FileItem struct {
	ID   int64
	Name string
}

// NationView — нация в агрегированном ответе.
type NationView struct {
	ID          int64
	Name        string
	Description string
	File        string
}

// RaceView — раса с нациями и представительным файлом.
// Собирается на каждый запрос и нигде не хранится.
type RaceView struct {
	ID          int64
	Name        string
	Description string
	File        string
	Nations     []NationView
}
