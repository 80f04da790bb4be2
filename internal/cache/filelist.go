// Пакет cache — кэш списков файлов сущностей.
// FileListCache — обёртка над hashicorp/golang-lru/v2/expirable
// с абсолютным TTL записи (отсчёт от момента добавления, без продления при чтении).
package cache

import (
	"strconv"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/bigkaa/insania/biology-module/internal/domain/model"
)

// Prometheus-метрики кэша.
var (
	cacheHitsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "bio_files_cache_hits_total",
		Help: "Общее количество попаданий в кэш списков файлов.",
	})
	cacheMissesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "bio_files_cache_misses_total",
		Help: "Общее количество промахов кэша списков файлов.",
	})
)

// FileListCache — кэш списков файлов по ключу (вид сущности, идентификатор).
// Безопасен для конкурентного использования.
type FileListCache struct {
	cache *expirable.LRU[string, []model.FileItem]
}

// NewFileListCache создаёт кэш.
// maxSize — максимальное количество записей, ttl — время жизни записи.
func NewFileListCache(maxSize int, ttl time.Duration) *FileListCache {
	return &FileListCache{
		cache: expirable.NewLRU[string, []model.FileItem](maxSize, nil, ttl),
	}
}

// Key формирует ключ записи: "<kind>_<id>".
func Key(kind model.Classification, id int64) string {
	return string(kind) + "_" + strconv.FormatInt(id, 10)
}

// Get возвращает список файлов из кэша.
// Истёкшие записи считаются отсутствующими.
func (c *FileListCache) Get(key string) ([]model.FileItem, bool) {
	files, ok := c.cache.Get(key)
	if ok {
		cacheHitsTotal.Inc()
		return files, true
	}
	cacheMissesTotal.Inc()
	return nil, false
}

// Set сохраняет список файлов на ttl кэша, отсчитываемый от момента записи.
// Пустой список тоже кэшируется: отсутствие файлов у сущности — валидный ответ каталога.
func (c *FileListCache) Set(key string, files []model.FileItem) {
	if files == nil {
		files = []model.FileItem{}
	}
	c.cache.Add(key, files)
}

// Len возвращает количество записей в кэше.
func (c *FileListCache) Len() int {
	return c.cache.Len()
}
