// Пакет fileclient — HTTP-клиент внешнего файлового сервиса.
// Аутентифицируется в сервисе пользователей (bearer-токен), получает
// каталог типов файлов и списки файлов сущностей, строит абсолютные
// ссылки на скачивание. Адреса и учётные данные берутся из таблицы параметров.
package fileclient

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/bigkaa/insania/biology-module/internal/cache"
	"github.com/bigkaa/insania/biology-module/internal/domain/model"
)

// Ошибки клиента.
var (
	// ErrEmptyParameter — обязательный параметр внешнего сервиса не задан.
	ErrEmptyParameter = errors.New("не задан параметр")
	// ErrNotFoundFileType — в каталоге нет нужного типа файлов.
	ErrNotFoundFileType = errors.New("не найден тип файлов")
	// ErrEmptyToken — сервис пользователей не вернул токен.
	ErrEmptyToken = errors.New("пустой токен аутентификации")
	// ErrInvalidURL — из параметров получена некорректная ссылка.
	ErrInvalidURL = errors.New("некорректная ссылка")
	// ErrRemoteCall — внешний сервис ответил не-2xx статусом.
	ErrRemoteCall = errors.New("ошибка вызова внешнего сервиса")
	// ErrTimeout — превышен таймаут HTTP-вызова.
	ErrTimeout = errors.New("превышено время ожидания ответа внешнего сервиса")
)

// defaultRemoteMessage — сообщение, если тело ошибки не содержит message.
const defaultRemoteMessage = "Необработанная ошибка"

// RemoteError — не-2xx ответ внешнего сервиса.
type RemoteError struct {
	StatusCode int
	Message    string
}

func (e *RemoteError) Error() string {
	return e.Message
}

// Is позволяет сравнивать с ErrRemoteCall через errors.Is.
func (e *RemoteError) Is(target error) bool {
	return target == ErrRemoteCall
}

// Prometheus-метрики исходящих вызовов.
var (
	remoteRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "bio_remote_requests_total",
		Help: "Общее количество HTTP-вызовов внешних сервисов.",
	}, []string{"operation", "result"})

	remoteRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "bio_remote_request_duration_seconds",
		Help:    "Длительность HTTP-вызовов внешних сервисов.",
		Buckets: prometheus.DefBuckets,
	}, []string{"operation"})
)

// ParameterSource — источник значений параметров по псевдониму.
// ok=false — параметр отсутствует.
type ParameterSource interface {
	Resolve(ctx context.Context, alias string) (value string, ok bool, err error)
}

// FilesCache — кэш списков файлов сущностей.
type FilesCache interface {
	Get(key string) ([]model.FileItem, bool)
	Set(key string, files []model.FileItem)
}

// Aliases — псевдонимы параметров внешних сервисов.
type Aliases struct {
	FilesBaseURL      string
	FileTypesPath     string
	FilesByEntityPath string
	FileByIDPath      string

	UsersBaseURL  string
	LoginPath     string
	AdminLogin    string
	AdminPassword string
}

// DefaultAliases возвращает псевдонимы из начальных данных таблицы параметров.
func DefaultAliases() Aliases {
	return Aliases{
		FilesBaseURL:      "Ssylka_na_faiylovyiy_syervis",
		FileTypesPath:     "Myetod_poluchyeniya_spiska_tipov_faiylov",
		FilesByEntityPath: "Myetod_poluchyeniya_spiska_faiylov_po_idyentifikatoru_sushchnosti_i_idyentifikatoru_tipa",
		FileByIDPath:      "Myetod_poluchyeniya_faiyla_po_idyentifikatoru",

		UsersBaseURL:  "Ssylka_na_syervis_pol'zovatyelyeiy",
		LoginPath:     "Myetod_autyentifikatsii",
		AdminLogin:    "Login_administratora",
		AdminPassword: "Parol'_administratora",
	}
}

// Config — параметры клиента.
type Config struct {
	// Timeout — таймаут одного HTTP-вызова
	Timeout time.Duration
	// Aliases — псевдонимы параметров
	Aliases Aliases
	// FileTypeNames — наименование типа файлов в каталоге для каждого вида сущности
	FileTypeNames map[model.Classification]string
}

// usersParams — параметры сервиса пользователей.
type usersParams struct {
	baseURL   string
	loginPath string
	login     string
	password  string
}

// filesParams — параметры файлового сервиса.
type filesParams struct {
	baseURL      string
	typesPath    string
	byEntityPath string
	byIDPath     string
}

// Client — клиент файлового сервиса.
// Состояние (параметры, токен, каталог типов) заполняется лениво в Initialize
// и живёт до Reset. Мьютекс не удерживается во время сетевых вызовов:
// при конкурентной первой инициализации возможны повторные вызовы, но не гонки данных.
type Client struct {
	httpClient *http.Client
	params     ParameterSource
	cache      FilesCache
	aliases    Aliases
	typeNames  map[model.Classification]string
	logger     *slog.Logger

	mu        sync.RWMutex
	users     *usersParams
	files     *filesParams
	token     string
	fileTypes []model.FileType
}

// New создаёт клиент файлового сервиса.
func New(params ParameterSource, filesCache FilesCache, cfg Config, logger *slog.Logger) *Client {
	typeNames := cfg.FileTypeNames
	if typeNames == nil {
		typeNames = map[model.Classification]string{
			model.ClassificationRaces:   string(model.ClassificationRaces),
			model.ClassificationNations: string(model.ClassificationNations),
		}
	}
	return &Client{
		httpClient: &http.Client{Timeout: cfg.Timeout},
		params:     params,
		cache:      filesCache,
		aliases:    cfg.Aliases,
		typeNames:  typeNames,
		logger:     logger.With(slog.String("component", "file_client")),
	}
}

// Initialize идемпотентно подготавливает клиент, строго по шагам:
// параметры сервиса пользователей, токен, параметры файлового сервиса,
// каталог типов файлов. Уже заполненные шаги пропускаются.
func (c *Client) Initialize(ctx context.Context) error {
	c.mu.RLock()
	hasUsers := c.users != nil
	c.mu.RUnlock()
	if !hasUsers {
		users, err := c.loadUsersParams(ctx)
		if err != nil {
			return err
		}
		c.mu.Lock()
		c.users = users
		c.mu.Unlock()
	}

	c.mu.RLock()
	hasToken := strings.TrimSpace(c.token) != ""
	c.mu.RUnlock()
	if !hasToken {
		if err := c.authenticate(ctx); err != nil {
			return err
		}
	}

	c.mu.RLock()
	hasFiles := c.files != nil
	c.mu.RUnlock()
	if !hasFiles {
		files, err := c.loadFilesParams(ctx)
		if err != nil {
			return err
		}
		c.mu.Lock()
		c.files = files
		c.mu.Unlock()
	}

	c.mu.RLock()
	hasTypes := len(c.fileTypes) > 0
	c.mu.RUnlock()
	if !hasTypes {
		if err := c.loadFileTypes(ctx); err != nil {
			return err
		}
	}

	return nil
}

// Reset сбрасывает токен, параметры и каталог типов.
// Следующий Initialize заполнит их заново.
func (c *Client) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.users = nil
	c.files = nil
	c.token = ""
	c.fileTypes = nil
}

// GetFilesFor возвращает файлы сущности с абсолютными ссылками на скачивание.
// Результат кэшируется по ключу "<classification>_<entityID>".
func (c *Client) GetFilesFor(ctx context.Context, entityID int64, classification model.Classification) ([]model.FileItem, error) {
	key := cache.Key(classification, entityID)
	if files, ok := c.cache.Get(key); ok {
		return files, nil
	}

	c.mu.RLock()
	files := c.files
	fileTypes := c.fileTypes
	c.mu.RUnlock()

	if files == nil {
		c.logger.Error("Параметры файлового сервиса не загружены")
		return nil, fmt.Errorf("%w: параметры файлового сервиса", ErrEmptyParameter)
	}
	if len(fileTypes) == 0 {
		c.logger.Error("Каталог типов файлов пуст")
		return nil, fmt.Errorf("%w: каталог типов файлов пуст", ErrNotFoundFileType)
	}

	typeName, ok := c.typeNames[classification]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFoundFileType, classification)
	}
	var typeID int64
	found := false
	for _, ft := range fileTypes {
		if ft.Name == typeName {
			typeID = ft.ID
			found = true
			break
		}
	}
	if !found {
		c.logger.Error("Тип файлов не найден в каталоге",
			slog.String("file_type", typeName),
		)
		return nil, fmt.Errorf("%w: %s", ErrNotFoundFileType, typeName)
	}

	query := url.Values{}
	query.Set("entity_id", strconv.FormatInt(entityID, 10))
	query.Set("type_id", strconv.FormatInt(typeID, 10))
	reqURL, err := buildURL(files.baseURL, files.byEntityPath, query)
	if err != nil {
		return nil, err
	}

	var resp listResponse
	if err := c.getJSON(ctx, "files_by_entity", reqURL, &resp); err != nil {
		return nil, err
	}

	result, err := fileURLs(files, resp.Items)
	if err != nil {
		return nil, err
	}
	c.cache.Set(key, result)

	c.logger.Debug("Получен список файлов",
		slog.String("classification", string(classification)),
		slog.Int64("entity_id", entityID),
		slog.Int("count", len(result)),
	)
	return result, nil
}

// --- Шаги инициализации ---

func (c *Client) loadUsersParams(ctx context.Context) (*usersParams, error) {
	vals, err := c.resolveAll(ctx,
		c.aliases.UsersBaseURL, c.aliases.LoginPath, c.aliases.AdminLogin, c.aliases.AdminPassword)
	if err != nil {
		return nil, err
	}
	return &usersParams{baseURL: vals[0], loginPath: vals[1], login: vals[2], password: vals[3]}, nil
}

func (c *Client) loadFilesParams(ctx context.Context) (*filesParams, error) {
	vals, err := c.resolveAll(ctx,
		c.aliases.FilesBaseURL, c.aliases.FileTypesPath, c.aliases.FilesByEntityPath, c.aliases.FileByIDPath)
	if err != nil {
		return nil, err
	}
	return &filesParams{baseURL: vals[0], typesPath: vals[1], byEntityPath: vals[2], byIDPath: vals[3]}, nil
}

// resolveAll получает значения параметров; отсутствие любого — ErrEmptyParameter.
func (c *Client) resolveAll(ctx context.Context, aliases ...string) ([]string, error) {
	vals := make([]string, len(aliases))
	for i, alias := range aliases {
		val, ok, err := c.params.Resolve(ctx, alias)
		if err != nil {
			return nil, err
		}
		if !ok {
			c.logger.Error("Не задан параметр", slog.String("alias", alias))
			return nil, fmt.Errorf("%w: %s", ErrEmptyParameter, alias)
		}
		vals[i] = val
	}
	return vals, nil
}

func (c *Client) authenticate(ctx context.Context) error {
	c.mu.RLock()
	users := c.users
	c.mu.RUnlock()
	if users == nil {
		return fmt.Errorf("%w: параметры сервиса пользователей", ErrEmptyParameter)
	}

	query := url.Values{}
	query.Set("login", users.login)
	query.Set("password", users.password)
	reqURL, err := buildURL(users.baseURL, users.loginPath, query)
	if err != nil {
		return err
	}

	var resp authResponse
	if err := c.getJSON(ctx, "login", reqURL, &resp); err != nil {
		return err
	}
	if strings.TrimSpace(resp.Token) == "" {
		c.logger.Error("Сервис пользователей не вернул токен")
		return ErrEmptyToken
	}

	c.mu.Lock()
	c.token = resp.Token
	c.mu.Unlock()

	c.logger.Debug("Токен получен от сервиса пользователей")
	return nil
}

func (c *Client) loadFileTypes(ctx context.Context) error {
	c.mu.RLock()
	files := c.files
	c.mu.RUnlock()
	if files == nil {
		return fmt.Errorf("%w: параметры файлового сервиса", ErrEmptyParameter)
	}

	reqURL, err := buildURL(files.baseURL, files.typesPath, nil)
	if err != nil {
		return err
	}

	var resp listResponse
	if err := c.getJSON(ctx, "file_types", reqURL, &resp); err != nil {
		return err
	}

	types := make([]model.FileType, 0, len(resp.Items))
	for _, item := range resp.Items {
		if item.ID == nil || item.Name == nil {
			continue
		}
		types = append(types, model.FileType{ID: *item.ID, Name: *item.Name})
	}

	c.mu.Lock()
	c.fileTypes = types
	c.mu.Unlock()

	c.logger.Debug("Каталог типов файлов загружен", slog.Int("count", len(types)))
	return nil
}

// --- HTTP ---

// getJSON выполняет GET и декодирует JSON-ответ в out.
// Токен (если есть) передаётся в заголовке Authorization.
func (c *Client) getJSON(ctx context.Context, operation, reqURL string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, http.NoBody)
	if err != nil {
		return fmt.Errorf("создание запроса %s: %w", operation, err)
	}
	req.Header.Set("Accept", "application/json")

	c.mu.RLock()
	token := c.token
	c.mu.RUnlock()
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req) //nolint:gosec // G107: URL из таблицы параметров
	remoteRequestDuration.WithLabelValues(operation).Observe(time.Since(start).Seconds())
	if err != nil {
		remoteRequestsTotal.WithLabelValues(operation, "error").Inc()
		c.logger.Error("Ошибка вызова внешнего сервиса",
			slog.String("operation", operation),
			slog.String("error", err.Error()),
		)
		if isTimeout(err) {
			return fmt.Errorf("%w: %w", ErrTimeout, err)
		}
		return fmt.Errorf("запрос %s: %w", operation, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		remoteRequestsTotal.WithLabelValues(operation, "error").Inc()
		if isTimeout(err) {
			return fmt.Errorf("%w: %w", ErrTimeout, err)
		}
		return fmt.Errorf("чтение ответа %s: %w", operation, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		remoteRequestsTotal.WithLabelValues(operation, strconv.Itoa(resp.StatusCode)).Inc()
		if resp.StatusCode == http.StatusUnauthorized {
			// Токен отозван или истёк: следующий Initialize запросит новый
			c.mu.Lock()
			c.token = ""
			c.mu.Unlock()
		}
		remoteErr := &RemoteError{StatusCode: resp.StatusCode, Message: remoteMessage(body)}
		c.logger.Error("Внешний сервис вернул ошибку",
			slog.String("operation", operation),
			slog.Int("status", resp.StatusCode),
			slog.String("message", remoteErr.Message),
		)
		return remoteErr
	}

	remoteRequestsTotal.WithLabelValues(operation, "ok").Inc()
	if err := json.Unmarshal(body, out); err != nil {
		c.logger.Error("Некорректный ответ внешнего сервиса",
			slog.String("operation", operation),
			slog.String("error", err.Error()),
		)
		return &RemoteError{
			StatusCode: resp.StatusCode,
			Message:    fmt.Sprintf("некорректный ответ %s: %v", operation, err),
		}
	}
	return nil
}

// remoteMessage извлекает message из тела ошибки.
func remoteMessage(body []byte) string {
	var resp errorResponse
	if err := json.Unmarshal(body, &resp); err != nil || resp.Message == nil || *resp.Message == "" {
		return defaultRemoteMessage
	}
	return *resp.Message
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}

// buildURL склеивает базовую ссылку и путь метода, добавляет query.
// Результат должен быть абсолютной ссылкой.
func buildURL(base, path string, query url.Values) (string, error) {
	raw := base + path
	u, err := url.Parse(raw)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return "", fmt.Errorf("%w: %q", ErrInvalidURL, raw)
	}
	if len(query) > 0 {
		u.RawQuery = query.Encode()
	}
	return u.String(), nil
}

// fileURLs переписывает файлы в ссылки "{base}{byIDPath}?id={fileID}".
// Файлы без идентификатора пропускаются.
func fileURLs(files *filesParams, items []listItem) ([]model.FileItem, error) {
	result := make([]model.FileItem, 0, len(items))
	for _, item := range items {
		if item.ID == nil {
			continue
		}
		query := url.Values{}
		query.Set("id", strconv.FormatInt(*item.ID, 10))
		link, err := buildURL(files.baseURL, files.byIDPath, query)
		if err != nil {
			return nil, err
		}
		result = append(result, model.FileItem{ID: *item.ID, Name: link})
	}
	return result, nil
}
