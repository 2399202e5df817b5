package middlewarectx

// Key тип для ключей контекста HTTP-запроса.
type Key string

const (
	// AuthID — ключ для внешнего идентификатора пользователя в контексте.
	AuthID Key = "auth_id"
	// UserID — ключ для внутреннего идентификатора пользователя в контексте.
	UserID Key = "user_id"
	// Access — ключ для уровня доступа пользователя в контексте.
	Access Key = "access"
)
