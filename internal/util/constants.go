package util

const (
	DateFormat = "2006-01-02"
	TimeFormat = "2006-01-02 15:04:05"
	// DisplayDateFormat pt-PT 日期显示格式
	DisplayDateFormat = "02/01/2006"
)

// gin 上下文键
const (
	ContextKeySession        = "session"
	ContextKeySessionCookies = "session_cookies"
	ContextKeyAPI            = "api"
	ContextKeyAuth           = "auth"
	ContextKeyConfig         = "config"
)

const (
	FiltroTodos = "todos"

	OrdemRelevancia = "relevancia"
	OrdemNome       = "nome"
	OrdemData       = "data"
	OrdemRating     = "rating"
)

const (
	MinSearchTermLength = 2
	NotificationLimit   = 10
	MinVagas            = 1
	MaxVagas            = 300
)

const (
	MimeVideo = "video/"
	MimeImage = "image/"
	MimePDF   = "application/pdf"
)

var (
	AllowedVideoExtensions = []string{".mp4", ".mov", ".avi", ".mkv", ".wmv", ".flv", ".webm"}
)
