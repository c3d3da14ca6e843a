package todosvc

// TodoConfig holds configuration parameters for the to-do item service.
type TodoConfig struct {
	// DefaultPageSize applies when a list request names no page size
	DefaultPageSize int `env:"DEFAULT_PAGE_SIZE" default:"10"`
	// MaxPageSize caps the page size a client may request
	MaxPageSize int `env:"MAX_PAGE_SIZE" default:"100"`
}
