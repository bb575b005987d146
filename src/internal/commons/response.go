package commons

// Response is the JSON envelope of every API reply. Kind names the error class
// of a failed request so clients can branch without parsing messages.
type Response[T any] struct {
	Success bool     `json:"success"`
	Message string   `json:"message"`
	Kind    string   `json:"kind,omitempty"`
	Data    *T       `json:"data,omitempty"`
	Errors  []string `json:"errors,omitempty"`
}

func SuccessResponse[T any](message string, data T) Response[T] {
	return Response[T]{
		Success: true,
		Message: message,
		Data:    &data,
	}
}

func ErrorResponse[T any](message string, errors ...string) Response[T] {
	return Response[T]{
		Success: false,
		Message: message,
		Errors:  errors,
	}
}

// WithKind tags a failed response with its error class.
func (r Response[T]) WithKind(kind string) Response[T] {
	r.Kind = kind
	return r
}
