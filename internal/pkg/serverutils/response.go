package serverutils

// Response is the JSON envelope of every API reply.
type Response[T any] struct {
	Code    int    `json:"code"`
	Success bool   `json:"success"`
	Message string `json:"message"`
	Data    T      `json:"data,omitempty"`
}

func SuccessResponse[T any](message string, data T) Response[T] {
	return Response[T]{
		Code:    200,
		Success: true,
		Message: message,
		Data:    data,
	}
}

func ErrorResponse(code int, message string) Response[any] {
	return Response[any]{
		Code:    code,
		Success: false,
		Message: message,
	}
}

func ErrorResponseWithData[T any](code int, message string, data T) Response[T] {
	return Response[T]{
		Code:    code,
		Success: false,
		Message: message,
		Data:    data,
	}
}
