package service

import "errors"

// ErrInvalidInput 表示请求参数不合法，HTTP 层映射为 400。
var ErrInvalidInput = errors.New("invalid input")
