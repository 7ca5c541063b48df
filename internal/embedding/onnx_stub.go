//go:build !cgo
// +build !cgo

package embedding

import (
	"context"
	"errors"
)

var errONNXUnavailable = errors.New("ONNX model requires CGO; build with CGO_ENABLED=1 and onnxruntime")

// ONNXModel stub type when built without CGO (see onnx.go for real implementation).
type ONNXModel struct{}

// NewONNXModel returns an error when built without CGO (ONNX not available).
func NewONNXModel(_ ONNXOptions) (*ONNXModel, error) {
	return nil, errONNXUnavailable
}

func (m *ONNXModel) Embed(context.Context, string) ([]float32, error) { return nil, errONNXUnavailable }
func (m *ONNXModel) Dimensions() int                                  { return 0 }
func (m *ONNXModel) Close() error                                     { return nil }
