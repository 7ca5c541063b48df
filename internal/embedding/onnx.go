//go:build cgo
// +build cgo

package embedding

import (
	"context"
	"fmt"
	"sync"

	ort "github.com/yalue/onnxruntime_go"
)

// ONNXModel runs a BERT-style sentence-transformer with ONNX Runtime.
// It requires CGO and the onnxruntime shared library.
type ONNXModel struct {
	session    *ort.AdvancedSession
	dimensions int
	maxTokens  int
	pooled     bool
	tokenizer  Tokenizer
	// Pre-allocated tensors for Run(); we update input data and read output.
	inputIDsTensor      *ort.Tensor[int64]
	attentionMaskTensor *ort.Tensor[int64]
	tokenTypeIDsTensor  *ort.Tensor[int64]
	outputTensor        *ort.Tensor[float32]
	mu                  sync.Mutex
}

// NewONNXModel loads the model at opts.ModelPath. The ONNX Runtime environment
// is initialized if no other model has done so.
func NewONNXModel(opts ONNXOptions) (*ONNXModel, error) {
	opts.applyDefaults()
	if !ort.IsInitialized() {
		if opts.SharedLibraryPath != "" {
			ort.SetSharedLibraryPath(opts.SharedLibraryPath)
		}
		if err := ort.InitializeEnvironment(); err != nil {
			return nil, fmt.Errorf("failed to initialize ONNX runtime: %w", err)
		}
	}

	tokenizer := opts.Tokenizer
	inputIDs, attentionMask, tokenTypeIDs := tokenizer.Tokenize("", opts.MaxTokens)
	inputShape := ort.NewShape(1, int64(opts.MaxTokens))

	inputIDsTensor, err := ort.NewTensor(inputShape, inputIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to create input_ids tensor: %w", err)
	}
	attentionMaskTensor, err := ort.NewTensor(inputShape, attentionMask)
	if err != nil {
		inputIDsTensor.Destroy()
		return nil, fmt.Errorf("failed to create attention_mask tensor: %w", err)
	}
	tokenTypeIDsTensor, err := ort.NewTensor(inputShape, tokenTypeIDs)
	if err != nil {
		inputIDsTensor.Destroy()
		attentionMaskTensor.Destroy()
		return nil, fmt.Errorf("failed to create token_type_ids tensor: %w", err)
	}

	outputShape := ort.NewShape(1, int64(opts.MaxTokens), int64(opts.Dimensions))
	outputLen := opts.MaxTokens * opts.Dimensions
	if opts.Pooled {
		outputShape = ort.NewShape(1, int64(opts.Dimensions))
		outputLen = opts.Dimensions
	}
	outputTensor, err := ort.NewTensor(outputShape, make([]float32, outputLen))
	if err != nil {
		inputIDsTensor.Destroy()
		attentionMaskTensor.Destroy()
		tokenTypeIDsTensor.Destroy()
		return nil, fmt.Errorf("failed to create output tensor: %w", err)
	}

	session, err := ort.NewAdvancedSession(
		opts.ModelPath,
		[]string{"input_ids", "attention_mask", "token_type_ids"},
		[]string{opts.OutputName},
		[]ort.ArbitraryTensor{inputIDsTensor, attentionMaskTensor, tokenTypeIDsTensor},
		[]ort.ArbitraryTensor{outputTensor},
		nil,
	)
	if err != nil {
		inputIDsTensor.Destroy()
		attentionMaskTensor.Destroy()
		tokenTypeIDsTensor.Destroy()
		outputTensor.Destroy()
		return nil, fmt.Errorf("failed to create ONNX session: %w", err)
	}

	return &ONNXModel{
		session:             session,
		dimensions:          opts.Dimensions,
		maxTokens:           opts.MaxTokens,
		pooled:              opts.Pooled,
		tokenizer:           tokenizer,
		inputIDsTensor:      inputIDsTensor,
		attentionMaskTensor: attentionMaskTensor,
		tokenTypeIDsTensor:  tokenTypeIDsTensor,
		outputTensor:        outputTensor,
	}, nil
}

// Embed runs the model on text and mean-pools the token states over the attention mask.
// Calls are serialized because the session tensors are shared.
func (m *ONNXModel) Embed(ctx context.Context, text string) ([]float32, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if m.session == nil {
		return nil, fmt.Errorf("ONNX model is closed")
	}

	inputIDs, attentionMask, tokenTypeIDs := m.tokenizer.Tokenize(text, m.maxTokens)
	copy(m.inputIDsTensor.GetData(), inputIDs)
	copy(m.attentionMaskTensor.GetData(), attentionMask)
	copy(m.tokenTypeIDsTensor.GetData(), tokenTypeIDs)

	if err := m.session.Run(); err != nil {
		return nil, fmt.Errorf("inference failed: %w", err)
	}

	output := m.outputTensor.GetData()
	if m.pooled {
		embedding := make([]float32, m.dimensions)
		copy(embedding, output[:m.dimensions])
		return embedding, nil
	}
	return MeanPool(output, attentionMask, m.dimensions)
}

// Dimensions returns the embedding dimension.
func (m *ONNXModel) Dimensions() int {
	return m.dimensions
}

// Close destroys the session and tensors.
func (m *ONNXModel) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	var err error
	if m.session != nil {
		err = m.session.Destroy()
		m.session = nil
	}
	if m.inputIDsTensor != nil {
		_ = m.inputIDsTensor.Destroy()
		m.inputIDsTensor = nil
	}
	if m.attentionMaskTensor != nil {
		_ = m.attentionMaskTensor.Destroy()
		m.attentionMaskTensor = nil
	}
	if m.tokenTypeIDsTensor != nil {
		_ = m.tokenTypeIDsTensor.Destroy()
		m.tokenTypeIDsTensor = nil
	}
	if m.outputTensor != nil {
		_ = m.outputTensor.Destroy()
		m.outputTensor = nil
	}
	return err
}
