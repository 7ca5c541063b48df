package embedding

// ONNXOptions configures an ONNXModel.
type ONNXOptions struct {
	ModelPath         string
	SharedLibraryPath string
	// OutputName is the graph output to read. "last_hidden_state" is mean-pooled;
	// set Pooled when the output is already one vector per input.
	OutputName string
	Pooled     bool
	Dimensions int
	MaxTokens  int
	Tokenizer  Tokenizer
}

func (o *ONNXOptions) applyDefaults() {
	if o.OutputName == "" {
		o.OutputName = "last_hidden_state"
	}
	if o.Dimensions <= 0 {
		o.Dimensions = 384
	}
	if o.MaxTokens <= 2 {
		o.MaxTokens = 256
	}
	if o.Tokenizer == nil {
		o.Tokenizer = &SimpleTokenizer{}
	}
}
