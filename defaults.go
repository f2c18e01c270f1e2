package raglite

// Default model tiers. Exactly two per role: a larger, higher-context tier
// when GPU offload is available and a smaller one otherwise. Both embedder
// tiers are the same base model at the same dimensionality, so indexes
// built under either default stay interchangeable; only the quantization
// differs.
const (
	defaultLLMGPU = "llama-cpp-python/bartowski/Meta-Llama-3.1-8B-Instruct-GGUF/*Q4_K_M.gguf@8192"
	defaultLLMCPU = "llama-cpp-python/bartowski/Llama-3.2-3B-Instruct-GGUF/*Q4_K_M.gguf@4096"

	defaultEmbedderF16 = "llama-cpp-python/lm-kit/bge-m3-gguf/*F16.gguf@1024"
	defaultEmbedderQ4  = "llama-cpp-python/lm-kit/bge-m3-gguf/*Q4_K_M.gguf@1024"
)

// DefaultLLM returns the generation model identifier for the probed
// hardware capability. Pure: identical inputs yield identical outputs.
func DefaultLLM(gpuOffload bool) string {
	if gpuOffload {
		return defaultLLMGPU
	}
	return defaultLLMCPU
}

// DefaultEmbedder returns the embedding model identifier for the probed
// hardware capability: the F16 tier with GPU offload or at least 4 cores,
// the Q4 tier otherwise. Pure: identical inputs yield identical outputs.
func DefaultEmbedder(gpuOffload bool, cpuCount int) string {
	if gpuOffload || cpuCount >= 4 {
		return defaultEmbedderF16
	}
	return defaultEmbedderQ4
}
