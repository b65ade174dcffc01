package catalog

import "slices"

// LogoBaseURL is the remote directory hosting provider logo assets.
const LogoBaseURL = "https://raw.githubusercontent.com/BerriAI/litellm/main/ui/litellm-dashboard/public/assets/logos/"

// providerInitials maps lowercase provider identifiers to display initials.
var providerInitials = map[string]string{
	"anthropic":   "A",
	"openai":      "O",
	"azure":       "Az",
	"bedrock":     "B",
	"vertex_ai":   "V",
	"cohere":      "C",
	"huggingface": "H",
	"replicate":   "R",
	"groq":        "G",
	"together_ai": "T",
	"mistral":     "M",
	"deepinfra":   "D",
}

// providerLogos maps lowercase provider identifiers to logo filenames under LogoBaseURL.
var providerLogos = map[string]string{
	"openai":                    "openai_small.svg",
	"azure":                     "microsoft_azure.svg",
	"anthropic":                 "anthropic.svg",
	"bedrock":                   "bedrock.svg",
	"vertex_ai":                 "google.svg",
	"vertexai":                  "google.svg",
	"cohere":                    "cohere.svg",
	"groq":                      "groq.svg",
	"mistral":                   "mistral.svg",
	"deepinfra":                 "deepinfra.png",
	"databricks":                "databricks.svg",
	"fireworks_ai":              "fireworks.svg",
	"fireworks":                 "fireworks.svg",
	"ollama":                    "ollama.svg",
	"openrouter":                "openrouter.svg",
	"deepseek":                  "deepseek.svg",
	"cerebras":                  "cerebras.svg",
	"oracle":                    "oracle.svg",
	"text-completion-openai":    "openai_small.svg",
	"text-completion-codestral": "mistral.svg",
	"codestral":                 "mistral.svg",
	"sagemaker":                 "aws.svg",
	"aws":                       "aws.svg",
	"google":                    "google.svg",
	"gemini":                    "google.svg",
}

// knownProviders is the sorted union of both tables, computed once at init.
var knownProviders = func() []string {
	keys := make([]string, 0, len(providerInitials)+len(providerLogos))
	for key := range providerInitials {
		keys = append(keys, key)
	}
	for key := range providerLogos {
		if _, ok := providerInitials[key]; !ok {
			keys = append(keys, key)
		}
	}
	slices.Sort(keys)
	return keys
}()

// KnownProviders returns every provider identifier with a dedicated initial or logo.
func KnownProviders() []string {
	return slices.Clone(knownProviders)
}
