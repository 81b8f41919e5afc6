package embedding

import (
	"fmt"
	"os"

	"github.com/openai/openai-go"
)

// Client holds the OpenAI connection the embedders share.
type Client struct {
	client *openai.Client
}

// NewClient builds the OpenAI client, failing fast when OPENAI_API_KEY is
// absent so misconfiguration surfaces at startup rather than on the first
// embed call.
func NewClient() (*Client, error) {
	apiKey := os.Getenv("OPENAI_API_KEY")
	if apiKey == "" {
		return nil, fmt.Errorf("OPENAI_API_KEY environment variable not set")
	}

	// openai-go picks the key up from the environment itself.
	client := openai.NewClient()

	return &Client{client: &client}, nil
}
