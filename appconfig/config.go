package appconfig

import (
	"github.com/SaiNageswarS/go-api-boot/config"
)

type AppConfig struct {
	config.BootConfig `ini:",extends"`

	ReaderBaseURL string `env:"READER-BASE-URL" ini:"reader_base_url"`
	LLMBaseURL    string `env:"LLM-BASE-URL" ini:"llm_base_url"`
	LLMModel      string `env:"LLM-MODEL" ini:"llm_model"`
	MongoURI      string `env:"MONGO-URI" ini:"mongo_uri"`
}
